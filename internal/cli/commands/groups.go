package commands

import "github.com/spf13/cobra"

// Help and reference-doc sections. Commands without a group (version,
// completion) are listed after these.
const (
	GroupRead        = "read"
	GroupMutate      = "mutate"
	GroupInteractive = "interactive"
)

// AnnotationExit is the cobra annotation describing exit statuses other
// than 0 on success and 1 on error.
const AnnotationExit = "exit"

// Groups returns the command groups in display order.
func Groups() []*cobra.Group {
	return []*cobra.Group{
		{ID: GroupRead, Title: "Reading the tree:"},
		{ID: GroupMutate, Title: "Changing the tree:"},
		{ID: GroupInteractive, Title: "Interactive:"},
	}
}
