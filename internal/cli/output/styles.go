package output

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles used by text output.
type Styles struct {
	Header    lipgloss.Style
	Subheader lipgloss.Style
	Bold      lipgloss.Style
	Muted     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Info      lipgloss.Style
	ID        lipgloss.Style
	Container lipgloss.Style
}

// NewStyles builds the styles on a lipgloss renderer so colour output
// follows the renderer's terminal profile.
func NewStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Header:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).MarginBottom(1),
		Subheader: r.NewStyle().Bold(true).Foreground(lipgloss.Color("14")),
		Bold:      r.NewStyle().Bold(true),
		Muted:     r.NewStyle().Foreground(lipgloss.Color("8")),
		Success:   r.NewStyle().Foreground(lipgloss.Color("10")),
		Warning:   r.NewStyle().Foreground(lipgloss.Color("11")),
		Error:     r.NewStyle().Foreground(lipgloss.Color("9")),
		Info:      r.NewStyle().Foreground(lipgloss.Color("12")),
		ID:        r.NewStyle().Foreground(lipgloss.Color("13")),
		Container: r.NewStyle().Bold(true),
	}
}
