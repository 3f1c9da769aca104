package grid

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/a-h/templ"
	"github.com/leapstack-labs/treegrid/pkg/core"
)

const datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0/bundles/datastar.js"

// RowsData is what the rows fragment renders.
type RowsData struct {
	Rows      []core.Row
	Page      int
	Size      int
	PageCount int
}

// Page renders the full grid page.
func Page(title string, data RowsData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString("<!doctype html>\n<html lang=\"en\"><head><meta charset=\"utf-8\">")
		fmt.Fprintf(&b, "<title>%s</title>", templ.EscapeString(title))
		fmt.Fprintf(&b, "<script type=\"module\" src=\"%s\"></script>", datastarScript)
		b.WriteString("</head><body>")
		b.WriteString(`<main data-signals="{dragged: '', target: '', dropError: '', lastMove: null, reloads: 0}"`)
		b.WriteString(` data-init="@get('/api/events')"`)
		b.WriteString(` data-effect="$lastMove || $reloads; @get('/api/rows')">`)
		fmt.Fprintf(&b, "<h1>%s</h1>", templ.EscapeString(title))
		b.WriteString(`<p class="error" data-show="$dropError" data-text="$dropError"></p>`)
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
		if err := RowsFragment(data).Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, "</main></body></html>")
		return err
	})
}

// RowsFragment renders the visible rows as the #rows element. Leaves are
// draggable; containers accept drops and toggle on click.
func RowsFragment(data RowsData) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<div id="rows" role="tree">`)
		for _, row := range data.Rows {
			writeRow(&b, row)
		}
		b.WriteString(`<nav class="pager">`)
		if data.Page > 0 {
			fmt.Fprintf(&b, `<button data-on:click="@get('/api/rows?page=%d&amp;size=%d')">Previous</button>`, data.Page-1, data.Size)
		}
		fmt.Fprintf(&b, `<span>Page %d of %d</span>`, data.Page+1, max(data.PageCount, 1))
		if data.Page+1 < data.PageCount {
			fmt.Fprintf(&b, `<button data-on:click="@get('/api/rows?page=%d&amp;size=%d')">Next</button>`, data.Page+1, data.Size)
		}
		b.WriteString(`</nav></div>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func writeRow(b *strings.Builder, row core.Row) {
	rec := row.Record
	id := jsString(string(rec.ID))

	fmt.Fprintf(b, `<div class="row" role="treeitem" id="row-%s" style="padding-left: %dem"`,
		templ.EscapeString(string(rec.ID)), row.Depth*2)
	if rec.IsContainer {
		fmt.Fprintf(b, ` aria-expanded="%t"`, row.Expanded)
		b.WriteString(` data-on:dragover__prevent=""`)
		fmt.Fprintf(b, ` data-on:drop__prevent="$target = %s; @post('/api/drop')"`, id)
	} else {
		b.WriteString(` draggable="true"`)
		fmt.Fprintf(b, ` data-on:dragstart="$dragged = %s"`, id)
	}
	b.WriteString(">")

	if rec.IsContainer {
		method := "post"
		marker := "&#9656;"
		if row.Expanded {
			method = "delete"
			marker = "&#9662;"
		}
		fmt.Fprintf(b, `<button data-on:click="@%s('/api/expanded/%s')">%s</button> `,
			method, templ.EscapeString(url.PathEscape(string(rec.ID))), marker)
	}
	b.WriteString(templ.EscapeString(rec.Label()))
	if rec.IsContainer {
		fmt.Fprintf(b, ` <span class="count">(%d)</span>`, row.ChildCount)
	}
	b.WriteString("</div>")
}

// jsString quotes s for use inside a Datastar expression attribute.
func jsString(s string) string {
	q, _ := json.Marshal(s)
	return templ.EscapeString(string(q))
}
