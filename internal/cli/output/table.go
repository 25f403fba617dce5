package output

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
)

// NewTable returns an empty table writer for command output.
func NewTable() table.Writer {
	return table.NewWriter()
}

// RenderTable prints a populated table in the renderer's mode: a boxed
// table in text mode, a markdown table in markdown mode, nothing in
// JSON mode (the command emits the payload itself).
func (r *Renderer) RenderTable(t table.Writer) {
	switch r.EffectiveMode() {
	case ModeJSON:
	case ModeText:
		t.SetStyle(table.StyleRounded)
		fmt.Fprintln(r.out, t.Render())
	default:
		fmt.Fprintln(r.out, t.RenderMarkdown())
	}
}
