// Package output renders command results in one of three modes: styled
// text for terminals, plain markdown for pipes, and JSON for scripts.
// Auto mode picks text on a TTY and markdown otherwise, so redirected
// output is always clean of escape codes.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// OutputMode selects how results are rendered.
type OutputMode string

const (
	ModeAuto     OutputMode = "auto"
	ModeText     OutputMode = "text"
	ModeMarkdown OutputMode = "markdown"
	ModeJSON     OutputMode = "json"
)

// Mode normalizes a user-supplied mode string; anything unrecognized
// falls back to auto.
func Mode(s string) OutputMode {
	switch OutputMode(s) {
	case ModeText, ModeMarkdown, ModeJSON:
		return OutputMode(s)
	}
	return ModeAuto
}

// Renderer writes command output in the selected mode.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   OutputMode
	isTTY  bool
	styles *Styles
}

// NewRenderer builds a renderer, detecting whether out is a terminal.
func NewRenderer(out, errOut io.Writer, mode OutputMode) *Renderer {
	isTTY := false
	if f, ok := out.(*os.File); ok {
		isTTY = term.IsTerminal(int(f.Fd()))
	}
	return NewRendererWithTTY(out, errOut, isTTY, mode)
}

// NewRendererWithTTY builds a renderer with an explicit TTY state,
// mainly for tests.
func NewRendererWithTTY(out, errOut io.Writer, isTTY bool, mode OutputMode) *Renderer {
	r := &Renderer{
		out:    out,
		errOut: errOut,
		mode:   mode,
		isTTY:  isTTY,
	}
	styled := isTTY && r.EffectiveMode() == ModeText &&
		termenv.NewOutput(out).EnvColorProfile() != termenv.Ascii
	r.styles = newStyles(styled)
	return r
}

// EffectiveMode resolves auto to text on a terminal and markdown
// elsewhere.
func (r *Renderer) EffectiveMode() OutputMode {
	if r.mode != ModeAuto && r.mode != "" {
		return r.mode
	}
	if r.isTTY {
		return ModeText
	}
	return ModeMarkdown
}

// Styles returns the active style set. Styles render as plain text when
// the output is not a color terminal.
func (r *Renderer) Styles() *Styles {
	return r.styles
}

// Out returns the destination writer.
func (r *Renderer) Out() io.Writer {
	return r.out
}

// Println writes a line of human output. Suppressed in JSON mode so the
// payload stays parseable.
func (r *Renderer) Println(a ...any) {
	if r.EffectiveMode() == ModeJSON {
		return
	}
	fmt.Fprintln(r.out, a...)
}

// Printf writes formatted human output. Suppressed in JSON mode.
func (r *Renderer) Printf(format string, a ...any) {
	if r.EffectiveMode() == ModeJSON {
		return
	}
	fmt.Fprintf(r.out, format, a...)
}

// Header writes a section heading: styled in text mode, a markdown
// heading otherwise.
func (r *Renderer) Header(level int, text string) {
	switch r.EffectiveMode() {
	case ModeJSON:
	case ModeText:
		style := r.styles.Header2
		if level <= 1 {
			style = r.styles.Header1
		}
		fmt.Fprintln(r.out, style.Render(text))
	default:
		fmt.Fprintln(r.out, FormatHeader(level, text))
	}
}

// Success reports a completed operation.
func (r *Renderer) Success(msg string) {
	if r.EffectiveMode() == ModeJSON {
		return
	}
	fmt.Fprintln(r.out, r.styles.Success.Render("✓")+" "+msg)
}

// Warning reports a non-fatal problem on the error stream.
func (r *Renderer) Warning(msg string) {
	if r.EffectiveMode() == ModeJSON {
		fmt.Fprintln(r.errOut, "Warning: "+msg)
		return
	}
	fmt.Fprintln(r.errOut, r.styles.Warning.Render("!")+" "+msg)
}

// Error reports a failure on the error stream. Not suppressed in JSON
// mode; errors always surface.
func (r *Renderer) Error(msg string) {
	if r.EffectiveMode() == ModeJSON {
		fmt.Fprintln(r.errOut, "Error: "+msg)
		return
	}
	fmt.Fprintln(r.errOut, r.styles.Error.Render("✗")+" "+msg)
}

// StatusLine writes one item of a progress list, e.g. a created file.
// Status is one of success, error, warning or skip.
func (r *Renderer) StatusLine(name, status, detail string) {
	if r.EffectiveMode() == ModeJSON {
		return
	}

	var icon string
	switch status {
	case "success":
		icon = r.styles.Success.Render("✓")
	case "error":
		icon = r.styles.Error.Render("✗")
	case "warning":
		icon = r.styles.Warning.Render("!")
	default:
		icon = r.styles.Muted.Render("-")
	}

	line := icon + " " + name
	if detail != "" {
		line += " " + r.styles.Muted.Render("("+detail+")")
	}
	if r.EffectiveMode() == ModeText {
		fmt.Fprintln(r.out, "  "+line)
	} else {
		fmt.Fprintln(r.out, "- "+line)
	}
}

// JSON writes the value as indented JSON, regardless of mode.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
