// Package prompt implements the interactive inputs used by the init
// wizards. Prompts only run when the caller has verified stdin is a
// terminal; fully-flagged invocations never reach this package.
package prompt

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

// ErrCanceled is returned when the user aborts a prompt with Ctrl+C or Esc.
var ErrCanceled = errors.New("prompt canceled")

// Prompter runs interactive prompts against a pair of streams.
type Prompter struct {
	in  io.Reader
	out io.Writer
}

// New creates a Prompter bound to the given streams.
func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: in, out: out}
}

// NewStdio creates a Prompter bound to the process stdin/stdout.
func NewStdio() *Prompter {
	return New(os.Stdin, os.Stdout)
}

// IsInteractive reports whether stdin and stdout are both terminals.
// Wizards fall back to flag-only behavior when this is false.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// Input asks for a single line of text. An empty submission returns
// defaultValue.
func (p *Prompter) Input(label, placeholder, defaultValue string) (string, error) {
	m := newInputModel(label, placeholder, defaultValue)
	final, err := p.run(m)
	if err != nil {
		return "", err
	}
	res := final.(inputModel)
	if res.canceled {
		return "", ErrCanceled
	}
	value := strings.TrimSpace(res.input.Value())
	if value == "" {
		return defaultValue, nil
	}
	return value, nil
}

// Password asks for a secret. Typed characters are echoed as asterisks
// and there is no default.
func (p *Prompter) Password(label string) (string, error) {
	m := newPasswordModel(label)
	final, err := p.run(m)
	if err != nil {
		return "", err
	}
	res := final.(inputModel)
	if res.canceled {
		return "", ErrCanceled
	}
	return strings.TrimSpace(res.input.Value()), nil
}

// Select asks the user to pick one of options with the arrow keys.
// defaultIndex positions the initial cursor.
func (p *Prompter) Select(label string, options []string, defaultIndex int) (string, error) {
	if len(options) == 0 {
		return "", errors.New("no options to select from")
	}
	if defaultIndex < 0 || defaultIndex >= len(options) {
		defaultIndex = 0
	}
	m := selectModel{label: label, options: options, cursor: defaultIndex}
	final, err := p.run(m)
	if err != nil {
		return "", err
	}
	res := final.(selectModel)
	if res.canceled {
		return "", ErrCanceled
	}
	return res.options[res.cursor], nil
}

// Confirm asks a yes/no question. Enter accepts the default.
func (p *Prompter) Confirm(label string, defaultYes bool) (bool, error) {
	m := confirmModel{label: label, value: defaultYes}
	final, err := p.run(m)
	if err != nil {
		return false, err
	}
	res := final.(confirmModel)
	if res.canceled {
		return false, ErrCanceled
	}
	return res.value, nil
}

func (p *Prompter) run(m tea.Model) (tea.Model, error) {
	prog := tea.NewProgram(m, tea.WithInput(p.in), tea.WithOutput(p.out))
	final, err := prog.Run()
	if err != nil {
		return nil, fmt.Errorf("prompt failed: %w", err)
	}
	return final, nil
}
