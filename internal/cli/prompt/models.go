package prompt

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	labelStyle  = lipgloss.NewStyle().Bold(true)
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

type inputModel struct {
	label    string
	input    textinput.Model
	done     bool
	canceled bool
}

func newInputModel(label, placeholder, defaultValue string) inputModel {
	ti := textinput.New()
	ti.Placeholder = placeholder
	if placeholder == "" {
		ti.Placeholder = defaultValue
	}
	ti.CharLimit = 120
	ti.Width = 48
	ti.Focus()
	return inputModel{label: label, input: ti}
}

func newPasswordModel(label string) inputModel {
	ti := textinput.New()
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '*'
	ti.CharLimit = 200
	ti.Width = 48
	ti.Focus()
	return inputModel{label: label, input: ti}
}

func (m inputModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m inputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			m.done = true
			return m, tea.Quit
		case tea.KeyCtrlC, tea.KeyEsc:
			m.canceled = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m inputModel) View() string {
	if m.done || m.canceled {
		return ""
	}
	return fmt.Sprintf("%s\n%s\n", labelStyle.Render(m.label), m.input.View())
}

type selectModel struct {
	label    string
	options  []string
	cursor   int
	done     bool
	canceled bool
}

func (m selectModel) Init() tea.Cmd {
	return nil
}

func (m selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.options)-1 {
			m.cursor++
		}
	case "enter":
		m.done = true
		return m, tea.Quit
	case "ctrl+c", "esc":
		m.canceled = true
		return m, tea.Quit
	}
	return m, nil
}

func (m selectModel) View() string {
	if m.done || m.canceled {
		return ""
	}
	var b strings.Builder
	b.WriteString(labelStyle.Render(m.label))
	b.WriteString("\n")
	for i, opt := range m.options {
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("> " + opt))
		} else {
			b.WriteString("  " + opt)
		}
		b.WriteString("\n")
	}
	b.WriteString(hintStyle.Render("(arrow keys to move, enter to select)"))
	b.WriteString("\n")
	return b.String()
}

type confirmModel struct {
	label    string
	value    bool
	done     bool
	canceled bool
}

func (m confirmModel) Init() tea.Cmd {
	return nil
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "y", "Y":
		m.value = true
		m.done = true
		return m, tea.Quit
	case "n", "N":
		m.value = false
		m.done = true
		return m, tea.Quit
	case "enter":
		m.done = true
		return m, tea.Quit
	case "ctrl+c", "esc":
		m.canceled = true
		return m, tea.Quit
	}
	return m, nil
}

func (m confirmModel) View() string {
	if m.done || m.canceled {
		return ""
	}
	hint := "[y/N]"
	if m.value {
		hint = "[Y/n]"
	}
	return fmt.Sprintf("%s %s\n", labelStyle.Render(m.label), hintStyle.Render(hint))
}
