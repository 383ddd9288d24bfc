// Package ui implements the `smarty repl` terminal UI: a two-pane
// editor/preview loop built on bubbletea, adapted from the teacher's
// project-creation wizard's use of the same Elm-architecture model.
package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/basalt-tpl/smarty/internal/data"
	"github.com/basalt-tpl/smarty/internal/template"
)

var (
	primaryColor = lipgloss.Color("#3b82f6")
	errorColor   = lipgloss.Color("#ef4444")
	mutedColor   = lipgloss.Color("#94a3b8")

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(errorColor)
	helpStyle  = lipgloss.NewStyle().Foreground(mutedColor)
)

// Model is the REPL's Elm-architecture state: a template source
// editor on the left, its rendered output (or the last error) on the
// right, re-rendered against a fixed Data environment on every
// keystroke.
type Model struct {
	width, height int

	editor textarea.Model
	output viewport.Model

	data     *data.Data
	encoding string

	renderErr error
	quitting  bool
}

// New builds a REPL model seeded with initialSource and rendering
// against d with the given output escaper.
func New(initialSource string, d *data.Data, encoding string) Model {
	ta := textarea.New()
	ta.Placeholder = "{$name}, welcome to {$place}!"
	ta.SetValue(initialSource)
	ta.Focus()
	ta.ShowLineNumbers = true

	vp := viewport.New(40, 10)

	m := Model{
		editor:   ta,
		output:   vp,
		data:     d,
		encoding: encoding,
	}
	m.rerender()
	return m
}

func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		paneWidth := (msg.Width - 8) / 2
		paneHeight := msg.Height - 6
		m.editor.SetWidth(paneWidth)
		m.editor.SetHeight(paneHeight)
		m.output.Width = paneWidth
		m.output.Height = paneHeight
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	m.rerender()
	return m, cmd
}

func (m *Model) rerender() {
	tpl, err := template.Parse("repl", m.editor.Value())
	if err != nil {
		m.renderErr = err
		return
	}
	out, err := tpl.Process(m.data, m.encoding)
	if err != nil {
		m.renderErr = err
		return
	}
	m.renderErr = nil
	m.output.SetContent(out)
}

func (m Model) View() string {
	if m.quitting {
		return "\n"
	}
	if m.width == 0 {
		return "initializing...\n"
	}

	left := paneStyle.Render(titleStyle.Render("template") + "\n" + m.editor.View())

	var rightBody string
	if m.renderErr != nil {
		rightBody = errorStyle.Render(m.renderErr.Error())
	} else {
		rightBody = m.output.View()
	}
	right := paneStyle.Render(titleStyle.Render("output") + "\n" + rightBody)

	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	help := helpStyle.Render("esc/ctrl+c to quit — output updates as you type")
	return fmt.Sprintf("%s\n%s", body, help)
}

// Run starts the bubbletea program and blocks until the user quits.
func Run(initialSource string, d *data.Data, encoding string) error {
	p := tea.NewProgram(New(initialSource, d, encoding), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
