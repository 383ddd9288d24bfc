package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/basalt-tpl/smarty/internal/data"
	"github.com/basalt-tpl/smarty/internal/value"
)

func TestNewRendersInitialSourceImmediately(t *testing.T) {
	d := data.New().Assign("name", value.NewString("Ada"))
	m := New("hello {$name}", d, "html")
	if m.renderErr != nil {
		t.Fatalf("unexpected render error: %v", m.renderErr)
	}
	if !strings.Contains(m.output.View(), "hello Ada") {
		t.Fatalf("output pane missing rendered text: %q", m.output.View())
	}
}

func TestRerenderSurfacesParseErrors(t *testing.T) {
	m := New("{if $a", data.New(), "html")
	if m.renderErr == nil {
		t.Fatal("expected a parse error for an unterminated if")
	}
}

func TestWindowSizeMsgRecordsSize(t *testing.T) {
	m := New("static", data.New(), "html")
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	mm := updated.(Model)
	if mm.width != 100 || mm.height != 40 {
		t.Fatalf("size not recorded: %+v", mm)
	}
}

func TestQuitKeySetsQuitting(t *testing.T) {
	m := New("static", data.New(), "html")
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	mm := updated.(Model)
	if !mm.quitting {
		t.Fatal("expected quitting to be set")
	}
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
}
