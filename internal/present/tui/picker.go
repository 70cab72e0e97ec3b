// Package tui holds the interactive terminal views.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mithrel/notegraf-cli/internal/session"
	"github.com/mithrel/notegraf-cli/internal/util"
)

// ErrCancelled is returned when the user leaves the picker without choosing.
var ErrCancelled = errors.New("cancelled")

// Choice is the picker result: an existing session key, or New.
type Choice struct {
	Key string
	New bool
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	newRowStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

type pickerModel struct {
	heading  string
	sessions []session.Session
	now      time.Time
	cursor   int
	chosen   *Choice
	quit     bool
}

func newPicker(heading string, ss []session.Session, now time.Time) pickerModel {
	return pickerModel{heading: heading, sessions: ss, now: now}
}

// rows: one per session, then "New session".
func (m pickerModel) rows() int { return len(m.sessions) + 1 }

func (m pickerModel) Init() tea.Cmd { return nil }

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "esc", "ctrl+c":
		m.quit = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < m.rows()-1 {
			m.cursor++
		}
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		m.cursor = m.rows() - 1
	case "n":
		m.chosen = &Choice{New: true}
		return m, tea.Quit
	case "enter":
		if m.cursor == len(m.sessions) {
			m.chosen = &Choice{New: true}
		} else {
			m.chosen = &Choice{Key: m.sessions[m.cursor].Key}
		}
		return m, tea.Quit
	}
	return m, nil
}

func (m pickerModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.heading))
	b.WriteString("\n")
	for i, s := range m.sessions {
		title := s.Label
		if title == "" {
			title = "(untitled)"
		}
		line := fmt.Sprintf("%s  %s  %s", s.Created.Local().Format("2006-01-02 15:04:05"), title,
			dimStyle.Render("("+util.Ago(s.Created, m.now)+")"))
		b.WriteString(m.row(i, line))
	}
	b.WriteString(m.row(len(m.sessions), newRowStyle.Render("+ New session")))
	b.WriteString(dimStyle.Render("\n↑/↓ move • enter open • n new • q quit"))
	return b.String()
}

func (m pickerModel) row(i int, line string) string {
	if i == m.cursor {
		return selectedStyle.Render("> "+line) + "\n"
	}
	return "  " + line + "\n"
}

// PickSession lets the user resume one of ss or start a new session.
func PickSession(ctx context.Context, in io.Reader, out io.Writer, heading string, ss []session.Session) (Choice, error) {
	p := tea.NewProgram(newPicker(heading, ss, time.Now()),
		tea.WithContext(ctx), tea.WithInput(in), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return Choice{}, err
	}
	m, ok := final.(pickerModel)
	if !ok || m.chosen == nil {
		return Choice{}, ErrCancelled
	}
	return *m.chosen, nil
}
