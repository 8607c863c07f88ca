// Package login renders the first-run sign-in form. The account is
// local: signing in upserts a user record and stores the session in
// the system keyring, there is no remote authentication.
package login

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/teamdeck/internal/theme"
)

// CompletedMsg is sent when the sign-in form is submitted.
type CompletedMsg struct {
	Email string
	Name  string
}

// AbortedMsg is sent when the sign-in form is dismissed.
type AbortedMsg struct{}

// Model is the sign-in form view.
type Model struct {
	form   *huh.Form
	email  string
	name   string
	width  int
	height int
}

// New creates a new login model.
func New(width, height int) Model {
	m := Model{
		width:  width,
		height: height,
	}
	m.form = m.buildForm()
	return m
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Description("The address project invitations are sent to").
				Placeholder("you@example.com").
				Value(&m.email).
				Validate(validateEmail),
			huh.NewInput().
				Title("Display name").
				Description("Shown to other project members").
				Placeholder("Ada Lovelace").
				Value(&m.name).
				Validate(validateRequired("Display name")),
		),
	).WithWidth(min(m.width-4, 60))
}

// Init starts the form.
func (m Model) Init() tea.Cmd {
	return m.form.Init()
}

// Update handles messages for the login view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		email := strings.TrimSpace(strings.ToLower(m.email))
		name := strings.TrimSpace(m.name)
		return m, func() tea.Msg {
			return CompletedMsg{Email: email, Name: name}
		}
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return AbortedMsg{} }
	}

	return m, cmd
}

// View renders the login view.
func (m Model) View() string {
	header := theme.HeaderStyle.Render("teamdeck — sign in")
	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		"",
		m.form.View(),
	)
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// validateRequired returns a validator that rejects blank input.
func validateRequired(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

// validateEmail rejects input without an @ between non-empty parts.
func validateEmail(s string) error {
	s = strings.TrimSpace(s)
	at := strings.Index(s, "@")
	if at < 1 || at == len(s)-1 {
		return fmt.Errorf("enter a valid email address")
	}
	return nil
}
