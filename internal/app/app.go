package app

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/teamdeck/internal/feed"
	"github.com/nhle/teamdeck/internal/identity"
	"github.com/nhle/teamdeck/internal/keys"
	"github.com/nhle/teamdeck/internal/model"
	"github.com/nhle/teamdeck/internal/store"
	"github.com/nhle/teamdeck/internal/ui"
	"github.com/nhle/teamdeck/internal/ui/inbox"
	loginview "github.com/nhle/teamdeck/internal/ui/login"
)

// userChangedMsg carries an identity transition to the UI. A nil user
// means logged out.
type userChangedMsg struct {
	user *model.User
}

// loginDoneMsg is sent when a sign-in attempt finishes.
type loginDoneMsg struct {
	err error
}

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewLogin ViewState = iota
	ViewInbox
)

// Model is the root Bubble Tea model that manages view routing, layout,
// and the session lifecycle.
type Model struct {
	currentView ViewState
	layout      ui.Layout
	store       *store.SQLiteStore
	identity    *identity.Provider
	engine      *feed.Engine
	keys        *keys.KeyMap
	inboxView   inbox.Model
	loginView   loginview.Model
	users       <-chan *model.User
	user        *model.User
	loginErr    error
	ready       bool
}

// New creates a new root application model. The engine is expected to
// already be running; the model only consumes its state channel.
func New(s *store.SQLiteStore, idp *identity.Provider, engine *feed.Engine) Model {
	k := keys.DefaultKeyMap()

	return Model{
		currentView: ViewLogin,
		store:       s,
		identity:    idp,
		engine:      engine,
		keys:        k,
		inboxView:   inbox.New(engine, k, 80, 24),
		loginView:   loginview.New(80, 24),
		users:       idp.Watch(),
	}
}

// Init subscribes to identity transitions and engine states.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.loginView.Init(),
		m.waitForUser(),
		m.waitForState(),
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.inboxView.SetSize(contentWidth, contentHeight)
		m.loginView.SetSize(contentWidth, contentHeight)
		// Forward to the active view so huh forms can lay themselves out.
		return m.updateActiveView(msg)

	case userChangedMsg:
		m.user = msg.user
		if msg.user == nil {
			m.currentView = ViewLogin
			m.loginView = loginview.New(
				m.layout.ContentWidth(), m.layout.ContentHeight(),
			)
			return m, tea.Batch(m.loginView.Init(), m.waitForUser())
		}
		m.currentView = ViewInbox
		return m, m.waitForUser()

	case inbox.FeedStateMsg:
		var cmd tea.Cmd
		m.inboxView, cmd = m.inboxView.Update(msg)
		return m, tea.Batch(cmd, m.waitForState())

	case loginview.CompletedMsg:
		return m, m.login(msg.Email, msg.Name)

	case loginview.AbortedMsg:
		return m, tea.Quit

	case loginDoneMsg:
		m.loginErr = msg.err
		if msg.err != nil {
			// Stay on the login view; the error renders in the status bar.
			m.loginView = loginview.New(
				m.layout.ContentWidth(), m.layout.ContentHeight(),
			)
			return m, m.loginView.Init()
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if m.currentView == ViewInbox {
				return m, tea.Quit
			}

		case "L":
			if m.currentView == ViewInbox {
				m.identity.Logout()
				return m, nil
			}
		}
	}

	return m.updateActiveView(msg)
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewLogin:
		m.loginView, cmd = m.loginView.Update(msg)
	case ViewInbox:
		m.inboxView, cmd = m.inboxView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	title := "teamdeck"
	if m.user != nil {
		title = fmt.Sprintf("teamdeck — %s", m.user.Name)
	}
	header := m.layout.RenderHeader(title, m.headerStatus())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewLogin:
		return m.loginView.View()
	case ViewInbox:
		return m.inboxView.View()
	default:
		return ""
	}
}

// headerStatus summarizes the feed state for the header's right side.
func (m Model) headerStatus() string {
	if m.user == nil {
		return "signed out"
	}

	state := m.engine.Current()
	switch {
	case state.Loading:
		return "loading"
	case state.Err != nil:
		return "⚠ feed error"
	default:
		return fmt.Sprintf("%d items", state.Count())
	}
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	if m.loginErr != nil && m.currentView == ViewLogin {
		return fmt.Sprintf("sign-in failed: %v", m.loginErr)
	}

	switch m.currentView {
	case ViewLogin:
		return "enter submit | esc quit"
	default:
		return "enter mark read | A mark all | a accept | d decline | L log out | q quit"
	}
}

// waitForUser returns a tea.Cmd that waits for the next identity
// transition.
func (m Model) waitForUser() tea.Cmd {
	users := m.users
	return func() tea.Msg {
		user, ok := <-users
		if !ok {
			return nil
		}
		return userChangedMsg{user: user}
	}
}

// waitForState returns a tea.Cmd that waits for the next aggregated
// feed state from the engine.
func (m Model) waitForState() tea.Cmd {
	updates := m.engine.Updates()
	return func() tea.Msg {
		state, ok := <-updates
		if !ok {
			return nil
		}
		return inbox.FeedStateMsg{State: state}
	}
}

// login returns a tea.Cmd that upserts the user record and opens a
// session for it.
func (m Model) login(email, name string) tea.Cmd {
	idp := m.identity
	return func() tea.Msg {
		_, err := idp.Login(context.Background(), model.User{
			Email: email,
			Name:  name,
		})
		return loginDoneMsg{err: err}
	}
}
