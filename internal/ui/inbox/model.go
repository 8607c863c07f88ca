package inbox

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/teamdeck/internal/feed"
	"github.com/nhle/teamdeck/internal/keys"
	"github.com/nhle/teamdeck/internal/theme"
)

// FeedStateMsg carries a new aggregated feed state into the view.
type FeedStateMsg struct {
	State feed.State
}

// ActionDoneMsg is sent when a coordinator action finishes.
type ActionDoneMsg struct {
	Err error
}

// Model is the unified inbox view: notifications and pending
// invitations in one time-ordered list, with actions routed through
// the feed engine.
type Model struct {
	list      list.Model
	engine    *feed.Engine
	keys      *keys.KeyMap
	state     feed.State
	actionErr error
	width     int
	height    int
}

// New creates a new inbox model.
func New(engine *feed.Engine, k *keys.KeyMap, width, height int) Model {
	delegate := ItemDelegate{busy: engine.Busy}
	l := list.New([]list.Item{}, delegate, width, height-2)
	l.Title = "Inbox"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:   l,
		engine: engine,
		keys:   k,
		state:  feed.State{Loading: true},
		width:  width,
		height: height,
	}
}

// Init is a no-op; the app layer feeds states in via FeedStateMsg.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the inbox view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case FeedStateMsg:
		m.state = msg.State
		items := make([]list.Item, len(msg.State.Items))
		for i, it := range msg.State.Items {
			items[i] = FeedItem{Item: it}
		}
		cmd := m.list.SetItems(items)
		return m, cmd

	case ActionDoneMsg:
		m.actionErr = msg.Err
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleKeys processes key input for the inbox.
func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.MarkRead):
		item, ok := m.selected()
		if !ok || item.Item.IsInvite() || item.Item.Read {
			return m, nil
		}
		engine := m.engine
		target := item.Item
		return m, func() tea.Msg {
			return ActionDoneMsg{
				Err: engine.MarkRead(context.Background(), target),
			}
		}

	case key.Matches(msg, m.keys.MarkAllRead):
		engine := m.engine
		return m, func() tea.Msg {
			return ActionDoneMsg{
				Err: engine.MarkAllRead(context.Background()),
			}
		}

	case key.Matches(msg, m.keys.Accept):
		item, ok := m.selected()
		if !ok || !item.Item.IsInvite() {
			return m, nil
		}
		engine := m.engine
		id := item.Item.InvitationID
		return m, func() tea.Msg {
			return ActionDoneMsg{
				Err: engine.AcceptInvitation(context.Background(), id),
			}
		}

	case key.Matches(msg, m.keys.Decline):
		item, ok := m.selected()
		if !ok || !item.Item.IsInvite() {
			return m, nil
		}
		engine := m.engine
		id := item.Item.InvitationID
		return m, func() tea.Msg {
			return ActionDoneMsg{
				Err: engine.DeclineInvitation(context.Background(), id),
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// selected returns the currently focused feed item.
func (m Model) selected() (FeedItem, bool) {
	item, ok := m.list.SelectedItem().(FeedItem)
	return item, ok
}

// View renders the inbox view.
func (m Model) View() string {
	if m.state.Loading {
		return m.centered("Loading notifications…")
	}

	var banner string
	switch {
	case m.state.Err != nil:
		banner = theme.ErrorStyle.Render(
			"feed error: " + m.state.Err.Error(),
		)
	case m.actionErr != nil:
		banner = theme.ErrorStyle.Render(
			"action failed: " + m.actionErr.Error(),
		)
	}

	if m.state.Count() == 0 {
		body := m.centered("All caught up — no notifications.")
		if banner == "" {
			return body
		}
		return lipgloss.JoinVertical(lipgloss.Left, banner, body)
	}

	if banner == "" {
		return m.list.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, banner, m.list.View())
}

// centered renders a single message centered in the view area.
func (m Model) centered(text string) string {
	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray).
		Render(text)
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}
