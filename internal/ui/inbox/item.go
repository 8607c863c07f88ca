package inbox

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/teamdeck/internal/model"
	"github.com/nhle/teamdeck/internal/theme"
)

// FeedItem wraps a model.UnifiedNotification so it can be used in a
// bubbles/list.
type FeedItem struct {
	Item model.UnifiedNotification
}

// FilterValue returns the string used for fuzzy filtering.
func (i FeedItem) FilterValue() string { return i.Item.Message }

// Title returns the item message for the list.
func (i FeedItem) Title() string { return i.Item.Message }

// Description returns a short summary line for the list.
func (i FeedItem) Description() string {
	return fmt.Sprintf(
		"%s | %s", i.Item.ProjectName, relativeTime(i.Item.CreatedAt),
	)
}

// busyFunc reports whether an action is in flight for a unified item id.
type busyFunc func(itemID string) bool

// ItemDelegate implements list.ItemDelegate for rendering feed items.
type ItemDelegate struct {
	// busy is shared with the inbox Model so in-flight action markers
	// render without rebuilding the item slice.
	busy busyFunc
}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single feed item line.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	fi, ok := item.(FeedItem)
	if !ok {
		return
	}

	it := fi.Item
	isSelected := index == m.Index()

	var prefix string
	if it.Read {
		prefix = " "
	} else {
		prefix = "●"
	}

	kindBadge := theme.KindStyle(it.Kind).Render(theme.KindLabel(it.Kind))

	timeStr := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(relativeTime(it.CreatedAt))

	busyStr := ""
	if d.busy != nil && d.busy(it.ID) {
		busyStr = theme.BusyStyle.Render(" …")
	}

	hint := ""
	if it.IsInvite() && isSelected {
		hint = theme.HelpStyle.Render("  a accept · d decline")
	}

	line := fmt.Sprintf(
		"%s %s %s%s  %s%s",
		prefix, kindBadge, it.Message, busyStr, timeStr, hint,
	)

	switch {
	case isSelected:
		line = theme.SelectedItemStyle.Render(line)
	case it.Read:
		line = theme.ReadItemStyle.Render(line)
	default:
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// relativeTime returns a human-friendly relative time string.
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		mins := int(d.Minutes())
		if mins == 1 {
			return "1m ago"
		}
		return fmt.Sprintf("%dm ago", mins)
	case d < 24*time.Hour:
		hrs := int(d.Hours())
		if hrs == 1 {
			return "1h ago"
		}
		return fmt.Sprintf("%dh ago", hrs)
	case d < 7*24*time.Hour:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1d ago"
		}
		return fmt.Sprintf("%dd ago", days)
	default:
		weeks := int(d.Hours() / 24 / 7)
		if weeks == 1 {
			return "1w ago"
		}
		return fmt.Sprintf("%dw ago", weeks)
	}
}
