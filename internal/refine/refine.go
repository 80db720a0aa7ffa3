// Package refine applies the predicates storage cannot evaluate to a
// fetched page. It never touches storage.
package refine

import (
	"strings"
	"time"

	"github.com/rebeliceyang/lazycrm/internal/models"
)

// DefaultRecentWindow separates recent from older conversations
const DefaultRecentWindow = 24 * time.Hour

// Residual holds the predicates that run client-side
type Residual struct {
	Search       string
	Unread       models.UnreadFilter
	LastMessage  models.WindowFilter
	RecentWindow time.Duration
}

// FromState extracts the residual predicates of a filter state
func FromState(state models.FilterState, window time.Duration) Residual {
	return Residual{
		Search:       state.Search,
		Unread:       state.Unread,
		LastMessage:  state.LastMessage,
		RecentWindow: window,
	}
}

// IsZero reports whether the residual filters nothing
func (r Residual) IsZero() bool {
	return strings.TrimSpace(r.Search) == "" &&
		(r.Unread == "" || r.Unread == models.UnreadAll) &&
		(r.LastMessage == "" || r.LastMessage == models.WindowAll)
}

// Refine filters page in place order. Total stays the storage total.
func Refine(page *models.Page, res Residual, now time.Time) *models.FilteredPage {
	out := &models.FilteredPage{GeneratedAt: now}
	if page == nil {
		return out
	}
	out.Total = page.Total
	out.Fetched = len(page.Conversations)
	out.Offset = page.Offset
	out.Limit = page.Limit

	if res.RecentWindow <= 0 {
		res.RecentWindow = DefaultRecentWindow
	}
	needle := strings.ToLower(strings.TrimSpace(res.Search))

	out.Conversations = make([]models.Conversation, 0, len(page.Conversations))
	for _, c := range page.Conversations {
		if !matchUnread(c, res.Unread) {
			continue
		}
		if !matchWindow(c, res.LastMessage, res.RecentWindow, now) {
			continue
		}
		if needle != "" && !matchSearch(c, needle) {
			continue
		}
		out.Conversations = append(out.Conversations, c)
	}
	out.Approximate = len(out.Conversations) < out.Fetched
	return out
}

func matchUnread(c models.Conversation, f models.UnreadFilter) bool {
	switch f {
	case models.UnreadOnly:
		return c.HasUnread()
	case models.UnreadNone:
		return !c.HasUnread()
	default:
		return true
	}
}

// matchWindow never matches a conversation without messages unless the
// window is unrestricted
func matchWindow(c models.Conversation, f models.WindowFilter, window time.Duration, now time.Time) bool {
	if f == "" || f == models.WindowAll {
		return true
	}
	if c.LastMessageTime == nil {
		return false
	}
	recent := now.Sub(*c.LastMessageTime) <= window
	if f == models.WindowRecent {
		return recent
	}
	return !recent
}

func matchSearch(c models.Conversation, needle string) bool {
	fields := []string{c.Name, c.LastMessage, c.Email, c.Phone}
	if c.Owner != nil {
		fields = append(fields, c.Owner.Name, c.Owner.Email, c.Owner.ClientName, c.Owner.ClientType)
	}
	for _, f := range fields {
		if f != "" && strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}
