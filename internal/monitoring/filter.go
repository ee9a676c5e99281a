package monitoring

import (
	"strings"

	"github.com/farmwatch/farmwatch/internal/models"
)

// AlertFilter selects alerts. Zero values match everything.
type AlertFilter struct {
	Kind       models.AlertKind
	UnreadOnly bool
	Query      string // case-insensitive substring of the message
}

// Matches reports whether alert passes every set criterion
func (f AlertFilter) Matches(alert models.Alert) bool {
	if f.Kind != "" && alert.Kind != f.Kind {
		return false
	}
	if f.UnreadOnly && alert.Read {
		return false
	}
	return containsFold(alert.Message, f.Query)
}

// FeedFilter selects camera zones. Zero values match everything.
type FeedFilter struct {
	Status models.FeedStatus
	Query  string // case-insensitive substring of the name or location
}

// Matches reports whether area passes every set criterion
func (f FeedFilter) Matches(area models.FeedArea) bool {
	if f.Status != "" && area.Status != f.Status {
		return false
	}
	return containsFold(area.Name, f.Query) || containsFold(area.Location, f.Query)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
