package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/farmwatch/farmwatch/internal/models"
	"github.com/farmwatch/farmwatch/internal/monitoring"
)

// alertFilterFromQuery reads ?type=&unread=&q=. "all" or an empty type matches every kind.
func alertFilterFromQuery(r *http.Request) (monitoring.AlertFilter, error) {
	query := r.URL.Query()
	filter := monitoring.AlertFilter{Query: query.Get("q")}

	switch kind := models.AlertKind(query.Get("type")); kind {
	case "", "all":
	case models.AlertIntrusion, models.AlertAnimalEscape, models.AlertSystem:
		filter.Kind = kind
	default:
		return filter, fmt.Errorf("unknown alert type %q", kind)
	}

	if raw := query.Get("unread"); raw != "" {
		unread, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, fmt.Errorf("invalid unread flag %q: %w", raw, err)
		}
		filter.UnreadOnly = unread
	}

	return filter, nil
}

// feedFilterFromQuery reads ?status=&q=
func feedFilterFromQuery(r *http.Request) (monitoring.FeedFilter, error) {
	query := r.URL.Query()
	filter := monitoring.FeedFilter{Query: query.Get("q")}

	switch status := models.FeedStatus(query.Get("status")); status {
	case "", "all":
	case models.FeedActive, models.FeedInactive:
		filter.Status = status
	default:
		return filter, fmt.Errorf("unknown feed status %q", status)
	}

	return filter, nil
}
