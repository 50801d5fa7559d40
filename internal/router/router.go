// Package router dispatches inbound backend events to the filters that claim them.
package router

import (
	"context"
	"log/slog"

	"github.com/casualjim/vshl/internal/fault"
	"github.com/casualjim/vshl/pkg/slogx"
)

// Filter claims inbound backend events.
type Filter interface {
	Name() string
	// OnIncomingEvent reports whether the filter handled the event.
	OnIncomingEvent(ctx context.Context, event, agentID string, payload []byte) bool
}

// Router holds an unordered set of filters. The order in which filters are
// consulted is unspecified.
type Router struct {
	filters map[Filter]struct{}
}

func New() *Router {
	return &Router{filters: make(map[Filter]struct{})}
}

func (r *Router) AddFilter(f Filter) error {
	if f == nil {
		return fault.Validation("filter is required")
	}
	r.filters[f] = struct{}{}
	return nil
}

func (r *Router) RemoveFilter(f Filter) error {
	if f == nil {
		return fault.Validation("filter is required")
	}
	delete(r.filters, f)
	return nil
}

func (r *Router) Len() int {
	return len(r.filters)
}

// HandleIncomingEvent offers the event to the filters until one handles it.
func (r *Router) HandleIncomingEvent(ctx context.Context, event, agentID string, payload []byte) bool {
	for f := range r.filters {
		if f.OnIncomingEvent(ctx, event, agentID, payload) {
			return true
		}
	}
	slog.DebugContext(ctx, "no filter handled backend event",
		slogx.LoggerName("vshl::router"),
		slogx.EventName(event),
		slogx.AgentID(agentID),
	)
	return false
}
