package controller

import (
	"net/url"

	"go.uber.org/zap"
)

// EventKind classifies controller notifications.
type EventKind int

const (
	// EventLoading: the loader became visible.
	EventLoading EventKind = iota
	// EventRefreshed: a fetched page was applied to the view.
	EventRefreshed
	// EventFailed: a fetch or splice failed; the loader stays visible.
	EventFailed
	// EventDiscarded: a response arrived for a superseded request.
	EventDiscarded
	// EventPalette: a palette was shown or hidden.
	EventPalette
)

func (k EventKind) String() string {
	switch k {
	case EventLoading:
		return "loading"
	case EventRefreshed:
		return "refreshed"
	case EventFailed:
		return "failed"
	case EventDiscarded:
		return "discarded"
	case EventPalette:
		return "palette"
	}
	return "unknown"
}

// Event tells a front-end that the view changed.
type Event struct {
	Kind EventKind
	// Seq is the request sequence number for fetch-related events.
	Seq uint64
	URL *url.URL
	Err error
}

const eventBuffer = 64

// emitLocked delivers ev without blocking; a front-end that falls behind
// only misses intermediate redraws.
func (c *Controller) emitLocked(ev Event) {
	if c.closed {
		return
	}
	select {
	case c.events <- ev:
	default:
		c.log.Debug("event dropped", zap.Stringer("kind", ev.Kind), zap.Uint64("seq", ev.Seq))
	}
}
