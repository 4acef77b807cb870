package response

import (
	"time"

	"github.com/acg-climbing/sessions-api/internal/domain"
)

// Event is an event as the dashboard shows it, with fields derived at
// request time.
type Event struct {
	domain.Event
	Phase  domain.EventPhase `json:"phase"`
	MapURL string            `json:"map_url,omitempty"`
	IsFull bool              `json:"is_full"`
}

func NewEvent(e domain.Event, now time.Time) Event {
	return Event{
		Event:  e,
		Phase:  e.Phase(now),
		MapURL: e.MapURL(),
		IsFull: e.IsFull(),
	}
}

func NewEvents(events []domain.Event, now time.Time) []Event {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		out = append(out, NewEvent(e, now))
	}
	return out
}
