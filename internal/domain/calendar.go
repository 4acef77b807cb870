package domain

import (
	"time"

	"github.com/google/uuid"
)

type CalendarEntry struct {
	ID      uuid.UUID `json:"id"`
	Title   string    `json:"title"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Tooltip string    `json:"tooltip"`
}

func NewCalendarEntry(e Event) CalendarEntry {
	tooltip := e.Title
	if e.Description != nil && *e.Description != "" {
		tooltip = *e.Description
	}

	return CalendarEntry{
		ID:      e.ID,
		Title:   e.Title,
		Start:   e.StartTime,
		End:     e.EndTime,
		Tooltip: tooltip,
	}
}
