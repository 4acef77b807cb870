package domain

import (
	"sort"
	"strings"
)

// FilterEvents keeps events whose title or location contains q,
// case-insensitively. A blank query keeps everything. Order is preserved.
func FilterEvents(events []Event, q string) []Event {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return events
	}

	filtered := make([]Event, 0, len(events))
	for _, e := range events {
		if strings.Contains(strings.ToLower(e.Title), q) {
			filtered = append(filtered, e)
			continue
		}
		if e.Location != nil && strings.Contains(strings.ToLower(*e.Location), q) {
			filtered = append(filtered, e)
		}
	}

	return filtered
}

// SortByStart orders events by start time, ties kept in input order.
func SortByStart(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].StartTime.Before(events[j].StartTime)
	})
}
