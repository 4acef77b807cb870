package request

import (
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/acg-climbing/sessions-api/internal/domain"
)

var (
	errInvalidWindow   = errors.New("from must be before to")
	errInvalidCapacity = errors.New("must be at least 1")
)

type CreateEventRequest struct {
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Location    *string   `json:"location,omitempty"`
	Capacity    *int      `json:"capacity,omitempty"`
}

// Validate checks the shape of the request. Schedule rules that depend on
// the clock live in the domain.
func (req *CreateEventRequest) Validate() error {
	req.Title = strings.TrimSpace(req.Title)

	return validation.ValidateStruct(
		req,
		validation.Field(&req.Title, validation.Required, validation.Length(1, 120)),
		validation.Field(&req.Description, validation.Length(0, 2000)),
		validation.Field(&req.StartTime, validation.Required),
		validation.Field(&req.EndTime, validation.Required),
		validation.Field(&req.Location, validation.Length(0, 200)),
		validation.Field(&req.Capacity, validation.By(positiveCapacity)),
	)
}

// Min treats 0 as empty and would let it through.
func positiveCapacity(value interface{}) error {
	if c, ok := value.(*int); ok && c != nil && *c < 1 {
		return errInvalidCapacity
	}
	return nil
}

func (req *CreateEventRequest) ToDomain() domain.Event {
	return domain.Event{
		Title:       req.Title,
		Description: blankToNil(req.Description),
		StartTime:   req.StartTime.UTC(),
		EndTime:     req.EndTime.UTC(),
		Location:    blankToNil(req.Location),
		Capacity:    req.Capacity,
	}
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// ListEventsQuery is bound from the query string. Times are RFC 3339.
type ListEventsQuery struct {
	Q    string    `form:"q"`
	From time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To   time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
}

func (q *ListEventsQuery) Validate() error {
	if !q.From.IsZero() && !q.To.IsZero() && !q.From.Before(q.To) {
		return errInvalidWindow
	}
	return nil
}

func (q *ListEventsQuery) ToDomain() domain.EventQuery {
	return domain.EventQuery{
		Search: q.Q,
		From:   q.From,
		To:     q.To,
	}
}
