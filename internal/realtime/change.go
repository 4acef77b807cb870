package realtime

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/acg-climbing/sessions-api/internal/domain"
)

type Table string

const (
	TableEvents       Table = "events"
	TableParticipants Table = "event_participants"
)

type Op string

const (
	OpCreated Op = "created"
	OpJoined  Op = "joined"
	OpLeft    Op = "left"
)

// Change describes one committed write. Revision grows strictly per Source,
// so a client that has seen revision n from a source can drop anything <= n.
type Change struct {
	Source   string        `json:"source"`
	Revision uint64        `json:"revision"`
	Table    Table         `json:"table"`
	Op       Op            `json:"op"`
	EventID  uuid.UUID     `json:"event_id"`
	UserID   *uuid.UUID    `json:"user_id,omitempty"`
	Event    *domain.Event `json:"event,omitempty"`
	At       time.Time     `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, change Change) error
}

// Feed stamps changes with a source id and revision and hands them to every
// sink. A failing sink does not stop the others.
type Feed struct {
	source   string
	revision atomic.Uint64
	sinks    []Publisher
}

func NewFeed(sinks ...Publisher) *Feed {
	return &Feed{
		source: uuid.NewString(),
		sinks:  sinks,
	}
}

func (f *Feed) Source() string {
	return f.source
}

func (f *Feed) Publish(ctx context.Context, change Change) error {
	change.Source = f.source
	change.Revision = f.revision.Add(1)
	if change.At.IsZero() {
		change.At = time.Now().UTC()
	}

	var errs []error
	for _, sink := range f.sinks {
		if err := sink.Publish(ctx, change); err != nil {
			zap.L().Warn("feed sink failed",
				zap.Uint64("revision", change.Revision),
				zap.String("op", string(change.Op)),
				zap.Error(err))
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
