package dao

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrEventNotFound = errors.New("event not found")
	ErrCreatorGone   = errors.New("event creator does not exist")
)

type Event struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title       string    `gorm:"not null"`
	Description *string   `gorm:"type:text"`
	StartTime   time.Time `gorm:"not null;index"`
	EndTime     time.Time `gorm:"not null"`
	Location    *string
	Capacity    *int
	CreatedBy   uuid.UUID `gorm:"type:uuid;not null"`
	Creator     Profile   `gorm:"foreignKey:CreatedBy"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   *time.Time

	ParticipantCount int `gorm:"->;-:migration"`
}

func (e *Event) BeforeCreate(_ *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

const eventColumns = `events.*, (SELECT count(*) FROM event_participants ep WHERE ep.event_id = events.id) AS participant_count`

type EventDAO struct {
	db *gorm.DB
}

func NewEventDAO(db *gorm.DB) *EventDAO {
	return &EventDAO{
		db: db,
	}
}

func (d *EventDAO) Insert(ctx context.Context, event Event) (Event, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	result := d.db.WithContext(ctx).Omit("Creator").Create(&event)
	if result.Error != nil {
		var err *pgconn.PgError
		if errors.As(result.Error, &err) && err.Code == pgerrcode.ForeignKeyViolation {
			return Event{}, ErrCreatorGone
		}

		return Event{}, result.Error
	}

	return d.FindByID(ctx, event.ID)
}

func (d *EventDAO) FindByID(ctx context.Context, id uuid.UUID) (Event, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var event Event

	result := d.db.WithContext(ctx).
		Select(eventColumns).
		Preload("Creator").
		First(&event, "events.id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Event{}, ErrEventNotFound
		}

		return Event{}, result.Error
	}

	return event, nil
}

// List returns events ordered by start time, then id for a stable order.
// Zero from/to leave that side of the window open.
func (d *EventDAO) List(ctx context.Context, from, to time.Time) ([]Event, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	q := d.db.WithContext(ctx).Select(eventColumns).Preload("Creator")
	if !from.IsZero() {
		q = q.Where("events.end_time > ?", from)
	}
	if !to.IsZero() {
		q = q.Where("events.start_time < ?", to)
	}

	var events []Event
	if err := q.Order("events.start_time ASC").Order("events.id ASC").Find(&events).Error; err != nil {
		return nil, err
	}

	return events, nil
}
