package dao

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrAlreadyJoined = errors.New("user already joined this event")
	ErrNotJoined     = errors.New("user has not joined this event")
	ErrEventFull     = errors.New("event is at capacity")
	ErrUnknownUser   = errors.New("participant profile does not exist")
)

const participantPairIndex = "idx_event_participants_event_user"

type EventParticipant struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	EventID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_event_participants_event_user,priority:1"`
	Event    Event     `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_event_participants_event_user,priority:2"`
	User     Profile   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	JoinedAt time.Time `gorm:"not null"`
}

func (p *EventParticipant) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.JoinedAt.IsZero() {
		p.JoinedAt = time.Now().UTC()
	}
	return nil
}

type ParticipantDAO struct {
	db *gorm.DB
}

func NewParticipantDAO(db *gorm.DB) *ParticipantDAO {
	return &ParticipantDAO{
		db: db,
	}
}

// Insert adds the participant while holding a row lock on the event, so the
// capacity check and the insert cannot interleave with another join.
func (d *ParticipantDAO) Insert(ctx context.Context, participant EventParticipant) (EventParticipant, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var event Event
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&event, "id = ?", participant.EventID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return err
		}

		if event.Capacity != nil {
			var count int64
			if err := tx.Model(&EventParticipant{}).
				Where("event_id = ?", participant.EventID).
				Count(&count).Error; err != nil {
				return err
			}
			if count >= int64(*event.Capacity) {
				return ErrEventFull
			}
		}

		return tx.Omit("Event", "User").Create(&participant).Error
	})
	if err != nil {
		return EventParticipant{}, classifyParticipantErr(err)
	}

	return participant, nil
}

func classifyParticipantErr(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch {
	case pgErr.Code == pgerrcode.UniqueViolation && pgErr.ConstraintName == participantPairIndex:
		return ErrAlreadyJoined
	case pgErr.Code == pgerrcode.ForeignKeyViolation && pgErr.ConstraintName == "fk_event_participants_event":
		return ErrEventNotFound
	case pgErr.Code == pgerrcode.ForeignKeyViolation && pgErr.ConstraintName == "fk_event_participants_user":
		return ErrUnknownUser
	}

	return err
}

func (d *ParticipantDAO) Delete(ctx context.Context, eventID, userID uuid.UUID) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	result := d.db.WithContext(ctx).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Delete(&EventParticipant{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotJoined
	}

	return nil
}

func (d *ParticipantDAO) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]EventParticipant, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var participants []EventParticipant

	result := d.db.WithContext(ctx).
		Preload("User").
		Where("event_id = ?", eventID).
		Order("joined_at ASC").
		Find(&participants)
	if result.Error != nil {
		return nil, result.Error
	}

	return participants, nil
}

func (d *ParticipantDAO) Exists(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var count int64

	result := d.db.WithContext(ctx).Model(&EventParticipant{}).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Count(&count)
	if result.Error != nil {
		return false, result.Error
	}

	return count > 0, nil
}
