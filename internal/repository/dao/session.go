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
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionCodeExists = errors.New("session code already in use")
	ErrSessionConflict   = errors.New("session changed concurrently")
)

const sessionCodeConstraint = "uni_active_sessions_code"

type ActiveSession struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Code      string     `gorm:"type:varchar(12);unique;not null"`
	GuideID   *uuid.UUID `gorm:"type:uuid"`
	Guide     *Profile   `gorm:"foreignKey:GuideID"`
	ClimberID *uuid.UUID `gorm:"type:uuid"`
	Climber   *Profile   `gorm:"foreignKey:ClimberID"`
	Status    string     `gorm:"type:varchar(16);not null;default:waiting"` // "waiting", "active" or "completed"
	CreatedAt time.Time  `gorm:"not null"`
}

func (s *ActiveSession) BeforeCreate(_ *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

type SessionDAO struct {
	db *gorm.DB
}

func NewSessionDAO(db *gorm.DB) *SessionDAO {
	return &SessionDAO{
		db: db,
	}
}

func (d *SessionDAO) Insert(ctx context.Context, session ActiveSession) (ActiveSession, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	result := d.db.WithContext(ctx).Omit("Guide", "Climber").Create(&session)
	if result.Error != nil {
		var err *pgconn.PgError
		if errors.As(result.Error, &err) &&
			err.Code == pgerrcode.UniqueViolation &&
			err.ConstraintName == sessionCodeConstraint {
			return ActiveSession{}, ErrSessionCodeExists
		}

		return ActiveSession{}, result.Error
	}

	return session, nil
}

func (d *SessionDAO) FindByID(ctx context.Context, id uuid.UUID) (ActiveSession, error) {
	return d.findOne(ctx, "id = ?", id)
}

func (d *SessionDAO) FindByCode(ctx context.Context, code string) (ActiveSession, error) {
	return d.findOne(ctx, "code = ?", code)
}

func (d *SessionDAO) findOne(ctx context.Context, query string, arg any) (ActiveSession, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var session ActiveSession

	result := d.db.WithContext(ctx).First(&session, query, arg)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return ActiveSession{}, ErrSessionNotFound
		}

		return ActiveSession{}, result.Error
	}

	return session, nil
}

// UpdateStatus writes the new status and climber only if the row still has
// fromStatus, so two concurrent transitions cannot both succeed.
func (d *SessionDAO) UpdateStatus(ctx context.Context, session ActiveSession, fromStatus string) (ActiveSession, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	result := d.db.WithContext(ctx).Model(&ActiveSession{}).
		Where("id = ? AND status = ?", session.ID, fromStatus).
		Updates(map[string]any{
			"status":     session.Status,
			"climber_id": session.ClimberID,
		})
	if result.Error != nil {
		return ActiveSession{}, result.Error
	}
	if result.RowsAffected == 0 {
		return ActiveSession{}, ErrSessionConflict
	}

	return session, nil
}
