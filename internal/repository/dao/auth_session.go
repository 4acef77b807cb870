package dao

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrAuthSessionNotFound = errors.New("auth session not found")

type AuthSession struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index"`
	User      Profile   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Provider  string    `gorm:"type:varchar(16);not null"`
	ExpiresAt time.Time `gorm:"not null"`
	RevokedAt *time.Time
	CreatedAt time.Time `gorm:"not null"`
}

func (s *AuthSession) BeforeCreate(_ *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

type AuthSessionDAO struct {
	db *gorm.DB
}

func NewAuthSessionDAO(db *gorm.DB) *AuthSessionDAO {
	return &AuthSessionDAO{
		db: db,
	}
}

func (d *AuthSessionDAO) Insert(ctx context.Context, session AuthSession) (AuthSession, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if err := d.db.WithContext(ctx).Omit("User").Create(&session).Error; err != nil {
		return AuthSession{}, err
	}

	return session, nil
}

func (d *AuthSessionDAO) FindByID(ctx context.Context, id uuid.UUID) (AuthSession, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var session AuthSession

	result := d.db.WithContext(ctx).First(&session, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return AuthSession{}, ErrAuthSessionNotFound
		}

		return AuthSession{}, result.Error
	}

	return session, nil
}

// Revoke marks the session revoked. Revoking twice keeps the first timestamp.
func (d *AuthSessionDAO) Revoke(ctx context.Context, id uuid.UUID, at time.Time) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	result := d.db.WithContext(ctx).Model(&AuthSession{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", at)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := d.FindByID(ctx, id); err != nil {
			return err
		}
	}

	return nil
}

// RevokeAllForUser revokes every live session of userID.
func (d *AuthSessionDAO) RevokeAllForUser(ctx context.Context, userID uuid.UUID, at time.Time) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return d.db.WithContext(ctx).Model(&AuthSession{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", at).Error
}
