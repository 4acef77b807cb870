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
	ErrProfileEmailExists = errors.New("profile already exists")
	ErrProfileNotFound    = errors.New("profile not found")
)

const profileEmailConstraint = "uni_profiles_email"

type Profile struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	Email    string  `gorm:"unique;not null"`
	FullName *string
	Password string // empty for identities that only sign in through OAuth

	Role string `gorm:"type:varchar(16);not null;default:climber"` // "lead", "volunteer" or "climber"

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt *time.Time
}

func (p *Profile) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type ProfileDAO struct {
	db *gorm.DB
}

func NewProfileDAO(db *gorm.DB) *ProfileDAO {
	return &ProfileDAO{
		db: db,
	}
}

func (d *ProfileDAO) Insert(ctx context.Context, profile Profile) (Profile, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	result := d.db.WithContext(ctx).Create(&profile)
	if result.Error != nil {
		var err *pgconn.PgError
		if errors.As(result.Error, &err) &&
			err.Code == pgerrcode.UniqueViolation &&
			err.ConstraintName == profileEmailConstraint {
			return Profile{}, ErrProfileEmailExists
		}

		return Profile{}, result.Error
	}

	return profile, nil
}

func (d *ProfileDAO) FindByID(ctx context.Context, id uuid.UUID) (Profile, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var profile Profile

	result := d.db.WithContext(ctx).First(&profile, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Profile{}, ErrProfileNotFound
		}

		return Profile{}, result.Error
	}

	return profile, nil
}

func (d *ProfileDAO) FindByEmail(ctx context.Context, email string) (Profile, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var profile Profile

	result := d.db.WithContext(ctx).First(&profile, "lower(email) = lower(?)", email)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Profile{}, ErrProfileNotFound
		}

		return Profile{}, result.Error
	}

	return profile, nil
}

// UpdateFullName fills in a display name picked up from an identity provider.
func (d *ProfileDAO) UpdateFullName(ctx context.Context, id uuid.UUID, fullName string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	result := d.db.WithContext(ctx).Model(&Profile{}).
		Where("id = ?", id).
		Updates(map[string]any{"full_name": fullName, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProfileNotFound
	}

	return nil
}

// Reclaim hands a password profile over to its verified owner: the password
// is cleared and the role and name are replaced in one update.
func (d *ProfileDAO) Reclaim(ctx context.Context, id uuid.UUID, role string, fullName *string) (Profile, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	result := d.db.WithContext(ctx).Model(&Profile{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"password":   "",
			"role":       role,
			"full_name":  fullName,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return Profile{}, result.Error
	}
	if result.RowsAffected == 0 {
		return Profile{}, ErrProfileNotFound
	}

	return d.FindByID(ctx, id)
}
