package dao

import (
	"context"
	"time"

	"gorm.io/gorm"
)

const queryTimeout = 3 * time.Second

func InitTables(db *gorm.DB) error {
	return db.AutoMigrate(
		&Profile{},
		&AuthSession{},
		&Event{},
		&EventParticipant{},
		&ActiveSession{},
	)
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, queryTimeout)
}
