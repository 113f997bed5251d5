package repository

import (
	"context"
	"time"

	"errorcollector/src/database"
	"errorcollector/src/model"

	"gorm.io/gorm"
)

// writeTimeout bounds a single INSERT so a wedged database surfaces as a
// storage error instead of hanging the request.
const writeTimeout = 5 * time.Second

// ErrorRepository handles persistence of error events.
type ErrorRepository struct {
	db *gorm.DB
}

// NewErrorRepository creates a repository bound to the main database.
func NewErrorRepository() *ErrorRepository {
	return &ErrorRepository{
		db: database.MainDB,
	}
}

func NewErrorRepositoryWithDB(db *gorm.DB) *ErrorRepository {
	return &ErrorRepository{
		db: db,
	}
}

// Create persists one new error event. Records are insert-only; nothing in
// the service updates or deletes them afterwards.
func (r *ErrorRepository) Create(ctx context.Context, ev *model.ErrorEvent) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	return r.db.WithContext(ctx).Create(ev).Error
}

// Latest returns the most recently received error event, or (nil, nil) when
// the table is empty.
func (r *ErrorRepository) Latest(ctx context.Context) (*model.ErrorEvent, error) {
	var events []model.ErrorEvent
	err := r.db.WithContext(ctx).
		Order("received_at DESC, id DESC").
		Limit(1).
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}
	return &events[0], nil
}

// List returns up to limit error events, most recent first.
func (r *ErrorRepository) List(ctx context.Context, limit int) ([]model.ErrorEvent, error) {
	var events []model.ErrorEvent
	err := r.db.WithContext(ctx).
		Order("received_at DESC, id DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
