package sqlite

import (
	"context"
	"errors"
	"fmt"
	"reminder/internal/domain/entity"
	"reminder/internal/domain/repository"
	appErrors "reminder/internal/pkg/errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// undated reminders sort after every dated one; identifier makes the order total.
const orderByDate = "date IS NULL, date ASC, identifier ASC"

type reminderRepository struct {
	db *gorm.DB
}

// NewReminderRepository creates a new instance of ReminderRepository.
func NewReminderRepository(db *gorm.DB) repository.ReminderRepository {
	return &reminderRepository{db: db}
}

// FindAll retrieves all reminders ordered by due date.
func (r *reminderRepository) FindAll(ctx context.Context) ([]*entity.Reminder, error) {
	reminders, err := findAll(r.db.WithContext(ctx))
	if err != nil {
		return nil, appErrors.NewStoreError("fetch_all", "", dbError(err))
	}
	return reminders, nil
}

// FindByID retrieves a reminder by its identifier.
func (r *reminderRepository) FindByID(ctx context.Context, id string) (*entity.Reminder, error) {
	var reminder entity.Reminder
	if err := r.db.WithContext(ctx).Where("identifier = ?", id).First(&reminder).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErrors.NewStoreError("find", id, appErrors.ErrReminderNotFound)
		}
		return nil, appErrors.NewStoreError("find", id, dbError(err))
	}
	return &reminder, nil
}

// Upsert inserts a reminder or replaces the stored one with the same identifier.
func (r *reminderRepository) Upsert(ctx context.Context, reminder *entity.Reminder) error {
	row := toUTC(reminder)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "identifier"}},
		UpdateAll: true,
	}).Create(row).Error
	if err != nil {
		return appErrors.NewStoreError("upsert", reminder.Identifier, dbError(err))
	}
	return nil
}

// Delete deletes a reminder by its identifier.
func (r *reminderRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("identifier = ?", id).Delete(&entity.Reminder{})
	if result.Error != nil {
		return appErrors.NewStoreError("delete", id, dbError(result.Error))
	}
	if result.RowsAffected == 0 {
		return appErrors.NewStoreError("delete", id, appErrors.ErrReminderNotFound)
	}
	return nil
}

// DeleteAll deletes every reminder.
func (r *reminderRepository) DeleteAll(ctx context.Context) error {
	// gorm refuses global deletes without a condition.
	if err := r.db.WithContext(ctx).Where("1 = 1").Delete(&entity.Reminder{}).Error; err != nil {
		return appErrors.NewStoreError("delete_all", "", dbError(err))
	}
	return nil
}

// DeleteExpired deletes reminders dated before asOf and returns the remaining ones
// in a single transaction.
func (r *reminderRepository) DeleteExpired(ctx context.Context, asOf time.Time) ([]*entity.Reminder, error) {
	var remaining []*entity.Reminder
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("date IS NOT NULL AND date < ?", asOf.UTC()).Delete(&entity.Reminder{}).Error; err != nil {
			return err
		}
		var err error
		remaining, err = findAll(tx)
		return err
	})
	if err != nil {
		return nil, appErrors.NewStoreError("delete_expired", "", dbError(err))
	}
	return remaining, nil
}

// Contains reports whether a reminder with the identifier exists.
func (r *reminderRepository) Contains(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.Reminder{}).Where("identifier = ?", id).Count(&count).Error; err != nil {
		return false, appErrors.NewStoreError("contains", id, dbError(err))
	}
	return count > 0, nil
}

func findAll(db *gorm.DB) ([]*entity.Reminder, error) {
	var reminders []*entity.Reminder
	if err := db.Order(orderByDate).Find(&reminders).Error; err != nil {
		return nil, err
	}
	return reminders, nil
}

// toUTC copies reminder with its date in UTC. SQLite compares datetimes as
// text, which is only chronological within a single offset.
func toUTC(reminder *entity.Reminder) *entity.Reminder {
	row := *reminder
	if reminder.Date != nil {
		d := reminder.Date.UTC()
		row.Date = &d
	}
	return &row
}

func dbError(err error) error {
	return fmt.Errorf("%w: %v", appErrors.ErrDatabaseOperation, err)
}
