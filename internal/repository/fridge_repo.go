package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/timmy/dietsupport/internal/domain"
	"gorm.io/gorm"
)

// FridgeRepository persists fridge statuses, stored image records and calorie intake.
type FridgeRepository struct {
	db *gorm.DB
}

// NewFridgeRepository creates a new FridgeRepository.
// Parameters:
//   - db: GORM database handle used for queries.
//
// Returns:
//   - *FridgeRepository: repository instance bound to db.
func NewFridgeRepository(db *gorm.DB) *FridgeRepository {
	return &FridgeRepository{db: db}
}

// FindStatus returns the user's last known fridge status.
// Returns ErrNotFound when the user has never been analyzed, and a wrapped
// domain.ErrInvalidFoodList when the stored snapshot fails validation.
func (r *FridgeRepository) FindStatus(ctx context.Context, userID string) (*domain.UserFridgeLastStatus, error) {
	var status domain.UserFridgeLastStatus
	if err := r.db.WithContext(ctx).First(&status, "user_id = ?", userID).Error; err != nil {
		return nil, translate(err)
	}
	return &status, nil
}

// CreateStatus inserts the first status row for a user.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - userID: owner of the status.
//   - snapshot: fridge contents to store.
//   - at: observation time.
//
// Returns:
//   - *domain.UserFridgeLastStatus: the inserted row.
//   - error: non-nil if the insert fails, including when the user already has a status.
func (r *FridgeRepository) CreateStatus(ctx context.Context, userID string, snapshot domain.FridgeSnapshot, at time.Time) (*domain.UserFridgeLastStatus, error) {
	status := &domain.UserFridgeLastStatus{
		UserID: userID,
		Status: snapshot,
		Date:   at,
	}
	if err := r.db.WithContext(ctx).Create(status).Error; err != nil {
		return nil, fmt.Errorf("failed to create fridge status: %w", err)
	}
	return status, nil
}

// ApplyReconciliation replaces the snapshot of an existing status row and appends the
// calorie intake events derived from it, in one transaction.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - statusID: id of the row to update in place.
//   - snapshot: new fridge contents.
//   - events: intake rows to append; may be empty.
//   - at: observation time written to the status date.
//
// Returns:
//   - error: non-nil if any statement fails; nothing is committed in that case.
func (r *FridgeRepository) ApplyReconciliation(ctx context.Context, statusID string, snapshot domain.FridgeSnapshot, events []domain.CalorieIntake, at time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.UserFridgeLastStatus{}).
			Where("id = ?", statusID).
			Updates(map[string]interface{}{
				"status": snapshot,
				"date":   at,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to update fridge status: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("fridge status %s: %w", statusID, ErrNotFound)
		}

		if len(events) == 0 {
			return nil
		}
		if err := tx.Create(&events).Error; err != nil {
			return fmt.Errorf("failed to record calorie intake: %w", err)
		}
		return nil
	})
}

// CreateImage inserts a stored image record. The generated ID is the object key.
func (r *FridgeRepository) CreateImage(ctx context.Context, image *domain.FridgeImage) error {
	return r.db.WithContext(ctx).Create(image).Error
}

// FindLastImage returns the most recently stored image of a user.
func (r *FridgeRepository) FindLastImage(ctx context.Context, userID string) (*domain.FridgeImage, error) {
	var image domain.FridgeImage
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&image).Error; err != nil {
		return nil, translate(err)
	}
	return &image, nil
}

// DeleteImage removes a stored image record by ID. Deleting a missing record is not an error.
func (r *FridgeRepository) DeleteImage(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&domain.FridgeImage{}, "id = ?", id).Error
}

// ListCalorieIntake returns a user's intake events at or after since, newest first.
// A zero since returns the full history.
func (r *FridgeRepository) ListCalorieIntake(ctx context.Context, userID string, since time.Time) ([]domain.CalorieIntake, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if !since.IsZero() {
		query = query.Where("date >= ?", since)
	}

	var events []domain.CalorieIntake
	if err := query.Order("date DESC").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to list calorie intake: %w", err)
	}
	return events, nil
}
