package repository

import (
	"context"
	"fmt"

	"github.com/timmy/dietsupport/internal/domain"
	"gorm.io/gorm"
)

// UserRepository handles user account data.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateWithProfile inserts a user and all registration profile rows atomically.
// On success profile.User.ID holds the generated user ID.
func (r *UserRepository) CreateWithProfile(ctx context.Context, profile *domain.UserProfile) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&profile.User).Error; err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		userID := profile.User.ID

		profile.BodyData.UserID = userID
		if err := tx.Create(&profile.BodyData).Error; err != nil {
			return fmt.Errorf("failed to create body data: %w", err)
		}

		profile.Lifecycle.UserID = userID
		if err := tx.Create(&profile.Lifecycle).Error; err != nil {
			return fmt.Errorf("failed to create lifecycle: %w", err)
		}

		if len(profile.Foods) > 0 {
			foods := make([]domain.UserLikeFood, 0, len(profile.Foods))
			for _, f := range profile.Foods {
				foods = append(foods, domain.UserLikeFood{UserID: userID, Food: f})
			}
			if err := tx.Create(&foods).Error; err != nil {
				return fmt.Errorf("failed to create liked foods: %w", err)
			}
		}

		if len(profile.Hobbies) > 0 {
			hobbies := make([]domain.UserLikeHobby, 0, len(profile.Hobbies))
			for _, h := range profile.Hobbies {
				hobbies = append(hobbies, domain.UserLikeHobby{UserID: userID, Hobby: h})
			}
			if err := tx.Create(&hobbies).Error; err != nil {
				return fmt.Errorf("failed to create liked hobbies: %w", err)
			}
		}
		return nil
	})
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}
