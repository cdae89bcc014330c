package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserFridgeLastStatus holds the current fridge snapshot of one user.
// The unique index on user_id keeps it to one row per user.
type UserFridgeLastStatus struct {
	ID        string         `gorm:"type:text;primaryKey" json:"id"`
	UserID    string         `gorm:"type:text;not null;uniqueIndex:idx_fridge_status_user" json:"user_id"`
	Status    FridgeSnapshot `gorm:"type:text;not null" json:"status"`
	Date      time.Time      `gorm:"not null" json:"date"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// TableName returns the database table name for UserFridgeLastStatus.
func (UserFridgeLastStatus) TableName() string {
	return "user_fridge_last_statuses"
}

// BeforeCreate assigns a UUID when none is set.
func (s *UserFridgeLastStatus) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// FridgeImage is the metadata record of an uploaded fridge photo. Its ID is the object key.
type FridgeImage struct {
	ID          string    `gorm:"type:text;primaryKey" json:"id"`
	UserID      string    `gorm:"type:text;not null;index:idx_fridge_images_user" json:"user_id"`
	ContentType string    `gorm:"type:text" json:"content_type"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `gorm:"index:idx_fridge_images_user" json:"created_at"`
}

// TableName returns the database table name for FridgeImage.
func (FridgeImage) TableName() string {
	return "fridge_images"
}

// BeforeCreate assigns a UUID when none is set.
func (i *FridgeImage) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

// CalorieIntake records one food judged consumed because it left the fridge.
type CalorieIntake struct {
	ID      string    `gorm:"type:text;primaryKey" json:"id"`
	UserID  string    `gorm:"type:text;not null;index:idx_calorie_intakes_user_date" json:"user_id"`
	Food    string    `gorm:"type:text;not null" json:"food"`
	Calorie float64   `gorm:"not null" json:"calorie"`
	Date    time.Time `gorm:"not null;index:idx_calorie_intakes_user_date" json:"date"`
}

// TableName returns the database table name for CalorieIntake.
func (CalorieIntake) TableName() string {
	return "user_calorie_intakes"
}

// BeforeCreate assigns a UUID when none is set.
func (c *CalorieIntake) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
