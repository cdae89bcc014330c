package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Gender is stored as text in user_body_data.
type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
)

// GenderFromCode maps the client's numeric gender code: 0 is female, anything else male.
func GenderFromCode(code int) Gender {
	if code != 0 {
		return GenderMale
	}
	return GenderFemale
}

// User is a registered application user bound to one fridge camera device.
type User struct {
	ID              string    `gorm:"type:text;primaryKey" json:"id"`
	Name            string    `gorm:"type:text;not null" json:"name"`
	NameKana        string    `gorm:"type:text" json:"name_kana"`
	CPUSerialNumber string    `gorm:"type:text;column:cpu_serial_number" json:"cpu_serial_number"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string {
	return "users"
}

// BeforeCreate assigns a UUID when none is set.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// UserBodyData holds the body measurements given at registration.
type UserBodyData struct {
	ID                uint    `gorm:"primaryKey" json:"-"`
	UserID            string  `gorm:"type:text;not null;uniqueIndex" json:"user_id"`
	Age               int     `json:"age"`
	Weight            float64 `json:"weight"`
	Height            float64 `json:"height"`
	BodyFatPercentage float64 `json:"body_fat_percentage"`
	BMI               float64 `gorm:"column:bmi" json:"bmi"`
	Gender            Gender  `gorm:"type:text;not null" json:"gender"`
}

// TableName returns the database table name for UserBodyData.
func (UserBodyData) TableName() string {
	return "user_body_data"
}

// UserLifecycle holds daily wake-up and sleep times as "HH:MM".
type UserLifecycle struct {
	ID         uint   `gorm:"primaryKey" json:"-"`
	UserID     string `gorm:"type:text;not null;uniqueIndex" json:"user_id"`
	WakeUpTime string `gorm:"type:text" json:"wake_up_time"`
	SleepTime  string `gorm:"type:text" json:"sleep_time"`
}

// TableName returns the database table name for UserLifecycle.
func (UserLifecycle) TableName() string {
	return "user_lifecycles"
}

type UserLikeFood struct {
	ID     uint   `gorm:"primaryKey" json:"-"`
	UserID string `gorm:"type:text;not null;index" json:"user_id"`
	Food   string `gorm:"type:text;not null" json:"food"`
}

func (UserLikeFood) TableName() string {
	return "user_like_foods"
}

type UserLikeHobby struct {
	ID     uint   `gorm:"primaryKey" json:"-"`
	UserID string `gorm:"type:text;not null;index" json:"user_id"`
	Hobby  string `gorm:"type:text;not null" json:"hobby"`
}

func (UserLikeHobby) TableName() string {
	return "user_like_hobbies"
}

// UserProfile bundles the rows written together at registration.
type UserProfile struct {
	User      User
	BodyData  UserBodyData
	Lifecycle UserLifecycle
	Foods     []string
	Hobbies   []string
}

// NormalizeClock parses "H:MM" or "HH:MM" and returns it as "HH:MM".
func NormalizeClock(value string) (string, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return "", fmt.Errorf("invalid time of day %q", value)
	}
	return t.Format("15:04"), nil
}
