package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/timmy/dietsupport/internal/domain"
	"github.com/timmy/dietsupport/internal/logger"
	"github.com/timmy/dietsupport/internal/repository"
)

// RegisterRequest is the body of a registration call.
type RegisterRequest struct {
	UserData   RegisterUserData   `json:"userData" binding:"required"`
	DeviceData RegisterDeviceData `json:"deviceData" binding:"required"`
}

type RegisterUserData struct {
	Name      string            `json:"name" binding:"required"`
	NameKana  string            `json:"nameKana"`
	BodyData  RegisterBodyData  `json:"bodyData" binding:"required"`
	LifeCycle RegisterLifeCycle `json:"lifeCycle" binding:"required"`
	Likes     RegisterLikes     `json:"likes"`
}

type RegisterBodyData struct {
	Age               int     `json:"age" binding:"gte=0"`
	Weight            float64 `json:"weight" binding:"gte=0"`
	Height            float64 `json:"height" binding:"gte=0"`
	BMI               float64 `json:"BMI" binding:"gte=0"`
	BodyFatPercentage float64 `json:"bodyFatPercentage" binding:"gte=0"`
	// Gender is 0 for female and any other value for male.
	Gender *int `json:"gender" binding:"required"`
}

type RegisterLifeCycle struct {
	WakeUpTime string `json:"wakeUpTime" binding:"required"`
	SleepTime  string `json:"sleepTime" binding:"required"`
}

type RegisterLikes struct {
	LikeFoods   []string `json:"likeFoods"`
	LikeHobbies []string `json:"likeHobbies"`
}

type RegisterDeviceData struct {
	CPUSerialNumber string `json:"cpuSerialNumber" binding:"required"`
}

// RegisterResponse carries the new user's id and bearer token.
type RegisterResponse struct {
	UserID string `json:"userId"`
	Token  string `json:"token"`
}

// UserAccounts persists registered users.
type UserAccounts interface {
	CreateWithProfile(ctx context.Context, profile *domain.UserProfile) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// TokenSigner issues bearer tokens for user ids.
type TokenSigner interface {
	Issue(userID string) (string, error)
}

// UserService registers users.
type UserService struct {
	users  UserAccounts
	tokens TokenSigner
}

// NewUserService creates a new user service.
func NewUserService(users UserAccounts, tokens TokenSigner) *UserService {
	return &UserService{users: users, tokens: tokens}
}

// Register stores the user with body data, lifecycle and likes in one transaction and
// returns a token for the new account.
func (s *UserService) Register(ctx context.Context, req *RegisterRequest) (*RegisterResponse, error) {
	profile, err := buildProfile(req)
	if err != nil {
		return nil, fail(ErrValidation, "register user", err)
	}

	if err := s.users.CreateWithProfile(ctx, profile); err != nil {
		return nil, fail(ErrPersistence, "register user", err)
	}

	token, err := s.tokens.Issue(profile.User.ID)
	if err != nil {
		return nil, fail(ErrPersistence, "issue token", err)
	}

	logger.FromContext(ctx).WithFields(logger.Fields{
		logger.FieldUserID: profile.User.ID,
		"like_foods":       len(profile.Foods),
		"like_hobbies":     len(profile.Hobbies),
	}).Info("User registered")

	return &RegisterResponse{UserID: profile.User.ID, Token: token}, nil
}

// Lookup returns a registered user.
func (s *UserService) Lookup(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fail(ErrNotFound, "lookup user", err)
	}
	if err != nil {
		return nil, fail(ErrPersistence, "lookup user", err)
	}
	return user, nil
}

func buildProfile(req *RegisterRequest) (*domain.UserProfile, error) {
	data := req.UserData

	wake, err := domain.NormalizeClock(strings.TrimSpace(data.LifeCycle.WakeUpTime))
	if err != nil {
		return nil, fmt.Errorf("wake up time: %w", err)
	}
	sleep, err := domain.NormalizeClock(strings.TrimSpace(data.LifeCycle.SleepTime))
	if err != nil {
		return nil, fmt.Errorf("sleep time: %w", err)
	}

	gender := domain.GenderMale
	if data.BodyData.Gender != nil {
		gender = domain.GenderFromCode(*data.BodyData.Gender)
	}

	return &domain.UserProfile{
		User: domain.User{
			Name:            data.Name,
			NameKana:        data.NameKana,
			CPUSerialNumber: req.DeviceData.CPUSerialNumber,
		},
		BodyData: domain.UserBodyData{
			Age:               data.BodyData.Age,
			Weight:            data.BodyData.Weight,
			Height:            data.BodyData.Height,
			BodyFatPercentage: data.BodyData.BodyFatPercentage,
			BMI:               data.BodyData.BMI,
			Gender:            gender,
		},
		Lifecycle: domain.UserLifecycle{
			WakeUpTime: wake,
			SleepTime:  sleep,
		},
		Foods:   data.Likes.LikeFoods,
		Hobbies: data.Likes.LikeHobbies,
	}, nil
}
