package service

import (
	"context"
	"errors"
	"testing"

	"github.com/timmy/dietsupport/internal/auth"
	"github.com/timmy/dietsupport/internal/domain"
	"github.com/timmy/dietsupport/internal/repository"
	"gorm.io/gorm"
)

func registerRequest(gender int) *RegisterRequest {
	return &RegisterRequest{
		UserData: RegisterUserData{
			Name:     "Taro Yamada",
			NameKana: "ヤマダタロウ",
			BodyData: RegisterBodyData{
				Age:               30,
				Weight:            65.5,
				Height:            172,
				BMI:               22.1,
				BodyFatPercentage: 18,
				Gender:            &gender,
			},
			LifeCycle: RegisterLifeCycle{WakeUpTime: "7:05", SleepTime: "23:30"},
			Likes: RegisterLikes{
				LikeFoods:   []string{"natto", "ramen"},
				LikeHobbies: []string{"running"},
			},
		},
		DeviceData: RegisterDeviceData{CPUSerialNumber: "00000000a1b2c3d4"},
	}
}

func newUserFixture(t *testing.T) (*UserService, *gorm.DB, *auth.TokenIssuer) {
	t.Helper()
	db := newTestDB(t)
	tokens, err := auth.NewTokenIssuer(auth.TokenIssuerConfig{SigningSecret: []byte("secret"), Issuer: "dietsupport"})
	if err != nil {
		t.Fatalf("NewTokenIssuer failed: %v", err)
	}
	return NewUserService(repository.NewUserRepository(db), tokens), db, tokens
}

func TestRegister(t *testing.T) {
	svc, db, tokens := newUserFixture(t)

	resp, err := svc.Register(context.Background(), registerRequest(0))
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if resp.UserID == "" || resp.Token == "" {
		t.Fatalf("unexpected response %+v", resp)
	}

	userID, err := tokens.Validate(resp.Token)
	if err != nil || userID != resp.UserID {
		t.Errorf("token resolves to %q (%v), want %q", userID, err, resp.UserID)
	}

	var body domain.UserBodyData
	if err := db.First(&body, "user_id = ?", resp.UserID).Error; err != nil {
		t.Fatalf("body data not stored: %v", err)
	}
	if body.Gender != domain.GenderFemale || body.BMI != 22.1 || body.Age != 30 {
		t.Errorf("unexpected body data %+v", body)
	}

	var lifecycle domain.UserLifecycle
	if err := db.First(&lifecycle, "user_id = ?", resp.UserID).Error; err != nil {
		t.Fatalf("lifecycle not stored: %v", err)
	}
	if lifecycle.WakeUpTime != "07:05" || lifecycle.SleepTime != "23:30" {
		t.Errorf("unexpected lifecycle %+v", lifecycle)
	}

	var likes int64
	db.Model(&domain.UserLikeFood{}).Where("user_id = ?", resp.UserID).Count(&likes)
	if likes != 2 {
		t.Errorf("expected 2 liked foods, got %d", likes)
	}
}

func TestLookup(t *testing.T) {
	svc, _, _ := newUserFixture(t)

	resp, err := svc.Register(context.Background(), registerRequest(1))
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	user, err := svc.Lookup(context.Background(), resp.UserID)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if user.Name != "Taro Yamada" || user.CPUSerialNumber != "00000000a1b2c3d4" {
		t.Errorf("unexpected user %+v", user)
	}

	if _, err := svc.Lookup(context.Background(), "nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestRegisterMapsNonZeroGenderToMale(t *testing.T) {
	svc, db, _ := newUserFixture(t)

	resp, err := svc.Register(context.Background(), registerRequest(2))
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	var body domain.UserBodyData
	if err := db.First(&body, "user_id = ?", resp.UserID).Error; err != nil {
		t.Fatalf("body data not stored: %v", err)
	}
	if body.Gender != domain.GenderMale {
		t.Errorf("gender: got %s, want MALE", body.Gender)
	}
}

func TestRegisterRejectsBadClock(t *testing.T) {
	svc, db, _ := newUserFixture(t)

	req := registerRequest(1)
	req.UserData.LifeCycle.SleepTime = "25:99"

	_, err := svc.Register(context.Background(), req)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation failure, got %v", err)
	}

	var users int64
	db.Model(&domain.User{}).Count(&users)
	if users != 0 {
		t.Errorf("no user should be stored, got %d", users)
	}
}
