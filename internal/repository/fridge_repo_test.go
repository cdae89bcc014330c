package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/timmy/dietsupport/internal/domain"
)

func TestFridgeRepositoryStatusLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewFridgeRepository(newTestDB(t))

	if _, err := repo.FindStatus(ctx, "user-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before first analysis, got %v", err)
	}

	first := domain.FridgeSnapshot{Foods: []domain.FoodItem{{Name: "milk", Calories: 120}, {Name: "egg", Calories: 70}}}
	t0 := time.Date(2026, 1, 2, 8, 0, 0, 0, time.UTC)
	created, err := repo.CreateStatus(ctx, "user-1", first, t0)
	if err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated status id")
	}

	found, err := repo.FindStatus(ctx, "user-1")
	if err != nil {
		t.Fatalf("unexpected find error: %v", err)
	}
	if len(found.Status.Foods) != 2 || found.Status.Foods[0].Name != "milk" {
		t.Errorf("unexpected stored snapshot %+v", found.Status)
	}

	next := domain.FridgeSnapshot{Foods: []domain.FoodItem{{Name: "egg", Calories: 70}, {Name: "juice", Calories: 150}}}
	t1 := t0.Add(time.Hour)
	events := []domain.CalorieIntake{{UserID: "user-1", Food: "milk", Calorie: 120, Date: t1}}
	if err := repo.ApplyReconciliation(ctx, created.ID, next, events, t1); err != nil {
		t.Fatalf("unexpected reconcile error: %v", err)
	}

	updated, err := repo.FindStatus(ctx, "user-1")
	if err != nil {
		t.Fatalf("unexpected find error: %v", err)
	}
	if updated.ID != created.ID {
		t.Errorf("expected in-place update, id changed from %s to %s", created.ID, updated.ID)
	}
	if len(updated.Status.Foods) != 2 || updated.Status.Foods[1].Name != "juice" {
		t.Errorf("unexpected updated snapshot %+v", updated.Status)
	}
	if !updated.Date.Equal(t1) {
		t.Errorf("expected date %s, got %s", t1, updated.Date)
	}

	intake, err := repo.ListCalorieIntake(ctx, "user-1", time.Time{})
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if len(intake) != 1 || intake[0].Food != "milk" || intake[0].Calorie != 120 {
		t.Errorf("unexpected intake %+v", intake)
	}
}

func TestFridgeRepositoryRejectsSecondStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewFridgeRepository(newTestDB(t))

	if _, err := repo.CreateStatus(ctx, "user-1", domain.FridgeSnapshot{}, time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := repo.CreateStatus(ctx, "user-1", domain.FridgeSnapshot{}, time.Now()); err == nil {
		t.Fatal("expected unique violation for a second status row")
	}
}

func TestApplyReconciliationIsAtomic(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewFridgeRepository(db)

	prior := domain.FridgeSnapshot{Foods: []domain.FoodItem{{Name: "milk", Calories: 120}}}
	status, err := repo.CreateStatus(ctx, "user-1", prior, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Two events sharing a primary key make the insert fail after the status update ran.
	at := time.Now()
	events := []domain.CalorieIntake{
		{ID: "dup", UserID: "user-1", Food: "milk", Calorie: 120, Date: at},
		{ID: "dup", UserID: "user-1", Food: "milk", Calorie: 120, Date: at},
	}
	if err := repo.ApplyReconciliation(ctx, status.ID, domain.FridgeSnapshot{Foods: []domain.FoodItem{}}, events, at); err == nil {
		t.Fatal("expected insert failure")
	}

	after, err := repo.FindStatus(ctx, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(after.Status.Foods) != 1 {
		t.Errorf("expected status rollback, got %+v", after.Status)
	}
	intake, _ := repo.ListCalorieIntake(ctx, "user-1", time.Time{})
	if len(intake) != 0 {
		t.Errorf("expected no intake rows after rollback, got %d", len(intake))
	}
}

func TestApplyReconciliationUnknownStatus(t *testing.T) {
	repo := NewFridgeRepository(newTestDB(t))
	err := repo.ApplyReconciliation(context.Background(), "missing", domain.FridgeSnapshot{}, nil, time.Now())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFindStatusRejectsCorruptSnapshot(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewFridgeRepository(db)

	if err := db.Exec(
		"INSERT INTO user_fridge_last_statuses (id, user_id, status, date) VALUES (?, ?, ?, ?)",
		"s1", "user-1", `{"foods":[{"name":"","calories":1}]}`, time.Now(),
	).Error; err != nil {
		t.Fatalf("failed to seed row: %v", err)
	}

	if _, err := repo.FindStatus(ctx, "user-1"); !errors.Is(err, domain.ErrInvalidFoodList) {
		t.Fatalf("expected ErrInvalidFoodList, got %v", err)
	}
}

func TestFridgeRepositoryImages(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewFridgeRepository(db)

	if _, err := repo.FindLastImage(ctx, "user-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	older := &domain.FridgeImage{UserID: "user-1", ContentType: "image/jpeg", CreatedAt: time.Now().Add(-time.Hour)}
	newer := &domain.FridgeImage{UserID: "user-1", ContentType: "image/png", CreatedAt: time.Now()}
	for _, img := range []*domain.FridgeImage{older, newer} {
		if err := repo.CreateImage(ctx, img); err != nil {
			t.Fatalf("unexpected create error: %v", err)
		}
	}

	last, err := repo.FindLastImage(ctx, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if last.ID != newer.ID {
		t.Errorf("expected newest image %s, got %s", newer.ID, last.ID)
	}

	if err := repo.DeleteImage(ctx, newer.ID); err != nil {
		t.Fatalf("unexpected delete error: %v", err)
	}
	var count int64
	if err := db.Model(&domain.FridgeImage{}).Where("user_id = ?", "user-1").Count(&count).Error; err != nil {
		t.Fatalf("unexpected count error: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 image left, got %d", count)
	}
}

func TestListCalorieIntakeSince(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewFridgeRepository(db)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := []domain.CalorieIntake{
		{UserID: "user-1", Food: "milk", Calorie: 120, Date: base.Add(-48 * time.Hour)},
		{UserID: "user-1", Food: "egg", Calorie: 70, Date: base},
		{UserID: "user-2", Food: "cake", Calorie: 400, Date: base},
	}
	if err := db.Create(&rows).Error; err != nil {
		t.Fatalf("failed to seed: %v", err)
	}

	got, err := repo.ListCalorieIntake(ctx, "user-1", base.Add(-time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Food != "egg" {
		t.Errorf("unexpected intake %+v", got)
	}
}
