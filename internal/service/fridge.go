package service

import (
	"context"
	"errors"
	"time"

	"github.com/timmy/dietsupport/internal/domain"
	"github.com/timmy/dietsupport/internal/logger"
	"github.com/timmy/dietsupport/internal/repository"
)

// FridgeStore is the persistence the reconciler needs.
type FridgeStore interface {
	FindStatus(ctx context.Context, userID string) (*domain.UserFridgeLastStatus, error)
	CreateStatus(ctx context.Context, userID string, snapshot domain.FridgeSnapshot, at time.Time) (*domain.UserFridgeLastStatus, error)
	ApplyReconciliation(ctx context.Context, statusID string, snapshot domain.FridgeSnapshot, events []domain.CalorieIntake, at time.Time) error
	FindLastImage(ctx context.Context, userID string) (*domain.FridgeImage, error)
	ListCalorieIntake(ctx context.Context, userID string, since time.Time) ([]domain.CalorieIntake, error)
}

// ImageStore keeps uploaded fridge photos.
type ImageStore interface {
	Put(ctx context.Context, userID string, img Image) (string, error)
	SignedReadURL(ctx context.Context, id string) (string, error)
	// Delete never fails loudly; it reports whether everything was removed.
	Delete(ctx context.Context, id string) bool
}

// VisionOracle reads fridge photos.
type VisionOracle interface {
	DescribeFridge(ctx context.Context, imageURL string) (domain.FridgeSnapshot, error)
	DescribeFridgeDelta(ctx context.Context, prevURL, newURL, priorSnapshot string) (domain.FridgeDelta, error)
}

// FridgeService tracks each user's fridge contents from successive photos and logs
// foods that disappear as calorie intake.
type FridgeService struct {
	store  FridgeStore
	images ImageStore
	oracle VisionOracle
	logger *logger.Logger
	now    func() time.Time
}

// NewFridgeService creates a new fridge service.
// Parameters:
//   - store: status, image record and intake persistence.
//   - images: photo storage.
//   - oracle: vision model client.
//   - log: fallback logger when the context carries none.
//
// Returns:
//   - *FridgeService: initialized service.
func NewFridgeService(store FridgeStore, images ImageStore, oracle VisionOracle, log *logger.Logger) *FridgeService {
	return &FridgeService{
		store:  store,
		images: images,
		oracle: oracle,
		logger: log,
		now:    time.Now,
	}
}

// scope attaches the service logger to ctx unless the caller already supplied one.
func (s *FridgeService) scope(ctx context.Context) context.Context {
	if s.logger != nil && logger.FromContext(ctx) == logger.GetDefault() {
		return s.logger.WithContext(ctx)
	}
	return ctx
}

// Dispatch analyzes a new photo for userID, choosing the first-observation path when the
// user has no fridge status yet and the delta path otherwise.
func (s *FridgeService) Dispatch(ctx context.Context, userID string, img Image) (domain.FridgeSnapshot, error) {
	ctx = s.scope(ctx)
	status, err := s.store.FindStatus(ctx, userID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return s.AnalyzeFirstObservation(ctx, userID, img)
	case errors.Is(err, domain.ErrInvalidFoodList):
		return domain.FridgeSnapshot{}, s.report(ctx, fail(ErrValidation, "load fridge status", err))
	case err != nil:
		return domain.FridgeSnapshot{}, s.report(ctx, fail(ErrPersistence, "load fridge status", err))
	}
	return s.AnalyzeSubsequentObservation(ctx, userID, img, status)
}

// AnalyzeFirstObservation stores the photo, asks the oracle for the full food list and saves
// it as the user's first fridge status. Any failure after the upload deletes the photo.
func (s *FridgeService) AnalyzeFirstObservation(ctx context.Context, userID string, img Image) (domain.FridgeSnapshot, error) {
	ctx = s.scope(ctx)
	start := time.Now()

	imageID, err := s.images.Put(ctx, userID, img)
	if err != nil {
		return domain.FridgeSnapshot{}, s.report(ctx, fail(ErrPersistence, "store image", err))
	}
	ctx = logger.WithField(ctx, logger.FieldImageID, imageID)

	committed := false
	defer func() {
		if !committed {
			s.images.Delete(context.WithoutCancel(ctx), imageID)
		}
	}()

	url, err := s.images.SignedReadURL(ctx, imageID)
	if err != nil {
		return domain.FridgeSnapshot{}, s.report(ctx, fail(ErrPersistence, "sign image url", err))
	}

	snapshot, err := s.oracle.DescribeFridge(ctx, url)
	if err != nil {
		return domain.FridgeSnapshot{}, s.report(ctx, fail(ErrOracle, "describe fridge", err))
	}

	status, err := s.store.CreateStatus(ctx, userID, snapshot, s.now())
	if err != nil {
		return domain.FridgeSnapshot{}, s.report(ctx, fail(ErrPersistence, "create fridge status", err))
	}
	committed = true

	logger.With(logger.Fields{
		logger.FieldStatusID:   status.ID,
		logger.FieldCount:      len(snapshot.Foods),
		logger.FieldDurationMs: time.Since(start).Milliseconds(),
	}).Info(ctx, "First fridge observation recorded")

	return status.Status, nil
}

// AnalyzeSubsequentObservation compares the new photo with the user's previous one, applies
// the resulting delta to prior and records removed foods as calorie intake.
//
// On success the previous photo is deleted and the new one becomes current; on any failure
// after the upload the new photo is deleted instead, so exactly one photo stays live.
func (s *FridgeService) AnalyzeSubsequentObservation(ctx context.Context, userID string, img Image, prior *domain.UserFridgeLastStatus) (domain.FridgeSnapshot, error) {
	ctx = s.scope(ctx)
	start := time.Now()
	ctx = logger.WithField(ctx, logger.FieldStatusID, prior.ID)

	last, err := s.store.FindLastImage(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.FridgeSnapshot{}, s.report(ctx, fail(ErrNotFound, "find previous image", err))
	}
	if err != nil {
		return domain.FridgeSnapshot{}, s.report(ctx, fail(ErrPersistence, "find previous image", err))
	}

	lastURL, err := s.images.SignedReadURL(ctx, last.ID)
	if err != nil {
		return domain.FridgeSnapshot{}, s.report(ctx, fail(ErrPersistence, "sign previous image url", err))
	}

	imageID, err := s.images.Put(ctx, userID, img)
	if err != nil {
		return domain.FridgeSnapshot{}, s.report(ctx, fail(ErrPersistence, "store image", err))
	}
	ctx = logger.WithField(ctx, logger.FieldImageID, imageID)

	discard := imageID
	defer func() {
		s.images.Delete(context.WithoutCancel(ctx), discard)
	}()

	url, err := s.images.SignedReadURL(ctx, imageID)
	if err != nil {
		return domain.FridgeSnapshot{}, s.report(ctx, fail(ErrPersistence, "sign image url", err))
	}

	delta, err := s.oracle.DescribeFridgeDelta(ctx, lastURL, url, prior.Status.Text())
	if err != nil {
		return domain.FridgeSnapshot{}, s.report(ctx, fail(ErrOracle, "describe fridge delta", err))
	}

	result := Reconcile(prior.Status, delta)
	at := s.now()
	events := result.IntakeEvents(userID, at)

	if err := s.store.ApplyReconciliation(ctx, prior.ID, result.Snapshot, events, at); err != nil {
		return domain.FridgeSnapshot{}, s.report(ctx, fail(ErrPersistence, "save fridge status", err))
	}
	discard = last.ID

	logger.With(logger.Fields{
		"added":                len(delta.Add),
		"removed":              len(delta.Remove),
		"consumed":             len(events),
		logger.FieldCount:      len(result.Snapshot.Foods),
		logger.FieldDurationMs: time.Since(start).Milliseconds(),
	}).Info(ctx, "Fridge status reconciled")

	return result.Snapshot, nil
}

// CurrentStatus returns the user's last known fridge status.
func (s *FridgeService) CurrentStatus(ctx context.Context, userID string) (*domain.UserFridgeLastStatus, error) {
	ctx = s.scope(ctx)
	status, err := s.store.FindStatus(ctx, userID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, fail(ErrNotFound, "load fridge status", err)
	case errors.Is(err, domain.ErrInvalidFoodList):
		return nil, s.report(ctx, fail(ErrValidation, "load fridge status", err))
	case err != nil:
		return nil, s.report(ctx, fail(ErrPersistence, "load fridge status", err))
	}
	return status, nil
}

// IntakeSummary is a user's calorie intake history.
type IntakeSummary struct {
	Events        []domain.CalorieIntake `json:"events"`
	TotalCalories float64                `json:"totalCalories"`
}

// IntakeHistory returns intake events at or after since (zero for all), newest first.
func (s *FridgeService) IntakeHistory(ctx context.Context, userID string, since time.Time) (*IntakeSummary, error) {
	ctx = s.scope(ctx)
	events, err := s.store.ListCalorieIntake(ctx, userID, since)
	if err != nil {
		return nil, s.report(ctx, fail(ErrPersistence, "list calorie intake", err))
	}

	summary := &IntakeSummary{Events: events}
	if summary.Events == nil {
		summary.Events = []domain.CalorieIntake{}
	}
	for _, e := range events {
		summary.TotalCalories += e.Calorie
	}
	return summary, nil
}

// report logs the full cause of a failure and returns it unchanged.
func (s *FridgeService) report(ctx context.Context, err error) error {
	logger.FromContext(ctx).WithError(err).Error("Fridge analysis failed")
	return err
}
