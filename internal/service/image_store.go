package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/timmy/dietsupport/internal/domain"
	"github.com/timmy/dietsupport/internal/logger"
	"github.com/timmy/dietsupport/internal/storage"
)

// imageRecords is the metadata side of the image store.
type imageRecords interface {
	CreateImage(ctx context.Context, image *domain.FridgeImage) error
	DeleteImage(ctx context.Context, id string) error
}

// BucketImageStore keeps fridge photos in object storage, with one metadata row per object.
// It implements ImageStore.
type BucketImageStore struct {
	storage storage.ObjectStorage
	records imageRecords
	ttl     time.Duration
}

// NewBucketImageStore creates an image store whose signed URLs stay valid for ttl.
func NewBucketImageStore(objectStorage storage.ObjectStorage, records imageRecords, ttl time.Duration) *BucketImageStore {
	return &BucketImageStore{
		storage: objectStorage,
		records: records,
		ttl:     ttl,
	}
}

// Put records and uploads a photo for userID and returns its image ID.
// A failed upload removes the record it created.
func (s *BucketImageStore) Put(ctx context.Context, userID string, img Image) (string, error) {
	record := &domain.FridgeImage{
		UserID:      userID,
		ContentType: img.ContentType,
		Size:        int64(len(img.Data)),
	}
	if err := s.records.CreateImage(ctx, record); err != nil {
		return "", fmt.Errorf("failed to create image record: %w", err)
	}

	if err := s.storage.Upload(ctx, record.ID, bytes.NewReader(img.Data), int64(len(img.Data)), img.ContentType); err != nil {
		if delErr := s.records.DeleteImage(context.WithoutCancel(ctx), record.ID); delErr != nil {
			logger.FromContext(ctx).WithField(logger.FieldImageID, record.ID).WithError(delErr).
				Warn("Failed to remove image record after upload failure")
		}
		return "", err
	}

	logger.FromContext(ctx).WithFields(logger.Fields{
		logger.FieldImageID: record.ID,
		"width":             img.Width,
		"height":            img.Height,
		"bytes":             record.Size,
	}).Debug("Stored fridge image")
	return record.ID, nil
}

// SignedReadURL returns a time-limited URL for reading the image.
func (s *BucketImageStore) SignedReadURL(ctx context.Context, id string) (string, error) {
	return s.storage.PresignGetURL(ctx, id, s.ttl)
}

// Delete removes the object and then its record. When the object cannot be removed the
// record is kept so the photo can still be found and deleted later. Failures are logged
// and reported as false.
func (s *BucketImageStore) Delete(ctx context.Context, id string) bool {
	log := logger.FromContext(ctx).WithField(logger.FieldImageID, id)

	if err := s.storage.Delete(ctx, id); err != nil {
		log.WithError(err).Warn("Failed to delete image object, keeping its record")
		return false
	}
	if err := s.records.DeleteImage(ctx, id); err != nil {
		log.WithError(err).Warn("Failed to delete image record")
		return false
	}
	return true
}
