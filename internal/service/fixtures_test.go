package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/timmy/dietsupport/internal/domain"
	"github.com/timmy/dietsupport/internal/logger"
	"github.com/timmy/dietsupport/internal/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := repository.Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, G: 240, B: 255, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func quietLogger() *logger.Logger {
	return logger.New(&logger.Config{Level: "error", Format: "json", Output: io.Discard, ServiceName: "test"})
}

// memoryStorage is an in-memory ObjectStorage.
type memoryStorage struct {
	mu        sync.Mutex
	objects   map[string][]byte
	uploadErr error
	deleteErr error
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{objects: make(map[string][]byte)}
}

func (m *memoryStorage) EnsureBucket(ctx context.Context) error { return nil }

func (m *memoryStorage) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	if m.uploadErr != nil {
		return m.uploadErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memoryStorage) PresignGetURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; !ok {
		return "", fmt.Errorf("object %s does not exist", key)
	}
	return fmt.Sprintf("https://storage.test/%s?expires=%d", key, int(ttl.Seconds())), nil
}

func (m *memoryStorage) Delete(ctx context.Context, key string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memoryStorage) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	return keys
}

// scriptedOracle answers with canned JSON content, decoded the same way the model client does.
type scriptedOracle struct {
	snapshotContent string
	deltaContent    string
	err             error

	describeCalls int
	deltaCalls    int
	lastPrevURL   string
	lastNewURL    string
	lastPrior     string
}

func (o *scriptedOracle) DescribeFridge(ctx context.Context, imageURL string) (domain.FridgeSnapshot, error) {
	o.describeCalls++
	o.lastNewURL = imageURL
	if o.err != nil {
		return domain.FridgeSnapshot{}, o.err
	}
	return domain.DecodeSnapshot([]byte(o.snapshotContent))
}

func (o *scriptedOracle) DescribeFridgeDelta(ctx context.Context, prevURL, newURL, priorSnapshot string) (domain.FridgeDelta, error) {
	o.deltaCalls++
	o.lastPrevURL = prevURL
	o.lastNewURL = newURL
	o.lastPrior = priorSnapshot
	if o.err != nil {
		return domain.FridgeDelta{}, o.err
	}
	return domain.DecodeDelta([]byte(o.deltaContent))
}

type fridgeFixture struct {
	db      *gorm.DB
	repo    *repository.FridgeRepository
	storage *memoryStorage
	images  *BucketImageStore
	oracle  *scriptedOracle
	service *FridgeService
	now     time.Time
	image   Image
}

func newFridgeFixture(t *testing.T) *fridgeFixture {
	t.Helper()
	db := newTestDB(t)

	f := &fridgeFixture{
		db:      db,
		repo:    repository.NewFridgeRepository(db),
		storage: newMemoryStorage(),
		oracle:  &scriptedOracle{},
		now:     time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
	}
	f.images = NewBucketImageStore(f.storage, f.repo, 10*time.Minute)
	f.useStore(t, f.repo, quietLogger())

	img, err := NewImage(testPNG(t, 4, 3), 0)
	if err != nil {
		t.Fatalf("failed to build test image: %v", err)
	}
	f.image = img
	return f
}

// useStore rebuilds the service around store and log, sharing the fixture's images and oracle.
func (f *fridgeFixture) useStore(t *testing.T, store FridgeStore, log *logger.Logger) {
	t.Helper()
	f.service = NewFridgeService(store, f.images, f.oracle, log)
	f.service.now = func() time.Time { return f.now }
}

func (f *fridgeFixture) imageCount(t *testing.T, userID string) int64 {
	t.Helper()
	var count int64
	if err := f.db.Model(&domain.FridgeImage{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		t.Fatalf("failed to count images: %v", err)
	}
	return count
}

func (f *fridgeFixture) intake(t *testing.T, userID string) []domain.CalorieIntake {
	t.Helper()
	events, err := f.repo.ListCalorieIntake(context.Background(), userID, time.Time{})
	if err != nil {
		t.Fatalf("failed to list intake: %v", err)
	}
	return events
}

// failingSaveStore is the real repository except that saving a reconciliation fails.
type failingSaveStore struct {
	*repository.FridgeRepository
	err error
}

func (s *failingSaveStore) ApplyReconciliation(ctx context.Context, statusID string, snapshot domain.FridgeSnapshot, events []domain.CalorieIntake, at time.Time) error {
	return s.err
}

var errOracleDown = errors.New("oracle unavailable")
