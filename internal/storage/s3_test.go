package storage

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestDetectStorageType(t *testing.T) {
	tests := []struct {
		endpoint string
		want     StorageType
	}{
		{"https://acct.r2.cloudflarestorage.com", StorageTypeR2},
		{"s3.ap-northeast-1.amazonaws.com", StorageTypeS3},
		{"localhost:9000", StorageTypeS3Compatible},
	}
	for _, tt := range tests {
		if got := detectStorageType(tt.endpoint); got != tt.want {
			t.Errorf("detectStorageType(%q) = %s, want %s", tt.endpoint, got, tt.want)
		}
	}
}

func TestNormalizeEndpoint(t *testing.T) {
	tests := map[string]string{
		"https://acct.r2.cloudflarestorage.com/diet-support-bucket": "acct.r2.cloudflarestorage.com",
		"http://localhost:9000/":                                    "localhost:9000",
		"localhost:9000":                                            "localhost:9000",
	}
	for in, want := range tests {
		if got := normalizeEndpoint(in); got != want {
			t.Errorf("normalizeEndpoint(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPresignGetURL(t *testing.T) {
	store, err := NewStorage(&S3Config{
		Endpoint:  "localhost:9000",
		AccessKey: "access",
		SecretKey: "secret",
		Bucket:    "diet-support-bucket",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	signed, err := store.PresignGetURL(context.Background(), "image-1", 10*time.Minute)
	if err != nil {
		t.Fatalf("unexpected presign error: %v", err)
	}

	u, err := url.Parse(signed)
	if err != nil {
		t.Fatalf("invalid url %q: %v", signed, err)
	}
	if u.Host != "localhost:9000" {
		t.Errorf("unexpected host %s", u.Host)
	}
	if u.Path != "/diet-support-bucket/image-1" {
		t.Errorf("expected path-style key, got %s", u.Path)
	}
	q := u.Query()
	if q.Get("X-Amz-Expires") != "600" {
		t.Errorf("expected 600s expiry, got %q", q.Get("X-Amz-Expires"))
	}
	if q.Get("X-Amz-Signature") == "" {
		t.Error("expected a signature")
	}
	if !strings.HasPrefix(q.Get("X-Amz-Credential"), "access/") {
		t.Errorf("unexpected credential %q", q.Get("X-Amz-Credential"))
	}
}
