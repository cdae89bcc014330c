package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/timmy/dietsupport/internal/logger"
)

func quietLogger() *logger.Logger {
	return logger.New(&logger.Config{Level: "error", Format: "text", Output: io.Discard, ServiceName: "test"})
}

func TestRunRejectsMissingFlags(t *testing.T) {
	testCases := []struct {
		name string
		args []string
	}{
		{name: "no flags", args: nil},
		{name: "no user", args: []string{"-image", "fridge.png"}},
		{name: "no image or history", args: []string{"-user", "user-1"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			err := run(context.Background(), quietLogger(), tc.args, &out)
			if !errors.Is(err, errUsage) {
				t.Fatalf("expected usage error, got %v", err)
			}
			if out.Len() != 0 {
				t.Errorf("expected no output, got %q", out.String())
			}
		})
	}
}

func TestRunReturnsConfigError(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	missing := filepath.Join(t.TempDir(), "missing.yaml")

	err := run(context.Background(), quietLogger(), []string{"-user", "user-1", "-history", "-config", missing}, io.Discard)
	if err == nil {
		t.Fatal("expected an error for a missing config file")
	}
	if !strings.Contains(err.Error(), "failed to load config") {
		t.Errorf("unexpected error: %v", err)
	}
}
