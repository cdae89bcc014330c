package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/timmy/dietsupport/internal/app"
	"github.com/timmy/dietsupport/internal/config"
	"github.com/timmy/dietsupport/internal/logger"
	"github.com/timmy/dietsupport/internal/service"
)

var errUsage = errors.New("usage: analyze -user <id> (-image <path> | -history)")

func main() {
	// Initialize logger first (with defaults)
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "text",
		Output:      os.Stderr,
		ServiceName: "dietsupport-analyze",
	})
	logger.SetDefaultLogger(appLogger)

	ctx, cancel := context.WithCancel(context.Background())

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Received shutdown signal, canceling...")
		cancel()
	}()

	err := run(ctx, appLogger, os.Args[1:], os.Stdout)
	cancel()
	switch {
	case errors.Is(err, errUsage), errors.Is(err, flag.ErrHelp):
		os.Exit(2)
	case err != nil:
		appLogger.WithError(err).Error("Analyze failed")
		os.Exit(1)
	}
}

// run parses args, analyzes a photo or prints intake history for one user, and writes
// the JSON result to out. Every failure is returned after deferred cleanup has run.
func run(ctx context.Context, appLogger *logger.Logger, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	userID := fs.String("user", "", "User ID to analyze the photo for")
	imagePath := fs.String("image", "", "Path to a JPEG, PNG, GIF or WebP fridge photo")
	history := fs.Bool("history", false, "Print the user's calorie intake instead of analyzing a photo")
	since := fs.Duration("since", 0, "With -history, only include intake from this long ago")
	configPath := fs.String("config", "", "Path to config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *userID == "" || (*imagePath == "" && !*history) {
		fs.Usage()
		return errUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	deps, err := app.New(ctx, cfg, appLogger)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer deps.Close()

	ctx = logger.SetUserID(appLogger.WithContext(ctx), *userID)

	user, err := deps.Users.Lookup(ctx, *userID)
	if err != nil {
		return fmt.Errorf("unknown user %s: %w", *userID, err)
	}
	logger.CtxInfo(ctx, "Running for %s", user.Name)

	if *history {
		var from time.Time
		if *since > 0 {
			from = time.Now().Add(-*since)
		}
		summary, err := deps.Fridge.IntakeHistory(ctx, *userID, from)
		if err != nil {
			return fmt.Errorf("failed to load intake history: %w", err)
		}
		return printJSON(out, summary)
	}

	data, err := os.ReadFile(*imagePath)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}
	img, err := service.NewImage(data, cfg.Analysis.MaxImageBytes)
	if err != nil {
		return fmt.Errorf("invalid image: %w", err)
	}

	snapshot, err := deps.Fridge.Dispatch(ctx, *userID, img)
	if err != nil {
		return fmt.Errorf("%s: %w", service.UserMessage(err), err)
	}

	return printJSON(out, snapshot)
}

func printJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
