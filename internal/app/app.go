// Package app wires configuration into the database, storage and services shared by the
// server and the command line tools.
package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/timmy/dietsupport/internal/auth"
	"github.com/timmy/dietsupport/internal/config"
	"github.com/timmy/dietsupport/internal/logger"
	"github.com/timmy/dietsupport/internal/repository"
	"github.com/timmy/dietsupport/internal/service"
	"github.com/timmy/dietsupport/internal/storage"
)

// App holds the initialized dependencies.
type App struct {
	Config *config.Config
	SQL    *sql.DB

	Fridge *service.FridgeService
	Users  *service.UserService
	Tokens *auth.TokenIssuer
}

// New opens the database and object storage and builds the services.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB instance: %w", err)
	}

	objectStorage, err := storage.NewStorage(&storage.S3Config{
		Type:                 storage.StorageType(cfg.Storage.Type),
		Endpoint:             cfg.Storage.Endpoint,
		AccessKey:            cfg.Storage.AccessKey,
		SecretKey:            cfg.Storage.SecretKey,
		UseSSL:               cfg.Storage.UseSSL,
		Bucket:               cfg.Storage.Bucket,
		Region:               cfg.Storage.Region,
		ServerSideEncryption: cfg.Storage.ServerSideEncryption,
	})
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	if err := objectStorage.EnsureBucket(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ensure storage bucket: %w", err)
	}

	tokens, err := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		SigningSecret: []byte(cfg.Auth.JWTSecret),
		Issuer:        cfg.Auth.Issuer,
		TokenTTL:      cfg.Auth.TokenTTL,
	})
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to initialize token issuer: %w", err)
	}

	fridgeRepo := repository.NewFridgeRepository(db)
	userRepo := repository.NewUserRepository(db)

	vlmService := service.NewVLMService(&service.VLMConfig{
		Model:            cfg.VLM.Model,
		APIKey:           cfg.VLM.APIKey,
		BaseURL:          cfg.VLM.BaseURL,
		Timeout:          cfg.VLM.Timeout,
		Seed:             cfg.VLM.Seed,
		FoodNameLanguage: cfg.VLM.FoodNameLanguage,
	})
	images := service.NewBucketImageStore(objectStorage, fridgeRepo, cfg.Analysis.SignedURLTTL)

	log.WithFields(logger.Fields{
		"driver": cfg.Database.Driver,
		"bucket": cfg.Storage.Bucket,
		"model":  vlmService.GetModel(),
	}).Info("Dependencies initialized")

	return &App{
		Config: cfg,
		SQL:    sqlDB,
		Fridge: service.NewFridgeService(fridgeRepo, images, vlmService, log),
		Users:  service.NewUserService(userRepo, tokens),
		Tokens: tokens,
	}, nil
}

// Close releases the database connection pool.
func (a *App) Close() error {
	return a.SQL.Close()
}
