// Command create-admin bootstraps an administrator account.
package main

import (
	"context"
	"errors"
	"flag"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"secwatch/internal/config"
	pkgcrypto "secwatch/internal/crypto"
	"secwatch/internal/errs"
	"secwatch/internal/model"
	"secwatch/internal/repository/postgres"
)

func main() {
	username := flag.String("username", "admin", "admin username")
	email := flag.String("email", "admin@example.com", "admin email")
	password := flag.String("password", "", "admin password (required)")
	fullName := flag.String("full-name", "System Admin", "admin display name")
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	if *password == "" {
		logger.Fatal("missing -password")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("postgres.New", zap.Error(err))
	}
	defer db.Close()

	users := postgres.NewUserRepo(db)
	if _, err := users.GetByUsername(ctx, *username); err == nil {
		logger.Warn("admin user already exists", zap.String("username", *username))
		return
	} else if !errors.Is(err, errs.ErrNotFound) {
		logger.Fatal("lookup admin", zap.Error(err))
	}

	hash, err := pkgcrypto.HashPassword(*password)
	if err != nil {
		logger.Fatal("hash password", zap.Error(err))
	}
	uid, err := uuid.NewV4()
	if err != nil {
		logger.Fatal("generate id", zap.Error(err))
	}

	err = users.Create(ctx, &model.User{
		ID:             uid,
		Username:       *username,
		Email:          *email,
		HashedPassword: hash,
		Role:           model.RoleAdmin,
		FullName:       *fullName,
		IsActive:       true,
	})
	if err != nil {
		logger.Fatal("create admin", zap.Error(err))
	}
	logger.Info("admin user created", zap.String("username", *username))
}
