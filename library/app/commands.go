package app

import (
	"context"

	"github.com/bohdan-yatsyna/Nearby-Lib-API/library/config"
	"github.com/bohdan-yatsyna/Nearby-Lib-API/library/internal/model"
	"github.com/bohdan-yatsyna/Nearby-Lib-API/library/internal/repository"
	"github.com/bohdan-yatsyna/Nearby-Lib-API/library/internal/service"
	"github.com/bohdan-yatsyna/Nearby-Lib-API/pkg/logger"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Migrate applies pending migrations and exits.
func Migrate(ctx context.Context, cfg *config.Config) error {
	db, err := OpenDB(ctx, cfg)
	if err != nil {
		return err
	}
	return db.Close()
}

// CheckOverdue runs a single overdue scan, notifying synchronously.
func CheckOverdue(ctx context.Context, cfg *config.Config) (int, error) {
	var found int
	err := withService(ctx, cfg, func(svc *service.Service) (err error) {
		found, err = svc.CheckOverdue(ctx)
		return err
	})
	return found, err
}

// Member is what an operator supplies when registering a user.
type Member struct {
	Email     string
	FirstName string
	LastName  string
	IsStaff   bool
}

// AddUser registers m and returns the new user id.
func AddUser(ctx context.Context, cfg *config.Config, m Member) (int64, error) {
	var id int64
	err := withService(ctx, cfg, func(svc *service.Service) error {
		u, err := svc.CreateUser(ctx, model.User{
			Email:     m.Email,
			FirstName: m.FirstName,
			LastName:  m.LastName,
			IsStaff:   m.IsStaff,
		})
		id = u.ID
		return err
	})
	return id, err
}

func DeleteUser(ctx context.Context, cfg *config.Config, id int64) error {
	return withService(ctx, cfg, func(svc *service.Service) error {
		return svc.DeleteUser(ctx, id)
	})
}

func withService(ctx context.Context, cfg *config.Config, fn func(svc *service.Service) error) error {
	log := logger.NewLogger(cfg.Log, "library")
	db, err := OpenDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer func(db *sqlx.DB) {
		if err := db.Close(); err != nil {
			log.Warn("db.Close", zap.Error(err))
		}
	}(db)

	repo, err := repository.NewRepository(db, log)
	if err != nil {
		return err
	}
	sink, producer, err := newSink(cfg, log)
	if err != nil {
		return err
	}
	if producer != nil {
		defer producer.Close() //nolint:errcheck
	}
	return fn(service.NewService(repo, sink, log))
}
