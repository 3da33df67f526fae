package service

import (
	"context"
	"strings"

	"github.com/bohdan-yatsyna/Nearby-Lib-API/library/internal/errs"
	"github.com/bohdan-yatsyna/Nearby-Lib-API/library/internal/model"
	"github.com/pkg/errors"
)

// CreateUser registers a library member. Accounts are provisioned by
// operators, there is no self sign-up.
func (s *Service) CreateUser(ctx context.Context, u model.User) (model.User, error) {
	if u.Email = normalizeEmail(u.Email); u.Email == "" {
		return model.User{}, errors.Wrap(errs.ErrInvalidUser, "email is required")
	}
	return s.repo.CreateUser(ctx, u)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// DeleteUser fails with errs.ErrProtected while the user has borrowings.
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	return s.repo.DeleteUser(ctx, id)
}
