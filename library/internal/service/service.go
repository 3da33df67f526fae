package service

import (
	"context"
	"strings"
	"time"

	"github.com/bohdan-yatsyna/Nearby-Lib-API/library/internal/errs"
	"github.com/bohdan-yatsyna/Nearby-Lib-API/library/internal/model"
	"github.com/bohdan-yatsyna/Nearby-Lib-API/library/internal/notify"
	libraryRepo "github.com/bohdan-yatsyna/Nearby-Lib-API/library/internal/repository"
	"github.com/bohdan-yatsyna/Nearby-Lib-API/pkg/auth"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	minBorrowDays = 1
	maxBorrowDays = 30
)

type Service struct {
	log  *zap.Logger
	repo libraryRepo.Repository
	sink notify.Sink
	now  func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(repo libraryRepo.Repository, sink notify.Sink, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		log:  log.Named("service"),
		repo: repo,
		sink: sink,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) today() model.Date {
	return model.NewDate(s.now().UTC())
}

func (s *Service) ListBooks(ctx context.Context, page, size int) (model.ListBooks, error) {
	return s.repo.ListBooks(ctx, page, size)
}

func (s *Service) GetBook(ctx context.Context, id int64) (model.Book, error) {
	return s.repo.GetBook(ctx, id)
}

func (s *Service) CreateBook(ctx context.Context, p auth.Principal, req model.CreateBookRequest) (model.Book, error) {
	if !p.IsPrivileged {
		return model.Book{}, errs.ErrForbidden
	}
	if req.DailyFee.IsNegative() {
		return model.Book{}, errors.Wrap(errs.ErrInvalidBook, "daily_fee must not be negative")
	}
	if req.Inventory < 0 {
		return model.Book{}, errors.Wrap(errs.ErrInvalidBook, "inventory must not be negative")
	}
	return s.repo.CreateBook(ctx, model.Book{
		Title:     req.Title,
		Author:    req.Author,
		Cover:     model.Cover(strings.ToUpper(req.Cover)),
		Inventory: req.Inventory,
		DailyFee:  req.DailyFee.Round(2),
	})
}

// DeleteBook fails with errs.ErrProtected while any borrowing references the book.
func (s *Service) DeleteBook(ctx context.Context, p auth.Principal, id int64) error {
	if !p.IsPrivileged {
		return errs.ErrForbidden
	}
	return s.repo.DeleteBook(ctx, id)
}

func (s *Service) Me(ctx context.Context, p auth.Principal) (model.User, error) {
	return s.repo.GetUser(ctx, p.ID)
}

// UpdateMe applies a partial profile update for the caller.
func (s *Service) UpdateMe(ctx context.Context, p auth.Principal, req model.UpdateUserRequest) (model.User, error) {
	u, err := s.repo.GetUser(ctx, p.ID)
	if err != nil {
		return model.User{}, err
	}
	if req.Email != nil {
		if u.Email = normalizeEmail(*req.Email); u.Email == "" {
			return model.User{}, errors.Wrap(errs.ErrInvalidUser, "email is required")
		}
	}
	if req.FirstName != nil {
		u.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		u.LastName = strings.TrimSpace(*req.LastName)
	}
	return s.repo.UpdateUser(ctx, u)
}
