package service

import (
	"context"

	"github.com/bohdan-yatsyna/Nearby-Lib-API/library/internal/errs"
	"github.com/bohdan-yatsyna/Nearby-Lib-API/library/internal/metrics"
	"github.com/bohdan-yatsyna/Nearby-Lib-API/library/internal/model"
	"github.com/bohdan-yatsyna/Nearby-Lib-API/library/internal/notify"
	"github.com/bohdan-yatsyna/Nearby-Lib-API/pkg/auth"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// CreateBorrowing lends one copy of a book to the caller. The expected return
// date must fall 1 to 30 days after today.
func (s *Service) CreateBorrowing(ctx context.Context, p auth.Principal, req model.CreateBorrowingRequest) (model.Borrowing, error) {
	today := s.today()
	expected := req.ExpectedReturnDate
	if expected.IsZero() ||
		expected.Before(today.AddDays(minBorrowDays).Time) ||
		expected.After(today.AddDays(maxBorrowDays).Time) {
		metrics.BorrowingRejected.WithLabelValues("create", "invalid_date").Inc()
		return model.Borrowing{}, errors.Wrapf(errs.ErrInvalidDate,
			"expected_return_date must be in range from %s to %s", today.AddDays(minBorrowDays), today.AddDays(maxBorrowDays))
	}

	b, err := s.repo.CreateBorrowing(ctx, p.ID, req.BookID, today, model.NewDate(expected.Time))
	if err != nil {
		metrics.BorrowingRejected.WithLabelValues("create", reason(err)).Inc()
		return model.Borrowing{}, err
	}
	metrics.BorrowingsCreated.Inc()
	s.notify(ctx, notify.KindCreated, b)
	return b, nil
}

// ReturnBorrowing closes an active borrowing. Only privileged callers may
// return books and a borrowing can be returned once.
func (s *Service) ReturnBorrowing(ctx context.Context, p auth.Principal, id int64, req model.ReturnBorrowingRequest) (model.Borrowing, error) {
	if !p.IsPrivileged {
		metrics.BorrowingRejected.WithLabelValues("return", "forbidden").Inc()
		return model.Borrowing{}, errs.ErrForbidden
	}
	today := s.today()
	actual := req.ActualReturnDate
	if actual.IsZero() {
		actual = today
	}
	if actual.Before(today.Time) {
		metrics.BorrowingRejected.WithLabelValues("return", "invalid_date").Inc()
		return model.Borrowing{}, errors.Wrap(errs.ErrInvalidDate, "actual_return_date can not be in the past")
	}

	b, err := s.repo.ReturnBorrowing(ctx, id, model.NewDate(actual.Time))
	if err != nil {
		metrics.BorrowingRejected.WithLabelValues("return", reason(err)).Inc()
		return model.Borrowing{}, err
	}
	metrics.BorrowingsReturned.Inc()
	s.notify(ctx, notify.KindReturned, b)
	return b, nil
}

// ListBorrowings never lets a non-privileged caller see another user's
// borrowings: their own id replaces whatever user filter they sent.
func (s *Service) ListBorrowings(ctx context.Context, p auth.Principal, req model.ListBorrowingsRequest) (model.ListBorrowings, error) {
	filter := model.BorrowingFilter{
		ActiveOnly: req.IsActive,
		Page:       req.Page,
		Size:       req.Size,
	}
	if p.IsPrivileged {
		filter.UserID = req.UserID
	} else {
		own := p.ID
		filter.UserID = &own
	}

	items, err := s.repo.ListBorrowings(ctx, filter)
	if err != nil {
		return model.ListBorrowings{}, err
	}
	return model.ListBorrowings{
		Paging: model.Paging{
			Page:          req.Page,
			PageSize:      req.Size,
			TotalElements: len(items),
		},
		Items: items,
	}, nil
}

// GetBorrowing reports another user's borrowing as not found to
// non-privileged callers.
func (s *Service) GetBorrowing(ctx context.Context, p auth.Principal, id int64) (model.Borrowing, error) {
	b, err := s.repo.GetBorrowing(ctx, id)
	if err != nil {
		return model.Borrowing{}, err
	}
	if !p.IsPrivileged && b.UserID != p.ID {
		return model.Borrowing{}, errs.ErrNotFound
	}
	return b, nil
}

// CheckOverdue emits an overdue event for every active borrowing due by
// tomorrow and returns how many were found.
func (s *Service) CheckOverdue(ctx context.Context) (int, error) {
	items, err := s.repo.ListOverdue(ctx, s.today().AddDays(1))
	if err != nil {
		return 0, err
	}
	metrics.OverdueFound.Set(float64(len(items)))
	for _, b := range items {
		s.notify(ctx, notify.KindOverdue, b)
	}
	s.log.Info("overdue check", zap.Int("found", len(items)))
	return len(items), nil
}

func (s *Service) notify(ctx context.Context, kind notify.Kind, b model.Borrowing) {
	if err := s.sink.Notify(ctx, notify.NewEvent(kind, b, s.now())); err != nil {
		metrics.NotificationsFailed.WithLabelValues(string(kind)).Inc()
		s.log.Warn("notify", zap.String("kind", string(kind)), zap.Int64("borrowing_id", b.ID), zap.Error(err))
	}
}

func reason(err error) string {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return "not_found"
	case errors.Is(err, errs.ErrUnavailable):
		return "unavailable"
	case errors.Is(err, errs.ErrAlreadyReturned):
		return "already_returned"
	case errors.Is(err, errs.ErrTransient):
		return "transient"
	}
	return "internal"
}
