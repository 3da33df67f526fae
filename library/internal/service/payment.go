package service

import (
	"context"

	"github.com/bohdan-yatsyna/Nearby-Lib-API/library/internal/errs"
	"github.com/bohdan-yatsyna/Nearby-Lib-API/library/internal/metrics"
	"github.com/bohdan-yatsyna/Nearby-Lib-API/library/internal/model"
	"github.com/bohdan-yatsyna/Nearby-Lib-API/library/internal/notify"
	"github.com/bohdan-yatsyna/Nearby-Lib-API/pkg/auth"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var fineMultiplier = decimal.NewFromInt(2)

func (s *Service) ListPayments(ctx context.Context, p auth.Principal, page, size int) (model.ListPayments, error) {
	var userID *int64
	if !p.IsPrivileged {
		own := p.ID
		userID = &own
	}
	items, err := s.repo.ListPayments(ctx, userID, page, size)
	if err != nil {
		return model.ListPayments{}, err
	}
	return model.ListPayments{
		Paging: model.Paging{
			Page:          page,
			PageSize:      size,
			TotalElements: len(items),
		},
		Items: items,
	}, nil
}

func (s *Service) GetPayment(ctx context.Context, p auth.Principal, id int64) (model.Payment, error) {
	pay, err := s.repo.GetPayment(ctx, id)
	if err != nil {
		return model.Payment{}, err
	}
	if !p.IsPrivileged && pay.UserID != p.ID {
		return model.Payment{}, errs.ErrNotFound
	}
	return pay, nil
}

// RecordEvent is the payment ledger side of the borrowing events: a created
// borrowing owes daily_fee for every borrowed day, a late return owes a fine.
func (s *Service) RecordEvent(ctx context.Context, e notify.Event) error {
	var pay model.Payment
	switch e.Kind {
	case notify.KindCreated:
		days := e.BorrowDate.DaysUntil(e.ExpectedReturnDate)
		pay = model.Payment{
			Type:  model.PaymentTypePayment,
			ToPay: e.DailyFee.Mul(decimal.NewFromInt(int64(days))).Round(2),
		}
	case notify.KindReturned:
		if e.ActualReturnDate == nil {
			return nil
		}
		overdue := e.ExpectedReturnDate.DaysUntil(*e.ActualReturnDate)
		if overdue <= 0 {
			return nil
		}
		pay = model.Payment{
			Type:  model.PaymentTypeFine,
			ToPay: e.DailyFee.Mul(decimal.NewFromInt(int64(overdue))).Mul(fineMultiplier).Round(2),
		}
	default:
		return nil
	}
	pay.Status = model.PaymentStatusPending
	pay.BorrowingID = e.BorrowingID

	if err := s.repo.CreatePayment(ctx, pay); err != nil {
		return err
	}
	metrics.PaymentsRecorded.WithLabelValues(string(pay.Type)).Inc()
	s.log.Debug("payment recorded",
		zap.Int64("borrowing_id", e.BorrowingID),
		zap.String("type", string(pay.Type)),
		zap.String("to_pay", pay.ToPay.StringFixed(2)))
	return nil
}
