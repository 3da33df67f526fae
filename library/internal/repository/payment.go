package repository

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/bohdan-yatsyna/Nearby-Lib-API/library/internal/errs"
	"github.com/bohdan-yatsyna/Nearby-Lib-API/library/internal/model"
	"github.com/pkg/errors"
)

func (r *repository) paymentSelect() sq.SelectBuilder {
	return r.qb.Select("p.id", "p.status", "p.type", "p.borrowing_id", "p.session_url", "p.session_id", "p.to_pay", "b.user_id").
		From(paymentsTableName + " p").
		Join(fmt.Sprintf("%s b ON b.id = p.borrowing_id", borrowingsTableName))
}

// CreatePayment is a no-op when a payment of the same type already exists for
// the borrowing, so redelivered events do not double charge.
func (r *repository) CreatePayment(ctx context.Context, p model.Payment) error {
	query, args, err := r.qb.Insert(paymentsTableName).
		Columns("status", "type", "borrowing_id", "session_url", "session_id", "to_pay").
		Values(string(p.Status), string(p.Type), p.BorrowingID, p.SessionURL, p.SessionID, p.ToPay).
		Suffix("ON CONFLICT (borrowing_id, type) DO NOTHING").
		ToSql()
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if err = r.mapErr(err); errors.Is(err, errForeignKey) {
			return errors.Wrap(errs.ErrNotFound, "borrowing")
		}
		return errors.Wrap(err, "CreatePayment")
	}
	return nil
}

func (r *repository) GetPayment(ctx context.Context, id int64) (model.Payment, error) {
	query, args, err := r.paymentSelect().Where(sq.Eq{"p.id": id}).ToSql()
	if err != nil {
		return model.Payment{}, err
	}
	var p model.Payment
	if err := r.db.GetContext(ctx, &p, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Payment{}, errs.ErrNotFound
		}
		return model.Payment{}, errors.Wrap(err, "GetPayment")
	}
	return p, nil
}

func (r *repository) ListPayments(ctx context.Context, userID *int64, page, size int) ([]model.Payment, error) {
	q := r.paymentSelect()
	if userID != nil {
		q = q.Where(sq.Eq{"b.user_id": *userID})
	}
	q = paginate(q.OrderBy("p.id"), page, size)

	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	items := make([]model.Payment, 0)
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, errors.Wrap(err, "ListPayments")
	}
	return items, nil
}
