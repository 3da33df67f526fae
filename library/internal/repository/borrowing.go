package repository

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/bohdan-yatsyna/Nearby-Lib-API/library/internal/errs"
	"github.com/bohdan-yatsyna/Nearby-Lib-API/library/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

func (r *repository) borrowingSelect() sq.SelectBuilder {
	return r.qb.Select(
		"b.id", "b.book_id", "b.user_id", "b.borrow_date", "b.expected_return_date", "b.actual_return_date",
		"bk.title AS book_title",
		"COALESCE(NULLIF(TRIM(u.first_name || ' ' || u.last_name), ''), u.email) AS user_full_name",
		"bk.daily_fee",
	).
		From(borrowingsTableName + " b").
		Join(fmt.Sprintf("%s bk ON bk.id = b.book_id", booksTableName)).
		Join(fmt.Sprintf("%s u ON u.id = b.user_id", usersTableName))
}

// CreateBorrowing takes one copy of the book and records the borrowing in a
// single transaction. The inventory check and decrement are one conditional
// update, so concurrent callers cannot both take the last copy.
func (r *repository) CreateBorrowing(ctx context.Context, userID, bookID int64, borrowDate, expectedReturnDate model.Date) (model.Borrowing, error) {
	var b model.Borrowing
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		query, args, err := r.qb.Update(booksTableName).
			Set("inventory", sq.Expr("inventory - 1")).
			Where(sq.Eq{"id": bookID}).
			Where(sq.Gt{"inventory": 0}).
			ToSql()
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return errors.Wrap(err, "take copy")
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			ok, err := r.exists(ctx, tx, booksTableName, bookID)
			if err != nil {
				return err
			}
			if !ok {
				return errors.Wrap(errs.ErrNotFound, "book")
			}
			return errs.ErrUnavailable
		}

		query, args, err = r.qb.Insert(borrowingsTableName).
			Columns("book_id", "user_id", "borrow_date", "expected_return_date").
			Values(bookID, userID, borrowDate.Time, expectedReturnDate.Time).
			Suffix("RETURNING id").
			ToSql()
		if err != nil {
			return err
		}
		var id int64
		if err := tx.GetContext(ctx, &id, query, args...); err != nil {
			if err = r.mapErr(err); errors.Is(err, errForeignKey) {
				return errors.Wrap(errs.ErrNotFound, "user")
			}
			r.log.Error("CreateBorrowing", zap.String("q", query), zap.Any("args", args))
			return errors.Wrap(err, "insert borrowing")
		}
		b, err = r.getBorrowing(ctx, tx, id)
		return err
	})
	if err != nil {
		return model.Borrowing{}, err
	}
	return b, nil
}

// ReturnBorrowing closes an active borrowing and puts the copy back. The
// borrowing row is only updated while actual_return_date is NULL, which makes
// the transition one-shot.
func (r *repository) ReturnBorrowing(ctx context.Context, id int64, actualReturnDate model.Date) (model.Borrowing, error) {
	var b model.Borrowing
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		query, args, err := r.qb.Update(borrowingsTableName).
			Set("actual_return_date", actualReturnDate.Time).
			Where(sq.Eq{"id": id}).
			Where(sq.Eq{"actual_return_date": nil}).
			Suffix("RETURNING book_id").
			ToSql()
		if err != nil {
			return err
		}
		var bookID int64
		if err := tx.GetContext(ctx, &bookID, query, args...); err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return errors.Wrap(err, "close borrowing")
			}
			ok, err := r.exists(ctx, tx, borrowingsTableName, id)
			if err != nil {
				return err
			}
			if !ok {
				return errs.ErrNotFound
			}
			return errs.ErrAlreadyReturned
		}

		query, args, err = r.qb.Update(booksTableName).
			Set("inventory", sq.Expr("inventory + 1")).
			Where(sq.Eq{"id": bookID}).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return errors.Wrap(err, "put copy back")
		}
		b, err = r.getBorrowing(ctx, tx, id)
		return err
	})
	if err != nil {
		return model.Borrowing{}, err
	}
	return b, nil
}

func (r *repository) GetBorrowing(ctx context.Context, id int64) (model.Borrowing, error) {
	return r.getBorrowing(ctx, r.db, id)
}

// getBorrowing reads the joined view through q, so the write paths can read
// their result inside the same transaction.
func (r *repository) getBorrowing(ctx context.Context, q sqlx.QueryerContext, id int64) (model.Borrowing, error) {
	query, args, err := r.borrowingSelect().
		Where(sq.Eq{"b.id": id}).
		ToSql()
	if err != nil {
		return model.Borrowing{}, err
	}
	var b model.Borrowing
	if err := sqlx.GetContext(ctx, q, &b, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Borrowing{}, errs.ErrNotFound
		}
		return model.Borrowing{}, errors.Wrap(err, "GetBorrowing")
	}
	return b, nil
}

func (r *repository) ListBorrowings(ctx context.Context, filter model.BorrowingFilter) ([]model.Borrowing, error) {
	q := r.borrowingSelect()
	if filter.UserID != nil {
		q = q.Where(sq.Eq{"b.user_id": *filter.UserID})
	}
	if filter.ActiveOnly {
		q = q.Where(sq.Eq{"b.actual_return_date": nil})
	}
	q = q.OrderBy("b.expected_return_date ASC", "b.id ASC")
	q = paginate(q, filter.Page, filter.Size)

	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	r.log.Debug("ListBorrowings", zap.String("query", query), zap.Any("args", args))

	items := make([]model.Borrowing, 0)
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, errors.Wrap(err, "ListBorrowings")
	}
	return items, nil
}

func (r *repository) ListOverdue(ctx context.Context, until model.Date) ([]model.Borrowing, error) {
	query, args, err := r.borrowingSelect().
		Where(sq.Eq{"b.actual_return_date": nil}).
		Where(sq.LtOrEq{"b.expected_return_date": until.Time}).
		OrderBy("b.expected_return_date ASC", "b.id ASC").
		ToSql()
	if err != nil {
		return nil, err
	}
	items := make([]model.Borrowing, 0)
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, errors.Wrap(err, "ListOverdue")
	}
	return items, nil
}
