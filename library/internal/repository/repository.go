package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/bohdan-yatsyna/Nearby-Lib-API/library/internal/errs"
	"github.com/bohdan-yatsyna/Nearby-Lib-API/library/internal/model"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type Repository interface {
	ListBooks(ctx context.Context, page, size int) (model.ListBooks, error)
	GetBook(ctx context.Context, id int64) (model.Book, error)
	CreateBook(ctx context.Context, book model.Book) (model.Book, error)
	DeleteBook(ctx context.Context, id int64) error

	GetUser(ctx context.Context, id int64) (model.User, error)
	CreateUser(ctx context.Context, user model.User) (model.User, error)
	UpdateUser(ctx context.Context, user model.User) (model.User, error)
	DeleteUser(ctx context.Context, id int64) error

	CreateBorrowing(ctx context.Context, userID, bookID int64, borrowDate, expectedReturnDate model.Date) (model.Borrowing, error)
	ReturnBorrowing(ctx context.Context, id int64, actualReturnDate model.Date) (model.Borrowing, error)
	GetBorrowing(ctx context.Context, id int64) (model.Borrowing, error)
	ListBorrowings(ctx context.Context, filter model.BorrowingFilter) ([]model.Borrowing, error)
	ListOverdue(ctx context.Context, until model.Date) ([]model.Borrowing, error)

	CreatePayment(ctx context.Context, p model.Payment) error
	GetPayment(ctx context.Context, id int64) (model.Payment, error)
	ListPayments(ctx context.Context, userID *int64, page, size int) ([]model.Payment, error)
}

type repository struct {
	db  *sqlx.DB
	qb  sq.StatementBuilderType
	log *zap.Logger
}

func NewRepository(db *sqlx.DB, log *zap.Logger) (*repository, error) {
	r := &repository{
		db:  db,
		log: log.Named("repo"),
	}
	switch db.DriverName() {
	case "pgx", "postgres":
		r.qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	case "sqlite":
		r.qb = sq.StatementBuilder.PlaceholderFormat(sq.Question)
	default:
		return nil, errors.Errorf("unsupported driver %q", db.DriverName())
	}
	return r, nil
}

const (
	booksTableName      = `books`
	usersTableName      = `users`
	borrowingsTableName = `borrowings`
	paymentsTableName   = `payments`

	txTimeout = 10 * time.Second
)

// errForeignKey is translated by callers: NotFound on insert, Protected on delete.
var errForeignKey = errors.New("foreign key violation")

// withTx runs fn in a transaction. Every exit path other than a successful
// commit rolls back, panics included.
func (r *repository) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	ctx, cancel := context.WithTimeout(ctx, txTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return r.mapErr(errors.Wrap(err, "begin tx"))
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback() //nolint:errcheck
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				r.log.Error("tx.Rollback", zap.Error(rbErr))
			}
		}
	}()

	if err = fn(tx); err != nil {
		return r.mapErr(err)
	}
	if err = tx.Commit(); err != nil {
		r.log.Error("tx.Commit", zap.Error(err))
		return errors.Wrap(errs.ErrTransient, err.Error())
	}
	return nil
}

func (r *repository) mapErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.ForeignKeyViolation:
			return errors.Wrap(errForeignKey, pgErr.Message)
		case pgerrcode.UniqueViolation:
			return errors.Wrap(errs.ErrDuplicate, pgErr.Message)
		case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected, pgerrcode.LockNotAvailable:
			return errors.Wrap(errs.ErrTransient, pgErr.Message)
		}
		return err
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		// ON DELETE RESTRICT is enforced as a trigger constraint.
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY, sqlite3.SQLITE_CONSTRAINT_TRIGGER:
			if strings.Contains(liteErr.Error(), "FOREIGN KEY") {
				return errors.Wrap(errForeignKey, liteErr.Error())
			}
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return errors.Wrap(errs.ErrDuplicate, liteErr.Error())
		}
		switch liteErr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return errors.Wrap(errs.ErrTransient, liteErr.Error())
		}
	}
	return err
}

func paginate(q sq.SelectBuilder, page, size int) sq.SelectBuilder {
	if page > 0 && size > 0 {
		q = q.Limit(uint64(size)).Offset(uint64((page - 1) * size))
	}
	return q
}

func (r *repository) exists(ctx context.Context, tx *sqlx.Tx, table string, id int64) (bool, error) {
	query, args, err := r.qb.Select("1").From(table).Where(sq.Eq{"id": id}).Limit(1).ToSql()
	if err != nil {
		return false, err
	}
	var one int
	if err := tx.GetContext(ctx, &one, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
