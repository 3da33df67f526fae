package repository

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/bohdan-yatsyna/Nearby-Lib-API/library/internal/errs"
	"github.com/bohdan-yatsyna/Nearby-Lib-API/library/internal/model"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var bookColumns = []string{"id", "title", "author", "cover", "inventory", "daily_fee"}

func (r *repository) ListBooks(ctx context.Context, page, size int) (model.ListBooks, error) {
	q := r.qb.Select(bookColumns...).
		From(booksTableName).
		OrderBy("author", "id")
	q = paginate(q, page, size)

	query, args, err := q.ToSql()
	if err != nil {
		return model.ListBooks{}, err
	}
	r.log.Debug("ListBooks", zap.String("query", query), zap.Any("args", args))

	books := make([]model.Book, 0)
	if err := r.db.SelectContext(ctx, &books, query, args...); err != nil {
		return model.ListBooks{}, errors.Wrap(err, "ListBooks")
	}
	return model.ListBooks{
		Paging: model.Paging{
			Page:          page,
			PageSize:      size,
			TotalElements: len(books),
		},
		Items: books,
	}, nil
}

func (r *repository) GetBook(ctx context.Context, id int64) (model.Book, error) {
	query, args, err := r.qb.Select(bookColumns...).
		From(booksTableName).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	var book model.Book
	if err := r.db.GetContext(ctx, &book, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Book{}, errs.ErrNotFound
		}
		return model.Book{}, errors.Wrap(err, "GetBook")
	}
	return book, nil
}

func (r *repository) CreateBook(ctx context.Context, book model.Book) (model.Book, error) {
	query, args, err := r.qb.Insert(booksTableName).
		Columns("title", "author", "cover", "inventory", "daily_fee").
		Values(book.Title, book.Author, string(book.Cover), book.Inventory, book.DailyFee).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return model.Book{}, err
	}
	if err := r.db.GetContext(ctx, &book.ID, query, args...); err != nil {
		r.log.Error("CreateBook", zap.String("q", query), zap.Any("args", args))
		return model.Book{}, errors.Wrap(err, "CreateBook")
	}
	return book, nil
}

func (r *repository) DeleteBook(ctx context.Context, id int64) error {
	query, args, err := r.qb.Delete(booksTableName).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if err = r.mapErr(err); errors.Is(err, errForeignKey) {
			return errs.ErrProtected
		}
		return errors.Wrap(err, "DeleteBook")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errs.ErrNotFound
	}
	return nil
}
