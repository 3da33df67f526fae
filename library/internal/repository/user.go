package repository

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/bohdan-yatsyna/Nearby-Lib-API/library/internal/errs"
	"github.com/bohdan-yatsyna/Nearby-Lib-API/library/internal/model"
	"github.com/pkg/errors"
)

func (r *repository) GetUser(ctx context.Context, id int64) (model.User, error) {
	query, args, err := r.qb.Select("id", "email", "first_name", "last_name", "is_staff").
		From(usersTableName).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return model.User{}, err
	}
	var u model.User
	if err := r.db.GetContext(ctx, &u, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, errs.ErrNotFound
		}
		return model.User{}, errors.Wrap(err, "GetUser")
	}
	return u, nil
}

func (r *repository) CreateUser(ctx context.Context, u model.User) (model.User, error) {
	query, args, err := r.qb.Insert(usersTableName).
		Columns("email", "first_name", "last_name", "is_staff").
		Values(u.Email, u.FirstName, u.LastName, u.IsStaff).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return model.User{}, err
	}
	if err := r.db.GetContext(ctx, &u.ID, query, args...); err != nil {
		return model.User{}, errors.Wrap(r.mapErr(err), "CreateUser")
	}
	return u, nil
}

func (r *repository) UpdateUser(ctx context.Context, u model.User) (model.User, error) {
	query, args, err := r.qb.Update(usersTableName).
		SetMap(map[string]interface{}{
			"email":      u.Email,
			"first_name": u.FirstName,
			"last_name":  u.LastName,
		}).
		Where(sq.Eq{"id": u.ID}).
		ToSql()
	if err != nil {
		return model.User{}, err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return model.User{}, errors.Wrap(r.mapErr(err), "UpdateUser")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.User{}, errs.ErrNotFound
	}
	return r.GetUser(ctx, u.ID)
}

func (r *repository) DeleteUser(ctx context.Context, id int64) error {
	query, args, err := r.qb.Delete(usersTableName).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if err = r.mapErr(err); errors.Is(err, errForeignKey) {
			return errs.ErrProtected
		}
		return errors.Wrap(err, "DeleteUser")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errs.ErrNotFound
	}
	return nil
}
