package handler

import (
	"context"

	"github.com/bohdan-yatsyna/Nearby-Lib-API/library/internal/model"
	"github.com/bohdan-yatsyna/Nearby-Lib-API/library/internal/service"
	"github.com/bohdan-yatsyna/Nearby-Lib-API/pkg/auth"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type LibraryService interface {
	ListBooks(ctx context.Context, page, size int) (model.ListBooks, error)
	GetBook(ctx context.Context, id int64) (model.Book, error)
	CreateBook(ctx context.Context, p auth.Principal, req model.CreateBookRequest) (model.Book, error)
	DeleteBook(ctx context.Context, p auth.Principal, id int64) error
	Me(ctx context.Context, p auth.Principal) (model.User, error)
	UpdateMe(ctx context.Context, p auth.Principal, req model.UpdateUserRequest) (model.User, error)

	CreateBorrowing(ctx context.Context, p auth.Principal, req model.CreateBorrowingRequest) (model.Borrowing, error)
	ReturnBorrowing(ctx context.Context, p auth.Principal, id int64, req model.ReturnBorrowingRequest) (model.Borrowing, error)
	ListBorrowings(ctx context.Context, p auth.Principal, req model.ListBorrowingsRequest) (model.ListBorrowings, error)
	GetBorrowing(ctx context.Context, p auth.Principal, id int64) (model.Borrowing, error)

	ListPayments(ctx context.Context, p auth.Principal, page, size int) (model.ListPayments, error)
	GetPayment(ctx context.Context, p auth.Principal, id int64) (model.Payment, error)
}

var _ LibraryService = (*service.Service)(nil)
