package errs

import (
	"errors"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrUnavailable     = errors.New("this book is not available for borrowing now")
	ErrInvalidDate     = errors.New("invalid date")
	ErrAlreadyReturned = errors.New("it is impossible to return borrowed book twice")
	ErrForbidden       = errors.New("forbidden")
	ErrProtected       = errors.New("entity is referenced by borrowings")
	ErrTransient       = errors.New("transient storage failure, retry the request")
	ErrInvalidBook     = errors.New("invalid book")
	ErrDuplicate       = errors.New("already exists")
	ErrInvalidUser     = errors.New("invalid user")
)
