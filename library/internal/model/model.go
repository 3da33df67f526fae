package model

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Paging struct {
	Page          int `json:"page"`
	PageSize      int `json:"pageSize"`
	TotalElements int `json:"totalElements"`
}

type ListBooks struct {
	Paging
	Items []Book `json:"items"`
}

type ListBorrowings struct {
	Paging
	Items []Borrowing `json:"items"`
}

type ListPayments struct {
	Paging
	Items []Payment `json:"items"`
}

type Cover string

const (
	CoverHard Cover = "HARD"
	CoverSoft Cover = "SOFT"
)

type Book struct {
	ID        int64           `json:"id" db:"id"`
	Title     string          `json:"title" db:"title"`
	Author    string          `json:"author" db:"author"`
	Cover     Cover           `json:"cover" db:"cover"`
	Inventory int             `json:"inventory" db:"inventory"`
	DailyFee  decimal.Decimal `json:"daily_fee" db:"daily_fee"`
}

type CreateBookRequest struct {
	Title     string          `json:"title" validate:"required,max=255"`
	Author    string          `json:"author" validate:"required,max=255"`
	Cover     string          `json:"cover" validate:"required,cover"`
	Inventory int             `json:"inventory" validate:"gte=0,lte=32767"`
	DailyFee  decimal.Decimal `json:"daily_fee"`
}

type User struct {
	ID        int64  `json:"id" db:"id"`
	Email     string `json:"email" db:"email"`
	FirstName string `json:"first_name" db:"first_name"`
	LastName  string `json:"last_name" db:"last_name"`
	IsStaff   bool   `json:"is_staff" db:"is_staff"`
}

// UpdateUserRequest changes only the fields that are present. Staff status is
// not self-service.
type UpdateUserRequest struct {
	Email     *string `json:"email" validate:"omitempty,email,max=255"`
	FirstName *string `json:"first_name" validate:"omitempty,max=255"`
	LastName  *string `json:"last_name" validate:"omitempty,max=255"`
}

func (u User) FullName() string {
	if name := strings.TrimSpace(u.FirstName + " " + u.LastName); name != "" {
		return name
	}
	return u.Email
}

type Borrowing struct {
	ID                 int64 `json:"id" db:"id"`
	BookID             int64 `json:"book_id" db:"book_id"`
	UserID             int64 `json:"user_id" db:"user_id"`
	BorrowDate         Date  `json:"borrow_date" db:"borrow_date"`
	ExpectedReturnDate Date  `json:"expected_return_date" db:"expected_return_date"`
	ActualReturnDate   *Date `json:"actual_return_date" db:"actual_return_date"`

	// Book title and borrower full name, joined for read views.
	Book     string          `json:"book" db:"book_title"`
	User     string          `json:"user" db:"user_full_name"`
	DailyFee decimal.Decimal `json:"-" db:"daily_fee"`
}

// IsActive reports whether the book is still borrowed.
func (b Borrowing) IsActive() bool {
	return b.ActualReturnDate == nil
}

type CreateBorrowingRequest struct {
	BookID             int64 `json:"book" validate:"required,gt=0"`
	ExpectedReturnDate Date  `json:"expected_return_date"`
}

type ReturnBorrowingRequest struct {
	ActualReturnDate Date `json:"actual_return_date"`
}

// BorrowingFilter is what the storage layer applies; authorization has already
// been resolved into UserID by the time it gets here.
type BorrowingFilter struct {
	UserID     *int64
	ActiveOnly bool
	Page       int
	Size       int
}

// ListBorrowingsRequest is what the caller asked for.
type ListBorrowingsRequest struct {
	IsActive bool
	UserID   *int64
	Page     int
	Size     int
}

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPaid    PaymentStatus = "PAID"
)

type PaymentType string

const (
	PaymentTypePayment PaymentType = "PAYMENT"
	PaymentTypeFine    PaymentType = "FINE"
)

type Payment struct {
	ID          int64           `json:"id" db:"id"`
	Status      PaymentStatus   `json:"status" db:"status"`
	Type        PaymentType     `json:"type" db:"type"`
	BorrowingID int64           `json:"borrowing_id" db:"borrowing_id"`
	SessionURL  *string         `json:"session_url" db:"session_url"`
	SessionID   *string         `json:"session_id" db:"session_id"`
	ToPay       decimal.Decimal `json:"to_pay" db:"to_pay"`
	UserID      int64           `json:"-" db:"user_id"`
}

// Date is a calendar day in UTC, serialised as YYYY-MM-DD.
type Date struct {
	time.Time
}

func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// DaysUntil is the number of whole days from d to other.
func (d Date) DaysUntil(other Date) int {
	return int(other.Time.Sub(d.Time).Hours() / 24)
}

func (d Date) String() string {
	return d.Format(time.DateOnly)
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), "\"")
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	date, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return err
	}
	d.Time = date
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = NewDate(v)
		return nil
	case string:
		return d.parse(v)
	case []byte:
		return d.parse(string(v))
	case nil:
		d.Time = time.Time{}
		return nil
	}
	return fmt.Errorf("model.Date: unsupported type %T", src)
}

func (d Date) Value() (driver.Value, error) {
	return d.Time, nil
}

var dateLayouts = []string{
	time.DateOnly,
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
}

func (d *Date) parse(s string) error {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			*d = NewDate(t)
			return nil
		}
	}
	return fmt.Errorf("model.Date: cannot parse %q", s)
}
