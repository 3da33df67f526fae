// Package notify delivers borrowing lifecycle events to an external sink.
// Delivery is best effort: callers never fail because a sink did.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bohdan-yatsyna/Nearby-Lib-API/library/internal/metrics"
	"github.com/bohdan-yatsyna/Nearby-Lib-API/library/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Kind string

const (
	KindCreated  Kind = "CREATED"
	KindReturned Kind = "RETURNED"
	KindOverdue  Kind = "OVERDUE"
)

type Event struct {
	ID                 string          `json:"id"`
	Kind               Kind            `json:"kind"`
	OccurredAt         time.Time       `json:"occurred_at"`
	BorrowingID        int64           `json:"borrowing_id"`
	BookID             int64           `json:"book_id"`
	BookTitle          string          `json:"book_title"`
	UserID             int64           `json:"user_id"`
	UserDisplayName    string          `json:"user_display_name"`
	BorrowDate         model.Date      `json:"borrow_date"`
	ExpectedReturnDate model.Date      `json:"expected_return_date"`
	ActualReturnDate   *model.Date     `json:"actual_return_date,omitempty"`
	DailyFee           decimal.Decimal `json:"daily_fee"`
}

func NewEvent(kind Kind, b model.Borrowing, at time.Time) Event {
	return Event{
		ID:                 uuid.NewString(),
		Kind:               kind,
		OccurredAt:         at.UTC(),
		BorrowingID:        b.ID,
		BookID:             b.BookID,
		BookTitle:          b.Book,
		UserID:             b.UserID,
		UserDisplayName:    b.User,
		BorrowDate:         b.BorrowDate,
		ExpectedReturnDate: b.ExpectedReturnDate,
		ActualReturnDate:   b.ActualReturnDate,
		DailyFee:           b.DailyFee,
	}
}

// Message renders the event for a human reader.
func (e Event) Message() string {
	switch e.Kind {
	case KindCreated:
		return fmt.Sprintf("New borrowing is created by user: %s.\nBook: %s, with expected return date: %s.",
			e.UserDisplayName, e.BookTitle, e.ExpectedReturnDate)
	case KindReturned:
		return fmt.Sprintf("User %s returned book: %s, borrowing ID: %d.", e.UserDisplayName, e.BookTitle, e.BorrowingID)
	case KindOverdue:
		return fmt.Sprintf("User %s\nBook: %s, borrowing ID: %d\nExpected return date was: %s",
			e.UserDisplayName, e.BookTitle, e.BorrowingID, e.ExpectedReturnDate)
	}
	return string(e.Kind)
}

type Sink interface {
	Notify(ctx context.Context, e Event) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Notify(context.Context, Event) error { return nil }

// LogSink writes events to the service log. Used when no broker is configured.
type LogSink struct {
	log *zap.Logger
}

func NewLogSink(log *zap.Logger) *LogSink {
	return &LogSink{log: log.Named("notify")}
}

func (s *LogSink) Notify(_ context.Context, e Event) error {
	s.log.Info(e.Message(), zap.String("kind", string(e.Kind)), zap.Int64("borrowing_id", e.BorrowingID))
	return nil
}

// Async hands events to the wrapped sink on a separate goroutine, bounded by
// timeout, so a slow or unavailable sink never stalls the caller.
type Async struct {
	sink    Sink
	log     *zap.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewAsync(sink Sink, log *zap.Logger, timeout time.Duration) *Async {
	return &Async{
		sink:    sink,
		log:     log.Named("notify"),
		timeout: timeout,
	}
}

func (a *Async) Notify(_ context.Context, e Event) error {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()
		if err := a.sink.Notify(ctx, e); err != nil {
			metrics.NotificationsFailed.WithLabelValues(string(e.Kind)).Inc()
			a.log.Warn("notification dropped",
				zap.String("kind", string(e.Kind)),
				zap.Int64("borrowing_id", e.BorrowingID),
				zap.Error(err))
		}
	}()
	return nil
}

// Wait blocks until in-flight notifications finish.
func (a *Async) Wait() {
	a.wg.Wait()
}
