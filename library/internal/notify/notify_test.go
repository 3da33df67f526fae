package notify_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/bohdan-yatsyna/Nearby-Lib-API/library/internal/model"
	"github.com/bohdan-yatsyna/Nearby-Lib-API/library/internal/notify"
	cb "github.com/bohdan-yatsyna/Nearby-Lib-API/pkg/circuit_breaker"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sampleEvent() notify.Event {
	borrowDate := model.NewDate(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	return notify.NewEvent(notify.KindCreated, model.Borrowing{
		ID:                 11,
		BookID:             3,
		UserID:             2,
		BorrowDate:         borrowDate,
		ExpectedReturnDate: borrowDate.AddDays(10),
		Book:               "Shantaram",
		User:               "Jane Doe",
		DailyFee:           decimal.RequireFromString("0.12"),
	}, borrowDate.Time)
}

func TestKafkaSink_Notify(t *testing.T) {
	t.Parallel()
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	producer := mocks.NewSyncProducer(t, cfg)
	defer producer.Close()

	ev := sampleEvent()
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		got, err := notify.Decode(val)
		if err != nil {
			return err
		}
		if got.BorrowingID != ev.BorrowingID || got.Kind != ev.Kind || got.ExpectedReturnDate != ev.ExpectedReturnDate {
			return errors.New("unexpected payload")
		}
		if !got.DailyFee.Equal(ev.DailyFee) {
			return errors.New("unexpected fee")
		}
		return nil
	})

	sink := notify.NewKafkaSink(producer, "borrowing-events", cb.New(cb.Config{RecordLength: 2, Timeout: time.Minute, Percentile: 1, RecoveryRequests: 1}))
	require.NoError(t, sink.Notify(context.Background(), ev))
}

func TestKafkaSink_BreakerOpens(t *testing.T) {
	t.Parallel()
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	producer := mocks.NewSyncProducer(t, cfg)
	defer producer.Close()

	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	sink := notify.NewKafkaSink(producer, "borrowing-events", cb.New(cb.Config{RecordLength: 2, Timeout: time.Minute, Percentile: 1, RecoveryRequests: 1}))
	require.ErrorIs(t, sink.Notify(context.Background(), sampleEvent()), sarama.ErrOutOfBrokers)
	require.ErrorIs(t, sink.Notify(context.Background(), sampleEvent()), sarama.ErrOutOfBrokers)
	// third call never reaches the producer
	require.ErrorIs(t, sink.Notify(context.Background(), sampleEvent()), cb.ErrOpenCB)
}

type failingSink struct {
	calls atomic.Int32
}

func (s *failingSink) Notify(context.Context, notify.Event) error {
	s.calls.Add(1)
	return errors.New("sink is down")
}

type blockingSink struct{}

func (blockingSink) Notify(ctx context.Context, _ notify.Event) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestAsync_SwallowsFailures(t *testing.T) {
	t.Parallel()
	inner := &failingSink{}
	a := notify.NewAsync(inner, zap.NewNop(), time.Second)

	require.NoError(t, a.Notify(context.Background(), sampleEvent()))
	require.NoError(t, a.Notify(context.Background(), sampleEvent()))
	a.Wait()
	require.Equal(t, int32(2), inner.calls.Load())
}

func TestAsync_DoesNotBlockCaller(t *testing.T) {
	t.Parallel()
	a := notify.NewAsync(blockingSink{}, zap.NewNop(), 50*time.Millisecond)

	start := time.Now()
	require.NoError(t, a.Notify(context.Background(), sampleEvent()))
	require.Less(t, time.Since(start), 50*time.Millisecond)
	a.Wait()
}

func TestEvent_Message(t *testing.T) {
	t.Parallel()
	require.Equal(t,
		"New borrowing is created by user: Jane Doe.\nBook: Shantaram, with expected return date: 2024-03-11.",
		sampleEvent().Message())
}
