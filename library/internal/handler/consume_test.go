package handler_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/bohdan-yatsyna/Nearby-Lib-API/library/internal/errs"
	"github.com/bohdan-yatsyna/Nearby-Lib-API/library/internal/handler"
	"github.com/bohdan-yatsyna/Nearby-Lib-API/library/internal/notify"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSession struct {
	sarama.ConsumerGroupSession
	ctx context.Context

	mu     sync.Mutex
	marked []int64
}

func (s *fakeSession) Context() context.Context { return s.ctx }

func (s *fakeSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked = append(s.marked, msg.Offset)
}

func (s *fakeSession) offsets() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.marked...)
}

type fakeClaim struct {
	sarama.ConsumerGroupClaim
	messages chan *sarama.ConsumerMessage
}

func (c *fakeClaim) Messages() <-chan *sarama.ConsumerMessage { return c.messages }

func encode(t *testing.T, e notify.Event) []byte {
	t.Helper()
	data, err := notify.Encode(e)
	require.NoError(t, err)
	return data
}

func TestConsumer_ConsumeClaim(t *testing.T) {
	t.Parallel()
	created := notify.NewEvent(notify.KindCreated, borrowing(), time.Now())
	flaky := notify.NewEvent(notify.KindReturned, borrowing(), time.Now())
	next := notify.NewEvent(notify.KindOverdue, borrowing(), time.Now())

	var (
		got      []notify.Kind
		failures int
	)
	record := func(_ context.Context, e notify.Event) error {
		got = append(got, e.Kind)
		if e.ID == flaky.ID && failures < 2 {
			failures++
			return errs.ErrTransient
		}
		return nil
	}

	claim := &fakeClaim{messages: make(chan *sarama.ConsumerMessage, 4)}
	claim.messages <- &sarama.ConsumerMessage{Offset: 1, Value: encode(t, created)}
	claim.messages <- &sarama.ConsumerMessage{Offset: 2, Value: []byte("{broken")}
	claim.messages <- &sarama.ConsumerMessage{Offset: 3, Value: encode(t, flaky)}
	claim.messages <- &sarama.ConsumerMessage{Offset: 4, Value: encode(t, next)}
	close(claim.messages)
	session := &fakeSession{ctx: context.Background()}

	consumer := handler.NewConsumer(record, zap.NewNop(), handler.WithRetryBackoff(time.Millisecond, 2*time.Millisecond))
	require.NoError(t, consumer.ConsumeClaim(session, claim))

	require.Equal(t, []notify.Kind{
		notify.KindCreated,
		notify.KindReturned, notify.KindReturned, notify.KindReturned,
		notify.KindOverdue,
	}, got)
	// offset 3 is committed only after it was recorded, and before offset 4
	require.Equal(t, []int64{1, 2, 3, 4}, session.offsets())
}

func TestConsumer_TransientUntilSessionEnd(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var attempts atomic.Int32
	record := func(context.Context, notify.Event) error {
		if attempts.Add(1) == 3 {
			cancel()
		}
		return errs.ErrTransient
	}

	claim := &fakeClaim{messages: make(chan *sarama.ConsumerMessage, 2)}
	claim.messages <- &sarama.ConsumerMessage{
		Offset: 7,
		Value:  encode(t, notify.NewEvent(notify.KindCreated, borrowing(), time.Now())),
	}
	claim.messages <- &sarama.ConsumerMessage{
		Offset: 8,
		Value:  encode(t, notify.NewEvent(notify.KindReturned, borrowing(), time.Now())),
	}
	session := &fakeSession{ctx: ctx}

	consumer := handler.NewConsumer(record, zap.NewNop(), handler.WithRetryBackoff(time.Millisecond, time.Millisecond))
	require.NoError(t, consumer.ConsumeClaim(session, claim))

	require.Equal(t, int32(3), attempts.Load())
	require.Empty(t, session.offsets())
}

func TestConsumer_PermanentFailureIsSkipped(t *testing.T) {
	t.Parallel()
	claim := &fakeClaim{messages: make(chan *sarama.ConsumerMessage, 1)}
	claim.messages <- &sarama.ConsumerMessage{
		Offset: 5,
		Value:  encode(t, notify.NewEvent(notify.KindCreated, borrowing(), time.Now())),
	}
	close(claim.messages)
	session := &fakeSession{ctx: context.Background()}

	var calls int
	consumer := handler.NewConsumer(func(context.Context, notify.Event) error {
		calls++
		return errs.ErrNotFound
	}, zap.NewNop())
	require.NoError(t, consumer.ConsumeClaim(session, claim))

	require.Equal(t, 1, calls)
	require.Equal(t, []int64{5}, session.offsets())
}

func TestConsumer_StopsOnSessionEnd(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	claim := &fakeClaim{messages: make(chan *sarama.ConsumerMessage)}

	consumer := handler.NewConsumer(func(context.Context, notify.Event) error { return nil }, zap.NewNop())
	require.NoError(t, consumer.ConsumeClaim(&fakeSession{ctx: ctx}, claim))
}
