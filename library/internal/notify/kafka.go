package notify

import (
	"context"
	"strconv"

	"github.com/IBM/sarama"
	cb "github.com/bohdan-yatsyna/Nearby-Lib-API/pkg/circuit_breaker"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// KafkaSink publishes events keyed by borrowing id, so every event of one
// borrowing lands on the same partition in order.
type KafkaSink struct {
	producer sarama.SyncProducer
	topic    string
	breaker  cb.CircuitBreaker
}

func NewKafkaSink(producer sarama.SyncProducer, topic string, breaker cb.CircuitBreaker) *KafkaSink {
	return &KafkaSink{
		producer: producer,
		topic:    topic,
		breaker:  breaker,
	}
}

func (k *KafkaSink) Notify(ctx context.Context, e Event) error {
	data, err := Encode(e)
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(strconv.FormatInt(e.BorrowingID, 10)),
		Value: sarama.ByteEncoder(data),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event-id"), Value: []byte(e.ID)},
			{Key: []byte("event-kind"), Value: []byte(e.Kind)},
		},
	}
	return k.breaker.Call(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, _, err := k.producer.SendMessage(msg); err != nil {
			return errors.Wrap(err, "kafka send")
		}
		return nil
	})
}

func Encode(e Event) ([]byte, error) {
	return json.Marshal(e)
}

func Decode(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, errors.Wrap(err, "decode event")
	}
	return e, nil
}
