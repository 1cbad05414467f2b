package producer

import (
	"context"
	"encoding/json"
	"time"

	"cart-service/internal/service"

	"github.com/segmentio/kafka-go"
)

type CheckoutProducer struct {
	writer *kafka.Writer
}

func NewCheckoutProducer(brokers []string, topic string) *CheckoutProducer {
	return &CheckoutProducer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireAll,
		},
	}
}

func (p *CheckoutProducer) PublishCartCheckedOut(ctx context.Context, e service.CartCheckedOutEvent) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	value, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.UserID.String()),
		Value: value,
	})
}

func (p *CheckoutProducer) Close() error {
	return p.writer.Close()
}
