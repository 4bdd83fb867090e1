package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ms-landing/internal/logger"
	"ms-landing/internal/models"

	"github.com/segmentio/kafka-go"
)

const PurchaseCompletedType = "purchase.completed"

// MessageWriter is satisfied by *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	Writer MessageWriter
	logger *logger.Logger
}

func NewProducer(brokers []string, topic string, log *logger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
	}
	return &Producer{Writer: writer, logger: log}
}

// PublishPurchaseCompleted streams a recorded purchase keyed by checkout session.
func (p *Producer) PublishPurchaseCompleted(ctx context.Context, eventID string, purchase *models.Purchase) error {
	msgBytes, err := json.Marshal(models.PurchaseEvent{
		Type:      PurchaseCompletedType,
		EventID:   eventID,
		Purchase:  purchase,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	p.logger.Debug("KAFKA", fmt.Sprintf("Publishing [%s]: %s", PurchaseCompletedType, string(msgBytes)))

	return p.Writer.WriteMessages(ctx,
		kafka.Message{
			Key:   []byte(purchase.SessionID),
			Value: msgBytes,
		},
	)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
