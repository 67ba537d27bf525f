package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// CloudEvent is the envelope every message on the platform topics uses.
type CloudEvent struct {
	ID          string          `json:"id"`
	Source      string          `json:"source"`
	SpecVersion string          `json:"specversion"`
	Type        string          `json:"type"`
	Time        time.Time       `json:"time"`
	Subject     string          `json:"subject,omitempty"`
	ContentType string          `json:"contenttype"`
	Data        json.RawMessage `json:"data"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher sends promotions as CloudEvents keyed by user id, so one
// user's promotions stay ordered within a partition.
type KafkaPublisher struct {
	writer messageWriter
	source string
}

func NewKafkaPublisher(brokers []string, topic, source string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
		source: source,
	}
}

func (p *KafkaPublisher) PublishTierPromotion(ctx context.Context, promo TierPromotion) error {
	msg, err := p.encode(promo)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish tier promotion for %s: %w", promo.UserID, err)
	}
	return nil
}

func (p *KafkaPublisher) encode(promo TierPromotion) (kafka.Message, error) {
	data, err := json.Marshal(promo)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal tier promotion: %w", err)
	}
	event := CloudEvent{
		ID:          uuid.NewString(),
		Source:      p.source,
		SpecVersion: "1.0",
		Type:        TypeTierPromoted,
		Time:        promo.PromotedAt.UTC(),
		Subject:     promo.UserID,
		ContentType: "application/json",
		Data:        data,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal cloud event: %w", err)
	}
	return kafka.Message{Key: []byte(promo.UserID), Value: payload}, nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
