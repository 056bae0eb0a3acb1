// Package events publishes translation events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"speech-translation-service/internal/models"
	"speech-translation-service/internal/observability/metrics"
	"speech-translation-service/internal/schema"
)

// Publisher publishes room-scoped and user-scoped translation events to
// separate Kafka topics. It implements history.Store.
type Publisher struct {
	writerRoom *kafka.Writer
	writerUser *kafka.Writer
	principal  string
	topicRoom  string
	topicUser  string
	enabled    bool
	validator  *schema.Validator
	metrics    *metrics.Metrics
	now        func() time.Time
}

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers   []string
	TopicRoom string
	TopicUser string
	Principal string
	Enabled   bool
}

// New creates a new Kafka event publisher. A nil or disabled config yields
// a log-only publisher.
func New(cfg *Config, m *metrics.Metrics) *Publisher {
	if m == nil {
		m = metrics.DefaultMetrics
	}
	p := &Publisher{
		validator: schema.New(),
		metrics:   m,
		now:       time.Now,
	}

	if cfg == nil {
		log.Info().Msg("Kafka disabled (nil config), using log-only mode")
		return p
	}

	p.principal = cfg.Principal
	p.topicRoom = cfg.TopicRoom
	p.topicUser = cfg.TopicUser

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("Kafka disabled, using log-only mode")
		return p
	}

	// Longer dial timeout for DNS resolution in Kubernetes
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}
	transport := &kafka.Transport{
		Dial: dialer.DialFunc,
	}

	p.writerRoom = newWriter(cfg.Brokers, cfg.TopicRoom, transport)
	p.writerUser = newWriter(cfg.Brokers, cfg.TopicUser, transport)
	p.enabled = true

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topicRoom", cfg.TopicRoom).
		Str("topicUser", cfg.TopicUser).
		Str("principal", cfg.Principal).
		Msg("Kafka publisher initialized")

	return p
}

func newWriter(brokers []string, topic string, transport *kafka.Transport) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}
}

// Name returns the store name.
func (p *Publisher) Name() string {
	return "kafka"
}

// Append publishes rec as a room or user event depending on scope.
func (p *Publisher) Append(ctx context.Context, scope models.Scope, rec models.TranslationRecord) error {
	event := NewEvent(scope, rec, p.now())
	if err := p.validator.Validate(event); err != nil {
		return err
	}

	if scope.IsRoom() {
		return p.publish(ctx, p.writerRoom, p.topicRoom, event.EventType, scope.RoomID, event)
	}
	return p.publish(ctx, p.writerUser, p.topicUser, event.EventType, scope.UserID, event)
}

// NewEvent wraps rec in the envelope for scope.
func NewEvent(scope models.Scope, rec models.TranslationRecord, now time.Time) models.TranslationEvent {
	eventType := models.EventUserTranslationCreated
	if scope.IsRoom() {
		eventType = models.EventRoomTranslationCreated
	}
	return models.TranslationEvent{
		EventType: eventType,
		EventID:   uuid.NewString(),
		RoomID:    scope.RoomID,
		UserID:    scope.UserID,
		Timestamp: now.UnixMilli(),
		Record:    rec,
	}
}

// publish writes one event to a specific Kafka writer.
func (p *Publisher) publish(ctx context.Context, writer *kafka.Writer, topic, eventType, key string, event models.TranslationEvent) error {
	start := time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Failed to marshal event")
		return err
	}

	log.Debug().
		Str("principal", p.principal).
		Str("topic", topic).
		Str("key", key).
		RawJSON("payload", payload).
		Msg("Publishing event")

	// If Kafka is disabled, just log
	if !p.enabled || writer == nil {
		p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(eventType)},
			{Key: "principal", Value: []byte(p.principal)},
		},
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("topic", topic).
			Str("key", key).
			Msg("Failed to write to Kafka")
		p.metrics.RecordKafkaPublish(topic, eventType, err, time.Since(start).Seconds())
		return fmt.Errorf("kafka write %s: %w", topic, err)
	}

	p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
	return nil
}

// Close closes both Kafka writers.
func (p *Publisher) Close() error {
	var err error
	if p.writerRoom != nil {
		if e := p.writerRoom.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing room writer")
			err = e
		}
	}
	if p.writerUser != nil {
		if e := p.writerUser.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing user writer")
			err = e
		}
	}
	return err
}
