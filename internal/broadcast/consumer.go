package broadcast

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"speech-translation-service/internal/models"
)

// ConsumerConfig selects the room topic to follow.
type ConsumerConfig struct {
	Brokers []string
	Topic   string
	// GroupID is empty so that every replica delivers every event to its
	// own WebSocket clients.
	GroupID string
}

// MessageReader is the subset of *kafka.Reader used by Consume.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// NewReader creates a Kafka reader positioned at the newest offset.
func NewReader(cfg ConsumerConfig) *kafka.Reader {
	rc := kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  500 * time.Millisecond,
	}
	if cfg.GroupID == "" {
		rc.StartOffset = kafka.LastOffset
	}
	return kafka.NewReader(rc)
}

// Consume reads room events from r and publishes them to the hub until ctx
// is done. Undecodable messages are skipped.
func Consume(ctx context.Context, hub *Hub, r MessageReader, logger zerolog.Logger) {
	defer r.Close()

	for {
		msg, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn().Err(err).Msg("Kafka read error")
			select {
			case <-time.After(time.Second):
				continue
			case <-ctx.Done():
				return
			}
		}

		var event models.TranslationEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Warn().Err(err).Str("topic", msg.Topic).Msg("Skipping undecodable event")
			continue
		}
		if event.EventType != models.EventRoomTranslationCreated {
			continue
		}

		logger.Debug().
			Str("roomId", event.RoomID).
			Str("eventId", event.EventID).
			Msg("Received room translation")

		if err := hub.Publish(ctx, event); err != nil {
			return
		}
	}
}
