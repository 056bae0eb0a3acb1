// Package schema validates events before they leave the service.
package schema

import (
	"errors"
	"fmt"
	"strings"

	"speech-translation-service/internal/models"
)

// ErrInvalidEvent is wrapped by every validation failure.
var ErrInvalidEvent = errors.New("invalid event")

// Validator checks outgoing translation events.
type Validator struct{}

// New creates a validator.
func New() *Validator {
	return &Validator{}
}

// Validate reports every missing or inconsistent field of event.
func (v *Validator) Validate(event models.TranslationEvent) error {
	var problems []string

	switch event.EventType {
	case models.EventRoomTranslationCreated:
		if event.RoomID == "" {
			problems = append(problems, "roomId is required for room events")
		}
	case models.EventUserTranslationCreated:
		if event.RoomID != "" {
			problems = append(problems, "roomId must be empty for user events")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown eventType %q", event.EventType))
	}

	if event.EventID == "" {
		problems = append(problems, "eventId is required")
	}
	if event.UserID == "" {
		problems = append(problems, "userId is required")
	}
	if event.Timestamp <= 0 {
		problems = append(problems, "timestamp must be positive")
	}
	if strings.TrimSpace(event.Record.SourceText) == "" {
		problems = append(problems, "record.sourceText is required")
	}
	if strings.TrimSpace(event.Record.TargetText) == "" {
		problems = append(problems, "record.targetText is required")
	}
	if event.Record.TargetLang == "" {
		problems = append(problems, "record.targetLang is required")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidEvent, strings.Join(problems, "; "))
	}
	return nil
}
