// Package models defines the records and events shared by the pipeline,
// the history stores and the broadcast hub.
package models

import "time"

// Event types carried by TranslationEvent.
const (
	EventRoomTranslationCreated = "room.translation.created"
	EventUserTranslationCreated = "user.translation.created"
)

// TranslationMetadata carries request diagnostics alongside a record.
type TranslationMetadata struct {
	Timestamp        time.Time `json:"timestamp"`
	ProcessingTimeMs int64     `json:"processingTime"`
	Translator       string    `json:"translator,omitempty"`
}

// TranslationRecord is one successful, filter-passing translation.
// Records are immutable once created.
type TranslationRecord struct {
	ID         string              `json:"id"`
	SourceText string              `json:"sourceText"`
	SourceLang string              `json:"sourceLang"`
	TargetText string              `json:"targetText"`
	TargetLang string              `json:"targetLang"`
	CreatedAt  time.Time           `json:"createdAt"`
	CreatedBy  string              `json:"createdBy,omitempty"`
	Metadata   TranslationMetadata `json:"metadata"`
}

// Scope selects where a record is appended: the user's personal history
// when RoomID is empty, the room's shared history otherwise.
type Scope struct {
	UserID string `json:"userId"`
	RoomID string `json:"roomId,omitempty"`
}

// IsRoom reports whether the scope is room-scoped.
func (s Scope) IsRoom() bool {
	return s.RoomID != ""
}

// String returns a short label for logs and metrics.
func (s Scope) String() string {
	if s.IsRoom() {
		return "room"
	}
	return "user"
}

// UserScope returns the personal history scope of userID.
func UserScope(userID string) Scope {
	return Scope{UserID: userID}
}

// RoomScope returns the shared history scope of roomID, written by userID.
func RoomScope(roomID, userID string) Scope {
	return Scope{UserID: userID, RoomID: roomID}
}

// TranslationEvent is the envelope published to Kafka and pushed to
// room WebSocket clients.
type TranslationEvent struct {
	EventType string            `json:"eventType"`
	EventID   string            `json:"eventId"`
	RoomID    string            `json:"roomId,omitempty"`
	UserID    string            `json:"userId"`
	Timestamp int64             `json:"timestamp"`
	Record    TranslationRecord `json:"record"`
}
