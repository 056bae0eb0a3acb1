// Package history persists successful translations to the user's personal
// history and to shared room histories.
package history

import (
	"context"
	"time"

	"speech-translation-service/internal/models"
)

// DefaultListLimit bounds list queries that do not set a limit.
const DefaultListLimit = 50

// Store appends records to one backend (SQLite, Kafka, the room hub).
type Store interface {
	// Name identifies the store in logs and metrics.
	Name() string

	// Append writes rec under scope.
	Append(ctx context.Context, scope models.Scope, rec models.TranslationRecord) error
}

// Reader is implemented by stores that can answer history queries.
type Reader interface {
	ListByUser(ctx context.Context, userID string, limit int) ([]models.TranslationRecord, error)
	ListByRoom(ctx context.Context, roomID string, limit int) ([]models.TranslationRecord, error)
	// DeleteRoom removes the whole history of a room.
	DeleteRoom(ctx context.Context, roomID string) (int64, error)
}

// Pruner is implemented by stores that support retention.
type Pruner interface {
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// StoreFunc adapts a function to the Store interface.
type StoreFunc struct {
	StoreName string
	Fn        func(ctx context.Context, scope models.Scope, rec models.TranslationRecord) error
}

// Name returns the store name.
func (s StoreFunc) Name() string { return s.StoreName }

// Append calls Fn.
func (s StoreFunc) Append(ctx context.Context, scope models.Scope, rec models.TranslationRecord) error {
	return s.Fn(ctx, scope, rec)
}

// Scopes returns the write targets for one translation: the room when
// roomID is set, and always the user's own history.
func Scopes(userID, roomID string) []models.Scope {
	scopes := make([]models.Scope, 0, 2)
	if roomID != "" {
		scopes = append(scopes, models.RoomScope(roomID, userID))
	}
	return append(scopes, models.UserScope(userID))
}
