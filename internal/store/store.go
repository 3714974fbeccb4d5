package store

import (
	"context"
	"errors"
	"time"

	"github.com/yourorg/wandermate/pkg/types"
)

// ErrNotFound is returned when a session id is unknown.
var ErrNotFound = errors.New("not found")

type SessionStore interface {
	CreateSession(ctx context.Context) (*types.SessionState, error)
	GetSession(ctx context.Context, id string) (*types.SessionState, error)
	SaveTrip(ctx context.Context, id string, trip TripState) error
	SaveChatHistory(ctx context.Context, id string, history []types.ChatTurn) error
	DeleteSession(ctx context.Context, id string) error

	Close() error
}

// TripState is the part of a session written after each plan.
type TripState struct {
	Destination   string
	Itinerary     string
	NumDays       int
	DepartureDate string
	ReturnDate    string
}

// Cache is a key/value store with per-entry expiry. Expired entries read
// as absent; values are only ever replaced whole.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
