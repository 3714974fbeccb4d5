package types

import "time"

// ChatTurn is one user message and the assistant reply to it.
type ChatTurn struct {
	User string `json:"user"`
	Bot  string `json:"bot"`
}

// SessionState is the per-visitor state kept between requests.
type SessionState struct {
	ID            string     `json:"id"`
	Destination   string     `json:"destination"`
	Itinerary     string     `json:"itinerary"`
	NumDays       int        `json:"num_days"`
	DepartureDate string     `json:"departure_date"`
	ReturnDate    string     `json:"return_date"`
	ChatHistory   []ChatTurn `json:"chat_history"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// CacheEntry is a cached value and the moment it stops being valid.
type CacheEntry struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the entry is no longer valid at now.
func (e CacheEntry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}
