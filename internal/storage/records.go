package storage

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

// SpotRecord is a persisted spot definition. The id is assigned by the store
// on insert and is the stable identity of the spot across sessions.
type SpotRecord struct {
	ID          int64 `json:"id"`
	SpotNumber  int   `json:"spot_number"`
	RowNumber   int   `json:"row_number"`
	FloorNumber int   `json:"floor_number"`
}

// UsageRecord is one occupancy episode of a spot. ExitTime is null while the
// car is still parked; the latest record per spot therefore encodes whether
// the spot is currently occupied.
type UsageRecord struct {
	ID        int64     `json:"id"`
	SpotID    int64     `json:"spot_id"`
	Plate     string    `json:"registration_plate"`
	EntryTime time.Time `json:"entry_time"`
	ExitTime  null.Time `json:"exit_time"`
}

// Open reports whether the episode is still running.
func (u UsageRecord) Open() bool {
	return !u.ExitTime.Valid
}

// ElapsedHours is the fractional duration of an open episode so far.
func (u UsageRecord) ElapsedHours() float64 {
	return time.Since(u.EntryTime).Hours()
}

// PaymentRecord links a completed usage episode to the amount collected.
type PaymentRecord struct {
	UsageID int64   `json:"usage_id"`
	Plate   string  `json:"registration_plate"`
	Amount  float64 `json:"amount"`
}
