package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// NewUID returns a fresh random record identifier
func NewUID() string {
	return uuid.NewString()
}

// Timestamp converts t to float seconds since the Unix epoch
func Timestamp(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

// Now returns the current time as an event-model timestamp
func Now() float64 {
	return Timestamp(time.Now())
}

// TimeOf converts an event-model timestamp back to a time.Time
func TimeOf(ts float64) time.Time {
	sec, frac := math.Modf(ts)
	return time.Unix(int64(sec), int64(frac*float64(time.Second)))
}
