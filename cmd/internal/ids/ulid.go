// Package ids provides the identifiers the console stamps on outbound work.
package ids

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// NewRequestID returns a ULID used as X-Request-ID on backend calls.
// ULIDs sort by time, which keeps console and backend logs easy to correlate.
func NewRequestID(now time.Time) string {
	if now.IsZero() {
		now = time.Now().UTC()
	}

	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		// crypto/rand failing is not recoverable in a useful way; fall back to a zero-entropy ULID.
		return ulid.MustNew(ulid.Timestamp(now), zeroReader{}).String()
	}
	return id.String()
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	clear(p)
	return len(p), nil
}
