// Package ordernum generates human-readable order numbers. Generation and
// insertion are not atomic, so callers retry on unique-violation with the
// bounded schedule exposed here.
package ordernum

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"time"
)

// MaxAttempts bounds the regenerate-and-retry loop on order number collision.
const MaxAttempts = 5

// Generate returns an order number of the form ORD-<8-digit-time>-<3-digit-random>.
// The time component is the last eight digits of the unix millisecond clock, so
// consecutive orders sort roughly by creation time while staying short enough
// to read off a receipt.
func Generate(now time.Time) string {
	millis := now.UnixMilli() % 100000000
	return fmt.Sprintf("ORD-%08d-%03d", millis, randomSuffix(now))
}

// Backoff returns the wait before retry attempt n (1-based).
func Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(attempt) * 100 * time.Millisecond
}

func randomSuffix(now time.Time) int {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return int(now.UnixNano() % 1000)
	}
	return int(binary.BigEndian.Uint64(buf[:]) % 1000)
}
