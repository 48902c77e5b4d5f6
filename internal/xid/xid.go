// Package xid produces short prefixed identifiers for persisted rows.
package xid

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// New returns an id like "ord-1712345678901234567-a1b2c3d4". The nanosecond
// component keeps ids roughly sortable; the random tail guards against
// same-instant collisions.
func New(prefix string) string {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
	}
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixNano(), hex.EncodeToString(buf[:]))
}
