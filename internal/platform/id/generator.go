package id

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"time"
)

// New returns a prefixed random ID for log and report correlation, like
// "sync_1f8a...". It never fails; if the entropy source is unreadable the
// nanosecond clock stands in.
func New(prefix string) string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return prefix + "_" + strconv.FormatInt(time.Now().UnixNano(), 16)
	}

	return prefix + "_" + hex.EncodeToString(buf)
}
