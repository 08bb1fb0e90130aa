// Package requestid generates per-request trace identifiers, adapted from
// the teacher's internal/common/requestid: a caller-supplied X-Request-ID
// is sanitized and given a short random prefix for uniqueness; absent a
// caller id, a fresh UUID v4 is used.
package requestid

import (
	"crypto/rand"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const (
	maxLength    = 36
	prefixLength = 5
	maxCustomLen = maxLength - prefixLength - 1
)

var (
	sanitizeRegexp          = regexp.MustCompile(`[^a-zA-Z0-9-]+`)
	consecutiveHyphenRegexp = regexp.MustCompile(`-+`)
	prefixAlphabet          = []byte("abcdefghijklmnopqrstuvwxyz0123456789")
)

// Generate builds a request id. If customID is non-empty after
// sanitization, the result is "{5-random-chars}-{sanitized-custom-id}";
// otherwise it falls back to a UUID v4.
func Generate(customID string) string {
	sanitized := strings.ReplaceAll(customID, " ", "-")
	sanitized = sanitizeRegexp.ReplaceAllString(sanitized, "")
	sanitized = consecutiveHyphenRegexp.ReplaceAllString(sanitized, "-")
	sanitized = strings.Trim(sanitized, "-")

	if sanitized == "" {
		return uuid.New().String()
	}

	if len(sanitized) > maxCustomLen {
		sanitized = sanitized[:maxCustomLen]
	}

	return randomPrefix() + "-" + sanitized
}

func randomPrefix() string {
	buf := make([]byte, prefixLength)
	if _, err := rand.Read(buf); err != nil {
		return uuid.New().String()[:prefixLength]
	}
	for i, b := range buf {
		buf[i] = prefixAlphabet[int(b)%len(prefixAlphabet)]
	}
	return string(buf)
}
