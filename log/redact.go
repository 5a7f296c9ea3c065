package log

import "strings"

// RedactString keeps the first and last few characters of secret and masks
// the rest. Short secrets are fully masked.
func RedactString(secret string) string {
	const keep = 4
	if len(secret) <= keep*3 {
		return strings.Repeat("*", len(secret))
	}
	return secret[:keep] + strings.Repeat("*", len(secret)-2*keep) + secret[len(secret)-keep:]
}
