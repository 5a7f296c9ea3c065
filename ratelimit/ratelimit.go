package ratelimit

import (
	"math/rand/v2"
	"time"
)

// DownloadJitter returns a random pause of 200ms to 1.2s to wait before each
// image download, so that concurrent workers do not hit the image host in
// lockstep.
func DownloadJitter() time.Duration {
	const (
		base   = 200 * time.Millisecond
		spread = 1000
	)
	return base + time.Duration(rand.N(spread))*time.Millisecond //nolint:gosec
}
