package config

import "time"

const (
	DefaultRequestTimeout      = 30 * time.Second
	DefaultDownloadConcurrency = 4
	DefaultDownloadRetries     = 3
)

var (
	// LoginCodeTimeout bounds how long login waits for the authorization code
	// to be pasted.
	LoginCodeTimeout = 10 * time.Minute
	// ShutdownGracePeriod is how long in-flight downloads may keep running
	// after an interrupt.
	ShutdownGracePeriod = 5 * time.Second
	// DownloadRetryMaxInterval caps the backoff between download attempts.
	DownloadRetryMaxInterval = 10 * time.Second
)
