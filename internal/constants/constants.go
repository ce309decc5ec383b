// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

import "time"

// Server constants
const (
	// ReadTimeout bounds reading a request, headers and body included
	ReadTimeout = 30 * time.Second

	// IdleTimeout closes keep-alive connections left idle this long
	IdleTimeout = 60 * time.Second

	// RequestTimeout is the deadline of regular API requests; streams have none
	RequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long in-flight requests get to finish on shutdown
	ShutdownTimeout = 30 * time.Second
)

// Queue constants
const (
	// DefaultQueueSize is the default capacity of delivery queues and ingest buffers
	DefaultQueueSize = 64
)
