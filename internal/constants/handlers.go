// Package constants provides shared constants used across the codebase.
package constants

import "time"

// Handler constants
const (
	// MaxRequestBodySize bounds request bodies; frames and rules are small
	MaxRequestBodySize = 64 * 1024

	// SSEHeartbeatInterval is how often an idle event stream sends a keep-alive comment
	SSEHeartbeatInterval = 15 * time.Second
)
