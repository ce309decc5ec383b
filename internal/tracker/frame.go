// Package tracker connects a face-tracking frame source to the expression classifier and
// publishes the result of every frame to observers.
package tracker

import (
	"context"
	"errors"
	"time"

	"github.com/kozaktomas/expression-tracker/internal/expression"
)

// ErrTrackingUnsupported is returned when the frame source cannot provide face tracking
// on this host.
var ErrTrackingUnsupported = errors.New("face tracking is not supported")

// Frame is one tracking update.
type Frame struct {
	Seq       uint64
	Timestamp time.Time
	Sample    expression.Sample
}

// FrameSource supplies tracking updates.
type FrameSource interface {
	// Supported reports whether tracking can run. It returns an error wrapping
	// ErrTrackingUnsupported when it cannot.
	Supported() error
	// Frames starts the source. The channel is closed when the source is exhausted
	// or ctx is done.
	Frames(ctx context.Context) (<-chan Frame, error)
}
