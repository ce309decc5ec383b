package source

import (
	"context"
	"io"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/kozaktomas/expression-tracker/internal/tracker"
)

// Tee wraps a source and writes every frame it yields to w as a JSON line, producing a
// file Recording can replay.
type Tee struct {
	src     tracker.FrameSource
	w       io.Writer
	log     *logrus.Entry
	written atomic.Uint64
}

// NewTee creates a recording wrapper around src.
func NewTee(src tracker.FrameSource, w io.Writer, logger *logrus.Logger) *Tee {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Tee{src: src, w: w, log: logger.WithField("source", "tee")}
}

// Supported delegates to the wrapped source.
func (t *Tee) Supported() error { return t.src.Supported() }

// Written returns how many frames have been recorded.
func (t *Tee) Written() uint64 { return t.written.Load() }

// Frames forwards the wrapped source's frames after recording each one. A write
// failure is logged once and recording stops; frames keep flowing.
func (t *Tee) Frames(ctx context.Context) (<-chan tracker.Frame, error) {
	in, err := t.src.Frames(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan tracker.Frame)
	go func() {
		defer close(out)
		recording := true
		for f := range in {
			if recording {
				if err := t.write(f); err != nil {
					t.log.WithError(err).Error("Recording stopped")
					recording = false
				}
			}
			select {
			case <-ctx.Done():
				return
			case out <- f:
			}
		}
	}()
	return out, nil
}

func (t *Tee) write(f tracker.Frame) error {
	data, err := EncodeFrame(f)
	if err != nil {
		return err
	}
	if _, err := t.w.Write(append(data, '\n')); err != nil {
		return err
	}
	t.written.Add(1)
	return nil
}
