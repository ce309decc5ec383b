package source

import (
	"context"
	"math"
	"time"

	"github.com/kozaktomas/expression-tracker/internal/expression"
	"github.com/kozaktomas/expression-tracker/internal/tracker"
)

// oscillator drives one channel: value = 0.5 + 0.5*sin(2*pi*hz*t + phase).
type oscillator struct {
	channel expression.ChannelID
	hz      float64
	phase   float64
}

var oscillators = []oscillator{
	{expression.ChannelMouthSmileLeft, 0.20, 0},
	{expression.ChannelMouthSmileRight, 0.20, 0.3},
	{expression.ChannelBrowInnerUp, 0.13, 1.1},
	{expression.ChannelTongueOut, 0.07, 2.0},
	{expression.ChannelCheekPuff, 0.11, 2.9},
	{expression.ChannelEyeBlinkLeft, 0.50, 0.5},
	{expression.ChannelEyeBlinkRight, 0.50, 0.6},
	{expression.ChannelJawOpen, 0.17, 4.0},
	{expression.ChannelEyeWideLeft, 0.09, 3.3},
}

// Synthetic generates deterministic frames in which every built-in channel oscillates
// at its own rate, for demos without tracking hardware.
type Synthetic struct {
	fps   float64
	limit uint64
}

// NewSynthetic creates a generator producing fps frames per second. A limit of 0 runs
// until the context is done.
func NewSynthetic(fps float64, limit uint64) *Synthetic {
	if fps <= 0 {
		fps = 30
	}
	return &Synthetic{fps: fps, limit: limit}
}

// Sample returns the coefficients of frame seq. The same seq always yields the same sample.
func (s *Synthetic) Sample(seq uint64) expression.Sample {
	t := float64(seq) / s.fps
	out := make(expression.Sample, len(oscillators))
	for _, o := range oscillators {
		v := 0.5 + 0.5*math.Sin(2*math.Pi*o.hz*t+o.phase)
		out[o.channel] = math.Round(v*1000) / 1000
	}
	return out
}

// Supported always succeeds.
func (s *Synthetic) Supported() error { return nil }

// Frames emits paced frames starting at sequence 1.
func (s *Synthetic) Frames(ctx context.Context) (<-chan tracker.Frame, error) {
	out := make(chan tracker.Frame)
	ticker := time.NewTicker(time.Duration(float64(time.Second) / s.fps))

	go func() {
		defer close(out)
		defer ticker.Stop()

		for seq := uint64(1); s.limit == 0 || seq <= s.limit; seq++ {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				f := tracker.Frame{Seq: seq, Timestamp: now, Sample: s.Sample(seq)}
				select {
				case <-ctx.Done():
					return
				case out <- f:
				}
			}
		}
	}()

	return out, nil
}
