package tracker

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kozaktomas/expression-tracker/internal/expression"
	"github.com/kozaktomas/expression-tracker/internal/metrics"
)

// sliceSource replays fixed frames.
type sliceSource struct {
	frames      []Frame
	unsupported bool
	startErr    error
}

func (s *sliceSource) Supported() error {
	if s.unsupported {
		return fmt.Errorf("no camera: %w", ErrTrackingUnsupported)
	}
	return nil
}

func (s *sliceSource) Frames(ctx context.Context) (<-chan Frame, error) {
	if s.startErr != nil {
		return nil, s.startErr
	}
	ch := make(chan Frame)
	go func() {
		defer close(ch)
		for _, f := range s.frames {
			select {
			case <-ctx.Done():
				return
			case ch <- f:
			}
		}
	}()
	return ch, nil
}

func frame(seq uint64, sample expression.Sample) Frame {
	return Frame{Seq: seq, Timestamp: time.Unix(int64(seq), 0), Sample: sample}
}

func TestDetector_HandleFrame(t *testing.T) {
	d := NewDetector(Options{})
	var got []expression.Set
	d.Expressions().Subscribe(func(s expression.Set) { got = append(got, s) })

	set := d.HandleFrame(frame(1, expression.Sample{
		expression.ChannelMouthSmileLeft:  0.8,
		expression.ChannelMouthSmileRight: 0.7,
		expression.ChannelJawOpen:         0.2,
	}))

	want := expression.Set{expression.MouthSmileLeft, expression.MouthSmileRight}
	assert.Equal(t, want, set)
	assert.Equal(t, []expression.Set{want}, got)
	assert.Equal(t, uint64(1), d.Frames())
}

func TestDetector_EmitsEmptySets(t *testing.T) {
	d := NewDetector(Options{})
	var got []expression.Set
	d.Expressions().Subscribe(func(s expression.Set) { got = append(got, s) })

	d.HandleFrame(frame(1, expression.Sample{}))

	require.Len(t, got, 1)
	assert.Empty(t, got[0])
}

func TestDetector_CustomRuleAppliesToNextFrame(t *testing.T) {
	d := NewDetector(Options{})
	sample := expression.Sample{expression.ChannelEyeWideLeft: 0.7}

	assert.Empty(t, d.HandleFrame(frame(1, sample)))

	d.Rules().Append(expression.Rule{Expression: "eyeWideLeft", Channel: expression.ChannelEyeWideLeft, Threshold: 0.6})
	assert.Equal(t, expression.Set{"eyeWideLeft"}, d.HandleFrame(frame(2, sample)))
}

func TestDetector_OptionsRules(t *testing.T) {
	d := NewDetector(Options{Rules: []expression.Rule{
		expression.NewRule(expression.JawOpen, expression.ChannelJawOpen),
	}})
	assert.Equal(t, 1, d.Rules().Len())
}

func TestDetector_Close(t *testing.T) {
	m := metrics.New(nil)
	d := NewDetector(Options{Metrics: m})
	calls := 0
	sub := d.Expressions().Subscribe(func(expression.Set) { calls++ })

	d.Close()
	d.Close()

	assert.Nil(t, d.HandleFrame(frame(1, expression.Sample{expression.ChannelJawOpen: 1})))
	assert.False(t, sub.Active())
	assert.Equal(t, 0, calls)
	assert.Equal(t, 0, d.Subscribers())
	assert.InDelta(t, 1, testutil.ToFloat64(m.FramesRejected.WithLabelValues(metrics.ReasonClosed)), 0)
}

func TestDetector_Run(t *testing.T) {
	m := metrics.New(nil)
	d := NewDetector(Options{Metrics: m, Debug: true})
	var got []expression.Set
	d.Expressions().Subscribe(func(s expression.Set) { got = append(got, s) })

	src := &sliceSource{frames: []Frame{
		frame(1, expression.Sample{expression.ChannelTongueOut: 0.9}),
		frame(2, expression.Sample{expression.ChannelCheekPuff: 0.9, expression.ChannelJawOpen: 0.9}),
		frame(3, expression.Sample{}),
	}}

	require.NoError(t, d.Run(context.Background(), src))

	assert.Equal(t, []expression.Set{
		{expression.TongueOut},
		{expression.CheekPuff, expression.JawOpen},
		{},
	}, got)
	assert.InDelta(t, 3, testutil.ToFloat64(m.FramesTotal), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(m.EmissionsTotal), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ExpressionsTotal.WithLabelValues("jawOpen")), 0)
}

func TestDetector_RunErrors(t *testing.T) {
	startErr := errors.New("boom")

	tests := []struct {
		name    string
		src     *sliceSource
		wantErr error
	}{
		{name: "unsupported", src: &sliceSource{unsupported: true}, wantErr: ErrTrackingUnsupported},
		{name: "start failure", src: &sliceSource{startErr: startErr}, wantErr: startErr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDetector(Options{})
			err := d.Run(context.Background(), tt.src)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDetector_RunStopsOnCancel(t *testing.T) {
	d := NewDetector(Options{})
	ctx, cancel := context.WithCancel(context.Background())

	// a source that never produces
	src := &blockingSource{}
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx, src) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

type blockingSource struct{}

func (blockingSource) Supported() error { return nil }

func (blockingSource) Frames(context.Context) (<-chan Frame, error) {
	return make(chan Frame), nil
}
