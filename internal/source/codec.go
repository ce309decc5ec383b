// Package source provides frame sources for the detector: recorded sessions, a synthetic
// generator and a WebSocket ingest for phones streaming live blend shapes.
package source

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kozaktomas/expression-tracker/internal/expression"
	"github.com/kozaktomas/expression-tracker/internal/tracker"
)

// ErrMalformedFrame is returned for payloads that are not a valid frame.
var ErrMalformedFrame = errors.New("malformed frame")

// wireFrame is the JSON form of a frame, shared by recordings and the WebSocket ingest:
//
//	{"seq": 12, "timestamp": "2024-05-01T10:00:00Z", "blend_shapes": {"jawOpen": 0.71}}
type wireFrame struct {
	Seq         uint64             `json:"seq"`
	Timestamp   *time.Time         `json:"timestamp,omitempty"`
	BlendShapes map[string]float64 `json:"blend_shapes"`
}

// DecodeFrame parses one JSON frame. A missing timestamp is left zero.
func DecodeFrame(data []byte) (tracker.Frame, error) {
	var w wireFrame
	if err := json.Unmarshal(data, &w); err != nil {
		return tracker.Frame{}, fmt.Errorf("%w: %w", ErrMalformedFrame, err)
	}
	if w.BlendShapes == nil {
		return tracker.Frame{}, fmt.Errorf("%w: blend_shapes is required", ErrMalformedFrame)
	}

	f := tracker.Frame{
		Seq:    w.Seq,
		Sample: make(expression.Sample, len(w.BlendShapes)),
	}
	if w.Timestamp != nil {
		f.Timestamp = *w.Timestamp
	}
	for ch, v := range w.BlendShapes {
		f.Sample[expression.ChannelID(ch)] = v
	}
	return f, nil
}

// EncodeFrame renders f in the form DecodeFrame reads.
func EncodeFrame(f tracker.Frame) ([]byte, error) {
	w := wireFrame{
		Seq:         f.Seq,
		BlendShapes: make(map[string]float64, len(f.Sample)),
	}
	if !f.Timestamp.IsZero() {
		ts := f.Timestamp
		w.Timestamp = &ts
	}
	for ch, v := range f.Sample {
		w.BlendShapes[string(ch)] = v
	}
	data, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("encode frame %d: %w", f.Seq, err)
	}
	return data, nil
}
