package source

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kozaktomas/expression-tracker/internal/metrics"
	"github.com/kozaktomas/expression-tracker/internal/tracker"
)

const maxLineSize = 1 << 20

// RecordingOptions configures playback.
type RecordingOptions struct {
	// FPS paces playback. Zero plays as fast as the consumer reads.
	FPS     float64
	Logger  *logrus.Logger
	Metrics *metrics.Metrics
	// OnLine is called after every line is processed, whether or not it held a valid frame.
	OnLine func()
}

// Recording replays a JSON Lines file, one frame per line.
type Recording struct {
	lines [][]byte
	opts  RecordingOptions
	log   *logrus.Entry
}

// OpenRecording reads the recording at path.
func OpenRecording(path string, opts RecordingOptions) (*Recording, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()

	r, err := ReadRecording(f, opts)
	if err != nil {
		return nil, fmt.Errorf("read recording %s: %w", path, err)
	}
	r.log = r.log.WithField("file", path)
	return r, nil
}

// ReadRecording reads a recording from r. Blank lines are ignored.
func ReadRecording(r io.Reader, opts RecordingOptions) (*Recording, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}

	var lines [][]byte
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		lines = append(lines, bytes.Clone(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return &Recording{
		lines: lines,
		opts:  opts,
		log:   logger.WithField("source", "recording"),
	}, nil
}

// Count returns the number of lines to replay.
func (r *Recording) Count() int { return len(r.lines) }

// Supported always succeeds; a recording needs no tracking hardware.
func (r *Recording) Supported() error { return nil }

// Frames replays the recording. Malformed lines are logged and skipped.
// Frames without a sequence number get their line number, and frames without a
// timestamp get the time they were replayed.
func (r *Recording) Frames(ctx context.Context) (<-chan tracker.Frame, error) {
	out := make(chan tracker.Frame)

	var tick <-chan time.Time
	var ticker *time.Ticker
	if r.opts.FPS > 0 {
		ticker = time.NewTicker(time.Duration(float64(time.Second) / r.opts.FPS))
		tick = ticker.C
	}

	go func() {
		defer close(out)
		if ticker != nil {
			defer ticker.Stop()
		}

		for i, line := range r.lines {
			if tick != nil {
				select {
				case <-ctx.Done():
					return
				case <-tick:
				}
			}

			f, err := DecodeFrame(line)
			if err != nil {
				r.log.WithError(err).WithField("line", i+1).Warn("Skipping malformed frame")
				r.opts.Metrics.RejectFrame(metrics.ReasonDecode)
				r.progress()
				continue
			}
			if f.Seq == 0 {
				f.Seq = uint64(i + 1)
			}
			if f.Timestamp.IsZero() {
				f.Timestamp = time.Now()
			}

			select {
			case <-ctx.Done():
				return
			case out <- f:
			}
			r.progress()
		}
	}()

	return out, nil
}

func (r *Recording) progress() {
	if r.opts.OnLine != nil {
		r.opts.OnLine()
	}
}
