package tracker

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kozaktomas/expression-tracker/internal/broadcast"
	"github.com/kozaktomas/expression-tracker/internal/expression"
	"github.com/kozaktomas/expression-tracker/internal/metrics"
)

// Options configures a Detector.
type Options struct {
	// Rules replaces the built-in catalog when not nil.
	Rules []expression.Rule
	// Debug enables per-frame coefficient logging.
	Debug bool
	// Delivery is the default context observers are called on. Nil means inline.
	Delivery broadcast.DeliveryContext
	Logger   *logrus.Logger
	Metrics  *metrics.Metrics
}

// Detector classifies every frame it is handed and publishes the matched expressions.
// HandleFrame may be called from several goroutines; frames are processed one at a time,
// so every observer sees the same sequence of sets.
type Detector struct {
	mu      sync.Mutex
	rules   *expression.RuleSet
	pub     *broadcast.Publisher[expression.Set]
	debug   bool
	log     *logrus.Entry
	metrics *metrics.Metrics
	closed  atomic.Bool
	frames  atomic.Uint64
}

// NewDetector creates a detector loaded with opts.Rules, or the default catalog.
func NewDetector(opts Options) *Detector {
	rules := expression.NewDefaultRuleSet()
	if opts.Rules != nil {
		rules = expression.NewRuleSet(opts.Rules...)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Detector{
		rules:   rules,
		pub:     broadcast.New[expression.Set](opts.Delivery),
		debug:   opts.Debug,
		log:     logger.WithField("component", "detector"),
		metrics: opts.Metrics,
	}
}

// Rules returns the live rule list. Rules appended to it apply from the next frame.
func (d *Detector) Rules() *expression.RuleSet { return d.rules }

// Expressions returns the publisher observers subscribe to.
func (d *Detector) Expressions() *broadcast.Publisher[expression.Set] { return d.pub }

// Subscribers returns the number of active observers. Safe on a nil detector.
func (d *Detector) Subscribers() int {
	if d == nil {
		return 0
	}
	return d.pub.Len()
}

// Debug reports whether debug mode is on.
func (d *Detector) Debug() bool { return d.debug }

// Closed reports whether Close has been called.
func (d *Detector) Closed() bool { return d.closed.Load() }

// Frames returns how many frames have been classified.
func (d *Detector) Frames() uint64 { return d.frames.Load() }

// HandleFrame classifies f and publishes the result, which is also returned.
// After Close it does nothing and returns nil.
func (d *Detector) HandleFrame(f Frame) expression.Set {
	if d.closed.Load() {
		d.metrics.RejectFrame(metrics.ReasonClosed)
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	start := time.Now()
	set := d.rules.Classify(f.Sample)
	d.metrics.ObserveFrame(time.Since(start), set.Strings())
	d.frames.Add(1)

	if d.debug {
		d.logFrame(f, set)
	}

	d.pub.Emit(set)
	d.metrics.ObserveEmission()
	return set
}

func (d *Detector) logFrame(f Frame, set expression.Set) {
	fields := logrus.Fields{
		"seq":         f.Seq,
		"channels":    len(f.Sample),
		"expressions": set.String(),
	}
	for _, r := range d.rules.Snapshot() {
		if v, ok := f.Sample[r.Channel]; ok {
			fields[string(r.Channel)] = v
		}
	}
	d.log.WithFields(fields).Debug("Frame classified")
}

// Run probes src and then handles its frames until the source is exhausted or ctx is done.
// It returns an error wrapping ErrTrackingUnsupported when the source cannot track faces.
func (d *Detector) Run(ctx context.Context, src FrameSource) error {
	if err := src.Supported(); err != nil {
		d.metrics.RejectFrame(metrics.ReasonUnsupported)
		return fmt.Errorf("probe frame source: %w", err)
	}

	frames, err := src.Frames(ctx)
	if err != nil {
		return fmt.Errorf("start frame source: %w", err)
	}

	d.log.WithField("rules", d.rules.Len()).Info("Tracking started")
	defer func() {
		d.log.WithField("frames", d.Frames()).Info("Tracking stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case f, ok := <-frames:
			if !ok {
				return nil
			}
			d.HandleFrame(f)
		}
	}
}

// Close disposes the publisher. Observers receive nothing afterwards. Close is idempotent.
func (d *Detector) Close() {
	if d.closed.CompareAndSwap(false, true) {
		d.pub.Close()
		d.log.Debug("Detector closed")
	}
}
