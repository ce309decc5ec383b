package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/kozaktomas/expression-tracker/internal/broadcast"
	"github.com/kozaktomas/expression-tracker/internal/expression"
	"github.com/kozaktomas/expression-tracker/internal/sink"
	"github.com/kozaktomas/expression-tracker/internal/tracker"
)

// tally counts how often each expression was detected. It is fed from a serial queue.
type tally struct {
	frames  int
	neutral int
	counts  map[expression.ExpressionID]int
}

func newTally() *tally {
	return &tally{counts: make(map[expression.ExpressionID]int)}
}

func (t *tally) observe(set expression.Set) {
	t.frames++
	if len(set) == 0 {
		t.neutral++
	}
	for _, id := range set {
		t.counts[id]++
	}
}

// print writes one row per expression in rule order, skipping duplicates.
func (t *tally) print(out io.Writer, rules []expression.Rule, labels *expression.Labeler) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "EXPRESSION\tLABEL\tFRAMES")
	fmt.Fprintln(w, "----------\t-----\t------")

	seen := make(map[expression.ExpressionID]bool, len(rules))
	for _, r := range rules {
		if seen[r.Expression] {
			continue
		}
		seen[r.Expression] = true
		fmt.Fprintf(w, "%s\t%s\t%d\n", r.Expression, labels.Label(r.Expression), t.counts[r.Expression])
	}
	fmt.Fprintf(w, "%s\t\t%d\n", sink.NeutralText, t.neutral)
	w.Flush()

	fmt.Fprintf(out, "\nTotal: %d frames\n", t.frames)
}

// trackOptions configures a console tracking session.
type trackOptions struct {
	out         io.Writer
	onlyChanges bool
}

// track classifies every frame of src, printing results on the console until the
// source ends or ctx is cancelled.
func track(ctx context.Context, a *app, src tracker.FrameSource, opts trackOptions) (*tally, error) {
	detector := tracker.NewDetector(tracker.Options{
		Rules:  a.rules,
		Debug:  a.cfg.Tracker.Debug,
		Logger: a.log,
	})

	queue := broadcast.NewSerialQueue(a.cfg.Tracker.QueueSize)
	defer queue.Close()

	console := sink.NewConsole(opts.out, a.labels, opts.onlyChanges)
	counts := newTally()
	detector.Expressions().SubscribeOn(queue, func(set expression.Set) {
		console.Observe(set)
		counts.observe(set)
	})

	err := detector.Run(ctx, src)
	queue.Flush()
	detector.Close()
	return counts, err
}
