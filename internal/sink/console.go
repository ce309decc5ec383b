// Package sink holds observers that forward detected expressions somewhere else.
package sink

import (
	"fmt"
	"io"

	"github.com/kozaktomas/expression-tracker/internal/expression"
)

// NeutralText is printed for frames in which no expression matched.
const NeutralText = "(neutral)"

// Console prints every set as a comma-separated list of display labels.
// Observe is not safe for concurrent use; subscribe it on a serial delivery context.
type Console struct {
	w           io.Writer
	labels      *expression.Labeler
	onlyChanges bool

	last    string
	printed bool
	lines   int
}

// NewConsole creates a console sink. With onlyChanges set, a line is printed only when
// the rendered text differs from the previous one.
func NewConsole(w io.Writer, labels *expression.Labeler, onlyChanges bool) *Console {
	if labels == nil {
		labels = expression.NewLabeler()
	}
	return &Console{w: w, labels: labels, onlyChanges: onlyChanges}
}

// Observe renders set.
func (c *Console) Observe(set expression.Set) {
	text := c.labels.Join(set)
	if text == "" {
		text = NeutralText
	}
	if c.onlyChanges && c.printed && text == c.last {
		return
	}
	c.last = text
	c.printed = true
	c.lines++
	fmt.Fprintln(c.w, text)
}

// Lines returns how many lines have been printed.
func (c *Console) Lines() int { return c.lines }
