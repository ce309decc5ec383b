// Package expression turns per-frame blend-shape coefficients into named facial expressions.
//
// A Rule ties an ExpressionID to a blend-shape ChannelID and a threshold. Classify evaluates
// an ordered rule list against one Sample and returns the expressions whose channel
// coefficient is strictly above the rule threshold, in rule order.
package expression

import (
	"errors"
	"fmt"
	"math"
)

// ExpressionID names a facial expression. The set is open: callers may define their own
// identifiers as long as they add a Rule for them.
type ExpressionID string

// String returns the raw identifier.
func (id ExpressionID) String() string { return string(id) }

// Built-in expressions, each detected from the blend-shape channel of the same name.
const (
	MouthSmileLeft  ExpressionID = "mouthSmileLeft"
	MouthSmileRight ExpressionID = "mouthSmileRight"
	BrowInnerUp     ExpressionID = "browInnerUp"
	TongueOut       ExpressionID = "tongueOut"
	CheekPuff       ExpressionID = "cheekPuff"
	EyeBlinkLeft    ExpressionID = "eyeBlinkLeft"
	EyeBlinkRight   ExpressionID = "eyeBlinkRight"
	JawOpen         ExpressionID = "jawOpen"
)

// DefaultThreshold is the coefficient a channel must exceed for a rule to match
// when no explicit threshold is configured.
const DefaultThreshold = 0.5

// ErrInvalidRule is returned by Rule.Validate.
var ErrInvalidRule = errors.New("invalid analyzer rule")

// Rule describes how one expression is derived from one blend-shape channel.
type Rule struct {
	Expression ExpressionID `json:"expression" yaml:"expression"`
	Channel    ChannelID    `json:"channel" yaml:"channel"`
	// Threshold is exclusive: the rule matches when the coefficient is > Threshold.
	Threshold float64 `json:"threshold" yaml:"threshold"`
}

// NewRule creates a rule with DefaultThreshold.
func NewRule(expr ExpressionID, channel ChannelID) Rule {
	return Rule{Expression: expr, Channel: channel, Threshold: DefaultThreshold}
}

// Validate checks a rule coming from user input (config files, HTTP).
// Classification itself never validates; out-of-range thresholds simply never or always match.
func (r Rule) Validate() error {
	if r.Expression == "" {
		return fmt.Errorf("%w: expression is empty", ErrInvalidRule)
	}
	if r.Channel == "" {
		return fmt.Errorf("%w: channel is empty", ErrInvalidRule)
	}
	if math.IsNaN(r.Threshold) || math.IsInf(r.Threshold, 0) {
		return fmt.Errorf("%w: threshold %v is not finite", ErrInvalidRule, r.Threshold)
	}
	return nil
}

// DefaultRules returns the built-in analyzer rules, one per built-in expression.
// Every call returns a new slice that the caller owns and may modify.
func DefaultRules() []Rule {
	return []Rule{
		NewRule(MouthSmileLeft, ChannelMouthSmileLeft),
		NewRule(MouthSmileRight, ChannelMouthSmileRight),
		NewRule(BrowInnerUp, ChannelBrowInnerUp),
		NewRule(TongueOut, ChannelTongueOut),
		NewRule(CheekPuff, ChannelCheekPuff),
		NewRule(EyeBlinkLeft, ChannelEyeBlinkLeft),
		NewRule(EyeBlinkRight, ChannelEyeBlinkRight),
		NewRule(JawOpen, ChannelJawOpen),
	}
}
