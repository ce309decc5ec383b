package expression

import "strings"

// Sample maps blend-shape channels to normalized coefficients (0..1) for one tracking update.
type Sample map[ChannelID]float64

// Set is the ordered list of expressions matched in one frame.
// Order follows the rules that produced it; an expression may appear more than once
// when several matching rules name it.
type Set []ExpressionID

// Contains reports whether id is in the set.
func (s Set) Contains(id ExpressionID) bool {
	for _, e := range s {
		if e == id {
			return true
		}
	}
	return false
}

// Strings returns the raw identifiers.
func (s Set) Strings() []string {
	out := make([]string, len(s))
	for i, e := range s {
		out[i] = string(e)
	}
	return out
}

// String implements fmt.Stringer for logging.
func (s Set) String() string {
	return "[" + strings.Join(s.Strings(), ", ") + "]"
}

// Classify returns the expressions whose rule matches sample.
// A rule matches when its channel coefficient is strictly greater than its threshold.
// A channel missing from the sample never matches, even for a negative threshold.
// Neither argument is modified and nothing is retained.
func Classify(sample Sample, rules []Rule) Set {
	out := Set{}
	for _, r := range rules {
		v, ok := sample[r.Channel]
		if !ok {
			continue
		}
		if v > r.Threshold {
			out = append(out, r.Expression)
		}
	}
	return out
}
