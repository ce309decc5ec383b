package expression

import "sync"

// RuleSet is a rule list that can be appended to while frames are being classified.
// Readers take a Snapshot; writers never modify a slice a reader may hold.
type RuleSet struct {
	mu    sync.RWMutex
	rules []Rule
}

// NewRuleSet creates a rule set holding a copy of rules.
func NewRuleSet(rules ...Rule) *RuleSet {
	return &RuleSet{rules: clone(rules)}
}

// NewDefaultRuleSet creates a rule set seeded with DefaultRules.
func NewDefaultRuleSet() *RuleSet {
	return &RuleSet{rules: DefaultRules()}
}

// Snapshot returns the current rules. The returned slice is never modified by the RuleSet.
func (s *RuleSet) Snapshot() []Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rules
}

// Append adds rules after the existing ones.
func (s *RuleSet) Append(rules ...Rule) {
	if len(rules) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]Rule, 0, len(s.rules)+len(rules))
	next = append(next, s.rules...)
	next = append(next, rules...)
	s.rules = next
}

// Replace swaps the whole rule list.
func (s *RuleSet) Replace(rules []Rule) {
	next := clone(rules)
	s.mu.Lock()
	s.rules = next
	s.mu.Unlock()
}

// Len returns the number of rules.
func (s *RuleSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rules)
}

// Classify classifies sample against the current snapshot.
func (s *RuleSet) Classify(sample Sample) Set {
	return Classify(sample, s.Snapshot())
}

func clone(rules []Rule) []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}
