package expression

import (
	_ "embed"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed labels.yaml
var labelsYAML []byte

type labelsFile struct {
	Labels map[ExpressionID]string `yaml:"labels"`
}

// Labeler renders expressions as human-readable text.
type Labeler struct {
	mu     sync.RWMutex
	labels map[ExpressionID]string
}

// NewLabeler creates a labeler with the built-in labels.
func NewLabeler() *Labeler {
	var f labelsFile
	if err := yaml.Unmarshal(labelsYAML, &f); err != nil {
		// embedded file, only a broken build gets here
		panic("failed to unmarshal embedded labels.yaml: " + err.Error())
	}
	if f.Labels == nil {
		f.Labels = map[ExpressionID]string{}
	}
	return &Labeler{labels: f.Labels}
}

// SetLabel overrides the text for id.
func (l *Labeler) SetLabel(id ExpressionID, label string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.labels[id] = label
}

// Label returns the display text for id.
func (l *Labeler) Label(id ExpressionID) string {
	l.mu.RLock()
	label, ok := l.labels[id]
	l.mu.RUnlock()
	if ok {
		return label
	}
	return humanize(string(id))
}

// Labels returns the display text of every expression in set, in order.
func (l *Labeler) Labels(set Set) []string {
	out := make([]string, len(set))
	for i, id := range set {
		out[i] = l.Label(id)
	}
	return out
}

// Join renders set as a comma-separated line.
func (l *Labeler) Join(set Set) string {
	return strings.Join(l.Labels(set), ", ")
}

// humanize splits a camelCase identifier into title-cased words.
func humanize(id string) string {
	if id == "" {
		return ""
	}
	var b strings.Builder
	prev := rune(0)
	for i, r := range id {
		if i > 0 && unicode.IsUpper(r) && !unicode.IsUpper(prev) {
			b.WriteByte(' ')
		}
		if r == '_' || r == '-' {
			r = ' '
		}
		b.WriteRune(r)
		prev = r
	}
	// a Caser keeps state between calls, so each call gets its own
	return cases.Title(language.English).String(strings.Join(strings.Fields(b.String()), " "))
}
