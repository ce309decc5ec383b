package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kozaktomas/expression-tracker/internal/constants"
	"github.com/kozaktomas/expression-tracker/internal/expression"
)

//go:embed example_rules.yaml
var exampleRulesYAML []byte

// ErrInvalidRulesFile is returned when a rules file cannot be used.
var ErrInvalidRulesFile = errors.New("invalid rules file")

type Config struct {
	Tracker TrackerConfig
	Web     WebConfig
	AMQP    AMQPConfig
	Log     LogConfig
}

type TrackerConfig struct {
	RulesFile string // optional YAML file with custom rules, appended to the built-in catalog
	Debug     bool
	QueueSize int // pending callbacks per delivery queue (default 64)
}

type WebConfig struct {
	Host           string   // defaults to 0.0.0.0
	Port           int      // defaults to 8080
	AllowedOrigins []string // extra CORS and WebSocket origins; localhost is always allowed
	APIToken       string   // when set, required by rule changes and frame ingest
}

// Addr returns host:port for the HTTP listener.
func (c WebConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type AMQPConfig struct {
	URL      string // empty disables the AMQP sink
	Exchange string // defaults to expressions
}

// Enabled reports whether an AMQP URL is configured.
func (c AMQPConfig) Enabled() bool { return c.URL != "" }

type LogConfig struct {
	Level  string // logrus level name (default info)
	Format string // text or json
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envBool reads a boolean environment variable ("1", "true", "yes" and so on).
func envBool(key string, defaultVal bool) bool {
	s := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch s {
	case "":
		return defaultVal
	case "yes", "on":
		return true
	case "no", "off":
		return false
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// envList splits a comma-separated environment variable, dropping empty items.
func envList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func Load() *Config {
	return &Config{
		Tracker: TrackerConfig{
			RulesFile: os.Getenv("TRACKER_RULES_FILE"),
			Debug:     envBool("TRACKER_DEBUG", false),
			QueueSize: envInt("TRACKER_QUEUE_SIZE", constants.DefaultQueueSize),
		},
		Web: WebConfig{
			Host:           envString("WEB_HOST", "0.0.0.0"),
			Port:           envInt("WEB_PORT", 8080),
			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS"),
			APIToken:       os.Getenv("WEB_API_TOKEN"),
		},
		AMQP: AMQPConfig{
			URL:      os.Getenv("AMQP_URL"),
			Exchange: envString("AMQP_EXCHANGE", "expressions"),
		},
		Log: LogConfig{
			Level:  envString("LOG_LEVEL", "info"),
			Format: envString("LOG_FORMAT", "text"),
		},
	}
}

// RulesFile is the YAML document holding custom rules and display labels.
type RulesFile struct {
	Rules  []RuleEntry       `yaml:"rules"`
	Labels map[string]string `yaml:"labels"`
}

// RuleEntry is one rule as written in YAML. Threshold is optional.
type RuleEntry struct {
	Expression string   `yaml:"expression"`
	Channel    string   `yaml:"channel"`
	Threshold  *float64 `yaml:"threshold"`
}

// Rule converts the entry, applying the default threshold when none is given.
func (e RuleEntry) Rule() expression.Rule {
	r := expression.NewRule(expression.ExpressionID(e.Expression), expression.ChannelID(e.Channel))
	if e.Threshold != nil {
		r.Threshold = *e.Threshold
	}
	return r
}

// ParseRules decodes and validates a rules document.
func ParseRules(data []byte) (*RulesFile, error) {
	var f RulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRulesFile, err)
	}
	for i, e := range f.Rules {
		if err := e.Rule().Validate(); err != nil {
			return nil, fmt.Errorf("%w: rule %d: %w", ErrInvalidRulesFile, i+1, err)
		}
	}
	return &f, nil
}

// LoadRules reads the rules file at path.
func LoadRules(path string) (*RulesFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	f, err := ParseRules(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// ExpressionRules returns the file's rules in document order.
func (f *RulesFile) ExpressionRules() []expression.Rule {
	out := make([]expression.Rule, len(f.Rules))
	for i, e := range f.Rules {
		out[i] = e.Rule()
	}
	return out
}

// ApplyLabels registers the file's display labels with l.
func (f *RulesFile) ApplyLabels(l *expression.Labeler) {
	for id, label := range f.Labels {
		l.SetLabel(expression.ExpressionID(id), label)
	}
}

// ExampleRules returns an annotated rules file to start from.
func ExampleRules() []byte {
	return exampleRulesYAML
}
