package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/expression-tracker/internal/config"
	"github.com/kozaktomas/expression-tracker/internal/expression"
)

// app bundles what every command needs: configuration with flag overrides applied,
// the logger, the starting rule list and the display labels.
type app struct {
	cfg    *config.Config
	log    *logrus.Logger
	rules  []expression.Rule
	labels *expression.Labeler
}

// newLogger builds the process logger. Logs go to stderr so command output stays clean.
func newLogger(level, format string) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logger.SetLevel(lvl)

	switch strings.ToLower(format) {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("invalid log format %q: expected text or json", format)
	}
	return logger, nil
}

// loadApp reads configuration, applies persistent flag overrides and loads custom rules.
func loadApp(cmd *cobra.Command) (*app, error) {
	cfg := config.Load()

	if v := mustGetString(cmd, "rules"); v != "" {
		cfg.Tracker.RulesFile = v
	}
	if mustGetBool(cmd, "debug") {
		cfg.Tracker.Debug = true
	}
	if v := mustGetString(cmd, "log-level"); v != "" {
		cfg.Log.Level = v
	}
	if v := mustGetString(cmd, "log-format"); v != "" {
		cfg.Log.Format = v
	}
	if cfg.Tracker.Debug {
		cfg.Log.Level = logrus.DebugLevel.String()
	}

	logger, err := newLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:    cfg,
		log:    logger,
		rules:  expression.DefaultRules(),
		labels: expression.NewLabeler(),
	}

	if cfg.Tracker.RulesFile != "" {
		f, err := config.LoadRules(cfg.Tracker.RulesFile)
		if err != nil {
			return nil, err
		}
		custom := f.ExpressionRules()
		for _, r := range custom {
			if !expression.IsKnownChannel(r.Channel) {
				logger.WithFields(logrus.Fields{
					"expression": r.Expression,
					"channel":    r.Channel,
				}).Warn("Custom rule reads an unknown channel")
			}
		}
		a.rules = append(a.rules, custom...)
		f.ApplyLabels(a.labels)
		logger.WithFields(logrus.Fields{
			"file":  cfg.Tracker.RulesFile,
			"rules": len(custom),
		}).Info("Loaded custom rules")
	}

	return a, nil
}
