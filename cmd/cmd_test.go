package cmd

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kozaktomas/expression-tracker/internal/config"
	"github.com/kozaktomas/expression-tracker/internal/expression"
)

// execute runs the root command with args and returns what it wrote to stdout.
// Flags keep their values between executions, so they are reset first.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("TRACKER_RULES_FILE", "")
	t.Setenv("TRACKER_DEBUG", "")
	t.Setenv("LOG_LEVEL", "error")

	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func writeRules(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParseSample(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    expression.Sample
		wantErr bool
	}{
		{
			name: "pairs",
			args: []string{"jawOpen=0.8", "eyeBlinkLeft=0.1"},
			want: expression.Sample{expression.ChannelJawOpen: 0.8, expression.ChannelEyeBlinkLeft: 0.1},
		},
		{
			name: "last value wins",
			args: []string{"jawOpen=0.2", "jawOpen=0.9"},
			want: expression.Sample{expression.ChannelJawOpen: 0.9},
		},
		{
			name: "spaces and negatives",
			args: []string{" cheekPuff = -0.25 "},
			want: expression.Sample{expression.ChannelCheekPuff: -0.25},
		},
		{name: "missing separator", args: []string{"jawOpen"}, wantErr: true},
		{name: "missing channel", args: []string{"=0.5"}, wantErr: true},
		{name: "not a number", args: []string{"jawOpen=wide"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSample(tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewLogger(t *testing.T) {
	logger, err := newLogger("warn", "json")
	require.NoError(t, err)
	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)

	logger, err = newLogger("debug", "")
	require.NoError(t, err)
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)

	_, err = newLogger("loud", "text")
	assert.Error(t, err)

	_, err = newLogger("info", "xml")
	assert.Error(t, err)
}

func TestClassifyCommand(t *testing.T) {
	out, err := execute(t, "classify", "jawOpen=0.8", "mouthSmileLeft=0.6", "eyeBlinkLeft=0.5")
	require.NoError(t, err)
	assert.Equal(t, "Mouth Smile Left, Jaw Open\n", out)

	out, err = execute(t, "classify", "jawOpen=0.1")
	require.NoError(t, err)
	assert.Equal(t, "(neutral)\n", out)
}

func TestClassifyCommand_JSON(t *testing.T) {
	out, err := execute(t, "classify", "--json", "cheekPuff=0.9")
	require.NoError(t, err)

	var got ClassifyOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, ClassifyOutput{
		Expressions: []string{"cheekPuff"},
		Labels:      []string{"Cheek Puff"},
		Text:        "Cheek Puff",
	}, got)
}

func TestClassifyCommand_CustomRules(t *testing.T) {
	path := writeRules(t, `
rules:
  - expression: surprised
    channel: eyeWideLeft
    threshold: 0.6
labels:
  surprised: Surprised!
`)
	out, err := execute(t, "classify", "--rules", path, "eyeWideLeft=0.7", "jawOpen=0.9")
	require.NoError(t, err)
	assert.Equal(t, "Jaw Open, Surprised!\n", out)
}

func TestClassifyCommand_BadArgs(t *testing.T) {
	_, err := execute(t, "classify", "jawOpen")
	assert.Error(t, err)

	_, err = execute(t, "classify", "--rules", writeRules(t, "rules: [{channel: jawOpen}]"), "jawOpen=1")
	assert.ErrorIs(t, err, config.ErrInvalidRulesFile)
}

func TestRulesCommand(t *testing.T) {
	out, err := execute(t, "rules")
	require.NoError(t, err)
	assert.Contains(t, out, "EXPRESSION")
	assert.Contains(t, out, "jawOpen")
	assert.Contains(t, out, "Total: 8 rules")

	path := writeRules(t, "rules:\n  - expression: squint\n    channel: eyeSquintLeft\n  - expression: odd\n    channel: noSuchChannel\n")
	out, err = execute(t, "rules", "--rules", path)
	require.NoError(t, err)
	assert.Contains(t, out, "squint")
	assert.Contains(t, out, "noSuchChannel (unknown)")
	assert.Contains(t, out, "Total: 10 rules")
}

func TestRulesCommand_Example(t *testing.T) {
	out, err := execute(t, "rules", "--example")
	require.NoError(t, err)
	assert.Equal(t, string(config.ExampleRules()), out)

	// the example must load as a rules file
	_, err = execute(t, "rules", "--rules", writeRules(t, out))
	assert.NoError(t, err)
}

func TestSimulateCommand_Record(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.jsonl")
	out, err := execute(t, "simulate", "--fps", "500", "--frames", "5", "--record", path)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 5)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	lines := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines++
	}
	assert.Equal(t, 5, lines)

	// the recording replays to the same output
	replayed, err := execute(t, "replay", path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(replayed, out), replayed)
	assert.Contains(t, replayed, "Total: 5 frames")
}

func TestSimulateCommand_NegativeFrames(t *testing.T) {
	_, err := execute(t, "simulate", "--frames", "-1")
	assert.Error(t, err)
}

func TestReplayCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.jsonl")
	content := `{"blend_shapes": {"jawOpen": 0.9}}
{"blend_shapes": {"jawOpen": 0.95}}
not json

{"blend_shapes": {"eyeBlinkLeft": 0.7, "eyeBlinkRight": 0.8}}
{"blend_shapes": {"jawOpen": 0.1}}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	out, err := execute(t, "replay", "--only-changes", path)
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	assert.Equal(t, []string{"Jaw Open", "Eye Blink Left, Eye Blink Right", "(neutral)"}, lines[:3])
	assert.Contains(t, out, "Total: 4 frames")
}

func TestReplayCommand_MissingFile(t *testing.T) {
	_, err := execute(t, "replay", filepath.Join(t.TempDir(), "missing.jsonl"))
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "expression-tracker dev")
}
