package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/expression-tracker/internal/expression"
	"github.com/kozaktomas/expression-tracker/internal/sink"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <channel=value>...",
	Short: "Classify a single sample",
	Long: `Classify one sample given as channel=value pairs and print the detected expressions.
Channels that are not given are treated as absent and never match.

Examples:
  expression-tracker classify jawOpen=0.8 eyeBlinkLeft=0.1
  expression-tracker classify mouthSmileLeft=0.7 mouthSmileRight=0.6 --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)

	classifyCmd.Flags().Bool("json", false, "Output as JSON")
}

// ClassifyOutput is the JSON form of a classification result.
type ClassifyOutput struct {
	Expressions []string `json:"expressions"`
	Labels      []string `json:"labels"`
	Text        string   `json:"text"`
}

// parseSample turns channel=value arguments into a sample. A channel given twice keeps the last value.
func parseSample(args []string) (expression.Sample, error) {
	sample := make(expression.Sample, len(args))
	for _, arg := range args {
		name, raw, ok := strings.Cut(arg, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid sample %q: expected channel=value", arg)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: %w", name, err)
		}
		sample[expression.ChannelID(name)] = v
	}
	return sample, nil
}

func runClassify(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	sample, err := parseSample(args)
	if err != nil {
		return err
	}
	for ch := range sample {
		if !expression.IsKnownChannel(ch) {
			a.log.WithField("channel", ch).Warn("Unknown channel")
		}
	}

	set := expression.Classify(sample, a.rules)
	out := cmd.OutOrStdout()

	if mustGetBool(cmd, "json") {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(ClassifyOutput{
			Expressions: set.Strings(),
			Labels:      a.labels.Labels(set),
			Text:        a.labels.Join(set),
		})
	}

	text := a.labels.Join(set)
	if text == "" {
		text = sink.NeutralText
	}
	fmt.Fprintln(out, text)
	return nil
}
