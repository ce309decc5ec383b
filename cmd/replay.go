package cmd

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/expression-tracker/internal/source"
)

var replayCmd = &cobra.Command{
	Use:   "replay <file>",
	Short: "Classify a recorded session",
	Long: `Replay a JSON Lines recording (one frame per line) through the detector and
print the detected expressions of every frame, followed by a per-expression summary.

Examples:
  expression-tracker replay session.jsonl
  expression-tracker replay session.jsonl --fps 60 --only-changes
  expression-tracker replay session.jsonl --progress --rules custom.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)

	replayCmd.Flags().Float64("fps", 0, "Playback rate in frames per second (0 = as fast as possible)")
	replayCmd.Flags().Bool("progress", false, "Show a progress bar instead of per-frame output")
	replayCmd.Flags().Bool("only-changes", false, "Print a line only when the detected expressions change")
}

func runReplay(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	var bar *progressbar.ProgressBar
	opts := source.RecordingOptions{
		FPS:    mustGetFloat64(cmd, "fps"),
		Logger: a.log,
		OnLine: func() {
			if bar != nil {
				_ = bar.Add(1)
			}
		},
	}

	rec, err := source.OpenRecording(args[0], opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	frameOut := out
	if mustGetBool(cmd, "progress") {
		bar = progressbar.NewOptions(rec.Count(),
			progressbar.OptionSetWriter(cmd.ErrOrStderr()),
			progressbar.OptionSetDescription("Replaying frames"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("frames"),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionFullWidth(),
		)
		frameOut = io.Discard
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	counts, err := track(ctx, a, rec, trackOptions{
		out:         frameOut,
		onlyChanges: mustGetBool(cmd, "only-changes"),
	})
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return err
	}

	counts.print(out, a.rules, a.labels)
	return nil
}
