package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/expression-tracker/internal/source"
	"github.com/kozaktomas/expression-tracker/internal/tracker"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the detector on a synthetic face",
	Long: `Generate deterministic synthetic frames (blinks, smiles, an opening jaw) and
print the detected expressions. Useful to try custom rules without a phone.

Examples:
  expression-tracker simulate --frames 300
  expression-tracker simulate --only-changes --record session.jsonl`,
	Args: cobra.NoArgs,
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().Float64("fps", 30, "Frames per second")
	simulateCmd.Flags().Int("frames", 0, "Stop after this many frames (0 = until interrupted)")
	simulateCmd.Flags().String("record", "", "Also write every generated frame to this JSON Lines file")
	simulateCmd.Flags().Bool("only-changes", false, "Print a line only when the detected expressions change")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	limit := mustGetInt(cmd, "frames")
	if limit < 0 {
		return fmt.Errorf("--frames must not be negative, got %d", limit)
	}

	var src tracker.FrameSource = source.NewSynthetic(mustGetFloat64(cmd, "fps"), uint64(limit))

	var tee *source.Tee
	if path := mustGetString(cmd, "record"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create recording: %w", err)
		}
		defer f.Close()
		tee = source.NewTee(src, f, a.log)
		src = tee
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	counts, err := track(ctx, a, src, trackOptions{
		out:         cmd.OutOrStdout(),
		onlyChanges: mustGetBool(cmd, "only-changes"),
	})
	if err != nil {
		return err
	}

	if tee != nil {
		a.log.WithFields(logrus.Fields{
			"file":   mustGetString(cmd, "record"),
			"frames": tee.Written(),
		}).Info("Recording saved")
	}
	a.log.WithField("frames", counts.frames).Debug("Simulation finished")
	return nil
}
