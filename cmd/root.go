package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "expression-tracker",
	Short: "Detect facial expressions from face-tracking blend shapes",
	Long: `Expression Tracker classifies face-tracking frames (blend-shape coefficients
from ARKit-style trackers) into facial expressions such as smiles, blinks and an
open jaw, and publishes the result of every frame to any number of observers:
the console, browsers over Server-Sent Events and an AMQP exchange.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().String("rules", "", "YAML file with custom rules (overrides TRACKER_RULES_FILE)")
	rootCmd.PersistentFlags().Bool("debug", false, "Log coefficients of every frame (overrides TRACKER_DEBUG)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides LOG_LEVEL)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text or json (overrides LOG_FORMAT)")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
