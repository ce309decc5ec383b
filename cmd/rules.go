package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/expression-tracker/internal/config"
	"github.com/kozaktomas/expression-tracker/internal/expression"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the active rules",
	Long: `List the built-in rules followed by any custom rules loaded with --rules.
With --example, print an annotated rules file to start from instead.`,
	Args: cobra.NoArgs,
	RunE: runRules,
}

func init() {
	rootCmd.AddCommand(rulesCmd)

	rulesCmd.Flags().Bool("example", false, "Print an example rules file")
}

func runRules(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if mustGetBool(cmd, "example") {
		_, err := out.Write(config.ExampleRules())
		return err
	}

	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "EXPRESSION\tLABEL\tCHANNEL\tTHRESHOLD")
	fmt.Fprintln(w, "----------\t-----\t-------\t---------")
	for _, r := range a.rules {
		channel := string(r.Channel)
		if !expression.IsKnownChannel(r.Channel) {
			channel += " (unknown)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t> %g\n", r.Expression, a.labels.Label(r.Expression), channel, r.Threshold)
	}
	w.Flush()

	fmt.Fprintf(out, "\nTotal: %d rules\n", len(a.rules))
	return nil
}
