package cmd

import (
	"fmt"
	"os"

	"github.com/louis030195/bigbrother/internal/output"
	"github.com/louis030195/bigbrother/internal/version"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "bigbrother",
	Short: "Record, replay, and target desktop UI interactions",
	Long: "A CLI tool that records desktop input as replayable workflows and locates\n" +
		"UI elements through accessibility APIs using declarative selectors.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Structured failure envelope on stdout, matching success output.
		output.Fail(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version.Version, version.Commit, version.BuildDate)
	rootCmd.PersistentFlags().String("format", "yaml", "Output format: yaml, json")
	rootCmd.PersistentFlags().Bool("pretty", false, "Pretty-print JSON output")
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase log verbosity (repeatable)")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// Use the root persistent flag directly to avoid conflicts with
		// subcommand local flags.
		format, _ := rootCmd.PersistentFlags().GetString("format")
		switch format {
		case "yaml":
			output.OutputFormat = output.FormatYAML
		case "json":
			output.OutputFormat = output.FormatJSON
		default:
			return fmt.Errorf("unsupported format: %s (use yaml or json)", format)
		}
		if pretty, err := rootCmd.PersistentFlags().GetBool("pretty"); err == nil {
			output.PrettyOutput = pretty
		}
		verbosity, _ := rootCmd.PersistentFlags().GetCount("verbose")
		setupLogger(verbosity)
		return nil
	}
}
