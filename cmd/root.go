package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/matheuskafuri/newsfeeds/internal/update"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	flagConfig   string
	flagLogLevel string
	flagVerbose  bool
	flagCheck    bool
)

var rootCmd = &cobra.Command{
	Use:   "newsfeeds",
	Short: "News API query tool",
	Long: `newsfeeds queries News API for top headlines, all news or the source catalog,
walks every result page and saves the results as a JSON file and an HTML page.

Run "newsfeeds configure <api_key>" once before the first query.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	versionCmd.Flags().BoolVar(&flagCheck, "check", false, "check GitHub for a newer release")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configureCmd)
	rootCmd.AddCommand(topNewsCmd)
	rootCmd.AddCommand(allNewsCmd)
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(historyCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "newsfeeds %s (commit: %s, built: %s)\n", version, commit, date)
		if !flagCheck {
			return
		}
		if res := update.Check(context.Background(), version); res != nil {
			fmt.Fprintln(out, warnStyle.Render(fmt.Sprintf("newsfeeds %s is available", res.LatestVersion)))
		} else {
			fmt.Fprintln(out, dimStyle.Render("no newer release found"))
		}
	},
}

// newLogger builds the process logger from the global flags.
func newLogger(w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(flagLogLevel)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.WarnLevel
	}
	if flagVerbose {
		level = zerolog.DebugLevel
	}
	console := zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	return zerolog.New(console).Level(level).With().Timestamp().Logger()
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}
