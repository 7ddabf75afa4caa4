package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matheuskafuri/newsfeeds/internal/config"
)

var configureCmd = &cobra.Command{
	Use:   "configure <api_key> [results_dir]",
	Short: "Save the News API key and create the results directory",
	Long: `Write the configuration file and create the results directory.

results_dir is a directory name inside the newsfeeds home
($NEWSFEEDS_HOME, or the XDG data directory). It defaults to "Results".`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var dir string
		if len(args) > 1 {
			dir = args[1]
		}
		path := flagConfig
		if path == "" {
			path = config.DefaultConfigPath()
		}

		cfg, err := config.Configure(path, args[0], dir)
		if err != nil {
			return fmt.Errorf("configuring: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Config:  %s\n", pathStyle.Render(path))
		fmt.Fprintf(out, "Results: %s\n", pathStyle.Render(cfg.ResultsDir))
		return nil
	},
}
