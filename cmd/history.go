package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matheuskafuri/newsfeeds/internal/config"
	"github.com/matheuskafuri/newsfeeds/internal/envelope"
)

var flagHistoryLimit int

var renderCmd = &cobra.Command{
	Use:   "render <envelope.json>",
	Short: "Rebuild the HTML page of a saved query",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runner, _, err := newRunner(cmd)
		if err != nil {
			return err
		}
		res, err := runner.Rerender(args[0])
		if res == nil {
			return err
		}
		return finish(cmd, res, err)
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List saved queries, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		entries, err := envelope.NewStore(cfg.DataDir).List()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintln(out, "No saved queries.")
			return nil
		}
		if flagHistoryLimit > 0 && len(entries) > flagHistoryLimit {
			entries = entries[:flagHistoryLimit]
		}
		now := time.Now()
		for _, e := range entries {
			fmt.Fprintf(out, "%s  %s  %s\n",
				titleStyle.Render(e.Name),
				dimStyle.Render(formatAge(now.Sub(e.ModTime))),
				dimStyle.Render(formatBytes(e.Size)))
		}
		fmt.Fprintf(out, "\n%d saved in %s\n", len(entries), pathStyle.Render(cfg.DataDir))
		return nil
	},
}

func init() {
	renderCmd.Flags().BoolVar(&flagOpen, "open", false, "open the HTML page in a browser")
	historyCmd.Flags().IntVarP(&flagHistoryLimit, "limit", "n", 0, "show at most n queries")
}

func formatAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
