package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/matheuskafuri/newsfeeds/internal/browser"
	"github.com/matheuskafuri/newsfeeds/internal/config"
	"github.com/matheuskafuri/newsfeeds/internal/feeds"
	"github.com/matheuskafuri/newsfeeds/internal/newsapi"
	"github.com/matheuskafuri/newsfeeds/internal/params"
	"github.com/matheuskafuri/newsfeeds/internal/render"
)

const setupHint = "Setup is not done.\nRun => newsfeeds configure <api_key> [results_dir]"

var (
	flagNoPersist bool
	flagOpen      bool
)

var (
	topNewsCmd = newQueryCmd("top-news", newsapi.TopHeadlines,
		"Fetch top headlines",
		"Fetch the top headlines matching the query file. sources cannot be combined with country or category.")
	allNewsCmd = newQueryCmd("all-news", newsapi.Everything,
		"Search all news",
		"Search every article News API holds for the query file, walking all result pages.")
	sourcesCmd = newQueryCmd("sources", newsapi.Sources,
		"List news sources",
		"List the news sources matching the query file.")
)

func newQueryCmd(name string, op newsapi.Operation, short, long string) *cobra.Command {
	c := &cobra.Command{
		Use:   name + " <query.yaml>",
		Short: short,
		Long: long + `

The query file is a YAML mapping of News API parameters. query_name is
required and names the files written for the query.`,
		Args:              cobra.ExactArgs(1),
		PersistentPreRunE: checkSetup,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, op, args[0])
		},
	}
	c.Flags().BoolVar(&flagNoPersist, "no-persist", false, "do not save the JSON envelope")
	c.Flags().BoolVar(&flagOpen, "open", false, "open the HTML page in a browser")
	return c
}

// checkSetup refuses to run a query before configure has been run.
func checkSetup(cmd *cobra.Command, args []string) error {
	_, err := config.Load(flagConfig)
	if errors.Is(err, config.ErrNotConfigured) || errors.Is(err, config.ErrMissingAPIKey) {
		fmt.Fprintln(cmd.ErrOrStderr(), warnStyle.Render(setupHint))
	}
	return err
}

func newRunner(cmd *cobra.Command) (*feeds.Runner, *config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	runner, err := feeds.New(feeds.Options{
		Config: cfg,
		Logger: newLogger(cmd.ErrOrStderr()),
	})
	if errors.Is(err, config.ErrDirectoryNotFound) {
		fmt.Fprintln(cmd.ErrOrStderr(), warnStyle.Render(setupHint))
	}
	if err != nil {
		return nil, nil, err
	}
	return runner, cfg, nil
}

func runQuery(cmd *cobra.Command, op newsapi.Operation, path string) error {
	runner, _, err := newRunner(cmd)
	if err != nil {
		return err
	}
	p, err := params.LoadFile(path)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := runner.Run(ctx, op, p, feeds.RunOptions{Persist: !flagNoPersist})
	return finish(cmd, res, err)
}

// finish reports what a run wrote. A render failure still reports the JSON
// envelope that was saved before it.
func finish(cmd *cobra.Command, res *feeds.Result, err error) error {
	var renderErr *render.RenderError
	if err != nil && !errors.As(err, &renderErr) {
		return err
	}
	printResult(cmd.OutOrStdout(), res)
	if err != nil {
		return err
	}
	if flagOpen && res.HTMLPath != "" {
		if err := browser.Open(res.HTMLPath); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), warnStyle.Render("could not open browser: "+err.Error()))
		}
	}
	return nil
}

func printResult(w io.Writer, res *feeds.Result) {
	if res == nil {
		return
	}
	fmt.Fprintf(w, "%s %s\n", titleStyle.Render(res.Name),
		dimStyle.Render(fmt.Sprintf("(%d of %d results)", res.Envelope.Len(), res.Envelope.Status.TotalResults)))
	if res.JSONPath != "" {
		fmt.Fprintf(w, "  json  %s\n", pathStyle.Render(res.JSONPath))
	}
	if res.HTMLPath != "" {
		fmt.Fprintf(w, "  html  %s\n", pathStyle.Render(res.HTMLPath))
	}
}
