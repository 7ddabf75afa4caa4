// Package feeds runs one query end to end: validate the parameters, fetch
// every page, build and persist the envelope, and render the HTML page.
package feeds

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/matheuskafuri/newsfeeds/internal/config"
	"github.com/matheuskafuri/newsfeeds/internal/envelope"
	"github.com/matheuskafuri/newsfeeds/internal/newsapi"
	"github.com/matheuskafuri/newsfeeds/internal/params"
	"github.com/matheuskafuri/newsfeeds/internal/render"
)

// Clock supplies the time that names and dates each run.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

type Options struct {
	Config *config.Config
	// Gateway replaces the News API client built from Config.
	Gateway newsapi.Gateway
	// HTTPClient is used by the client built from Config.
	HTTPClient newsapi.HTTPClient
	// Templates replaces the templates named by Config.
	Templates fs.FS
	Clock     Clock
	Logger    zerolog.Logger
}

type RunOptions struct {
	Persist bool
}

// Result holds the envelope of a run and the artifacts written for it. The
// paths are empty for artifacts that were not written.
type Result struct {
	Name     string
	Envelope *envelope.Envelope
	JSONPath string
	HTMLPath string
}

type Runner struct {
	paginator *newsapi.Paginator
	store     *envelope.Store
	presenter *render.Presenter
	clock     Clock
	log       zerolog.Logger
}

// New wires a runner from cfg. It fails with config.ErrDirectoryNotFound
// when the results directory does not exist.
func New(opts Options) (*Runner, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, fmt.Errorf("no configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := opts.Logger
	gateway := opts.Gateway
	if gateway == nil {
		clientOpts := []newsapi.Option{newsapi.WithLogger(log)}
		if cfg.BaseURL != "" {
			clientOpts = append(clientOpts, newsapi.WithBaseURL(cfg.BaseURL))
		}
		if opts.HTTPClient != nil {
			clientOpts = append(clientOpts, newsapi.WithHTTPClient(opts.HTTPClient))
		}
		gateway = newsapi.NewClient(cfg.APIKey, cfg.RequestTimeout, clientOpts...)
	}

	templates := opts.Templates
	if templates == nil && cfg.TemplateDir != "" {
		templates = os.DirFS(cfg.TemplateDir)
	}

	clock := opts.Clock
	if clock == nil {
		clock = systemClock{}
	}

	return &Runner{
		paginator: newsapi.NewPaginator(gateway, cfg.PageSize, log),
		store:     envelope.NewStore(cfg.DataDir),
		presenter: render.New(cfg.ResultsDir, templates, log),
		clock:     clock,
		log:       log,
	}, nil
}

// Store returns the store persisted envelopes are written to.
func (r *Runner) Store() *envelope.Store {
	return r.store
}

// Run executes op with the query parameters p. Invalid parameters and remote
// failures abort before anything is written. A failure to persist the
// envelope is logged and the run continues. A render failure is returned as
// a *render.RenderError together with the result so far.
func (r *Runner) Run(ctx context.Context, op newsapi.Operation, p params.Params, opts RunOptions) (*Result, error) {
	req, err := params.NewRequest(op, p)
	if err != nil {
		return nil, fmt.Errorf("validating %s query: %w", op, err)
	}

	start := time.Now()
	resp, err := r.paginator.Fetch(ctx, op, req.Values())
	if err != nil {
		return nil, err
	}

	now := r.clock.Now()
	name := envelope.QueryName(req.QueryName(), now)
	env := envelope.Build(req, name, resp, now)
	r.log.Info().
		Str("query", name).
		Str("operation", op.String()).
		Int("items", env.Len()).
		Int("total", env.Status.TotalResults).
		Dur("took", time.Since(start)).
		Msg("query complete")

	res := &Result{Name: name, Envelope: env}
	if opts.Persist {
		path, err := r.store.Save(env, name)
		if err != nil {
			r.log.Error().Err(err).Str("query", name).Msg("persisting envelope")
		} else {
			res.JSONPath = path
		}
	}

	path, err := r.presenter.Render(env, name)
	if err != nil {
		return res, err
	}
	res.HTMLPath = path
	return res, nil
}

// Rerender rebuilds the HTML page of a persisted envelope.
func (r *Runner) Rerender(path string) (*Result, error) {
	env, err := envelope.Load(path)
	if err != nil {
		return nil, err
	}
	name := env.Name()
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	res := &Result{Name: name, Envelope: env, JSONPath: path}
	html, err := r.presenter.Render(env, name)
	if err != nil {
		return res, err
	}
	res.HTMLPath = html
	return res, nil
}
