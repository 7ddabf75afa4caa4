// Package render turns result envelopes into static HTML pages.
package render

import (
	"embed"
	"errors"
	"fmt"
	"html"
	"html/template"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/matheuskafuri/newsfeeds/internal/envelope"
	"github.com/matheuskafuri/newsfeeds/internal/newsapi"
	"github.com/matheuskafuri/newsfeeds/internal/params"
)

const (
	TemplateFile      = "query_result_template.html"
	StyleTemplateFile = "style_template.css"
	StyleFile         = "style.css"
)

//go:embed templates
var embedded embed.FS

// DefaultTemplates returns the page template and stylesheet shipped with the
// binary.
func DefaultTemplates() fs.FS {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// RenderError reports a failure to produce the HTML page for a query. The
// JSON envelope may still have been written.
type RenderError struct {
	Name string
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("rendering %s: %v", e.Name, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// Presenter writes one HTML page per envelope into outDir.
type Presenter struct {
	outDir    string
	templates fs.FS
	log       zerolog.Logger
}

// New returns a presenter reading its templates from templates. A nil FS
// selects DefaultTemplates.
func New(outDir string, templates fs.FS, log zerolog.Logger) *Presenter {
	if templates == nil {
		templates = DefaultTemplates()
	}
	return &Presenter{outDir: outDir, templates: templates, log: log}
}

type page struct {
	Query  template.HTML
	Result template.HTML
}

// Render writes <outDir>/<name>.html and returns its path. Failures are
// reported as *RenderError.
func (p *Presenter) Render(env *envelope.Envelope, name string) (string, error) {
	path, err := p.render(env, name)
	if err != nil {
		return "", &RenderError{Name: name, Err: err}
	}
	return path, nil
}

func (p *Presenter) render(env *envelope.Envelope, name string) (string, error) {
	tmpl, err := template.ParseFS(p.templates, TemplateFile)
	if err != nil {
		return "", fmt.Errorf("loading page template: %w", err)
	}
	table, err := displayTable(env)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	err = tmpl.Execute(&b, page{
		Query:  template.HTML(QueryDescription(env.Query)),
		Result: template.HTML(table.HTML()),
	})
	if err != nil {
		return "", fmt.Errorf("filling page template: %w", err)
	}

	path := filepath.Join(p.outDir, name+".html")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("writing page: %w", err)
	}
	if err := p.copyStyle(); err != nil {
		return "", err
	}
	p.log.Debug().Str("path", path).Int("rows", len(table.Rows)).Msg("page rendered")
	return path, nil
}

func displayTable(env *envelope.Envelope) (*Table, error) {
	op, err := env.Operation()
	if err != nil {
		return nil, err
	}
	if op == newsapi.Sources {
		return SourceDisplay(SourceTable(env.Sources))
	}
	return ArticleDisplay(ArticleTable(env.Articles))
}

// copyStyle installs the stylesheet next to the pages unless one is already
// there.
func (p *Presenter) copyStyle() error {
	src, err := p.templates.Open(StyleTemplateFile)
	if err != nil {
		return fmt.Errorf("opening stylesheet: %w", err)
	}
	defer src.Close()

	dst, err := os.OpenFile(filepath.Join(p.outDir, StyleFile), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("creating stylesheet: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("copying stylesheet: %w", err)
	}
	return dst.Close()
}

// QueryDescription lists the request echo as HTML lines, Date first.
func QueryDescription(echo params.Params) string {
	var b strings.Builder
	if v, ok := echo.Get(envelope.KeyDate); ok {
		fmt.Fprintf(&b, "Date: %s<br>", html.EscapeString(formatValue(v)))
	}
	for _, p := range echo {
		if p.Key == envelope.KeyDate {
			continue
		}
		fmt.Fprintf(&b, "%s: %s<br>", html.EscapeString(p.Key), html.EscapeString(formatValue(p.Value)))
	}
	return b.String()
}

func formatValue(v any) string {
	switch x := v.(type) {
	case []string:
		return strings.Join(x, ", ")
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = fmt.Sprint(e)
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(v)
	}
}
