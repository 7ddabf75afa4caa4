package params

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/matheuskafuri/newsfeeds/internal/newsapi"
)

// Request is a validated, immutable query for one remote operation.
type Request interface {
	Operation() newsapi.Operation
	QueryName() string
	// Values returns the parameters under their remote names.
	Values() url.Values
	// Echo returns the normalized parameters as supplied, without the query name.
	Echo() Params
}

var (
	categories = []string{"business", "entertainment", "general", "health", "science", "sports", "technology"}
	sortOrders = []string{"relevancy", "popularity", "publishedAt"}
)

type TopHeadlinesRequest struct {
	Name     string
	Country  string
	Category string
	Sources  []string
	Query    string
	Language string

	echo Params
}

func NewTopHeadlines(p Params) (*TopHeadlinesRequest, error) {
	p, err := ValidateTopHeadlines(p)
	if err != nil {
		return nil, err
	}
	r := newReader(p)
	req := &TopHeadlinesRequest{
		Name:     r.text(KeyQueryName),
		Country:  r.code("country"),
		Category: r.oneOf("category", categories),
		Sources:  r.list("sources"),
		Query:    r.text("q"),
		Language: r.code("language"),
	}
	if err := r.finish(); err != nil {
		return nil, err
	}
	req.echo = r.echo()
	return req, nil
}

func (r *TopHeadlinesRequest) Operation() newsapi.Operation { return newsapi.TopHeadlines }
func (r *TopHeadlinesRequest) QueryName() string            { return r.Name }
func (r *TopHeadlinesRequest) Echo() Params                 { return r.echo.Clone() }

func (r *TopHeadlinesRequest) Values() url.Values {
	v := url.Values{}
	setValue(v, "country", r.Country)
	setValue(v, "category", r.Category)
	setValue(v, "sources", strings.Join(r.Sources, ","))
	setValue(v, "q", r.Query)
	setValue(v, "language", r.Language)
	return v
}

type EverythingRequest struct {
	Name           string
	Query          string
	QueryInTitle   string
	Sources        []string
	Domains        []string
	ExcludeDomains []string
	From           string
	To             string
	Language       string
	SortBy         string

	echo Params
}

func NewEverything(p Params) (*EverythingRequest, error) {
	p, err := Validate(newsapi.Everything, p)
	if err != nil {
		return nil, err
	}
	r := newReader(p)
	req := &EverythingRequest{
		Name:           r.text(KeyQueryName),
		Query:          r.text("q"),
		QueryInTitle:   r.text("q_in_title"),
		Sources:        r.list("sources"),
		Domains:        r.list("domains"),
		ExcludeDomains: r.list("exclude_domains"),
		From:           r.date("from"),
		To:             r.date("to"),
		Language:       r.code("language"),
		SortBy:         r.oneOf("sort_by", sortOrders),
	}
	if err := r.finish(); err != nil {
		return nil, err
	}
	req.echo = r.echo()
	return req, nil
}

func (r *EverythingRequest) Operation() newsapi.Operation { return newsapi.Everything }
func (r *EverythingRequest) QueryName() string            { return r.Name }
func (r *EverythingRequest) Echo() Params                 { return r.echo.Clone() }

func (r *EverythingRequest) Values() url.Values {
	v := url.Values{}
	setValue(v, "q", r.Query)
	setValue(v, "qInTitle", r.QueryInTitle)
	setValue(v, "sources", strings.Join(r.Sources, ","))
	setValue(v, "domains", strings.Join(r.Domains, ","))
	setValue(v, "excludeDomains", strings.Join(r.ExcludeDomains, ","))
	setValue(v, "from", r.From)
	setValue(v, "to", r.To)
	setValue(v, "language", r.Language)
	setValue(v, "sortBy", r.SortBy)
	return v
}

type SourcesRequest struct {
	Name     string
	Category string
	Language string
	Country  string

	echo Params
}

func NewSources(p Params) (*SourcesRequest, error) {
	p, err := Validate(newsapi.Sources, p)
	if err != nil {
		return nil, err
	}
	r := newReader(p)
	req := &SourcesRequest{
		Name:     r.text(KeyQueryName),
		Category: r.oneOf("category", categories),
		Language: r.code("language"),
		Country:  r.code("country"),
	}
	if err := r.finish(); err != nil {
		return nil, err
	}
	req.echo = r.echo()
	return req, nil
}

func (r *SourcesRequest) Operation() newsapi.Operation { return newsapi.Sources }
func (r *SourcesRequest) QueryName() string            { return r.Name }
func (r *SourcesRequest) Echo() Params                 { return r.echo.Clone() }

func (r *SourcesRequest) Values() url.Values {
	v := url.Values{}
	setValue(v, "category", r.Category)
	setValue(v, "language", r.Language)
	setValue(v, "country", r.Country)
	return v
}

// NewRequest builds the request type that matches op.
func NewRequest(op newsapi.Operation, p Params) (Request, error) {
	switch op {
	case newsapi.TopHeadlines:
		return NewTopHeadlines(p)
	case newsapi.Everything:
		return NewEverything(p)
	case newsapi.Sources:
		return NewSources(p)
	default:
		return nil, fmt.Errorf("unsupported operation %s", op)
	}
}

func setValue(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}

// reader pulls typed fields out of normalized params and remembers the
// first error and which keys were consumed.
type reader struct {
	p    Params
	seen map[string]bool
	fix  map[string]any
	err  error
}

func newReader(p Params) *reader {
	return &reader{p: p, seen: map[string]bool{}, fix: map[string]any{}}
}

func (r *reader) fail(key string, format string, args ...any) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: %s: %s", ErrInvalidParameter, key, fmt.Sprintf(format, args...))
	}
}

func (r *reader) text(key string) string {
	r.seen[key] = true
	v, ok := r.p.Get(key)
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		r.fail(key, "expected a string, got %T", v)
		return ""
	}
	return strings.TrimSpace(s)
}

// code reads a two-letter country or language code.
func (r *reader) code(key string) string {
	s := strings.ToLower(r.text(key))
	if s != "" && len(s) != 2 {
		r.fail(key, "expected a two-letter code, got %q", s)
	}
	return s
}

func (r *reader) oneOf(key string, allowed []string) string {
	s := r.text(key)
	if s != "" && !slices.Contains(allowed, s) {
		r.fail(key, "%q is not one of %s", s, strings.Join(allowed, ", "))
	}
	return s
}

// list accepts either a comma-separated string or a sequence of strings.
func (r *reader) list(key string) []string {
	r.seen[key] = true
	v, ok := r.p.Get(key)
	if !ok {
		return nil
	}
	var raw []string
	switch t := v.(type) {
	case string:
		raw = strings.Split(t, ",")
	case []any:
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				r.fail(key, "expected a list of strings, got %T element", item)
				return nil
			}
			raw = append(raw, s)
		}
	default:
		r.fail(key, "expected a string or list, got %T", v)
		return nil
	}
	var out []string
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// date accepts YYYY-MM-DD, RFC 3339 or a YAML timestamp.
func (r *reader) date(key string) string {
	r.seen[key] = true
	v, ok := r.p.Get(key)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case time.Time:
		s := t.Format(time.RFC3339)
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
			s = t.Format(time.DateOnly)
		}
		r.fix[key] = s
		return s
	case string:
		if _, err := time.Parse(time.DateOnly, t); err == nil {
			return t
		}
		if _, err := time.Parse(time.RFC3339, t); err == nil {
			return t
		}
		r.fail(key, "expected YYYY-MM-DD or RFC 3339 timestamp, got %q", t)
	default:
		r.fail(key, "expected a date, got %T", v)
	}
	return ""
}

func (r *reader) finish() error {
	if r.err != nil {
		return r.err
	}
	for _, key := range r.p.Keys() {
		if !r.seen[key] {
			return fmt.Errorf("%w: %q", ErrUnknownParameter, key)
		}
	}
	return nil
}

func (r *reader) echo() Params {
	out := r.p.Delete(KeyQueryName)
	for key, value := range r.fix {
		out = out.Set(key, value)
	}
	return out
}
