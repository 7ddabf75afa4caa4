// Package envelope assembles the result of one query, with its request echo
// and status summary, and persists it as a JSON blob.
package envelope

import (
	"fmt"
	"time"

	"github.com/matheuskafuri/newsfeeds/internal/newsapi"
	"github.com/matheuskafuri/newsfeeds/internal/params"
)

const (
	// DateLayout formats the Date field of the request echo.
	DateLayout = "01-02-2006"
	// TimestampLayout qualifies query names so each run gets its own artifacts.
	TimestampLayout = "01_02_2006-15_04_05"

	KeyDate      = "Date"
	KeyOperation = "operation"
	KeyLanguage  = "language"
)

type Status struct {
	Status       string `json:"status"`
	TotalResults int    `json:"totalResults"`
}

// Envelope is written once per invocation and never updated.
type Envelope struct {
	Articles []newsapi.Article `json:"articles,omitempty"`
	Sources  []newsapi.Source  `json:"sources,omitempty"`
	Query    params.Params     `json:"query"`
	Status   Status            `json:"query_status"`
}

// QueryName returns name qualified with the run timestamp.
func QueryName(name string, now time.Time) string {
	return name + "-" + now.Format(TimestampLayout)
}

// Build attaches the request echo and status summary to a fetched response.
// The echo holds the normalized request parameters followed by the language,
// operation, timestamped query name and the date of the request.
func Build(req params.Request, name string, resp *newsapi.Response, now time.Time) *Envelope {
	op := req.Operation()
	echo := req.Echo()
	if !echo.Has(KeyLanguage) {
		echo = echo.Set(KeyLanguage, newsapi.DefaultLanguage)
	}
	echo = echo.
		Set(KeyOperation, op.String()).
		Set(params.KeyQueryName, name).
		Set(KeyDate, now.Format(DateLayout))

	env := &Envelope{
		Query:  echo,
		Status: Status{Status: resp.Status, TotalResults: resp.TotalResults},
	}
	switch op {
	case newsapi.Sources:
		env.Sources = resp.Sources
		// The sources endpoint reports no total.
		if env.Status.TotalResults == 0 {
			env.Status.TotalResults = len(resp.Sources)
		}
	default:
		env.Articles = resp.Articles
	}
	return env
}

// Operation reads the operation recorded in the request echo.
func (e *Envelope) Operation() (newsapi.Operation, error) {
	v, ok := e.Query.Get(KeyOperation)
	if !ok {
		if len(e.Sources) > 0 {
			return newsapi.Sources, nil
		}
		return newsapi.TopHeadlines, nil
	}
	s, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("operation must be a string, got %T", v)
	}
	return newsapi.ParseOperation(s)
}

// Name returns the timestamped query name recorded in the request echo.
func (e *Envelope) Name() string {
	v, _ := e.Query.Get(params.KeyQueryName)
	s, _ := v.(string)
	return s
}

// Len returns the number of collected items.
func (e *Envelope) Len() int {
	return len(e.Articles) + len(e.Sources)
}
