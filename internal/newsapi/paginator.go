package newsapi

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"
)

// MaxPageSize is the largest page NewsAPI serves.
const MaxPageSize = 100

// Paginator collects every page of a paginated operation, one request at a
// time.
type Paginator struct {
	gateway  Gateway
	pageSize int
	log      zerolog.Logger
}

func NewPaginator(gateway Gateway, pageSize int, log zerolog.Logger) *Paginator {
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return &Paginator{gateway: gateway, pageSize: pageSize, log: log}
}

func (p *Paginator) PageSize() int {
	return p.pageSize
}

// PageCount returns how many pages of size hold total results.
func PageCount(total, size int) int {
	if total <= 0 || size <= 0 {
		return 1
	}
	return (total + size - 1) / size
}

// Fetch calls op and, for paginated operations whose reported total exceeds
// the page size, requests pages 2..n and appends their items in order.
// A failing page aborts the whole fetch and nothing collected so far is
// returned.
func (p *Paginator) Fetch(ctx context.Context, op Operation, params url.Values) (*Response, error) {
	base := url.Values{}
	for k, v := range params {
		base[k] = append([]string(nil), v...)
	}
	base.Del("page")
	base.Del("pageSize")
	if op.Paginated() {
		base.Set("pageSize", strconv.Itoa(p.pageSize))
	}

	first, err := p.gateway.Call(ctx, op, base)
	if err == nil {
		err = Validate(op, first)
	}
	if err != nil {
		return nil, err
	}
	if !op.Paginated() || first.TotalResults <= p.pageSize {
		return first, nil
	}

	pages := PageCount(first.TotalResults, p.pageSize)
	p.log.Info().
		Str("operation", op.String()).
		Int("total_results", first.TotalResults).
		Int("pages", pages).
		Msg("fetching remaining pages")

	for page := 2; page <= pages; page++ {
		q := url.Values{}
		for k, v := range base {
			q[k] = v
		}
		q.Set("page", strconv.Itoa(page))

		next, err := p.gateway.Call(ctx, op, q)
		if err == nil {
			err = Validate(op, next)
		}
		if err != nil {
			return nil, fmt.Errorf("fetching page %d of %d: %w", page, pages, err)
		}
		first.Articles = append(first.Articles, next.Articles...)
		p.log.Debug().Int("page", page).Int("items", len(next.Articles)).Msg("page collected")
	}
	return first, nil
}
