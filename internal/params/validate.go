package params

import (
	"errors"
	"fmt"
	"strings"

	"github.com/matheuskafuri/newsfeeds/internal/newsapi"
)

// KeyQueryName names the query; it prefixes the output artifacts.
const KeyQueryName = "query_name"

var (
	ErrMissingQueryName   = errors.New("query_name is not provided")
	ErrConflictingFilters = errors.New("sources cannot be mixed with country or category")
	ErrUnknownParameter   = errors.New("unknown parameter")
	ErrInvalidParameter   = errors.New("invalid parameter")
)

// ValidateTopHeadlines normalizes p and checks the top-headlines rules:
// query_name is required and sources excludes both country and category.
func ValidateTopHeadlines(p Params) (Params, error) {
	p, err := requireQueryName(p)
	if err != nil {
		return nil, err
	}
	sources, hasSources := p.Get("sources")
	if !hasSources {
		return p, nil
	}
	for _, key := range []string{"country", "category"} {
		if v, ok := p.Get(key); ok {
			return nil, fmt.Errorf("%w: %s %v with sources %v", ErrConflictingFilters, key, v, sources)
		}
	}
	return p, nil
}

// Validate normalizes p and applies the rules for op. Every operation needs a
// query name; only top headlines restricts filter combinations.
func Validate(op newsapi.Operation, p Params) (Params, error) {
	if op == newsapi.TopHeadlines {
		return ValidateTopHeadlines(p)
	}
	return requireQueryName(p)
}

func requireQueryName(p Params) (Params, error) {
	p = Normalize(p)
	v, ok := p.Get(KeyQueryName)
	if !ok {
		return nil, ErrMissingQueryName
	}
	name, isString := v.(string)
	if !isString {
		return nil, fmt.Errorf("%w: %s must be a string, got %T", ErrInvalidParameter, KeyQueryName, v)
	}
	if strings.TrimSpace(name) == "" {
		return nil, ErrMissingQueryName
	}
	if strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("%w: %s %q must not contain path separators", ErrInvalidParameter, KeyQueryName, name)
	}
	return p, nil
}
