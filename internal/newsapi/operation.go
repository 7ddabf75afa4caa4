package newsapi

import "fmt"

// Operation identifies one of the remote NewsAPI endpoints.
type Operation int

const (
	TopHeadlines Operation = iota
	Everything
	Sources
)

// DefaultLanguage is sent with every call that does not set a language.
const DefaultLanguage = "en"

// AllOperations returns every operation in canonical order.
func AllOperations() []Operation {
	return []Operation{TopHeadlines, Everything, Sources}
}

func (o Operation) String() string {
	switch o {
	case TopHeadlines:
		return "top_headlines"
	case Everything:
		return "everything"
	case Sources:
		return "sources"
	default:
		return fmt.Sprintf("operation(%d)", int(o))
	}
}

// Path returns the endpoint path relative to the API base URL.
func (o Operation) Path() string {
	switch o {
	case TopHeadlines:
		return "top-headlines"
	case Everything:
		return "everything"
	case Sources:
		return "top-headlines/sources"
	default:
		return ""
	}
}

// Paginated reports whether results for the operation come in pages.
func (o Operation) Paginated() bool {
	return o == TopHeadlines || o == Everything
}

// ItemsKey is the JSON field that carries the operation's result items.
func (o Operation) ItemsKey() string {
	if o == Sources {
		return "sources"
	}
	return "articles"
}

func ParseOperation(s string) (Operation, error) {
	for _, op := range AllOperations() {
		if op.String() == s {
			return op, nil
		}
	}
	return 0, fmt.Errorf("unknown operation %q (valid: top_headlines, everything, sources)", s)
}
