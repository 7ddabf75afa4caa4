package render

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/matheuskafuri/newsfeeds/internal/newsapi"
)

// Row maps column names to cell markup.
type Row map[string]string

// Table is a row-oriented projection of result items. Cells hold HTML:
// text is escaped when rows are built so injected markup survives rendering.
type Table struct {
	Columns []string
	Rows    []Row
}

var (
	articleColumns = map[string]string{
		"author":      "Author",
		"title":       "Title",
		"description": "Summary",
		"url":         "URL",
		"urlToImage":  "URL to Image",
		"publishedAt": "Date",
		"content":     "Content",
		"source.name": "Source",
	}
	articleOrder   = []string{"Date", "Title", "Summary", "Author", "Source", "Content", "URL", "URL to Image"}
	articleDisplay = []string{"Date", "Title", "Summary", "Author", "Source"}

	sourceColumns = map[string]string{
		"id":          "Source ID",
		"name":        "Source Name",
		"description": "Description",
		"url":         "URL",
		"category":    "Category",
		"language":    "Language",
		"country":     "Country",
	}
	sourceOrder   = []string{"Source ID", "Source Name", "Description", "URL", "Category", "Language", "Country"}
	sourceDisplay = []string{"Source ID", "Source Name", "Description", "Category", "Language", "Country"}
)

// ArticleTable flattens articles under their raw field names, renames and
// reorders the columns, and coerces Date to a day.
func ArticleTable(articles []newsapi.Article) *Table {
	t := &Table{Columns: []string{"source.id", "source.name", "author", "title", "description", "url", "urlToImage", "publishedAt", "content"}}
	for _, a := range articles {
		t.Rows = append(t.Rows, escapeRow(Row{
			"source.id":   a.Source.ID,
			"source.name": a.Source.Name,
			"author":      a.Author,
			"title":       a.Title,
			"description": a.Description,
			"url":         a.URL,
			"urlToImage":  a.URLToImage,
			"publishedAt": a.PublishedAt,
			"content":     a.Content,
		}))
	}
	t = t.Rename(articleColumns).mustSelect(articleOrder...)
	t.Map("Date", func(r Row) string { return day(r["Date"]) })
	return t
}

// SourceTable flattens source descriptors into the sources schema.
func SourceTable(sources []newsapi.Source) *Table {
	t := &Table{Columns: []string{"id", "name", "description", "url", "category", "language", "country"}}
	for _, s := range sources {
		t.Rows = append(t.Rows, escapeRow(Row{
			"id":          s.ID,
			"name":        s.Name,
			"description": s.Description,
			"url":         s.URL,
			"category":    s.Category,
			"language":    s.Language,
			"country":     s.Country,
		}))
	}
	return t.Rename(sourceColumns).mustSelect(sourceOrder...)
}

// ArticleDisplay links each title to its article and keeps the display columns.
func ArticleDisplay(t *Table) (*Table, error) {
	if err := t.Map("Title", func(r Row) string { return link(r["URL"], r["Title"]) }); err != nil {
		return nil, err
	}
	return t.Select(articleDisplay...)
}

// SourceDisplay links each source name to its site and drops the URL column.
func SourceDisplay(t *Table) (*Table, error) {
	if err := t.Map("Source Name", func(r Row) string { return link(r["URL"], r["Source Name"]) }); err != nil {
		return nil, err
	}
	return t.Select(sourceDisplay...)
}

// Rename returns a copy of t with columns renamed through names. Columns
// without an entry keep their name.
func (t *Table) Rename(names map[string]string) *Table {
	rename := func(c string) string {
		if n, ok := names[c]; ok {
			return n
		}
		return c
	}
	out := &Table{Columns: make([]string, len(t.Columns))}
	for i, c := range t.Columns {
		out.Columns[i] = rename(c)
	}
	for _, r := range t.Rows {
		nr := make(Row, len(r))
		for k, v := range r {
			nr[rename(k)] = v
		}
		out.Rows = append(out.Rows, nr)
	}
	return out
}

// Select returns a copy of t holding only cols, in that order.
func (t *Table) Select(cols ...string) (*Table, error) {
	for _, c := range cols {
		if !t.has(c) {
			return nil, fmt.Errorf("unknown column %q", c)
		}
	}
	out := &Table{Columns: append([]string(nil), cols...)}
	for _, r := range t.Rows {
		nr := make(Row, len(cols))
		for _, c := range cols {
			nr[c] = r[c]
		}
		out.Rows = append(out.Rows, nr)
	}
	return out, nil
}

func (t *Table) mustSelect(cols ...string) *Table {
	out, err := t.Select(cols...)
	if err != nil {
		panic(err)
	}
	return out
}

// Map replaces every cell of col with fn applied to its row.
func (t *Table) Map(col string, fn func(Row) string) error {
	if !t.has(col) {
		return fmt.Errorf("unknown column %q", col)
	}
	for _, r := range t.Rows {
		r[col] = fn(r)
	}
	return nil
}

func (t *Table) has(col string) bool {
	for _, c := range t.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// HTML renders the table without an index column. Cells are written as is.
func (t *Table) HTML() string {
	var b strings.Builder
	b.WriteString("<table border=\"1\" class=\"dataframe\">\n  <thead>\n    <tr style=\"text-align: right;\">\n")
	for _, c := range t.Columns {
		fmt.Fprintf(&b, "      <th>%s</th>\n", html.EscapeString(c))
	}
	b.WriteString("    </tr>\n  </thead>\n  <tbody>\n")
	for _, r := range t.Rows {
		b.WriteString("    <tr>\n")
		for _, c := range t.Columns {
			fmt.Fprintf(&b, "      <td>%s</td>\n", r[c])
		}
		b.WriteString("    </tr>\n")
	}
	b.WriteString("  </tbody>\n</table>")
	return b.String()
}

func escapeRow(r Row) Row {
	for k, v := range r {
		r[k] = html.EscapeString(v)
	}
	return r
}

// link expects already escaped arguments.
func link(href, text string) string {
	return fmt.Sprintf(`<a href="%s">%s</a>`, href, text)
}

// day coerces a timestamp to YYYY-MM-DD, leaving unparsable values alone.
func day(s string) string {
	raw := html.UnescapeString(s)
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", time.DateOnly} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC().Format(time.DateOnly)
		}
	}
	return s
}
