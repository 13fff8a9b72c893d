package store

import (
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

var postFilterColumns = []string{
	"id", "title", "slug", "body", "status", "author_id", "timezone", "featured",
	"published_at", "created_at", "updated_at",
}

var operators = []string{"=", "!=", "<", "<=", ">", ">=", "LIKE"}

// Query narrows and orders a post listing. SQL conditions are applied in
// the database; the fuzzy search runs over the fetched rows.
type Query struct {
	where   []string
	args    []any
	term    string
	columns []string
	order   string
	desc    bool
	limit   int
	err     error
}

// NewQuery returns a query ordered by newest first.
func NewQuery() *Query {
	return &Query{order: "created_at", desc: true}
}

// Where adds a condition. Unknown columns or operators fail the query.
func (q *Query) Where(column, op string, value any) {
	op = strings.ToUpper(strings.TrimSpace(op))
	if !slices.Contains(postFilterColumns, column) {
		q.fail(fmt.Errorf("where: unknown column %q", column))
		return
	}
	if !slices.Contains(operators, op) {
		q.fail(fmt.Errorf("where: unknown operator %q", op))
		return
	}
	q.where = append(q.where, column+" "+op+" ?")
	q.args = append(q.args, value)
}

// Search keeps rows where term matches one of columns, exactly or within a
// small edit distance of a word. Without columns title and body are used.
func (q *Query) Search(term string, columns ...string) {
	q.term = strings.ToLower(strings.TrimSpace(term))
	if len(columns) == 0 {
		columns = []string{"title", "body"}
	}
	q.columns = columns
}

// OrderBy sorts by column; a leading "-" sorts descending. Unknown
// columns are ignored.
func (q *Query) OrderBy(sort string) *Query {
	desc := strings.HasPrefix(sort, "-")
	column := strings.TrimPrefix(sort, "-")
	if slices.Contains(postFilterColumns, column) {
		q.order = column
		q.desc = desc
	}
	return q
}

// Limit caps the number of rows returned; 0 means no limit.
func (q *Query) Limit(n int) *Query {
	q.limit = n
	return q
}

// Err returns the first error recorded while building the query.
func (q *Query) Err() error { return q.err }

func (q *Query) fail(err error) {
	if q.err == nil {
		q.err = err
	}
}

func (q *Query) build(base string) (string, []any, error) {
	if q.err != nil {
		return "", nil, q.err
	}
	var b strings.Builder
	b.WriteString(base)
	if len(q.where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(q.where, " AND "))
	}
	if q.order != "" {
		b.WriteString(" ORDER BY " + q.order)
		if q.desc {
			b.WriteString(" DESC")
		}
	}
	return b.String(), q.args, nil
}

func (q *Query) page(posts []*Post) []*Post {
	if q.limit > 0 && len(posts) > q.limit {
		return posts[:q.limit]
	}
	return posts
}

func (q *Query) matches(p *Post) bool {
	if q.term == "" {
		return true
	}
	for _, col := range q.columns {
		if Fuzzy(q.term, postColumn(p, col)) {
			return true
		}
	}
	return false
}

func postColumn(p *Post, column string) string {
	switch column {
	case "id":
		return p.ID
	case "title":
		return p.Title
	case "slug":
		return p.Slug
	case "body":
		return p.Body
	case "status":
		return p.Status
	case "author_id":
		return p.AuthorID
	case "timezone":
		return p.Timezone
	default:
		return ""
	}
}

// Fuzzy reports whether term occurs in text, or is within a small edit
// distance of one of its words. The allowed distance grows with the term:
// none below 4 runes, then one per 4 runes.
func Fuzzy(term, text string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	text = strings.ToLower(text)
	if strings.Contains(text, term) {
		return true
	}
	allowed := len([]rune(term)) / 4
	if allowed == 0 {
		return false
	}
	for _, word := range strings.FieldsFunc(text, isSeparator) {
		if levenshtein.ComputeDistance(term, word) <= allowed {
			return true
		}
	}
	return false
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
