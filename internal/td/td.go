// Package td describes table columns: display metadata for the header cell
// plus a per-row render function for body cells.
package td

import (
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"screenkit/internal/jsonutil"
	"screenkit/internal/render"
	"screenkit/internal/repository"
)

// Align is the horizontal alignment of a column.
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// FilterKind selects the inline filter input shown in the header.
type FilterKind string

const (
	FilterNone    FilterKind = ""
	FilterText    FilterKind = "text"
	FilterNumeric FilterKind = "numeric"
	FilterDate    FilterKind = "date"
)

// URLBuilder resolves a named route into a URL.
type URLBuilder interface {
	URL(route string, params ...string) (string, error)
}

// Context carries what header and body cells need besides the row.
type Context struct {
	Renderer render.Renderer
	Query    url.Values
	URLs     URLBuilder
	Locale   string
}

// RenderFunc turns a row into cell content. Returning template.HTML skips
// escaping.
type RenderFunc func(row *repository.Repository) any

type cellFunc func(c Context, row *repository.Repository) (any, error)

// TD is one table column.
type TD struct {
	name        string
	column      string
	title       string
	width       string
	align       Align
	filter      FilterKind
	sort        bool
	locale      bool
	asyncRoute  string
	render      cellFunc
	permissions []string
	canSee      func(*repository.Repository) bool
}

// New creates a column for name. The sort column defaults to name.
func New(name string) *TD {
	return &TD{name: name, column: name, align: AlignLeft}
}

// Set creates a column with a title. Without an explicit title the name is
// Title-Cased ("first_name" → "First Name").
func Set(name string, title ...string) *TD {
	t := New(name)
	if len(title) > 0 {
		t.title = title[0]
	} else {
		t.title = TitleCase(name)
	}
	return t
}

// TitleCase converts a column key to a display title.
func TitleCase(name string) string {
	words := strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(name)
	return cases.Title(language.English).String(strings.Join(strings.Fields(words), " "))
}

// Width sets the column width (any CSS length).
func (t *TD) Width(w string) *TD {
	t.width = w
	return t
}

// Locale marks the column as holding per-locale values.
func (t *TD) Locale() *TD {
	t.locale = true
	return t
}

// Filter enables an inline header filter of the given kind.
func (t *TD) Filter(kind FilterKind) *TD {
	t.filter = kind
	return t
}

// Sort toggles sorting for the column. Called without arguments it enables it.
func (t *TD) Sort(enabled ...bool) *TD {
	t.sort = len(enabled) == 0 || enabled[0]
	return t
}

// Align sets the alignment.
func (t *TD) Align(a Align) *TD {
	t.align = a
	return t
}

// Column overrides the key used for sorting and filtering.
func (t *TD) Column(column string) *TD {
	t.column = column
	return t
}

// AsyncRoute sets the URL modal triggers post to.
func (t *TD) AsyncRoute(route string) *TD {
	t.asyncRoute = route
	return t
}

// Permission restricts the column to principals holding one of perms.
func (t *TD) Permission(perms ...string) *TD {
	t.permissions = append(t.permissions, perms...)
	return t
}

// CanSee hides the column unless fn returns true.
func (t *TD) CanSee(fn func(*repository.Repository) bool) *TD {
	t.canSee = fn
	return t
}

// Render sets the body cell render function.
func (t *TD) Render(fn RenderFunc) *TD {
	t.render = func(_ Context, row *repository.Repository) (any, error) {
		return fn(row), nil
	}
	return t
}

// Link renders the cell as an anchor to a named route. The route parameters
// are the row values under options; the anchor text is the row value under
// text, or "—" when absent.
func (t *TD) Link(route string, options []string, text string) *TD {
	t.render = func(c Context, row *repository.Repository) (any, error) {
		attributes := rowAttributes(row, options)
		label := ""
		if text != "" {
			label = jsonutil.ToString(row.Content(text))
			if label == "" {
				label = "—"
			}
		}
		href, err := buildURL(c.URLs, route, attributes)
		if err != nil {
			return nil, err
		}
		return c.Renderer.Render("partials/td-link", LinkView{
			Route:      route,
			Href:       href,
			Attributes: attributes,
			Text:       label,
		})
	}
	return t
}

// LoadModalAsync renders the cell as a trigger that opens modal and loads
// its content through the async handler method, passing the row values
// under options. The label is the row value under text, else text itself.
func (t *TD) LoadModalAsync(modal, method string, options []string, text string) *TD {
	t.render = func(c Context, row *repository.Repository) (any, error) {
		label := jsonutil.ToString(row.Content(text))
		if label == "" {
			label = text
		}
		return c.Renderer.Render("partials/td-async", AsyncView{
			Modal:      modal,
			Method:     method,
			Attributes: rowAttributes(row, options),
			Text:       label,
			Title:      t.title,
			Route:      t.asyncRoute,
		})
	}
	return t
}

// Name returns the value key.
func (t *TD) Name() string { return t.name }

// ColumnName returns the sort/filter key.
func (t *TD) ColumnName() string { return t.column }

// Title returns the header title.
func (t *TD) Title() string { return t.title }

// Alignment returns the configured alignment.
func (t *TD) Alignment() Align { return t.align }

// FilterKind returns the configured header filter.
func (t *TD) FilterKind() FilterKind { return t.filter }

// FilterParam is the query key a header filter on column submits.
func FilterParam(column string) string {
	return "filter[" + column + "]"
}

// Filters maps the column of every td with a header filter to its kind.
func Filters(tds ...*TD) map[string]FilterKind {
	out := make(map[string]FilterKind)
	for _, t := range tds {
		if t.filter != FilterNone {
			out[t.column] = t.filter
		}
	}
	return out
}

// Sortable reports whether sorting is enabled.
func (t *TD) Sortable() bool { return t.sort }

// HasRender reports whether a render function is set.
func (t *TD) HasRender() bool { return t.render != nil }

// Permissions implements auth.Restricted.
func (t *TD) Permissions() []string { return t.permissions }

// Visible implements auth.Restricted.
func (t *TD) Visible(repo *repository.Repository) bool {
	return t.canSee == nil || t.canSee(repo)
}

// HeaderView is the data of the header cell template.
type HeaderView struct {
	Width        string
	Align        Align
	Sort         bool
	SortURL      string
	SortActive   bool
	SortDesc     bool
	Column       string
	Title        string
	Filter       FilterKind
	FilterName   string
	FilterString string
}

// CellView is the data of the body cell template.
type CellView struct {
	Align  Align
	Value  any
	Render bool
}

// LinkView is the data of the link cell template.
type LinkView struct {
	Route      string
	Href       string
	Attributes []string
	Text       string
}

// AsyncView is the data of the async modal trigger template.
type AsyncView struct {
	Modal      string
	Method     string
	Attributes []string
	Text       string
	Title      string
	Route      string
}

// BuildTh renders the header cell.
func (t *TD) BuildTh(c Context) (template.HTML, error) {
	filterName := FilterParam(t.column)
	current := c.Query.Get("sort")
	next := t.column
	if current == t.column {
		next = "-" + t.column
	}
	return c.Renderer.Render("partials/th", HeaderView{
		Width:        t.width,
		Align:        t.align,
		Sort:         t.sort,
		SortURL:      withQuery(c.Query, "sort", next),
		SortActive:   strings.TrimPrefix(current, "-") == t.column,
		SortDesc:     current == "-"+t.column,
		Column:       t.column,
		Title:        t.title,
		Filter:       t.filter,
		FilterName:   filterName,
		FilterString: c.Query.Get(filterName),
	})
}

// BuildTd renders the body cell for row.
func (t *TD) BuildTd(c Context, row *repository.Repository) (template.HTML, error) {
	var value any
	if t.render != nil {
		v, err := t.render(c, row)
		if err != nil {
			return "", fmt.Errorf("column %s: %w", t.name, err)
		}
		value = v
	} else {
		value = t.defaultValue(c, row)
	}
	if _, ok := value.(template.HTML); !ok {
		value = jsonutil.ToString(value)
	}
	return c.Renderer.Render("partials/td", CellView{
		Align:  t.align,
		Value:  value,
		Render: t.render != nil,
	})
}

func (t *TD) defaultValue(c Context, row *repository.Repository) any {
	if t.locale && c.Locale != "" {
		if key := t.name + "." + c.Locale; row.Has(key) {
			return row.Content(key)
		}
	}
	return row.Content(t.name)
}

func rowAttributes(row *repository.Repository, options []string) []string {
	out := make([]string, 0, len(options))
	for _, opt := range options {
		out = append(out, jsonutil.ToString(row.Content(opt)))
	}
	return out
}

func buildURL(urls URLBuilder, route string, params []string) (string, error) {
	if urls != nil {
		return urls.URL(route, params...)
	}
	return JoinPath(route, params...), nil
}

// JoinPath roots route and appends the escaped params as path segments.
func JoinPath(route string, params ...string) string {
	var b strings.Builder
	b.WriteString("/" + strings.Trim(route, "/"))
	for _, p := range params {
		if b.Len() > 1 {
			b.WriteByte('/')
		}
		b.WriteString(url.PathEscape(p))
	}
	return b.String()
}

func withQuery(q url.Values, key, value string) string {
	next := url.Values{}
	for k, v := range q {
		next[k] = append([]string(nil), v...)
	}
	next.Set(key, value)
	return "?" + next.Encode()
}
