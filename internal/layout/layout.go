// Package layout is the render tree screens are made of. Every node builds
// itself, and recursively its children, against one shared Repository.
//
// Nodes are a closed set of kinds constructed by the factory functions in
// this package (Rows, Columns, Tabs, Modal, ...). A node the current
// principal may not see builds to Empty, so composites can join their
// children without checking for denial.
package layout

import (
	"context"
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"screenkit/internal/action"
	"screenkit/internal/auth"
	"screenkit/internal/container"
	"screenkit/internal/field"
	"screenkit/internal/render"
	"screenkit/internal/repository"
	"screenkit/internal/td"
)

// Kind identifies a layout variant.
type Kind int

const (
	KindBlank Kind = iota
	KindRows
	KindColumns
	KindTabs
	KindModal
	KindCollapse
	KindWrapper
	KindAccordion
	KindView
	KindSelection
	KindTable
)

var kindNames = [...]string{
	KindBlank:     "blank",
	KindRows:      "rows",
	KindColumns:   "columns",
	KindTabs:      "tabs",
	KindModal:     "modal",
	KindCollapse:  "collapse",
	KindWrapper:   "wrapper",
	KindAccordion: "accordion",
	KindView:      "view",
	KindSelection: "selection",
	KindTable:     "table",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Output is the result of building a node: markup, or Empty.
type Output struct {
	html template.HTML
	ok   bool
}

// Empty is the output of a node that renders nothing.
var Empty = Output{}

// Markup wraps rendered HTML. Blank markup is Empty.
func Markup(html template.HTML) Output {
	if strings.TrimSpace(string(html)) == "" {
		return Empty
	}
	return Output{html: html, ok: true}
}

// IsEmpty reports whether the output renders nothing.
func (o Output) IsEmpty() bool { return !o.ok }

// HTML returns the markup ("" for Empty).
func (o Output) HTML() template.HTML { return o.html }

// Join concatenates outputs, skipping empty ones.
func Join(outs ...Output) Output {
	var b strings.Builder
	for _, o := range outs {
		if o.ok {
			b.WriteString(string(o.html))
		}
	}
	return Markup(template.HTML(b.String()))
}

// Env is everything a node needs besides the repository.
type Env struct {
	Renderer  render.Renderer
	Guard     auth.Guard
	Container *container.Container
	Query     url.Values
	URLs      td.URLBuilder
	Locale    string
	// Action is the URL of the current screen; handler methods and async
	// slugs are appended to it.
	Action string
}

// TD returns the context table columns render with.
func (e Env) TD() td.Context {
	return td.Context{Renderer: e.Renderer, Query: e.Query, URLs: e.URLs, Locale: e.Locale}
}

// Actions returns the context command-bar actions render with.
func (e Env) Actions() action.Context {
	return action.Context{Renderer: e.Renderer, Guard: e.Guard, Action: e.Action}
}

func (e Env) guard() auth.Guard {
	if e.Guard == nil {
		return auth.Gate{}
	}
	return e.Guard
}

func (e Env) methodURL(method string) string {
	return strings.TrimSuffix(e.Action, "/") + "/" + url.PathEscape(method)
}

func (e Env) asyncURL(slug, method string) string {
	return e.methodURL(slug) + "/" + url.PathEscape(method)
}

// Node is one element of a layout tree.
type Node interface {
	Kind() Kind
	Slug() string
	Children() []Node
	Build(ctx context.Context, env Env, repo *repository.Repository) (Output, error)
}

// FieldSet supplies the fields of a Rows or Collapse node.
type FieldSet interface {
	Fields() []field.Field
}

// FieldSetFunc adapts a function to FieldSet.
type FieldSetFunc func() []field.Field

// Fields implements FieldSet.
func (f FieldSetFunc) Fields() []field.Field { return f() }

// FilterSet supplies the filter kinds of a Selection node.
type FilterSet interface {
	Filters() []string
}

// Pane is one titled section of a Tabs or Accordion node.
type Pane struct {
	Title string
	Nodes []Node
}

// Tab creates a pane.
func Tab(title string, nodes ...Node) Pane {
	return Pane{Title: title, Nodes: nodes}
}

// Selection display templates.
const (
	TemplateDropdown = "layouts/selection"
	TemplateLine     = "layouts/filter"
)

// ModalSize is the width class of a modal dialog.
type ModalSize string

const (
	SizeDefault ModalSize = ""
	SizeLarge   ModalSize = "lg"
	SizeXLarge  ModalSize = "xl"
)

// Layout is the concrete Node for every kind. Kind-specific settings are
// only read by the kind that owns them.
type Layout struct {
	kind        Kind
	slug        string
	title       string
	permissions []string
	canSee      func(*repository.Repository) bool
	children    []Node
	async       bool

	fields FieldSet // rows, collapse
	label  string   // collapse

	panes []Pane // tabs, accordion

	modalSize   ModalSize // modal
	asyncMethod string
	formMethod  string
	applyText   string
	closeText   string

	template string            // wrapper, view
	slots    map[string][]Node // wrapper
	data     any               // view

	filters FilterSet // selection
	display string

	target  string   // table
	columns []*td.TD // table
	empty   string
}

func newLayout(kind Kind) *Layout {
	return &Layout{kind: kind}
}

// Blank renders children one after another without extra markup.
func Blank(nodes ...Node) *Layout {
	l := newLayout(KindBlank)
	l.children = nodes
	return l
}

// Rows renders a flat list of fields.
func Rows(fields ...field.Field) *Layout {
	return RowsOf(FieldSetFunc(func() []field.Field { return fields }))
}

// RowsOf renders the fields supplied by fs.
func RowsOf(fs FieldSet) *Layout {
	l := newLayout(KindRows)
	l.fields = fs
	return l
}

// Columns renders children side by side.
func Columns(nodes ...Node) *Layout {
	l := newLayout(KindColumns)
	l.children = nodes
	return l
}

// Tabs renders panes as switchable panels.
func Tabs(panes ...Pane) *Layout {
	l := newLayout(KindTabs)
	l.panes = panes
	return l
}

// Accordion renders panes as stacked collapsible sections.
func Accordion(panes ...Pane) *Layout {
	l := newLayout(KindAccordion)
	l.panes = panes
	return l
}

// Modal renders children inside a dialog shell identified by key. The key
// is also the node's slug.
func Modal(key string, nodes ...Node) *Layout {
	l := newLayout(KindModal)
	l.slug = key
	l.title = key
	l.children = nodes
	l.applyText = "Apply"
	l.closeText = "Close"
	return l
}

// Collapse renders fields inside a collapsible panel.
func Collapse(fields ...field.Field) *Layout {
	return CollapseOf(FieldSetFunc(func() []field.Field { return fields }))
}

// CollapseOf renders the fields supplied by fs inside a collapsible panel.
func CollapseOf(fs FieldSet) *Layout {
	l := newLayout(KindCollapse)
	l.fields = fs
	l.label = "More"
	return l
}

// Wrapper renders each slot's nodes and hands the results to tmpl.
func Wrapper(tmpl string, slots map[string][]Node) *Layout {
	l := newLayout(KindWrapper)
	l.template = tmpl
	l.slots = slots
	return l
}

// View renders tmpl with data and the repository.
func View(tmpl string, data any) *Layout {
	l := newLayout(KindView)
	l.template = tmpl
	l.data = data
	return l
}

// Selection renders a filter panel for the given filter kinds, resolved
// through the container.
func Selection(kinds ...string) *Layout {
	return SelectionOf(filterKinds(kinds))
}

// SelectionOf renders a filter panel for the kinds supplied by fs.
func SelectionOf(fs FilterSet) *Layout {
	l := newLayout(KindSelection)
	l.filters = fs
	l.display = TemplateDropdown
	return l
}

type filterKinds []string

func (k filterKinds) Filters() []string { return k }

// Table renders one row per item of the repository value under target.
func Table(target string, columns ...*td.TD) *Layout {
	l := newLayout(KindTable)
	l.target = target
	l.columns = columns
	l.empty = "No records found"
	return l
}

// WithSlug makes the node addressable by async requests.
func (l *Layout) WithSlug(slug string) *Layout {
	l.slug = slug
	return l
}

// WithPermission restricts the node to principals holding one of perms.
func (l *Layout) WithPermission(perms ...string) *Layout {
	l.permissions = append(l.permissions, perms...)
	return l
}

// CanSee hides the node unless fn returns true for the repository.
func (l *Layout) CanSee(fn func(*repository.Repository) bool) *Layout {
	l.canSee = fn
	return l
}

// Titled sets the heading (modal title, collapse label, table caption).
func (l *Layout) Titled(title string) *Layout {
	l.title = title
	if l.kind == KindCollapse {
		l.label = title
	}
	return l
}

// Size sets the modal width.
func (l *Layout) Size(size ModalSize) *Layout {
	l.modalSize = size
	return l
}

// Async makes a modal load its body from an async handler method when
// opened instead of rendering it with the page.
func (l *Layout) Async(method string) *Layout {
	l.asyncMethod = method
	return l
}

// Method sets the handler a modal form submits to.
func (l *Layout) Method(name string) *Layout {
	l.formMethod = name
	return l
}

// ApplyButton sets the modal submit label.
func (l *Layout) ApplyButton(text string) *Layout {
	l.applyText = text
	return l
}

// CloseButton sets the modal dismiss label.
func (l *Layout) CloseButton(text string) *Layout {
	l.closeText = text
	return l
}

// Line switches a selection to the inline template.
func (l *Layout) Line() *Layout {
	l.display = TemplateLine
	return l
}

// EmptyText sets what a table shows without rows.
func (l *Layout) EmptyText(text string) *Layout {
	l.empty = text
	return l
}

// AsyncMode returns a copy of the node that renders for a partial refresh:
// a modal renders only its body, without the dialog shell.
func (l *Layout) AsyncMode() Node {
	cp := *l
	cp.async = true
	return &cp
}

// Kind implements Node.
func (l *Layout) Kind() Kind { return l.kind }

// Slug implements Node.
func (l *Layout) Slug() string { return l.slug }

// Title returns the heading.
func (l *Layout) Title() string { return l.title }

// Children implements Node. Pane and slot contents count as children.
func (l *Layout) Children() []Node {
	switch l.kind {
	case KindTabs, KindAccordion:
		var out []Node
		for _, p := range l.panes {
			out = append(out, p.Nodes...)
		}
		return out
	case KindWrapper:
		var out []Node
		for _, name := range sortedKeys(l.slots) {
			out = append(out, l.slots[name]...)
		}
		return out
	default:
		return l.children
	}
}

// Permissions implements auth.Restricted.
func (l *Layout) Permissions() []string { return l.permissions }

// Visible implements auth.Restricted.
func (l *Layout) Visible(repo *repository.Repository) bool {
	return l.canSee == nil || l.canSee(repo)
}

// id is a DOM id stable across requests for the same tree shape.
func (l *Layout) id(extra ...string) string {
	parts := append([]string{l.kind.String(), l.slug, l.title, l.target, l.template}, extra...)
	for _, p := range l.panes {
		parts = append(parts, p.Title)
	}
	sum := uuid.NewSHA1(uuid.NameSpaceOID, []byte(strings.Join(parts, "\x00")))
	return l.kind.String() + "-" + sum.String()[:8]
}

// Find returns the first node in a depth-first walk whose slug is slug.
func Find(nodes []Node, slug string) Node {
	if slug == "" {
		return nil
	}
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if n.Slug() == slug {
			return n
		}
		if found := Find(n.Children(), slug); found != nil {
			return found
		}
	}
	return nil
}

// BuildAsync builds n in its async-render variant when it has one.
func BuildAsync(ctx context.Context, env Env, n Node, repo *repository.Repository) (Output, error) {
	if a, ok := n.(interface{ AsyncMode() Node }); ok {
		n = a.AsyncMode()
	}
	return n.Build(ctx, env, repo)
}

// BuildAll builds nodes in order and joins their output.
func BuildAll(ctx context.Context, env Env, repo *repository.Repository, nodes ...Node) (Output, error) {
	outs := make([]Output, 0, len(nodes))
	for _, n := range nodes {
		if n == nil {
			continue
		}
		out, err := n.Build(ctx, env, repo)
		if err != nil {
			return Empty, err
		}
		outs = append(outs, out)
	}
	return Join(outs...), nil
}
