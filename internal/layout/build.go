package layout

import (
	"context"
	"fmt"
	"html/template"
	"maps"
	"slices"

	"screenkit/internal/auth"
	"screenkit/internal/filter"
	"screenkit/internal/repository"
)

// FiltersPerGroup is how many filters share one group of a selection panel.
const FiltersPerGroup = 4

// FieldsView is the data of the rows and collapse templates.
type FieldsView struct {
	ID     string
	Title  string
	Label  string
	Fields []template.HTML
}

// ItemsView is the data of the columns template.
type ItemsView struct {
	ID    string
	Title string
	Items []template.HTML
}

// PaneView is one rendered pane of tabs or an accordion.
type PaneView struct {
	ID     string
	Title  string
	Body   template.HTML
	Active bool
}

// PanesView is the data of the tabs and accordion templates.
type PanesView struct {
	ID    string
	Title string
	Panes []PaneView
}

// ModalView is the data of the modal templates.
type ModalView struct {
	ID         string
	Key        string
	Title      string
	Size       ModalSize
	Body       template.HTML
	AsyncURL   string
	FormAction string
	Apply      string
	Close      string
}

// WrapperView is the data handed to a wrapper's template.
type WrapperView struct {
	Slots      map[string]template.HTML
	Repository *repository.Repository
}

// ViewData is the data handed to a view's template.
type ViewData struct {
	Data       any
	Repository *repository.Repository
}

// FilterView is one filter of a selection panel.
type FilterView struct {
	Name       string
	Parameters []string
	Applied    bool
	Fields     []template.HTML
}

// SelectionView is the data of the selection templates.
type SelectionView struct {
	ID      string
	Action  string
	Filters []FilterView
	Groups  [][]FilterView
	Applied int
}

// TableView is the data of the table template.
type TableView struct {
	ID    string
	Title string
	Head  []template.HTML
	Rows  [][]template.HTML
	Empty string
}

// Build implements Node.
func (l *Layout) Build(ctx context.Context, env Env, repo *repository.Repository) (Output, error) {
	if !env.guard().CheckPermission(ctx, l, repo) {
		return Empty, nil
	}
	out, err := l.build(ctx, env, repo)
	if err != nil {
		return Empty, fmt.Errorf("%s layout: %w", l.kind, err)
	}
	return out, nil
}

func (l *Layout) build(ctx context.Context, env Env, repo *repository.Repository) (Output, error) {
	switch l.kind {
	case KindBlank:
		return BuildAll(ctx, env, repo, l.children...)
	case KindRows, KindCollapse:
		return l.buildFields(ctx, env, repo)
	case KindColumns:
		return l.buildColumns(ctx, env, repo)
	case KindTabs, KindAccordion:
		return l.buildPanes(ctx, env, repo)
	case KindModal:
		return l.buildModal(ctx, env, repo)
	case KindWrapper:
		return l.buildWrapper(ctx, env, repo)
	case KindView:
		return renderOutput(env, l.template, ViewData{Data: l.data, Repository: repo})
	case KindSelection:
		return l.buildSelection(ctx, env, repo)
	case KindTable:
		return l.buildTable(ctx, env, repo)
	default:
		return Empty, fmt.Errorf("unknown kind %d", int(l.kind))
	}
}

func renderOutput(env Env, name string, data any) (Output, error) {
	html, err := env.Renderer.Render(name, data)
	if err != nil {
		return Empty, err
	}
	return Markup(html), nil
}

func (l *Layout) buildFields(ctx context.Context, env Env, repo *repository.Repository) (Output, error) {
	if l.fields == nil {
		return Empty, nil
	}
	var rendered []template.HTML
	for _, f := range l.fields.Fields() {
		if f == nil {
			continue
		}
		html, err := f.Render(ctx, env.Renderer, repo)
		if err != nil {
			return Empty, fmt.Errorf("field %q: %w", f.Name(), err)
		}
		if html != "" {
			rendered = append(rendered, html)
		}
	}
	if len(rendered) == 0 {
		return Empty, nil
	}
	name := "layouts/rows"
	if l.kind == KindCollapse {
		name = "layouts/collapse"
	}
	return renderOutput(env, name, FieldsView{ID: l.id(), Title: l.title, Label: l.label, Fields: rendered})
}

func (l *Layout) buildColumns(ctx context.Context, env Env, repo *repository.Repository) (Output, error) {
	var items []template.HTML
	for _, n := range l.children {
		out, err := n.Build(ctx, env, repo)
		if err != nil {
			return Empty, err
		}
		if !out.IsEmpty() {
			items = append(items, out.HTML())
		}
	}
	if len(items) == 0 {
		return Empty, nil
	}
	return renderOutput(env, "layouts/columns", ItemsView{ID: l.id(), Title: l.title, Items: items})
}

func (l *Layout) buildPanes(ctx context.Context, env Env, repo *repository.Repository) (Output, error) {
	var panes []PaneView
	for i, p := range l.panes {
		out, err := BuildAll(ctx, env, repo, p.Nodes...)
		if err != nil {
			return Empty, fmt.Errorf("pane %q: %w", p.Title, err)
		}
		if out.IsEmpty() {
			continue
		}
		panes = append(panes, PaneView{
			ID:     l.id(p.Title, fmt.Sprint(i)),
			Title:  p.Title,
			Body:   out.HTML(),
			Active: len(panes) == 0,
		})
	}
	if len(panes) == 0 {
		return Empty, nil
	}
	name := "layouts/tabs"
	if l.kind == KindAccordion {
		name = "layouts/accordion"
	}
	return renderOutput(env, name, PanesView{ID: l.id(), Title: l.title, Panes: panes})
}

func (l *Layout) buildModal(ctx context.Context, env Env, repo *repository.Repository) (Output, error) {
	v := ModalView{
		ID:    l.id(),
		Key:   l.slug,
		Title: l.title,
		Size:  l.modalSize,
		Apply: l.applyText,
		Close: l.closeText,
	}
	if l.formMethod != "" {
		v.FormAction = env.methodURL(l.formMethod)
	}
	if l.asyncMethod != "" {
		v.AsyncURL = env.asyncURL(l.slug, l.asyncMethod)
	}
	if l.asyncMethod == "" || l.async {
		body, err := BuildAll(ctx, env, repo, l.children...)
		if err != nil {
			return Empty, err
		}
		v.Body = body.HTML()
	}
	if l.async {
		return renderOutput(env, "layouts/modal-content", v)
	}
	return renderOutput(env, "layouts/modal", v)
}

func (l *Layout) buildWrapper(ctx context.Context, env Env, repo *repository.Repository) (Output, error) {
	slots := make(map[string]template.HTML, len(l.slots))
	for name, nodes := range l.slots {
		out, err := BuildAll(ctx, env, repo, nodes...)
		if err != nil {
			return Empty, fmt.Errorf("slot %q: %w", name, err)
		}
		slots[name] = out.HTML()
	}
	return renderOutput(env, l.template, WrapperView{Slots: slots, Repository: repo})
}

func (l *Layout) buildSelection(ctx context.Context, env Env, repo *repository.Repository) (Output, error) {
	if l.filters == nil {
		return Empty, nil
	}
	kinds := l.filters.Filters()
	if len(kinds) == 0 {
		return Empty, nil
	}
	if env.Container == nil {
		return Empty, fmt.Errorf("no container to resolve %d filters", len(kinds))
	}
	values := filter.Values(env.Query)
	var views []FilterView
	applied := 0
	for _, kind := range kinds {
		v, err := env.Container.Resolve(ctx, kind)
		if err != nil {
			return Empty, err
		}
		f, ok := v.(filter.Filter)
		if !ok {
			return Empty, fmt.Errorf("%s resolved to %T, not a filter", kind, v)
		}
		if r, ok := f.(auth.Restricted); ok && !env.guard().CheckPermission(ctx, r, repo) {
			continue
		}
		fv := FilterView{Name: f.Name(), Parameters: f.Parameters(), Applied: filter.IsApplied(f, env.Query)}
		for _, fld := range f.Display() {
			html, err := fld.Render(ctx, env.Renderer, values)
			if err != nil {
				return Empty, fmt.Errorf("filter %q: %w", f.Name(), err)
			}
			if html != "" {
				fv.Fields = append(fv.Fields, html)
			}
		}
		if fv.Applied {
			applied++
		}
		views = append(views, fv)
	}
	if len(views) == 0 {
		return Empty, nil
	}
	return renderOutput(env, l.display, SelectionView{
		ID:      l.id(kinds...),
		Action:  env.Action,
		Filters: views,
		Groups:  Chunk(views, FiltersPerGroup),
		Applied: applied,
	})
}

// Chunk splits items into consecutive groups of at most size.
func Chunk[T any](items []T, size int) [][]T {
	if len(items) == 0 || size <= 0 {
		return nil
	}
	return slices.Collect(slices.Chunk(items, size))
}

func (l *Layout) buildTable(ctx context.Context, env Env, repo *repository.Repository) (Output, error) {
	tc := env.TD()
	v := TableView{ID: l.id(), Title: l.title, Empty: l.empty}
	visible := l.columns[:0:0]
	for _, col := range l.columns {
		if col == nil || !env.guard().CheckPermission(ctx, col, repo) {
			continue
		}
		th, err := col.BuildTh(tc)
		if err != nil {
			return Empty, err
		}
		v.Head = append(v.Head, th)
		visible = append(visible, col)
	}
	if len(visible) == 0 {
		return Empty, nil
	}
	for _, row := range repo.Items(l.target) {
		cells := make([]template.HTML, 0, len(visible))
		for _, col := range visible {
			cell, err := col.BuildTd(tc, row)
			if err != nil {
				return Empty, err
			}
			cells = append(cells, cell)
		}
		v.Rows = append(v.Rows, cells)
	}
	return renderOutput(env, "layouts/table", v)
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
