package admin

import (
	"net/url"
	"slices"

	"screenkit/internal/field"
	"screenkit/internal/filter"
	"screenkit/internal/repository"
	"screenkit/internal/store"
)

var _ filter.Query = (*store.Query)(nil)

// StatusFilter narrows posts to one workflow status.
type StatusFilter struct{}

func (*StatusFilter) Name() string         { return "Status" }
func (*StatusFilter) Parameters() []string { return []string{"status"} }

func (*StatusFilter) Display() []field.Field {
	choices := make([]field.Choice, 0, len(store.Statuses))
	for _, s := range store.Statuses {
		choices = append(choices, field.Choice{Value: s, Label: s})
	}
	return []field.Field{field.Select("status", choices, field.Title("Status"))}
}

func (*StatusFilter) Apply(q filter.Query, values url.Values) {
	status := filter.Get(values, "status")
	if !slices.Contains(store.Statuses, status) {
		return
	}
	q.Where("status", "=", status)
}

// SearchFilter matches a term against title and body.
type SearchFilter struct{}

func (*SearchFilter) Name() string         { return "Search" }
func (*SearchFilter) Parameters() []string { return []string{"q"} }

func (*SearchFilter) Display() []field.Field {
	return []field.Field{field.Input("q", field.Title("Search"), field.Placeholder("Title or body"))}
}

func (*SearchFilter) Apply(q filter.Query, values url.Values) {
	q.Search(filter.Get(values, "q"), "title", "body")
}

// AuthorFilter narrows posts to one author. Only editors see it.
type AuthorFilter struct {
	users []*store.User
}

func (*AuthorFilter) Name() string         { return "Author" }
func (*AuthorFilter) Parameters() []string { return []string{"author"} }

func (f *AuthorFilter) Display() []field.Field {
	choices := make([]field.Choice, 0, len(f.users))
	for _, u := range f.users {
		choices = append(choices, field.Choice{Value: u.ID, Label: u.Name})
	}
	return []field.Field{field.Select("author", choices, field.Title("Author"))}
}

func (*AuthorFilter) Apply(q filter.Query, values url.Values) {
	q.Where("author_id", "=", filter.Get(values, "author"))
}

// Permissions implements auth.Restricted.
func (*AuthorFilter) Permissions() []string { return []string{"posts.edit"} }

// Visible implements auth.Restricted.
func (*AuthorFilter) Visible(*repository.Repository) bool { return true }
