// Package action builds command-bar entries: buttons that post to a screen
// method, plain links, modal toggles and dropdowns grouping other actions.
package action

import (
	"context"
	"fmt"
	"html/template"
	"maps"
	"net/url"
	"slices"
	"strings"

	"screenkit/internal/auth"
	"screenkit/internal/render"
	"screenkit/internal/repository"
)

// Kind is the variant of an action.
type Kind int

const (
	KindButton Kind = iota
	KindLink
	KindModalToggle
	KindDropDown
)

func (k Kind) String() string {
	switch k {
	case KindButton:
		return "button"
	case KindLink:
		return "link"
	case KindModalToggle:
		return "modal-toggle"
	case KindDropDown:
		return "dropdown"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

func (k Kind) template() string {
	return "actions/" + k.String()
}

// Action is one command-bar entry.
type Action struct {
	kind        Kind
	name        string
	icon        string
	method      string
	confirm     string
	href        string
	modal       string
	title       string
	class       string
	params      map[string]string
	permissions []string
	canSee      func(*repository.Repository) bool
	items       []*Action
}

// Opt configures an Action.
type Opt func(*Action)

// Icon sets the icon name.
func Icon(name string) Opt { return func(a *Action) { a.icon = name } }

// Method sets the screen handler a button posts to.
func Method(name string) Opt { return func(a *Action) { a.method = name } }

// Confirm asks the user to confirm with text before submitting.
func Confirm(text string) Opt { return func(a *Action) { a.confirm = text } }

// Href sets the link target.
func Href(target string) Opt { return func(a *Action) { a.href = target } }

// Modal names the modal a toggle opens.
func Modal(key string) Opt { return func(a *Action) { a.modal = key } }

// Title sets the tooltip.
func Title(text string) Opt { return func(a *Action) { a.title = text } }

// Class sets extra CSS classes.
func Class(class string) Opt { return func(a *Action) { a.class = class } }

// Parameters adds values submitted with a button.
func Parameters(params map[string]string) Opt {
	return func(a *Action) {
		if a.params == nil {
			a.params = make(map[string]string, len(params))
		}
		maps.Copy(a.params, params)
	}
}

// Permission restricts the action to principals holding one of perms.
func Permission(perms ...string) Opt {
	return func(a *Action) { a.permissions = append(a.permissions, perms...) }
}

// CanSee hides the action unless fn returns true for the repository.
func CanSee(fn func(*repository.Repository) bool) Opt { return func(a *Action) { a.canSee = fn } }

func newAction(kind Kind, name string, opts []Opt) *Action {
	a := &Action{kind: kind, name: name}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Button submits the screen form to a handler method.
func Button(name string, opts ...Opt) *Action { return newAction(KindButton, name, opts) }

// Link navigates to a URL.
func Link(name string, opts ...Opt) *Action { return newAction(KindLink, name, opts) }

// ModalToggle opens a modal layout by key.
func ModalToggle(name string, opts ...Opt) *Action { return newAction(KindModalToggle, name, opts) }

// DropDown groups items under one trigger.
func DropDown(name string, items []*Action, opts ...Opt) *Action {
	a := newAction(KindDropDown, name, opts)
	a.items = items
	return a
}

// Kind returns the variant.
func (a *Action) Kind() Kind { return a.kind }

// Name returns the label.
func (a *Action) Name() string { return a.name }

// HandlerMethod returns the screen method a button targets, if any.
func (a *Action) HandlerMethod() string { return a.method }

// Items returns the entries of a dropdown.
func (a *Action) Items() []*Action { return a.items }

// Permissions implements auth.Restricted.
func (a *Action) Permissions() []string { return a.permissions }

// Visible implements auth.Restricted.
func (a *Action) Visible(repo *repository.Repository) bool {
	return a.canSee == nil || a.canSee(repo)
}

// Context is what actions need to render.
type Context struct {
	Renderer render.Renderer
	Guard    auth.Guard
	// Action is the screen URL handler methods are appended to.
	Action string
}

func (c Context) guard() auth.Guard {
	if c.Guard == nil {
		return auth.Gate{}
	}
	return c.Guard
}

// Param is a value submitted with a button, sent in the query string.
type Param struct {
	Name  string
	Value string
}

// View is the data every action template receives.
type View struct {
	Kind       string
	Name       string
	Icon       string
	Title      string
	Class      string
	Confirm    string
	Href       string
	FormAction string
	Method     string
	Modal      string
	Params     []Param
	Items      []template.HTML
}

// Build renders the action, or nothing when it is not permitted.
func (a *Action) Build(ctx context.Context, c Context, repo *repository.Repository) (template.HTML, error) {
	if !c.guard().CheckPermission(ctx, a, repo) {
		return "", nil
	}
	v := View{
		Kind:    a.kind.String(),
		Name:    a.name,
		Icon:    a.icon,
		Title:   a.title,
		Class:   a.class,
		Confirm: a.confirm,
		Href:    a.href,
		Method:  a.method,
		Modal:   a.modal,
	}
	query := url.Values{}
	for _, k := range slices.Sorted(maps.Keys(a.params)) {
		v.Params = append(v.Params, Param{Name: k, Value: a.params[k]})
		query.Set(k, a.params[k])
	}
	if a.method != "" {
		v.FormAction = strings.TrimSuffix(c.Action, "/") + "/" + url.PathEscape(a.method)
		if len(query) > 0 {
			v.FormAction += "?" + query.Encode()
		}
	}
	if a.kind == KindDropDown {
		items, err := BuildAll(ctx, c, repo, a.items)
		if err != nil {
			return "", err
		}
		if len(items) == 0 {
			return "", nil
		}
		v.Items = items
	}
	out, err := c.Renderer.Render(a.kind.template(), v)
	if err != nil {
		return "", fmt.Errorf("action %q: %w", a.name, err)
	}
	return out, nil
}

// BuildAll renders actions in order, dropping the ones that render nothing.
func BuildAll(ctx context.Context, c Context, repo *repository.Repository, actions []*Action) ([]template.HTML, error) {
	var out []template.HTML
	for _, a := range actions {
		if a == nil {
			continue
		}
		html, err := a.Build(ctx, c, repo)
		if err != nil {
			return nil, err
		}
		if html != "" {
			out = append(out, html)
		}
	}
	return out, nil
}
