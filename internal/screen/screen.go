// Package screen turns HTTP requests into screen renders. A screen declares
// a query handler, a command bar, named handler methods and a layout tree;
// the Runtime checks access, picks the handler, binds its arguments and
// renders the result.
package screen

import (
	"errors"
	"html/template"
	"net/http"
	"net/url"

	"screenkit/internal/action"
	"screenkit/internal/layout"
)

// AsyncPrefix marks handler methods that re-render one layout subtree.
const AsyncPrefix = "async"

var (
	// ErrAccessDenied is returned when the principal holds none of the
	// screen's permissions.
	ErrAccessDenied = errors.New("access denied")
	// ErrSlugNotFound is returned when no layout node carries the slug an
	// async request targets.
	ErrSlugNotFound = errors.New("layout slug not found")
	// ErrMethodNotFound is returned for an unregistered handler method.
	ErrMethodNotFound = errors.New("handler method not found")
	// ErrScreenNotFound is returned for an unregistered screen.
	ErrScreenNotFound = errors.New("screen not found")
	// ErrBadArguments is returned when a request body cannot be decoded
	// into handler arguments.
	ErrBadArguments = errors.New("bad arguments")
	// ErrRouteBinding is returned when a raw request value does not name an
	// entity.
	ErrRouteBinding = errors.New("route binding failed")
)

// StatusCode maps an error returned by Runtime.Handle to an HTTP status.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, ErrSlugNotFound), errors.Is(err, ErrMethodNotFound),
		errors.Is(err, ErrScreenNotFound), errors.Is(err, ErrRouteBinding):
		return http.StatusNotFound
	case errors.Is(err, ErrBadArguments):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Meta describes a screen.
type Meta struct {
	Name        string
	Description string
	// Permission lists permissions of which the principal needs at least one.
	Permission []string
}

// Screen is one admin page.
type Screen interface {
	Meta() Meta
	// Query loads the data the page renders against.
	Query() Handler
	CommandBar() []*action.Action
	Layout() []layout.Node
	// Methods are the action and async handlers, keyed by the token that
	// ends the request path.
	Methods() Methods
}

// Base gives a screen empty defaults for everything but Meta and Layout.
type Base struct{}

// Query implements Screen with a handler that loads nothing.
func (Base) Query() Handler { return Handler{} }

// CommandBar implements Screen with no actions.
func (Base) CommandBar() []*action.Action { return nil }

// Methods implements Screen with no handlers.
func (Base) Methods() Methods { return nil }

// Request is the part of an HTTP request a screen sees.
type Request struct {
	// Method is the HTTP method.
	Method string
	// Params are the path segments after the screen slug.
	Params []string
	Body   []byte
	Query  url.Values
	Form   url.Values
	Locale string
}

// Mode is the kind of render a request produced.
type Mode int

const (
	ModePage Mode = iota
	ModeAsync
	ModeAction
)

func (m Mode) String() string {
	switch m {
	case ModePage:
		return "page"
	case ModeAsync:
		return "async"
	case ModeAction:
		return "action"
	default:
		return "unknown"
	}
}

// Response is the outcome of Runtime.Handle. Page and async renders carry
// HTML; actions carry whatever their handler returned in Value.
type Response struct {
	Mode   Mode
	HTML   template.HTML
	Value  any
	Status int
}

// Redirect is an action result that sends the browser elsewhere.
type Redirect struct {
	URL string
}

// PageView is the data of the page template.
type PageView struct {
	Title       string
	Description string
	CommandBar  []template.HTML
	Body        template.HTML
	Action      string
}
