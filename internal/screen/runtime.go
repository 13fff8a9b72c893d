package screen

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"screenkit/internal/action"
	"screenkit/internal/auth"
	"screenkit/internal/container"
	"screenkit/internal/layout"
	"screenkit/internal/render"
	"screenkit/internal/repository"
	"screenkit/internal/td"
)

// Factory builds a fresh screen for one request.
type Factory func() Screen

// Info describes a registered screen.
type Info struct {
	Slug        string
	Name        string
	Description string
	Permission  []string
	Methods     []string
}

// Runtime holds registered screens and dispatches requests to them.
type Runtime struct {
	renderer  render.Renderer
	container *container.Container
	guard     auth.Guard
	urls      td.URLBuilder
	tracer    trace.Tracer
	basePath  string
	locale    string

	mu      sync.RWMutex
	screens map[string]Factory
	order   []string
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithGuard replaces the default node guard (auth.Gate).
func WithGuard(g auth.Guard) Option { return func(rt *Runtime) { rt.guard = g } }

// WithURLBuilder sets how table links resolve named routes.
func WithURLBuilder(u td.URLBuilder) Option { return func(rt *Runtime) { rt.urls = u } }

// WithTracer sets the tracer spans are recorded with.
func WithTracer(t trace.Tracer) Option { return func(rt *Runtime) { rt.tracer = t } }

// WithBasePath sets the URL prefix screens are mounted under.
func WithBasePath(p string) Option {
	return func(rt *Runtime) { rt.basePath = "/" + strings.Trim(p, "/") }
}

// WithLocale sets the default locale for locale-aware columns.
func WithLocale(l string) Option { return func(rt *Runtime) { rt.locale = l } }

// NewRuntime creates a runtime rendering through r and resolving through c.
func NewRuntime(r render.Renderer, c *container.Container, opts ...Option) *Runtime {
	rt := &Runtime{
		renderer:  r,
		container: c,
		guard:     auth.Gate{},
		tracer:    otel.Tracer("screenkit/screen"),
		basePath:  "/admin",
		screens:   make(map[string]Factory),
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Register adds a screen under slug. The factory is called once to check
// the screen's handler registry.
func (rt *Runtime) Register(slug string, f Factory) error {
	if slug == "" || strings.ContainsAny(slug, "/ ") {
		return fmt.Errorf("register screen %q: invalid slug", slug)
	}
	if f == nil {
		return fmt.Errorf("register screen %q: nil factory", slug)
	}
	s := f()
	if s == nil {
		return fmt.Errorf("register screen %q: factory returned nil", slug)
	}
	if err := s.Methods().validate(); err != nil {
		return fmt.Errorf("register screen %q: %w", slug, err)
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()
	if _, exists := rt.screens[slug]; exists {
		return fmt.Errorf("register screen %q: already registered", slug)
	}
	rt.screens[slug] = f
	rt.order = append(rt.order, slug)
	return nil
}

// Screens describes the registered screens in registration order.
func (rt *Runtime) Screens() []Info {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	out := make([]Info, 0, len(rt.order))
	for _, slug := range rt.order {
		s := rt.screens[slug]()
		meta := s.Meta()
		out = append(out, Info{
			Slug:        slug,
			Name:        meta.Name,
			Description: meta.Description,
			Permission:  meta.Permission,
			Methods:     s.Methods().Names(),
		})
	}
	return out
}

// URL returns the path of a screen with optional trailing segments.
func (rt *Runtime) URL(slug string, params ...string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSuffix(rt.basePath, "/"))
	b.WriteString("/" + url.PathEscape(slug))
	for _, p := range params {
		b.WriteString("/" + url.PathEscape(p))
	}
	return b.String()
}

// URLs returns the builder table links resolve routes with. Without
// WithURLBuilder routes are screen slugs under the base path.
func (rt *Runtime) URLs() td.URLBuilder {
	if rt.urls != nil {
		return rt.urls
	}
	return slugURLs{rt}
}

type slugURLs struct{ rt *Runtime }

func (u slugURLs) URL(route string, params ...string) (string, error) {
	if strings.HasPrefix(route, "/") {
		return td.JoinPath(route, params...), nil
	}
	return u.rt.URL(route, params...), nil
}

// Handle runs one request against the screen registered under slug.
//
// A GET request, or one without path parameters, renders the full page. A
// request whose last parameter starts with AsyncPrefix re-renders the node
// named by the parameter before it. Anything else invokes the handler
// method named by the last parameter.
func (rt *Runtime) Handle(ctx context.Context, slug string, req *Request) (resp *Response, err error) {
	rt.mu.RLock()
	f, ok := rt.screens[slug]
	rt.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrScreenNotFound, slug)
	}
	if req == nil {
		req = &Request{Method: http.MethodGet}
	}

	s := f()
	meta := s.Meta()
	ctx, span := rt.tracer.Start(ctx, "screen.handle", trace.WithAttributes(
		attribute.String("screen.slug", slug),
		attribute.String("screen.name", meta.Name),
		attribute.String("http.method", req.Method),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if !auth.Permitted(ctx, meta.Permission) {
		return nil, fmt.Errorf("screen %s: %w", slug, ErrAccessDenied)
	}
	ctx = container.WithInstance(ctx, container.KindOf[*Request](), req)

	params := req.Params
	if req.Method == http.MethodGet || len(params) == 0 {
		span.SetAttributes(attribute.String("screen.mode", ModePage.String()))
		return rt.page(ctx, slug, s, req)
	}

	method := params[len(params)-1]
	rest := params[:len(params)-1]
	span.SetAttributes(attribute.String("screen.method", method))
	if strings.HasPrefix(method, AsyncPrefix) {
		span.SetAttributes(attribute.String("screen.mode", ModeAsync.String()))
		var target string
		if len(rest) > 0 {
			target = rest[len(rest)-1]
			rest = rest[:len(rest)-1]
		}
		return rt.async(ctx, slug, s, req, rest, method, target)
	}
	span.SetAttributes(attribute.String("screen.mode", ModeAction.String()))
	return rt.action(ctx, s, method, rest)
}

func (rt *Runtime) env(slug string, req *Request, params []string) layout.Env {
	locale := req.Locale
	if locale == "" {
		locale = rt.locale
	}
	return layout.Env{
		Renderer:  rt.renderer,
		Guard:     rt.guard,
		Container: rt.container,
		Query:     req.Query,
		URLs:      rt.URLs(),
		Locale:    locale,
		Action:    rt.URL(slug, params...),
	}
}

func (rt *Runtime) page(ctx context.Context, slug string, s Screen, req *Request) (*Response, error) {
	data, err := call(ctx, rt.container, s.Query(), stringsToArgs(req.Params))
	if err != nil {
		return nil, fmt.Errorf("screen %s query: %w", slug, err)
	}
	repo := repository.New(data)
	env := rt.env(slug, req, req.Params)

	commandBar, err := action.BuildAll(ctx, env.Actions(), repo, s.CommandBar())
	if err != nil {
		return nil, fmt.Errorf("screen %s command bar: %w", slug, err)
	}
	body, err := layout.BuildAll(ctx, env, repo, s.Layout()...)
	if err != nil {
		return nil, fmt.Errorf("screen %s layout: %w", slug, err)
	}
	meta := s.Meta()
	html, err := rt.renderer.Render("layouts/base", PageView{
		Title:       meta.Name,
		Description: meta.Description,
		CommandBar:  commandBar,
		Body:        body.HTML(),
		Action:      env.Action,
	})
	if err != nil {
		return nil, fmt.Errorf("screen %s: %w", slug, err)
	}
	return &Response{Mode: ModePage, HTML: html, Status: http.StatusOK}, nil
}

func (rt *Runtime) async(ctx context.Context, slug string, s Screen, req *Request, params []string, method, target string) (*Response, error) {
	ctx, span := rt.tracer.Start(ctx, "screen.async", trace.WithAttributes(
		attribute.String("screen.method", method),
		attribute.String("layout.slug", target),
	))
	defer span.End()

	h, ok := s.Methods().Lookup(method)
	if !ok {
		return nil, fmt.Errorf("screen %s: %w: %s", slug, ErrMethodNotFound, method)
	}
	node := layout.Find(s.Layout(), target)
	if node == nil {
		return nil, fmt.Errorf("async method %s: %w: %q", method, ErrSlugNotFound, target)
	}
	supplied, err := bodyArguments(req.Body)
	if err != nil {
		return nil, err
	}
	data, err := call(ctx, rt.container, h, supplied)
	if err != nil {
		return nil, fmt.Errorf("async method %s: %w", method, err)
	}
	out, err := layout.BuildAsync(ctx, rt.env(slug, req, params), node, repository.New(data))
	if err != nil {
		return nil, fmt.Errorf("async method %s: %w", method, err)
	}
	return &Response{Mode: ModeAsync, HTML: out.HTML(), Status: http.StatusOK}, nil
}

func (rt *Runtime) action(ctx context.Context, s Screen, method string, params []string) (*Response, error) {
	h, ok := s.Methods().Lookup(method)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMethodNotFound, method)
	}
	result, err := call(ctx, rt.container, h, stringsToArgs(params))
	if err != nil {
		return nil, fmt.Errorf("method %s: %w", method, err)
	}
	resp := &Response{Mode: ModeAction, Value: result, Status: http.StatusOK}
	if html, ok := result.(template.HTML); ok {
		resp.HTML = html
	}
	return resp, nil
}
