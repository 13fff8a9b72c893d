package screen

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"screenkit/internal/auth"
	"screenkit/internal/container"
	"screenkit/internal/field"
	"screenkit/internal/layout"
	"screenkit/internal/render"
)

type usersScreen struct {
	Base
}

func (usersScreen) Meta() Meta {
	return Meta{Name: "Users", Permission: []string{"edit-posts", "view-posts"}}
}

func (usersScreen) Query() Handler {
	return Handle(func(context.Context, Args) (any, error) {
		return map[string]any{"name": "page-name", "email": "page@example.com"}, nil
	})
}

func (usersScreen) Layout() []layout.Node {
	return []layout.Node{
		layout.Columns(
			layout.Rows(field.Input("email", field.Title("Email"))),
			layout.Rows(field.Input("name", field.Title("Name"))).WithSlug("users"),
		),
	}
}

func (usersScreen) Methods() Methods {
	return Methods{
		"asyncUsers": Handle(func(_ context.Context, args Args) (any, error) {
			return map[string]any{"name": args.String("name")}, nil
		}, Arg("name")),
		"asyncMissing": Handle(func(context.Context, Args) (any, error) {
			return nil, nil
		}),
		"rename": Handle(func(_ context.Context, args Args) (any, error) {
			return Redirect{URL: "/users/" + args.String("id")}, nil
		}, Arg("id")),
	}
}

func newTestRuntime(t *testing.T, opts ...Option) *Runtime {
	t.Helper()
	engine, err := render.NewEngine("")
	require.NoError(t, err)
	rt := NewRuntime(engine, container.New(), opts...)
	require.NoError(t, rt.Register("users", func() Screen { return usersScreen{} }))
	return rt
}

func asEditor(perms ...string) context.Context {
	return auth.WithPrincipal(context.Background(), &auth.User{Email: "ed@example.com", Permissions: perms})
}

func TestRuntime_Register(t *testing.T) {
	rt := newTestRuntime(t)

	assert.ErrorContains(t, rt.Register("", func() Screen { return usersScreen{} }), "invalid slug")
	assert.ErrorContains(t, rt.Register("a/b", func() Screen { return usersScreen{} }), "invalid slug")
	assert.ErrorContains(t, rt.Register("users", func() Screen { return usersScreen{} }), "already registered")
	assert.ErrorContains(t, rt.Register("nil", nil), "nil factory")
	assert.ErrorContains(t, rt.Register("nothing", func() Screen { return nil }), "factory returned nil")

	infos := rt.Screens()
	require.Len(t, infos, 1)
	assert.Equal(t, "users", infos[0].Slug)
	assert.Equal(t, "Users", infos[0].Name)
	assert.Equal(t, []string{"edit-posts", "view-posts"}, infos[0].Permission)
	assert.Equal(t, []string{"asyncMissing", "asyncUsers", "rename"}, infos[0].Methods)
}

func TestRuntime_URL(t *testing.T) {
	assert.Equal(t, "/admin/users/7", newTestRuntime(t).URL("users", "7"))
	assert.Equal(t, "/panel/users", newTestRuntime(t, WithBasePath("panel/")).URL("users"))
	assert.Equal(t, "/users/a%20b", newTestRuntime(t, WithBasePath("")).URL("users", "a b"))
}

func TestRuntime_URLs(t *testing.T) {
	href, err := newTestRuntime(t).URLs().URL("users", "7")
	require.NoError(t, err)
	assert.Equal(t, "/admin/users/7", href)

	href, err = newTestRuntime(t).URLs().URL("/elsewhere/", "a b")
	require.NoError(t, err)
	assert.Equal(t, "/elsewhere/a%20b", href)

	custom := newTestRuntime(t, WithURLBuilder(fixedURL("/x")))
	href, err = custom.URLs().URL("users", "7")
	require.NoError(t, err)
	assert.Equal(t, "/x", href)
}

type fixedURL string

func (u fixedURL) URL(string, ...string) (string, error) { return string(u), nil }

func TestRuntime_Page(t *testing.T) {
	rt := newTestRuntime(t)

	resp, err := rt.Handle(asEditor("view-posts"), "users", &Request{Method: http.MethodGet})
	require.NoError(t, err)

	assert.Equal(t, ModePage, resp.Mode)
	assert.Equal(t, http.StatusOK, resp.Status)
	html := string(resp.HTML)
	assert.Contains(t, html, "Users")
	assert.Contains(t, html, "page@example.com")
	assert.Contains(t, html, "page-name")
}

func TestRuntime_AccessIsAnyOf(t *testing.T) {
	rt := newTestRuntime(t)

	tests := []struct {
		name    string
		ctx     context.Context
		wantErr bool
	}{
		{name: "first permission", ctx: asEditor("edit-posts")},
		{name: "second permission", ctx: asEditor("view-posts")},
		{name: "wildcard", ctx: asEditor("*")},
		{name: "unrelated permission", ctx: asEditor("billing"), wantErr: true},
		{name: "anonymous", ctx: context.Background(), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := rt.Handle(tt.ctx, "users", nil)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrAccessDenied)
				assert.Equal(t, http.StatusForbidden, StatusCode(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestRuntime_Async(t *testing.T) {
	rt := newTestRuntime(t)
	ctx := asEditor("edit-posts")

	t.Run("renders only the targeted subtree", func(t *testing.T) {
		resp, err := rt.Handle(ctx, "users", &Request{
			Method: http.MethodPost,
			Params: []string{"users", "asyncUsers"},
			Body:   []byte(`["Ada"]`),
		})
		require.NoError(t, err)

		assert.Equal(t, ModeAsync, resp.Mode)
		html := string(resp.HTML)
		assert.Contains(t, html, "Ada")
		assert.Contains(t, html, `name="name"`)
		assert.NotContains(t, html, `name="email"`)
		assert.NotContains(t, html, "page-name")
	})

	t.Run("unmatched slug", func(t *testing.T) {
		_, err := rt.Handle(ctx, "users", &Request{
			Method: http.MethodPost,
			Params: []string{"missing", "asyncMissing"},
		})
		assert.ErrorIs(t, err, ErrSlugNotFound)
		assert.Equal(t, http.StatusNotFound, StatusCode(err))
	})

	t.Run("no slug", func(t *testing.T) {
		_, err := rt.Handle(ctx, "users", &Request{
			Method: http.MethodPost,
			Params: []string{"asyncUsers"},
		})
		assert.ErrorIs(t, err, ErrSlugNotFound)
	})

	t.Run("unknown method", func(t *testing.T) {
		_, err := rt.Handle(ctx, "users", &Request{
			Method: http.MethodPost,
			Params: []string{"users", "asyncNope"},
		})
		assert.ErrorIs(t, err, ErrMethodNotFound)
		assert.Equal(t, http.StatusNotFound, StatusCode(err))
	})

	t.Run("malformed body", func(t *testing.T) {
		_, err := rt.Handle(ctx, "users", &Request{
			Method: http.MethodPost,
			Params: []string{"users", "asyncUsers"},
			Body:   []byte(`true`),
		})
		assert.ErrorIs(t, err, ErrBadArguments)
		assert.Equal(t, http.StatusBadRequest, StatusCode(err))
	})
}

func TestRuntime_Action(t *testing.T) {
	rt := newTestRuntime(t)
	ctx := asEditor("edit-posts")

	resp, err := rt.Handle(ctx, "users", &Request{Method: http.MethodPost, Params: []string{"7", "rename"}})
	require.NoError(t, err)
	assert.Equal(t, ModeAction, resp.Mode)
	assert.Equal(t, Redirect{URL: "/users/7"}, resp.Value)

	_, err = rt.Handle(ctx, "users", &Request{Method: http.MethodPost, Params: []string{"delete"}})
	assert.ErrorIs(t, err, ErrMethodNotFound)

	_, err = rt.Handle(ctx, "nobody", nil)
	assert.ErrorIs(t, err, ErrScreenNotFound)
	assert.Equal(t, http.StatusNotFound, StatusCode(err))
}

func TestRuntime_Spans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	rt := newTestRuntime(t, WithTracer(tp.Tracer("test")))
	ctx := asEditor("edit-posts")

	_, err := rt.Handle(ctx, "users", &Request{
		Method: http.MethodPost,
		Params: []string{"users", "asyncUsers"},
		Body:   []byte(`{"name":"Ada"}`),
	})
	require.NoError(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 2)
	async, handle := spans[0], spans[1]

	assert.Equal(t, "screen.async", async.Name())
	assert.Equal(t, handle.SpanContext().SpanID(), async.Parent().SpanID())
	assert.Contains(t, async.Attributes(), attribute.String("layout.slug", "users"))

	assert.Equal(t, "screen.handle", handle.Name())
	assert.Contains(t, handle.Attributes(), attribute.String("screen.slug", "users"))
	assert.Contains(t, handle.Attributes(), attribute.String("screen.mode", "async"))
	assert.Contains(t, handle.Attributes(), attribute.String("screen.method", "asyncUsers"))

	_, err = rt.Handle(context.Background(), "users", nil)
	require.Error(t, err)
	denied := sr.Ended()[2]
	assert.Equal(t, codes.Error, denied.Status().Code)
	assert.NotEmpty(t, denied.Events())
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{fmt.Errorf("bind: %w", ErrRouteBinding), http.StatusNotFound},
		{fmt.Errorf("screen: %w", ErrAccessDenied), http.StatusForbidden},
		{ErrBadArguments, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := StatusCode(tt.err); got != tt.want {
			t.Errorf("StatusCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestMode_String(t *testing.T) {
	tests := map[Mode]string{
		ModePage:   "page",
		ModeAction: "action",
		Mode(9):    "unknown",
	}
	for mode, want := range tests {
		if got := mode.String(); got != want {
			t.Errorf("Mode(%d).String() = %q, want %q", int(mode), got, want)
		}
	}
}
