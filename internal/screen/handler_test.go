package screen

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"screenkit/internal/container"
)

type foo struct{ name string }

type article struct {
	ID string
}

var errNoArticle = errors.New("no such article")

func (*article) ResolveRouteBinding(_ context.Context, raw any) (any, error) {
	id := fmt.Sprint(raw)
	if id == "missing" {
		return nil, errNoArticle
	}
	return &article{ID: id}, nil
}

func bindingContainer() *container.Container {
	c := container.New()
	container.Register(c, func(context.Context) (*foo, error) { return &foo{name: "from container"}, nil })
	container.Register(c, func(context.Context) (*article, error) { return &article{}, nil })
	return c
}

func TestBind_TypedFromContainerKeepsPositional(t *testing.T) {
	h := Handle(nil, Bind[*foo]("a"), Arg("b"))

	args, err := bind(context.Background(), bindingContainer(), h, positional([]any{"bValue"}))
	require.NoError(t, err)

	a, ok := As[*foo](args, "a")
	require.True(t, ok)
	assert.Equal(t, "from container", a.name)
	assert.Equal(t, "bValue", args.Get("b"))
}

func TestBind_SuppliedInstanceWins(t *testing.T) {
	h := Handle(nil, Bind[*foo]("a"), Arg("b"))
	given := &foo{name: "given"}

	args, err := bind(context.Background(), bindingContainer(), h, positional([]any{"bValue", given}))
	require.NoError(t, err)

	assert.Same(t, given, args.Get("a"))
	assert.Equal(t, "bValue", args.Get("b"))
}

func TestBind_RouteBinding(t *testing.T) {
	h := Handle(nil, Bind[*article]("post"), Arg("b"))

	t.Run("raw value resolves the entity", func(t *testing.T) {
		args, err := bind(context.Background(), bindingContainer(), h, positional([]any{"7", "bValue"}))
		require.NoError(t, err)

		post, ok := As[*article](args, "post")
		require.True(t, ok)
		assert.Equal(t, "7", post.ID)
		assert.Equal(t, "bValue", args.Get("b"))
	})

	t.Run("no raw value keeps the fresh instance", func(t *testing.T) {
		args, err := bind(context.Background(), bindingContainer(), h, positional(nil))
		require.NoError(t, err)

		post, ok := As[*article](args, "post")
		require.True(t, ok)
		assert.Empty(t, post.ID)
		assert.Nil(t, args.Get("b"))
	})

	t.Run("nil slot is not route bound", func(t *testing.T) {
		args, err := bind(context.Background(), bindingContainer(), h, positional([]any{nil, "bValue"}))
		require.NoError(t, err)

		post, _ := As[*article](args, "post")
		assert.Empty(t, post.ID)
		assert.Equal(t, "bValue", args.Get("b"))
	})

	t.Run("unknown entity", func(t *testing.T) {
		_, err := bind(context.Background(), bindingContainer(), h, positional([]any{"missing"}))
		assert.ErrorIs(t, err, ErrRouteBinding)
		assert.ErrorIs(t, err, errNoArticle)
		assert.Equal(t, http.StatusNotFound, StatusCode(err))
	})
}

func TestBind_ByName(t *testing.T) {
	h := Handle(nil, Arg("b"), Bind[*article]("post"))

	args, err := bind(context.Background(), bindingContainer(), h, byName(map[string]any{"post": "9", "b": "x"}))
	require.NoError(t, err)

	post, _ := As[*article](args, "post")
	assert.Equal(t, "9", post.ID)
	assert.Equal(t, "x", args.Get("b"))
}

func TestBind_Unresolvable(t *testing.T) {
	h := Handle(nil, Bind[*foo]("a"))

	_, err := bind(context.Background(), container.New(), h, nil)
	assert.ErrorIs(t, err, container.ErrUnresolvable)

	_, err = bind(context.Background(), nil, h, nil)
	assert.ErrorIs(t, err, container.ErrUnresolvable)
}

func TestBind_ScopedInstance(t *testing.T) {
	req := &Request{Method: http.MethodPost}
	ctx := container.WithInstance(context.Background(), container.KindOf[*Request](), req)
	h := Handle(nil, Bind[*Request]("request"))

	args, err := bind(ctx, container.New(), h, nil)
	require.NoError(t, err)
	assert.Same(t, req, args.Get("request"))
}

func TestBodyArguments(t *testing.T) {
	h := Handle(nil, Arg("a"), Arg("b"))

	in, err := bodyArguments([]byte(`[1, "two"]`))
	require.NoError(t, err)
	args, err := bind(context.Background(), nil, h, in)
	require.NoError(t, err)
	assert.Equal(t, []any{float64(1), "two"}, args.Values())

	in, err = bodyArguments([]byte(`{"b": "named"}`))
	require.NoError(t, err)
	args, err = bind(context.Background(), nil, h, in)
	require.NoError(t, err)
	assert.Equal(t, []any{nil, "named"}, args.Values())

	in, err = bodyArguments(nil)
	require.NoError(t, err)
	args, err = bind(context.Background(), nil, h, in)
	require.NoError(t, err)
	assert.Equal(t, []any{nil, nil}, args.Values())

	_, err = bodyArguments([]byte(`42`))
	assert.ErrorIs(t, err, ErrBadArguments)
}

func TestArgs(t *testing.T) {
	args := Args{params: []Param{Arg("a"), Arg("b")}, values: []any{1, "x"}}

	assert.Equal(t, 2, args.Len())
	assert.Equal(t, 1, args.At(0))
	assert.Nil(t, args.At(5))
	assert.Equal(t, "x", args.Get("b"))
	assert.Nil(t, args.Get("missing"))
	assert.Equal(t, "1", args.String("a"))

	s, ok := As[string](args, "b")
	assert.True(t, ok)
	assert.Equal(t, "x", s)
	_, ok = As[string](args, "a")
	assert.False(t, ok)
}

func TestMethods(t *testing.T) {
	noop := Handle(func(context.Context, Args) (any, error) { return nil, nil })
	m := Methods{"save": noop, "asyncUsers": noop, "broken": {}}

	assert.Equal(t, []string{"asyncUsers", "broken", "save"}, m.Names())

	_, ok := m.Lookup("save")
	assert.True(t, ok)
	_, ok = m.Lookup("broken")
	assert.False(t, ok)
	_, ok = m.Lookup("nope")
	assert.False(t, ok)

	assert.ErrorContains(t, m.validate(), "broken")
	assert.ErrorContains(t, Methods{"a b": noop}.validate(), "invalid method token")
	assert.NoError(t, Methods{"save": noop}.validate())
}

func TestCall_ZeroHandler(t *testing.T) {
	out, err := call(context.Background(), nil, Handler{}, nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}
