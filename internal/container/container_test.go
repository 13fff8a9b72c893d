package container

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mailer struct{ from string }

func TestKindOf(t *testing.T) {
	assert.Equal(t, "*container.mailer", KindOf[*mailer]())
	assert.Equal(t, "string", KindOf[string]())
}

func TestContainer_RegisterAndMake(t *testing.T) {
	c := New()
	calls := 0
	Register(c, func(context.Context) (*mailer, error) {
		calls++
		return &mailer{from: "noreply"}, nil
	})

	m1, err := Make[*mailer](context.Background(), c)
	require.NoError(t, err)
	m2, err := Make[*mailer](context.Background(), c)
	require.NoError(t, err)

	assert.Equal(t, "noreply", m1.from)
	assert.NotSame(t, m1, m2, "providers build fresh values")
	assert.Equal(t, 2, calls)
	assert.Equal(t, []string{"*container.mailer"}, c.Kinds())
}

func TestContainer_Singleton(t *testing.T) {
	c := New()
	m := &mailer{from: "a"}
	Singleton(c, m)

	got, err := Make[*mailer](context.Background(), c)
	require.NoError(t, err)
	assert.Same(t, m, got)
}

func TestContainer_Unresolvable(t *testing.T) {
	c := New()

	_, err := c.Resolve(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnresolvable))
	assert.False(t, c.Has(context.Background(), "nope"))
}

func TestContainer_ProviderError(t *testing.T) {
	c := New()
	boom := errors.New("boom")
	c.Provide("x", func(context.Context) (any, error) { return nil, boom })

	_, err := c.Resolve(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
}

func TestContainer_MakeWrongType(t *testing.T) {
	c := New()
	c.Provide(KindOf[*mailer](), func(context.Context) (any, error) { return "not a mailer", nil })

	_, err := Make[*mailer](context.Background(), c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider returned string")
}

func TestWithInstance_ShadowsProvider(t *testing.T) {
	c := New()
	Singleton(c, &mailer{from: "global"})
	scopedMailer := &mailer{from: "request"}

	ctx := WithInstance(context.Background(), KindOf[*mailer](), scopedMailer)
	ctx = WithInstance(ctx, "other", 42)

	got, err := Make[*mailer](ctx, c)
	require.NoError(t, err)
	assert.Same(t, scopedMailer, got)

	v, err := c.Resolve(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.True(t, c.Has(ctx, "other"))

	global, err := Make[*mailer](context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, "global", global.from)
}
