package td

import (
	"errors"
	"html/template"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"screenkit/internal/render"
	"screenkit/internal/repository"
)

func testContext(t *testing.T) Context {
	t.Helper()
	e, err := render.NewEngine("")
	require.NoError(t, err)
	return Context{Renderer: e}
}

type urls map[string]string

func (u urls) URL(route string, params ...string) (string, error) {
	base, ok := u[route]
	if !ok {
		return "", errors.New("unknown route " + route)
	}
	return base + "/" + strings.Join(params, "/"), nil
}

func TestSet_Title(t *testing.T) {
	assert.Equal(t, "First Name", Set("first_name").Title())
	assert.Equal(t, "Email", Set("email").Title())
	assert.Equal(t, "E-mail address", Set("email", "E-mail address").Title())
	assert.Equal(t, "", Set("preview", "").Title())
}

func TestSet_Defaults(t *testing.T) {
	c := Set("email")
	assert.Equal(t, "email", c.Name())
	assert.Equal(t, "email", c.ColumnName())
	assert.Equal(t, AlignLeft, c.Alignment())
	assert.False(t, c.Sortable())
	assert.Equal(t, FilterNone, c.FilterKind())
	assert.False(t, c.HasRender())

	c.Sort().Filter(FilterText).Align(AlignRight).Column("users.email")
	assert.True(t, c.Sortable())
	assert.Equal(t, FilterText, c.FilterKind())
	assert.Equal(t, AlignRight, c.Alignment())
	assert.Equal(t, "users.email", c.ColumnName())

	assert.False(t, c.Sort(false).Sortable())
}

func TestBuildTh(t *testing.T) {
	ctx := testContext(t)

	t.Run("sort link toggles direction", func(t *testing.T) {
		ctx := ctx
		ctx.Query = url.Values{"sort": {"email"}, "page": {"2"}}
		html, err := Set("email").Sort().BuildTh(ctx)
		require.NoError(t, err)
		assert.Contains(t, string(html), "sort=-email")
		assert.Contains(t, string(html), "page=2")
		assert.Contains(t, string(html), "active")
	})

	t.Run("inline filter keeps current value", func(t *testing.T) {
		ctx := ctx
		ctx.Query = url.Values{"filter[email]": {"ada"}}
		html, err := Set("email").Filter(FilterText).BuildTh(ctx)
		require.NoError(t, err)
		assert.Contains(t, string(html), `name="filter[email]"`)
		assert.Contains(t, string(html), `value="ada"`)
	})

	t.Run("plain title", func(t *testing.T) {
		html, err := Set("first_name").Width("120px").BuildTh(ctx)
		require.NoError(t, err)
		assert.Contains(t, string(html), "First Name")
		assert.Contains(t, string(html), "width: 120px")
		assert.NotContains(t, string(html), "<a ")
	})
}

func TestBuildTd(t *testing.T) {
	ctx := testContext(t)
	row := repository.New(map[string]any{"id": 7, "email": "ada@example.com", "name": "Tom & Jerry"})

	t.Run("default reads the row", func(t *testing.T) {
		html, err := Set("email").BuildTd(ctx, row)
		require.NoError(t, err)
		assert.Equal(t, `<td class="text-left">ada@example.com</td>`, string(html))
	})

	t.Run("plain values are escaped", func(t *testing.T) {
		html, err := Set("name").BuildTd(ctx, row)
		require.NoError(t, err)
		assert.Contains(t, string(html), "Tom &amp; Jerry")
	})

	t.Run("render overrides the row value", func(t *testing.T) {
		html, err := Set("email").Render(func(r *repository.Repository) any {
			return template.HTML("<b>" + r.String("email") + "</b>")
		}).BuildTd(ctx, row)
		require.NoError(t, err)
		assert.Contains(t, string(html), "<b>ada@example.com</b>")
	})

	t.Run("locale column", func(t *testing.T) {
		row := repository.New(map[string]any{"title": map[string]any{"en": "Hello", "nl": "Hallo"}})
		ctx := ctx
		ctx.Locale = "nl"
		html, err := Set("title").Locale().BuildTd(ctx, row)
		require.NoError(t, err)
		assert.Contains(t, string(html), "Hallo")
	})
}

func TestLink(t *testing.T) {
	ctx := testContext(t)
	row := repository.New(map[string]any{"id": 7, "email": "ada@example.com"})

	t.Run("without url builder", func(t *testing.T) {
		html, err := Set("email").Link("/users", []string{"id"}, "email").BuildTd(ctx, row)
		require.NoError(t, err)
		assert.Contains(t, string(html), `<a href="/users/7">ada@example.com</a>`)
	})

	t.Run("relative route is rooted", func(t *testing.T) {
		html, err := Set("email").Link("user-edit", []string{"id"}, "email").BuildTd(ctx, row)
		require.NoError(t, err)
		assert.Contains(t, string(html), `href="/user-edit/7"`)
	})

	t.Run("named route", func(t *testing.T) {
		ctx := ctx
		ctx.URLs = urls{"user-edit": "/admin/user-edit"}
		html, err := Set("email").Link("user-edit", []string{"id"}, "email").BuildTd(ctx, row)
		require.NoError(t, err)
		assert.Contains(t, string(html), `href="/admin/user-edit/7"`)
	})

	t.Run("missing text falls back to dash", func(t *testing.T) {
		html, err := Set("email").Link("/users", []string{"id"}, "nickname").BuildTd(ctx, row)
		require.NoError(t, err)
		assert.Contains(t, string(html), ">—</a>")
	})

	t.Run("unknown route", func(t *testing.T) {
		ctx := ctx
		ctx.URLs = urls{}
		_, err := Set("email").Link("nope", []string{"id"}, "email").BuildTd(ctx, row)
		assert.ErrorContains(t, err, "column email")
	})
}

func TestJoinPath(t *testing.T) {
	tests := []struct {
		route  string
		params []string
		want   string
	}{
		{"/users/", []string{"7"}, "/users/7"},
		{"post-edit", []string{"a b"}, "/post-edit/a%20b"},
		{"", []string{"7"}, "/7"},
		{"", nil, "/"},
	}
	for _, tt := range tests {
		if got := JoinPath(tt.route, tt.params...); got != tt.want {
			t.Errorf("JoinPath(%q, %q) = %q, want %q", tt.route, tt.params, got, tt.want)
		}
	}
}

func TestFilters(t *testing.T) {
	kinds := Filters(
		Set("title").Filter(FilterText),
		Set("status_label").Column("status").Filter(FilterText),
		Set("views").Filter(FilterNumeric),
		Set("preview"),
	)
	assert.Equal(t, map[string]FilterKind{"title": FilterText, "status": FilterText, "views": FilterNumeric}, kinds)
	assert.Equal(t, "filter[status]", FilterParam("status"))
}

func TestLoadModalAsync(t *testing.T) {
	ctx := testContext(t)
	row := repository.New(map[string]any{"id": "7"})

	html, err := Set("preview", "Preview").AsyncRoute("/admin/posts").
		LoadModalAsync("preview", "asyncPreview", []string{"id"}, "Open").BuildTd(ctx, row)
	require.NoError(t, err)

	out := string(html)
	assert.Contains(t, out, `data-modal-toggle="preview"`)
	assert.Contains(t, out, `data-modal-method="asyncPreview"`)
	assert.Contains(t, out, `data-modal-params="[&#34;7&#34;]"`)
	assert.Contains(t, out, `data-async-route="/admin/posts"`)
	assert.Contains(t, out, ">Open</a>")
}

func TestVisible(t *testing.T) {
	repo := repository.New(map[string]any{"admin": false})
	c := Set("secret").CanSee(func(r *repository.Repository) bool {
		v, _ := r.Get("admin").(bool)
		return v
	}).Permission("users.view")

	assert.False(t, c.Visible(repo))
	assert.True(t, Set("email").Visible(repo))
	assert.Equal(t, []string{"users.view"}, c.Permissions())
}
