package action

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"screenkit/internal/auth"
	"screenkit/internal/render"
	"screenkit/internal/repository"
)

func testContext(t *testing.T) Context {
	t.Helper()
	e, err := render.NewEngine("")
	require.NoError(t, err)
	return Context{Renderer: e, Action: "/admin/posts/7"}
}

func asEditor(ctx context.Context) context.Context {
	return auth.WithPrincipal(ctx, &auth.User{Permissions: []string{"posts.edit"}})
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "button", KindButton.String())
	assert.Equal(t, "link", KindLink.String())
	assert.Equal(t, "modal-toggle", KindModalToggle.String())
	assert.Equal(t, "dropdown", KindDropDown.String())
	assert.Equal(t, "Kind(9)", Kind(9).String())
}

func TestButton_Build(t *testing.T) {
	c := testContext(t)
	repo := repository.New(nil)

	html, err := Button("Save", Method("save"), Icon("check"), Confirm("Sure?"),
		Parameters(map[string]string{"b": "2", "a": "1"})).Build(context.Background(), c, repo)
	require.NoError(t, err)

	out := string(html)
	assert.Contains(t, out, `type="submit"`)
	assert.Contains(t, out, `formaction="/admin/posts/7/save?a=1&amp;b=2"`)
	assert.Contains(t, out, `data-confirm="Sure?"`)
	assert.Contains(t, out, "icon-check")
	assert.Contains(t, out, "Save")
}

func TestButton_WithoutMethod(t *testing.T) {
	html, err := Button("Noop").Build(context.Background(), testContext(t), repository.New(nil))
	require.NoError(t, err)
	assert.Contains(t, string(html), `type="button"`)
	assert.NotContains(t, string(html), "formaction")
}

func TestLinkAndModalToggle(t *testing.T) {
	c := testContext(t)
	repo := repository.New(nil)

	html, err := Link("New", Href("/admin/post-edit")).Build(context.Background(), c, repo)
	require.NoError(t, err)
	assert.Contains(t, string(html), `href="/admin/post-edit"`)

	html, err = ModalToggle("Stats", Modal("stats")).Build(context.Background(), c, repo)
	require.NoError(t, err)
	assert.Contains(t, string(html), `data-modal-toggle="stats"`)
}

func TestBuild_Permissions(t *testing.T) {
	c := testContext(t)
	repo := repository.New(map[string]any{"exists": false})
	restricted := Button("Delete", Method("remove"), Permission("posts.delete", "posts.edit"))

	html, err := restricted.Build(context.Background(), c, repo)
	require.NoError(t, err)
	assert.Empty(t, html)

	html, err = restricted.Build(asEditor(context.Background()), c, repo)
	require.NoError(t, err)
	assert.NotEmpty(t, html)

	hidden := Button("Publish", CanSee(func(r *repository.Repository) bool {
		v, _ := r.Get("exists").(bool)
		return v
	}))
	html, err = hidden.Build(context.Background(), c, repo)
	require.NoError(t, err)
	assert.Empty(t, html)
}

func TestDropDown(t *testing.T) {
	c := testContext(t)
	repo := repository.New(nil)

	dd := DropDown("More", []*Action{
		Button("Export", Method("export")),
		Button("Purge", Method("purge"), Permission("posts.purge")),
	})
	html, err := dd.Build(context.Background(), c, repo)
	require.NoError(t, err)
	assert.Contains(t, string(html), "Export")
	assert.NotContains(t, string(html), "Purge")

	empty := DropDown("Admin", []*Action{Button("Purge", Permission("posts.purge"))})
	html, err = empty.Build(context.Background(), c, repo)
	require.NoError(t, err)
	assert.Empty(t, html)
}

func TestBuildAll(t *testing.T) {
	c := testContext(t)
	out, err := BuildAll(context.Background(), c, repository.New(nil), []*Action{
		Button("Save", Method("save")),
		nil,
		Button("Delete", Permission("posts.delete")),
		Link("Home", Href("/")),
	})
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestGuardOverride(t *testing.T) {
	c := testContext(t)
	c.Guard = auth.GuardFunc(func(context.Context, auth.Restricted, *repository.Repository) bool { return false })

	html, err := Link("Home", Href("/")).Build(context.Background(), c, repository.New(nil))
	require.NoError(t, err)
	assert.Empty(t, html)
}

func TestAccessors(t *testing.T) {
	items := []*Action{Button("x")}
	a := DropDown("More", items, Method("m"), Permission("p"))
	assert.Equal(t, KindDropDown, a.Kind())
	assert.Equal(t, "More", a.Name())
	assert.Equal(t, "m", a.HandlerMethod())
	assert.Equal(t, items, a.Items())
	assert.Equal(t, []string{"p"}, a.Permissions())
	assert.True(t, a.Visible(repository.New(nil)))
}
