package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"screenkit/internal/screen"
)

func TestRenderRoutes(t *testing.T) {
	out := RenderRoutes([]Route{
		{
			Info: screen.Info{
				Slug:        "posts",
				Name:        "Posts",
				Description: "All articles",
				Permission:  []string{"posts.view", "posts.edit"},
				Methods:     []string{"asyncPreview", "export"},
			},
			URL: "/admin/posts",
		},
		{Info: screen.Info{Slug: "dashboard"}, URL: "/admin/dashboard"},
	})

	assert.Contains(t, out, "Screen")
	assert.Contains(t, out, "/admin/posts")
	assert.Contains(t, out, "posts.view | posts.edit")
	assert.Contains(t, out, "asyncPreview, export")
	assert.Contains(t, out, "dashboard")
}

func TestRenderRoutes_TruncatesDescription(t *testing.T) {
	long := strings.Repeat("x", DescriptionWidth+10)
	out := RenderRoutes([]Route{{Info: screen.Info{Slug: "s", Description: long}}})

	assert.Contains(t, out, "…")
	assert.NotContains(t, out, long)
}

func TestRenderRoutes_Empty(t *testing.T) {
	assert.Contains(t, RenderRoutes(nil), "no screens registered")
}
