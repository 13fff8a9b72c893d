// Package admin is the demo back office: post screens, their filters and
// the container bindings they resolve through.
package admin

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"screenkit/internal/container"
	"screenkit/internal/layout"
	"screenkit/internal/screen"
	"screenkit/internal/store"
)

// Templates holds the admin-specific views, parsed on top of the built-in
// templates.
//
//go:embed templates/*.html
var Templates embed.FS

type urlFunc func(slug string, params ...string) string

// Register binds the store to c and adds the admin screens to rt.
func Register(c *container.Container, rt *screen.Runtime, db *sql.DB) error {
	posts := store.NewPostRepo(db)
	users := store.NewUserRepo(db)

	container.Singleton(c, posts)
	container.Singleton(c, users)
	container.Register(c, func(context.Context) (*store.Post, error) {
		return posts.New(), nil
	})
	container.Register(c, func(context.Context) (*StatusFilter, error) {
		return &StatusFilter{}, nil
	})
	container.Register(c, func(context.Context) (*SearchFilter, error) {
		return &SearchFilter{}, nil
	})
	container.Register(c, func(ctx context.Context) (*AuthorFilter, error) {
		list, err := users.List(ctx)
		if err != nil {
			return nil, err
		}
		return &AuthorFilter{users: list}, nil
	})

	screens := []struct {
		slug    string
		factory screen.Factory
	}{
		{"dashboard", func() screen.Screen { return &DashboardScreen{posts: posts} }},
		{"posts", func() screen.Screen { return &PostListScreen{posts: posts, urls: rt.URL} }},
		{"post-edit", func() screen.Screen { return &PostEditScreen{posts: posts, urls: rt.URL} }},
	}
	for _, s := range screens {
		if err := rt.Register(s.slug, s.factory); err != nil {
			return fmt.Errorf("admin: %w", err)
		}
	}
	return nil
}

// DashboardScreen is the landing page.
type DashboardScreen struct {
	screen.Base
	posts *store.PostRepo
}

func (s *DashboardScreen) Meta() screen.Meta {
	return screen.Meta{Name: "Dashboard", Description: "Overview of the content"}
}

func (s *DashboardScreen) Query() screen.Handler {
	return screen.Handle(func(ctx context.Context, _ screen.Args) (any, error) {
		stats, err := s.posts.CountByStatus(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]any{"stats": stats}, nil
	})
}

func (s *DashboardScreen) Layout() []layout.Node {
	return []layout.Node{
		layout.Columns(
			layout.View("admin/post-stats", nil),
			layout.Accordion(
				layout.Tab("Writing posts", layout.View("admin/help", "writing")),
				layout.Tab("Publishing", layout.View("admin/help", "publishing")),
			),
		),
	}
}
