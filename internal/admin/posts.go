package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"screenkit/internal/action"
	"screenkit/internal/auth"
	"screenkit/internal/container"
	"screenkit/internal/field"
	"screenkit/internal/filter"
	"screenkit/internal/layout"
	"screenkit/internal/repository"
	"screenkit/internal/screen"
	"screenkit/internal/store"
	"screenkit/internal/td"
)

// PostListScreen lists posts with filters and a preview modal.
type PostListScreen struct {
	posts *store.PostRepo
	urls  urlFunc
}

func (s *PostListScreen) Meta() screen.Meta {
	return screen.Meta{
		Name:        "Posts",
		Description: "All articles, newest first",
		Permission:  []string{"posts.view"},
	}
}

func (s *PostListScreen) Query() screen.Handler {
	return screen.Handle(s.query,
		screen.Bind[*screen.Request]("request"),
		screen.Bind[*StatusFilter]("status"),
		screen.Bind[*SearchFilter]("search"),
		screen.Bind[*AuthorFilter]("author"),
	)
}

func (s *PostListScreen) query(ctx context.Context, args screen.Args) (any, error) {
	req, _ := screen.As[*screen.Request](args, "request")
	q := store.NewQuery()
	var filters []filter.Filter
	for _, name := range []string{"status", "search", "author"} {
		f, ok := args.Get(name).(filter.Filter)
		if !ok {
			continue
		}
		if r, ok := f.(auth.Restricted); ok && !auth.Permitted(ctx, r.Permissions()) {
			continue
		}
		filters = append(filters, f)
	}
	if req != nil {
		filter.Apply(q, req.Query, filters...)
		filter.ApplyColumns(q, req.Query, td.Filters(s.columns()...))
		q.OrderBy(req.Query.Get("sort"))
	}
	posts, err := s.posts.List(ctx, q)
	if err != nil {
		return nil, err
	}
	stats, err := s.posts.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{"posts": posts, "stats": stats}, nil
}

func (s *PostListScreen) CommandBar() []*action.Action {
	return []*action.Action{
		action.Link("New post", action.Icon("plus"), action.Href(s.urls("post-edit")), action.Permission("posts.edit")),
		action.DropDown("More", []*action.Action{
			action.Button("Export JSON", action.Method("export"), action.Icon("download")),
			action.ModalToggle("Statistics", action.Modal("stats")),
		}),
	}
}

func (s *PostListScreen) Layout() []layout.Node {
	return []layout.Node{
		layout.Selection(
			container.KindOf[*StatusFilter](),
			container.KindOf[*SearchFilter](),
			container.KindOf[*AuthorFilter](),
		),
		layout.Table("posts", s.columns()...).Titled("Posts"),
		layout.Modal("preview", layout.View("admin/post-summary", nil)).
			Titled("Preview").Size(layout.SizeLarge).Async("asyncPreview"),
		layout.Modal("stats", layout.View("admin/post-stats", nil)).Titled("Statistics"),
	}
}

func (s *PostListScreen) columns() []*td.TD {
	return []*td.TD{
		td.Set("title").Sort().Filter(td.FilterText).Link("post-edit", []string{"id"}, "title"),
		td.Set("status_label", "Status").Column("status").Sort(),
		td.Set("timezone").Width("180px").Filter(td.FilterText),
		td.Set("created_at", "Created").Sort().Filter(td.FilterDate).Align(td.AlignRight),
		td.Set("preview", "").AsyncRoute(s.urls("posts")).
			LoadModalAsync("preview", "asyncPreview", []string{"id"}, "Preview"),
	}
}

func (s *PostListScreen) Methods() screen.Methods {
	return screen.Methods{
		"asyncPreview": screen.Handle(func(_ context.Context, args screen.Args) (any, error) {
			return args.Get("post"), nil
		}, screen.Bind[*store.Post]("post")),
		"export": screen.Handle(func(ctx context.Context, _ screen.Args) (any, error) {
			return s.posts.List(ctx, store.NewQuery())
		}),
	}
}

// PostEditScreen creates and edits a single post.
type PostEditScreen struct {
	posts *store.PostRepo
	urls  urlFunc
}

func (s *PostEditScreen) Meta() screen.Meta {
	return screen.Meta{
		Name:        "Edit post",
		Description: "Write, schedule and publish",
		Permission:  []string{"posts.edit"},
	}
}

func (s *PostEditScreen) Query() screen.Handler {
	return screen.Handle(func(_ context.Context, args screen.Args) (any, error) {
		return map[string]any{"post": args.Get("post")}, nil
	}, screen.Bind[*store.Post]("post"))
}

func postExists(repo *repository.Repository) bool {
	id, _ := repo.Get("post.id").(string)
	return id != ""
}

func (s *PostEditScreen) CommandBar() []*action.Action {
	return []*action.Action{
		action.Button("Save", action.Icon("check"), action.Method("save")),
		action.Button("Publish", action.Icon("send"), action.Method("publish"), action.CanSee(postExists)),
		action.Button("Delete", action.Icon("trash"), action.Method("remove"),
			action.Confirm("Delete this post?"), action.CanSee(postExists), action.Permission("posts.delete")),
	}
}

func (s *PostEditScreen) Layout() []layout.Node {
	statuses := make([]field.Choice, 0, len(store.Statuses))
	for _, st := range store.Statuses {
		statuses = append(statuses, field.Choice{Value: st, Label: st})
	}
	return []layout.Node{
		layout.Tabs(
			layout.Tab("Content", layout.Rows(
				field.Input("post.title", field.Title("Title"), field.Required(), field.Placeholder("Catchy title")),
				field.TextArea("post.body", field.Title("Body"), field.Rows(12)),
			)),
			layout.Tab("Settings",
				layout.Columns(
					layout.Rows(
						field.Select("post.status", statuses, field.Title("Status"), field.Required()),
						field.CheckBox("post.featured", field.Title("Featured")),
					),
					layout.Rows(
						field.TimeZone("post.timezone", field.Title("Time zone"),
							field.ListIdentifiers(field.RegionEurope|field.RegionAmerica|field.RegionUTC)),
					),
				),
				layout.Collapse(
					field.Label("post.slug", field.Title("Slug")),
					field.Label("post.created_at", field.Title("Created")),
					field.Label("post.published_at", field.Title("Published")),
				).Titled("Details").CanSee(postExists),
			),
		),
	}
}

func (s *PostEditScreen) Methods() screen.Methods {
	return screen.Methods{
		"save":    screen.Handle(s.save, screen.Bind[*store.Post]("post"), screen.Bind[*screen.Request]("request")),
		"publish": screen.Handle(s.publish, screen.Bind[*store.Post]("post")),
		"remove":  screen.Handle(s.remove, screen.Bind[*store.Post]("post")),
	}
}

func (s *PostEditScreen) save(ctx context.Context, args screen.Args) (any, error) {
	post, ok := screen.As[*store.Post](args, "post")
	if !ok {
		return nil, errors.New("save: no post")
	}
	if req, ok := screen.As[*screen.Request](args, "request"); ok {
		if err := applyForm(post, req); err != nil {
			return nil, err
		}
	}
	if err := s.posts.Save(ctx, post); err != nil {
		return nil, fmt.Errorf("%w: %w", screen.ErrBadArguments, err)
	}
	return screen.Redirect{URL: s.urls("post-edit", post.ID)}, nil
}

func (s *PostEditScreen) publish(ctx context.Context, args screen.Args) (any, error) {
	post, ok := screen.As[*store.Post](args, "post")
	if !ok || post.ID == "" {
		return nil, fmt.Errorf("publish: %w", screen.ErrBadArguments)
	}
	if err := s.posts.Publish(ctx, post.ID); err != nil {
		return nil, err
	}
	return screen.Redirect{URL: s.urls("post-edit", post.ID)}, nil
}

func (s *PostEditScreen) remove(ctx context.Context, args screen.Args) (any, error) {
	post, ok := screen.As[*store.Post](args, "post")
	if !ok || post.ID == "" {
		return nil, fmt.Errorf("remove: %w", screen.ErrBadArguments)
	}
	if err := s.posts.Delete(ctx, post.ID); err != nil {
		return nil, err
	}
	return screen.Redirect{URL: s.urls("posts")}, nil
}

// applyForm copies submitted "post[...]" values onto p. An unknown time
// zone fails with screen.ErrBadArguments and leaves p untouched.
func applyForm(p *store.Post, req *screen.Request) error {
	form := req.Form
	if form == nil {
		return nil
	}
	last := func(key string) (string, bool) {
		vs, ok := form[field.InputName("post."+key)]
		if !ok || len(vs) == 0 {
			return "", false
		}
		return strings.TrimSpace(vs[len(vs)-1]), true
	}
	tz, hasTZ := last("timezone")
	if hasTZ && tz != "" && !field.ValidZone(tz) {
		return fmt.Errorf("timezone %q: %w", tz, screen.ErrBadArguments)
	}
	if v, ok := last("title"); ok {
		p.Title = v
	}
	if v, ok := last("body"); ok {
		p.Body = v
	}
	if v, ok := last("status"); ok && v != "" {
		p.Status = v
	}
	if hasTZ && tz != "" {
		p.Timezone = tz
	}
	if v, ok := last("featured"); ok {
		p.Featured = v == "1" || v == "on" || v == "true"
	}
	return nil
}
