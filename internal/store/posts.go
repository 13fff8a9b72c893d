package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"screenkit/internal/jsonutil"
)

// Post statuses.
const (
	StatusDraft     = "draft"
	StatusReview    = "review"
	StatusPublished = "published"
)

// Statuses lists the valid post statuses in workflow order.
var Statuses = []string{StatusDraft, StatusReview, StatusPublished}

// Post is one article.
type Post struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Body        string     `json:"body"`
	Status      string     `json:"status"`
	AuthorID    string     `json:"author_id"`
	Timezone    string     `json:"timezone"`
	Featured    bool       `json:"featured"`
	PublishedAt *time.Time `json:"published_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	repo *PostRepo
}

// GetContent exposes derived values to layouts and table columns.
func (p *Post) GetContent(key string) any {
	switch key {
	case "status_label":
		if p.Status == "" {
			return ""
		}
		r := []rune(p.Status)
		r[0] = unicode.ToUpper(r[0])
		return string(r)
	case "excerpt":
		return excerpt(p.Body, 80)
	case "exists":
		return p.ID != ""
	default:
		return nil
	}
}

// ResolveRouteBinding loads the post whose id is raw.
func (p *Post) ResolveRouteBinding(ctx context.Context, raw any) (any, error) {
	if p.repo == nil {
		return nil, errors.New("post: no repository to resolve through")
	}
	return p.repo.Get(ctx, jsonutil.ToString(raw))
}

func excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n])) + "…"
}

// PostRepo handles posts.
type PostRepo struct {
	db *sql.DB
}

func NewPostRepo(db *sql.DB) *PostRepo { return &PostRepo{db: db} }

// New returns an unsaved post bound to r.
func (r *PostRepo) New() *Post {
	return &Post{Status: StatusDraft, Timezone: "UTC", repo: r}
}

const postColumns = `id, title, slug, body, status, COALESCE(author_id, ''), timezone, featured, published_at, created_at, updated_at`

func (r *PostRepo) scan(row interface{ Scan(...any) error }) (*Post, error) {
	p := &Post{repo: r}
	var published sql.NullTime
	if err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Body, &p.Status, &p.AuthorID,
		&p.Timezone, &p.Featured, &published, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if published.Valid {
		t := published.Time
		p.PublishedAt = &t
	}
	return p, nil
}

// Get loads one post.
func (r *PostRepo) Get(ctx context.Context, id string) (*Post, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE id = ?`, id)
	p, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("post %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get post %s: %w", id, err)
	}
	return p, nil
}

// List returns the posts matching q.
func (r *PostRepo) List(ctx context.Context, q *Query) ([]*Post, error) {
	if q == nil {
		q = NewQuery()
	}
	stmt, args, err := q.build(`SELECT ` + postColumns + ` FROM posts`)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var out []*Post
	for rows.Next() {
		p, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		if q.matches(p) {
			out = append(out, p)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return q.page(out), nil
}

// Save inserts p when it has no id, otherwise updates it.
func (r *PostRepo) Save(ctx context.Context, p *Post) error {
	if strings.TrimSpace(p.Title) == "" {
		return errors.New("save post: title is required")
	}
	if p.Slug == "" {
		p.Slug = Slugify(p.Title)
	}
	if p.Status == "" {
		p.Status = StatusDraft
	}
	if p.Timezone == "" {
		p.Timezone = "UTC"
	}
	var author any
	if p.AuthorID != "" {
		author = p.AuthorID
	}
	now := Now()
	p.repo = r
	if p.ID == "" {
		p.ID = uuid.NewString()
		p.CreatedAt = now
		p.UpdatedAt = now
		_, err := r.db.ExecContext(ctx, `
		INSERT INTO posts(id, title, slug, body, status, author_id, timezone, featured, published_at, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
		`, p.ID, p.Title, p.Slug, p.Body, p.Status, author, p.Timezone, p.Featured, p.PublishedAt, now, now)
		if err != nil {
			return fmt.Errorf("insert post: %w", err)
		}
		return nil
	}
	p.UpdatedAt = now
	res, err := r.db.ExecContext(ctx, `
	UPDATE posts SET title = ?, slug = ?, body = ?, status = ?, author_id = ?, timezone = ?,
	 featured = ?, published_at = ?, updated_at = ?
	WHERE id = ?;
	`, p.Title, p.Slug, p.Body, p.Status, author, p.Timezone, p.Featured, p.PublishedAt, now, p.ID)
	if err != nil {
		return fmt.Errorf("update post %s: %w", p.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update post %s: %w", p.ID, ErrNotFound)
	}
	return nil
}

// Publish marks the posts as published in one transaction.
func (r *PostRepo) Publish(ctx context.Context, ids ...string) error {
	now := Now()
	return WithTx(r.db, func(tx *sql.Tx) error {
		for _, id := range ids {
			res, err := tx.ExecContext(ctx, `
			UPDATE posts SET status = ?, published_at = COALESCE(published_at, ?), updated_at = ?
			WHERE id = ?`, StatusPublished, now, now, id)
			if err != nil {
				return fmt.Errorf("publish post %s: %w", id, err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return fmt.Errorf("publish post %s: %w", id, ErrNotFound)
			}
		}
		return nil
	})
}

// Delete removes a post.
func (r *PostRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete post %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete post %s: %w", id, ErrNotFound)
	}
	return nil
}

// CountByStatus returns the number of posts per status.
func (r *PostRepo) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM posts GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count posts: %w", err)
	}
	defer rows.Close()
	out := make(map[string]int, len(Statuses))
	for _, s := range Statuses {
		out[s] = 0
	}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}

// Slugify turns a title into a URL slug.
func Slugify(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
