// Package render is the named-template boundary every screen component
// renders through: a template name plus a data value in, markup out.
package render

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"slices"
	"strings"
)

//go:embed templates/*.html
var builtin embed.FS

// Renderer renders a named template with the given data.
type Renderer interface {
	Render(name string, data any) (template.HTML, error)
}

// Engine is a Renderer backed by html/template. Built-in templates are
// embedded; a directory of *.html files may redefine any of them.
type Engine struct {
	tmpl *template.Template
}

// NewEngine parses the built-in templates and then, when dir is non-empty
// and exists, every *.html file under it. A missing dir is not an error.
func NewEngine(dir string) (*Engine, error) {
	tmpl, err := template.New("screenkit").Funcs(Funcs()).ParseFS(builtin, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse builtin templates: %w", err)
	}
	e := &Engine{tmpl: tmpl}
	if dir == "" {
		return e, nil
	}
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return e, nil
	}
	if err != nil {
		return nil, fmt.Errorf("template dir %q: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("template dir %q is not a directory", dir)
	}
	if err := e.ParseFS(os.DirFS(dir), "*.html"); err != nil {
		return nil, err
	}
	return e, nil
}

// ParseFS adds (or redefines) templates from fsys. Must be called before the
// first Render.
func (e *Engine) ParseFS(fsys fs.FS, patterns ...string) error {
	matched := false
	for _, p := range patterns {
		names, err := fs.Glob(fsys, p)
		if err != nil {
			return fmt.Errorf("glob %q: %w", p, err)
		}
		if len(names) > 0 {
			matched = true
		}
	}
	if !matched {
		return nil
	}
	if _, err := e.tmpl.ParseFS(fsys, patterns...); err != nil {
		return fmt.Errorf("parse templates %s: %w", strings.Join(patterns, ", "), err)
	}
	return nil
}

// Has reports whether a template with the given name is defined.
func (e *Engine) Has(name string) bool {
	return e.tmpl.Lookup(name) != nil
}

// Render implements Renderer.
func (e *Engine) Render(name string, data any) (template.HTML, error) {
	if !e.Has(name) {
		return "", fmt.Errorf("render %s: %w", name, ErrTemplateNotFound)
	}
	var buf bytes.Buffer
	if err := e.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}

// ErrTemplateNotFound is returned when rendering an undefined template.
var ErrTemplateNotFound = errors.New("template not found")

// Funcs returns the helper functions available to every template.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"join": strings.Join,
		"dict": dict,
		"json": toJSON,
		"contains": slices.Contains[[]string],
	}
}

func dict(pairs ...any) (map[string]any, error) {
	if len(pairs)%2 != 0 {
		return nil, errors.New("dict: odd number of arguments")
	}
	out := make(map[string]any, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict: key %v is not a string", pairs[i])
		}
		out[key] = pairs[i+1]
	}
	return out, nil
}

func toJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("json: %w", err)
	}
	return string(b), nil
}
