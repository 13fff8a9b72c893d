// Package field defines the form controls that Rows and Collapse layouts
// (and filter panels) render against a repository.
package field

import (
	"context"
	"html/template"
	"strings"

	"screenkit/internal/jsonutil"
	"screenkit/internal/render"
	"screenkit/internal/repository"
)

// Field is one renderable form control.
type Field interface {
	Name() string
	Render(ctx context.Context, r render.Renderer, repo *repository.Repository) (template.HTML, error)
}

// Attrs holds presentation settings shared by every control.
type Attrs struct {
	Title       string
	Help        string
	Placeholder string
	Type        string
	Required    bool
	Readonly    bool
	Multiple    bool
	Rows        int
	Value       any
	HasValue    bool
	Region      Region
	canSee      func(*repository.Repository) bool
}

// Attr configures a control.
type Attr func(*Attrs)

// Title sets the label shown next to the control.
func Title(s string) Attr { return func(a *Attrs) { a.Title = s } }

// Help sets the hint shown under the control.
func Help(s string) Attr { return func(a *Attrs) { a.Help = s } }

// Placeholder sets the input placeholder.
func Placeholder(s string) Attr { return func(a *Attrs) { a.Placeholder = s } }

// Type sets the input type (text, email, number, password, hidden, date).
func Type(s string) Attr { return func(a *Attrs) { a.Type = s } }

// Required marks the control as required.
func Required() Attr { return func(a *Attrs) { a.Required = true } }

// Readonly marks the control as read-only.
func Readonly() Attr { return func(a *Attrs) { a.Readonly = true } }

// Multiple allows selecting more than one choice.
func Multiple() Attr { return func(a *Attrs) { a.Multiple = true } }

// Rows sets the visible height of a textarea.
func Rows(n int) Attr { return func(a *Attrs) { a.Rows = n } }

// Value sets an explicit value that takes precedence over the repository.
func Value(v any) Attr {
	return func(a *Attrs) {
		a.Value = v
		a.HasValue = true
	}
}

// ListIdentifiers restricts a time zone control to the given regions.
func ListIdentifiers(r Region) Attr { return func(a *Attrs) { a.Region = r } }

// CanSee hides the control unless fn returns true for the repository.
func CanSee(fn func(*repository.Repository) bool) Attr { return func(a *Attrs) { a.canSee = fn } }

// Choice is one option of a select control.
type Choice struct {
	Value string
	Label string
}

// Control is the built-in Field implementation.
type Control struct {
	name     string
	template string
	attrs    Attrs
	choices  func(current []string) []Choice
}

// View is the template data every field template receives.
type View struct {
	Name        string
	InputName   string
	ID          string
	Title       string
	Help        string
	Placeholder string
	Type        string
	Required    bool
	Readonly    bool
	Multiple    bool
	Rows        int
	Value       string
	Checked     bool
	Choices     []ChoiceView
}

// ChoiceView is a Choice with its selection state resolved.
type ChoiceView struct {
	Value    string
	Label    string
	Selected bool
}

func newControl(name, tmpl string, attrs []Attr) *Control {
	c := &Control{name: name, template: tmpl}
	for _, fn := range attrs {
		fn(&c.attrs)
	}
	return c
}

// Input is a single-line text input.
func Input(name string, attrs ...Attr) *Control {
	c := newControl(name, "fields/input", attrs)
	if c.attrs.Type == "" {
		c.attrs.Type = "text"
	}
	return c
}

// TextArea is a multi-line text input.
func TextArea(name string, attrs ...Attr) *Control {
	c := newControl(name, "fields/textarea", attrs)
	if c.attrs.Rows == 0 {
		c.attrs.Rows = 4
	}
	return c
}

// Select is a choice list.
func Select(name string, choices []Choice, attrs ...Attr) *Control {
	c := newControl(name, "fields/select", attrs)
	c.choices = func([]string) []Choice { return choices }
	return c
}

// CheckBox is a boolean toggle.
func CheckBox(name string, attrs ...Attr) *Control {
	return newControl(name, "fields/checkbox", attrs)
}

// Label shows the value as plain text.
func Label(name string, attrs ...Attr) *Control {
	return newControl(name, "fields/label", attrs)
}

// Name implements Field.
func (c *Control) Name() string { return c.name }

// Attrs returns the control's settings.
func (c *Control) Attrs() Attrs { return c.attrs }

// Render implements Field. Hidden controls render as empty markup.
func (c *Control) Render(_ context.Context, r render.Renderer, repo *repository.Repository) (template.HTML, error) {
	if c.attrs.canSee != nil && !c.attrs.canSee(repo) {
		return "", nil
	}
	return r.Render(c.template, c.View(repo))
}

// View resolves the control against repo.
func (c *Control) View(repo *repository.Repository) View {
	raw := repo.Get(c.name)
	if c.attrs.HasValue {
		raw = c.attrs.Value
	}
	values := Strings(raw)

	v := View{
		Name:        c.name,
		InputName:   InputName(c.name),
		ID:          "field-" + strings.NewReplacer(".", "-", "[", "-", "]", "").Replace(c.name),
		Title:       c.attrs.Title,
		Help:        c.attrs.Help,
		Placeholder: c.attrs.Placeholder,
		Type:        c.attrs.Type,
		Required:    c.attrs.Required,
		Readonly:    c.attrs.Readonly,
		Multiple:    c.attrs.Multiple,
		Rows:        c.attrs.Rows,
		Checked:     truthy(raw),
	}
	if len(values) > 0 {
		v.Value = values[0]
	}
	if c.attrs.Multiple {
		v.InputName += "[]"
	}
	if c.choices != nil {
		selected := make(map[string]bool, len(values))
		for _, s := range values {
			selected[s] = true
		}
		for _, ch := range c.choices(values) {
			v.Choices = append(v.Choices, ChoiceView{Value: ch.Value, Label: ch.Label, Selected: selected[ch.Value]})
		}
	}
	return v
}

// InputName converts a dotted key to form notation: "post.title" → "post[title]".
func InputName(name string) string {
	parts := strings.Split(name, ".")
	if len(parts) == 1 {
		return name
	}
	var b strings.Builder
	b.WriteString(parts[0])
	for _, p := range parts[1:] {
		b.WriteString("[" + p + "]")
	}
	return b.String()
}

// Strings flattens a field value into its string forms.
func Strings(v any) []string {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		return []string{val}
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			out = append(out, jsonutil.ToString(item))
		}
		return out
	default:
		return []string{jsonutil.ToString(val)}
	}
}

func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case []string:
		return len(val) > 0 && truthy(val[0])
	default:
		s := strings.ToLower(jsonutil.ToString(val))
		return s != "" && s != "0" && s != "false" && s != "off"
	}
}
