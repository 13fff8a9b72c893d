package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-runewidth"

	"screenkit/internal/screen"
)

// DescriptionWidth caps the description column.
const DescriptionWidth = 40

// Route is one row of the screens table.
type Route struct {
	Info screen.Info
	URL  string
}

// RenderRoutes draws routes as a bordered table.
func RenderRoutes(routes []Route) string {
	if len(routes) == 0 {
		return Styles.Empty.Render("no screens registered")
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(Styles.Border).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return Styles.Header
			}
			if col == 4 {
				return Styles.Muted
			}
			return Styles.Cell
		}).
		Headers("Screen", "URL", "Permission", "Methods", "Description")

	for _, r := range routes {
		perm := strings.Join(r.Info.Permission, " | ")
		if perm == "" {
			perm = "-"
		}
		methods := strings.Join(r.Info.Methods, ", ")
		if methods == "" {
			methods = "-"
		}
		t.Row(r.Info.Slug, r.URL, perm, methods, runewidth.Truncate(r.Info.Description, DescriptionWidth, "…"))
	}
	return t.Render()
}
