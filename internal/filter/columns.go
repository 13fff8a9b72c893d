package filter

import (
	"maps"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"screenkit/internal/td"
)

const dateLayout = "2006-01-02"

// ApplyColumns narrows q by the "filter[column]" values table headers
// submit. Only the columns in kinds are read. Text filters match a
// substring, numeric filters match exactly and date filters match the whole
// day. Values that do not parse for their kind are skipped. It returns how
// many columns were applied.
func ApplyColumns(q Query, values url.Values, kinds map[string]td.FilterKind) int {
	n := 0
	for _, column := range slices.Sorted(maps.Keys(kinds)) {
		kind := kinds[column]
		raw := strings.TrimSpace(Get(values, td.FilterParam(column)))
		if raw == "" {
			continue
		}
		switch kind {
		case td.FilterText:
			q.Where(column, "LIKE", "%"+raw+"%")
		case td.FilterNumeric:
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				continue
			}
			q.Where(column, "=", v)
		case td.FilterDate:
			day, err := time.Parse(dateLayout, raw)
			if err != nil {
				continue
			}
			q.Where(column, ">=", day.Format(dateLayout))
			q.Where(column, "<", day.AddDate(0, 0, 1).Format(dateLayout))
		default:
			continue
		}
		n++
	}
	return n
}
