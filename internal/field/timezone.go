package field

import (
	"slices"
	"strings"
	"time"
	_ "time/tzdata"
)

// Region selects groups of time zone identifiers.
type Region int

const (
	RegionAfrica Region = 1 << iota
	RegionAmerica
	RegionAntarctica
	RegionArctic
	RegionAsia
	RegionAtlantic
	RegionAustralia
	RegionEurope
	RegionIndian
	RegionPacific
	RegionUTC

	RegionAll = RegionAfrica | RegionAmerica | RegionAntarctica | RegionArctic | RegionAsia |
		RegionAtlantic | RegionAustralia | RegionEurope | RegionIndian | RegionPacific | RegionUTC
)

var regionPrefixes = []struct {
	region Region
	prefix string
}{
	{RegionAfrica, "Africa/"},
	{RegionAmerica, "America/"},
	{RegionAntarctica, "Antarctica/"},
	{RegionArctic, "Arctic/"},
	{RegionAsia, "Asia/"},
	{RegionAtlantic, "Atlantic/"},
	{RegionAustralia, "Australia/"},
	{RegionEurope, "Europe/"},
	{RegionIndian, "Indian/"},
	{RegionPacific, "Pacific/"},
	{RegionUTC, "UTC"},
}

// zoneIdentifiers is the list of IANA identifiers TimeZone controls offer,
// grouped by region. It is a curated subset; any zone ValidZone accepts can
// still be stored and is shown when it is the current value.
var zoneIdentifiers = []string{
	"Africa/Abidjan", "Africa/Accra", "Africa/Addis_Ababa", "Africa/Algiers", "Africa/Bamako",
	"Africa/Cairo", "Africa/Casablanca", "Africa/Dakar", "Africa/Dar_es_Salaam", "Africa/Johannesburg",
	"Africa/Khartoum", "Africa/Kinshasa", "Africa/Lagos", "Africa/Luanda", "Africa/Maputo",
	"Africa/Nairobi", "Africa/Tripoli", "Africa/Tunis", "Africa/Windhoek",
	"America/Anchorage", "America/Argentina/Buenos_Aires", "America/Bogota", "America/Caracas",
	"America/Chicago", "America/Denver", "America/Edmonton", "America/Halifax", "America/Havana",
	"America/Lima", "America/Los_Angeles", "America/Mexico_City", "America/Montevideo",
	"America/New_York", "America/Panama", "America/Phoenix", "America/Santiago", "America/Sao_Paulo",
	"America/St_Johns", "America/Toronto", "America/Vancouver", "America/Winnipeg",
	"Antarctica/Casey", "Antarctica/McMurdo", "Antarctica/Palmer", "Antarctica/Troll",
	"Arctic/Longyearbyen",
	"Asia/Almaty", "Asia/Baghdad", "Asia/Baku", "Asia/Bangkok", "Asia/Beirut", "Asia/Dhaka",
	"Asia/Dubai", "Asia/Ho_Chi_Minh", "Asia/Hong_Kong", "Asia/Jakarta", "Asia/Jerusalem",
	"Asia/Kabul", "Asia/Karachi", "Asia/Kathmandu", "Asia/Kolkata", "Asia/Kuala_Lumpur",
	"Asia/Manila", "Asia/Riyadh", "Asia/Seoul", "Asia/Shanghai", "Asia/Singapore", "Asia/Taipei",
	"Asia/Tashkent", "Asia/Tbilisi", "Asia/Tehran", "Asia/Tokyo", "Asia/Yerevan",
	"Atlantic/Azores", "Atlantic/Bermuda", "Atlantic/Canary", "Atlantic/Cape_Verde",
	"Atlantic/Reykjavik", "Atlantic/South_Georgia",
	"Australia/Adelaide", "Australia/Brisbane", "Australia/Darwin", "Australia/Hobart",
	"Australia/Melbourne", "Australia/Perth", "Australia/Sydney",
	"Europe/Amsterdam", "Europe/Athens", "Europe/Belgrade", "Europe/Berlin", "Europe/Brussels",
	"Europe/Bucharest", "Europe/Budapest", "Europe/Copenhagen", "Europe/Dublin", "Europe/Helsinki",
	"Europe/Istanbul", "Europe/Kyiv", "Europe/Lisbon", "Europe/London", "Europe/Madrid",
	"Europe/Minsk", "Europe/Moscow", "Europe/Oslo", "Europe/Paris", "Europe/Prague", "Europe/Riga",
	"Europe/Rome", "Europe/Sofia", "Europe/Stockholm", "Europe/Tallinn", "Europe/Vienna",
	"Europe/Vilnius", "Europe/Warsaw", "Europe/Zurich",
	"Indian/Chagos", "Indian/Maldives", "Indian/Mauritius", "Indian/Reunion",
	"Pacific/Auckland", "Pacific/Fiji", "Pacific/Guam", "Pacific/Honolulu", "Pacific/Noumea",
	"Pacific/Port_Moresby", "Pacific/Tahiti", "Pacific/Tongatapu",
	"UTC",
}

// ListZoneIdentifiers returns the identifiers belonging to regions.
// A zero Region is treated as RegionAll.
func ListZoneIdentifiers(regions Region) []string {
	if regions == 0 {
		regions = RegionAll
	}
	var out []string
	for _, id := range zoneIdentifiers {
		for _, rp := range regionPrefixes {
			if regions&rp.region != 0 && strings.HasPrefix(id, rp.prefix) {
				out = append(out, id)
				break
			}
		}
	}
	return out
}

// ValidZone reports whether id names an IANA time zone. The empty string
// and "Local" are rejected.
func ValidZone(id string) bool {
	if id == "" || id == "Local" {
		return false
	}
	_, err := time.LoadLocation(id)
	return err == nil
}

// TimeZone is a select control listing time zone identifiers. A current
// value outside the listed regions is offered first when it is a valid zone.
func TimeZone(name string, attrs ...Attr) *Control {
	c := newControl(name, "fields/select", attrs)
	region := c.attrs.Region
	c.choices = func(current []string) []Choice {
		ids := ListZoneIdentifiers(region)
		out := make([]Choice, 0, len(ids)+len(current))
		for _, id := range current {
			if !slices.Contains(ids, id) && ValidZone(id) {
				out = append(out, Choice{Value: id, Label: id})
			}
		}
		for _, id := range ids {
			out = append(out, Choice{Value: id, Label: id})
		}
		return out
	}
	return c
}
