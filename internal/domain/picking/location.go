package picking

import (
	"sort"
	"strconv"
	"strings"
)

// Location is a parsed storage coordinate of the form ZONE-ROW-SHELF,
// e.g. "A-01-02". Row and shelf are numeric.
type Location struct {
	Zone  string
	Row   int
	Shelf int
}

// ParseLocation parses a storage location string. The second return is
// false when the string does not follow the zone-row-shelf form.
func ParseLocation(s string) (Location, bool) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 || parts[0] == "" {
		return Location{}, false
	}
	row, err := strconv.Atoi(parts[1])
	if err != nil {
		return Location{}, false
	}
	shelf, err := strconv.Atoi(parts[2])
	if err != nil {
		return Location{}, false
	}
	return Location{Zone: strings.ToUpper(parts[0]), Row: row, Shelf: shelf}, true
}

// Less orders locations zone first, then row, then shelf.
func (l Location) Less(other Location) bool {
	if l.Zone != other.Zone {
		return l.Zone < other.Zone
	}
	if l.Row != other.Row {
		return l.Row < other.Row
	}
	return l.Shelf < other.Shelf
}

// sortByRoute orders items into a walking route: parsed locations in
// zone/row/shelf order, unparsable locations last (kept stable among
// themselves), then stamps the 1-based sequence.
func sortByRoute(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		li, oki := ParseLocation(items[i].StorageLocation)
		lj, okj := ParseLocation(items[j].StorageLocation)
		if oki != okj {
			return oki
		}
		if !oki {
			return false
		}
		return li.Less(lj)
	})
	for i := range items {
		items[i].Sequence = i + 1
	}
}
