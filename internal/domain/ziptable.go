package domain

import (
	"math"
	"strconv"
	"strings"
)

// ZipRow is one raw row of the lookup file, before coercion.
type ZipRow struct {
	Prefix string
	City   string
	State  string
	Lat    string
	Lng    string
}

// ZipTableStats summarizes how a table was built.
type ZipTableStats struct {
	Rows       int `json:"rows"`
	Entries    int `json:"entries"`
	Dropped    int `json:"dropped"`
	Duplicates int `json:"duplicates"`
}

// ZipTable maps postal-code prefixes to locations. A nil *ZipTable is the
// absent table: every lookup misses. It is immutable after construction.
type ZipTable struct {
	entries map[int]LocationRecord
}

// NewZipTable coerces and normalizes rows. Rows with a non-numeric prefix or a
// missing city, state, latitude, or longitude are dropped. For a repeated
// prefix the first row wins.
func NewZipTable(rows []ZipRow) (*ZipTable, ZipTableStats) {
	t := &ZipTable{entries: make(map[int]LocationRecord, len(rows))}
	stats := ZipTableStats{Rows: len(rows)}

	for _, r := range rows {
		prefix, rec, ok := parseZipRow(r)
		if !ok {
			stats.Dropped++
			continue
		}
		if _, dup := t.entries[prefix]; dup {
			stats.Duplicates++
			continue
		}
		t.entries[prefix] = rec
	}
	stats.Entries = len(t.entries)
	return t, stats
}

// Lookup returns the stored record for prefix. Safe on a nil table.
func (t *ZipTable) Lookup(prefix int) (LocationRecord, bool) {
	if t == nil {
		return LocationRecord{}, false
	}
	rec, ok := t.entries[prefix]
	return rec, ok
}

// Len returns the number of prefixes. Zero for a nil table.
func (t *ZipTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

func parseZipRow(r ZipRow) (int, LocationRecord, bool) {
	prefix, ok := ParsePrefix(r.Prefix)
	if !ok {
		return 0, LocationRecord{}, false
	}
	city := NormalizeCity(r.City)
	state := NormalizeState(r.State)
	if city == "" || state == "" {
		return 0, LocationRecord{}, false
	}
	lat, ok := ParseCoordinate(r.Lat)
	if !ok {
		return 0, LocationRecord{}, false
	}
	lng, ok := ParseCoordinate(r.Lng)
	if !ok {
		return 0, LocationRecord{}, false
	}
	return prefix, LocationRecord{City: city, State: state, Lat: lat, Lng: lng}, true
}

// MaxZipPrefix is the largest five-digit CEP prefix.
const MaxZipPrefix = 99999

// ParsePrefix coerces a prefix cell to an integer in [0, MaxZipPrefix].
// Integral floats such as "1001.0" are accepted; anything else is treated as
// missing.
func ParsePrefix(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		if !ValidPrefix(n) {
			return 0, false
		}
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || isMissing(f) || f != math.Trunc(f) || f < 0 || f > MaxZipPrefix {
		return 0, false
	}
	return int(f), true
}

// ValidPrefix reports whether n fits in five digits.
func ValidPrefix(n int) bool {
	return n >= 0 && n <= MaxZipPrefix
}

// ParseCoordinate parses a latitude or longitude cell. Empty, NaN, and
// non-numeric cells are missing.
func ParseCoordinate(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || isMissing(v) {
		return 0, false
	}
	return v, true
}
