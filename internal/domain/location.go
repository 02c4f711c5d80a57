package domain

import (
	"math"
	"slices"
	"strings"
)

// Defaults applied when a session starts, before the user types a prefix.
const (
	DefaultZipPrefix = 10000
	DefaultCity      = "sao paulo"
	DefaultState     = "SP"
)

// FallbackCoordinates is used when the reference snapshot is missing or has
// no usable geo_lat/geo_lng values (central São Paulo).
var FallbackCoordinates = Coordinates{Lat: -23.50, Lng: -46.60}

// BrazilianStates lists the 27 federative unit codes accepted as customer_state.
var BrazilianStates = []string{
	"AC", "AL", "AM", "AP", "BA", "CE", "DF", "ES", "GO", "MA", "MG", "MS", "MT", "PA",
	"PB", "PE", "PI", "PR", "RJ", "RN", "RO", "RR", "RS", "SC", "SE", "SP", "TO",
}

// Coordinates is a WGS-84 latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// LocationRecord is the location stored for one postal-code prefix.
type LocationRecord struct {
	City  string  `json:"city"`
	State string  `json:"state"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
}

// NormalizeCity trims surrounding whitespace and lowercases the name.
func NormalizeCity(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeState trims surrounding whitespace and uppercases the code.
func NormalizeState(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// IsBrazilianState reports whether code is one of [BrazilianStates].
func IsBrazilianState(code string) bool {
	return slices.Contains(BrazilianStates, code)
}

func isMissing(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}
