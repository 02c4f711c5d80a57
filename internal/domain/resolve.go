package domain

// LocationMatch is the outcome of a prefix lookup. Location is the zero value
// when Found is false.
type LocationMatch struct {
	Found    bool           `json:"found"`
	Prefix   int            `json:"zip_code_prefix"`
	Location LocationRecord `json:"location"`
}

// Resolve looks up prefix in table. A nil table or unknown prefix returns
// Found=false and the caller keeps whatever location it already holds.
// Stored coordinates are returned verbatim unless missing, in which case the
// catalog defaults are substituted.
func Resolve(table *ZipTable, prefix int, defaults Coordinates) LocationMatch {
	rec, ok := table.Lookup(prefix)
	if !ok {
		return LocationMatch{Prefix: prefix}
	}
	if isMissing(rec.Lat) {
		rec.Lat = defaults.Lat
	}
	if isMissing(rec.Lng) {
		rec.Lng = defaults.Lng
	}
	return LocationMatch{Found: true, Prefix: prefix, Location: rec}
}
