package domain

import (
	"slices"
	"strings"
)

// DefaultCategory is the category preselected in the form.
const DefaultCategory = "bed_bath_table"

// Catalog is the reference snapshot used for choice lists and default
// coordinates. It is either [CatalogAvailable] or [CatalogAbsent]; the form
// layer switches on the concrete type to pick constrained-choice or free-text
// inputs.
type Catalog interface {
	// Defaults returns the coordinates used when a location has none.
	Defaults() Coordinates
	catalog()
}

// CatalogAbsent means the snapshot file was not found.
type CatalogAbsent struct{}

func (CatalogAbsent) Defaults() Coordinates { return FallbackCoordinates }
func (CatalogAbsent) catalog()              {}

// CatalogAvailable holds the distinct cities and categories seen in training
// data. It is immutable after construction; accessors return copies.
type CatalogAvailable struct {
	cities     []string
	categories []string
	defaults   Coordinates
}

// NewCatalog normalizes, deduplicates, and sorts the given values. Empty
// entries are skipped.
func NewCatalog(cities, categories []string, defaults Coordinates) CatalogAvailable {
	return CatalogAvailable{
		cities:     distinctSorted(cities, NormalizeCity),
		categories: distinctSorted(categories, strings.TrimSpace),
		defaults:   defaults,
	}
}

func (c CatalogAvailable) Defaults() Coordinates { return c.defaults }
func (CatalogAvailable) catalog()                {}

// Cities returns the sorted, lowercase city names.
func (c CatalogAvailable) Cities() []string { return slices.Clone(c.cities) }

// Categories returns the sorted product category names.
func (c CatalogAvailable) Categories() []string { return slices.Clone(c.categories) }

// HasCity reports whether the normalized city is known.
func (c CatalogAvailable) HasCity(city string) bool {
	_, ok := slices.BinarySearch(c.cities, NormalizeCity(city))
	return ok
}

// HasCategory reports whether the trimmed category is known.
func (c CatalogAvailable) HasCategory(category string) bool {
	_, ok := slices.BinarySearch(c.categories, strings.TrimSpace(category))
	return ok
}

// DefaultCategoryFor returns the category to preselect: [DefaultCategory]
// unless a loaded catalog lacks it, in which case its first entry.
func DefaultCategoryFor(c Catalog) string {
	avail, ok := c.(CatalogAvailable)
	if !ok || len(avail.categories) == 0 || avail.HasCategory(DefaultCategory) {
		return DefaultCategory
	}
	return avail.categories[0]
}

func distinctSorted(values []string, normalize func(string) string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = normalize(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}
