package refdata

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"

	"github.com/couchcryptid/delivery-eta-service/internal/domain"
)

// Snapshot column names.
const (
	colCity     = "customer_city"
	colCategory = "main_product_category"
	colLat      = "geo_lat"
	colLng      = "geo_lng"
)

// SnapshotPath returns the training snapshot location under root.
func SnapshotPath(root string) string {
	return filepath.Join(root, "data", "processed", "df_model.csv")
}

// LoadCatalog reads the training snapshot. A missing file returns
// domain.CatalogAbsent and a nil error. Default coordinates are the medians of
// geo_lat and geo_lng, each falling back independently when its column is
// absent or has no numeric values.
func LoadCatalog(root string) (domain.Catalog, error) {
	path := SnapshotPath(root)
	t, closer, err := openCSV(path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.CatalogAbsent{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	cityIdx, ok := t.index(colCity)
	if !ok {
		return nil, fmt.Errorf("%s: missing column %q", path, colCity)
	}
	catIdx, ok := t.index(colCategory)
	if !ok {
		return nil, fmt.Errorf("%s: missing column %q", path, colCategory)
	}
	latIdx, hasLat := t.index(colLat)
	lngIdx, hasLng := t.index(colLng)

	var cities, categories []string
	var lats, lngs []float64
	err = t.each(func(rec []string) {
		cities = append(cities, cell(rec, cityIdx))
		categories = append(categories, cell(rec, catIdx))
		if hasLat {
			if v, ok := domain.ParseCoordinate(cell(rec, latIdx)); ok {
				lats = append(lats, v)
			}
		}
		if hasLng {
			if v, ok := domain.ParseCoordinate(cell(rec, lngIdx)); ok {
				lngs = append(lngs, v)
			}
		}
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	defaults := domain.FallbackCoordinates
	if m, ok := median(lats); ok {
		defaults.Lat = m
	}
	if m, ok := median(lngs); ok {
		defaults.Lng = m
	}
	return domain.NewCatalog(cities, categories, defaults), nil
}

// median sorts values in place and returns the middle value, averaging the
// two middle values for an even count.
func median(values []float64) (float64, bool) {
	n := len(values)
	if n == 0 {
		return 0, false
	}
	slices.Sort(values)
	if n%2 == 1 {
		return values[n/2], true
	}
	return (values[n/2-1] + values[n/2]) / 2, true
}
