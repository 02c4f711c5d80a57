// Package refdata loads the optional reference files that back city and
// category choices, default coordinates, and postal-code lookups.
package refdata

import (
	"log/slog"

	"github.com/couchcryptid/delivery-eta-service/internal/domain"
)

// Reference is the reference data for one process lifetime. It is built once
// at startup and shared read-only by every session.
type Reference struct {
	Catalog  domain.Catalog
	Zips     *domain.ZipTable
	ZipStats domain.ZipTableStats
}

// Defaults returns the catalog's default coordinates.
func (r Reference) Defaults() domain.Coordinates {
	return r.Catalog.Defaults()
}

// CatalogLoaded reports whether the training snapshot was found.
func (r Reference) CatalogLoaded() bool {
	_, ok := r.Catalog.(domain.CatalogAvailable)
	return ok
}

// Load reads both reference files under root. Missing or unreadable files
// degrade to the absent state and are logged; Load never fails.
func Load(root string, logger *slog.Logger) Reference {
	ref := Reference{Catalog: domain.CatalogAbsent{}}

	catalog, err := LoadCatalog(root)
	switch {
	case err != nil:
		logger.Warn("reference snapshot unreadable, using free-text inputs",
			"path", SnapshotPath(root),
			"error", err,
		)
	case catalog != nil:
		ref.Catalog = catalog
	}

	if avail, ok := ref.Catalog.(domain.CatalogAvailable); ok {
		logger.Info("reference snapshot loaded",
			"cities", len(avail.Cities()),
			"categories", len(avail.Categories()),
			"default_lat", avail.Defaults().Lat,
			"default_lng", avail.Defaults().Lng,
		)
	} else if err == nil {
		logger.Info("reference snapshot not found, using free-text inputs", "path", SnapshotPath(root))
	}

	zips, stats, err := LoadZipTable(root)
	switch {
	case err != nil:
		logger.Warn("zip lookup table unreadable, location entry is manual",
			"path", ZipTablePath(root),
			"error", err,
		)
	case zips == nil:
		logger.Info("zip lookup table not found, location entry is manual", "path", ZipTablePath(root))
	default:
		ref.Zips = zips
		ref.ZipStats = stats
		logger.Info("zip lookup table loaded",
			"entries", stats.Entries,
			"dropped", stats.Dropped,
			"duplicates", stats.Duplicates,
		)
	}

	return ref
}
