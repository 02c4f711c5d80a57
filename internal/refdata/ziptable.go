package refdata

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/couchcryptid/delivery-eta-service/internal/domain"
)

// Lookup file columns. customer_zip is accepted for older exports.
var (
	prefixColumns = []string{"customer_zip_code_prefix", "customer_zip"}
	stateColumn   = "customer_state"
)

// ZipTablePath returns the lookup file location under root.
func ZipTablePath(root string) string {
	return filepath.Join(root, "data", "processed", "lookup_zip.csv")
}

// LoadZipTable reads the ZIP lookup file. A missing file returns a nil table
// and a nil error.
func LoadZipTable(root string) (*domain.ZipTable, domain.ZipTableStats, error) {
	path := ZipTablePath(root)
	t, closer, err := openCSV(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ZipTableStats{}, nil
	}
	if err != nil {
		return nil, domain.ZipTableStats{}, err
	}
	defer closer.Close()

	prefixIdx, ok := t.index(prefixColumns...)
	if !ok {
		return nil, domain.ZipTableStats{}, fmt.Errorf("%s: missing column %q", path, prefixColumns[0])
	}
	idx := map[string]int{}
	for _, name := range []string{colCity, stateColumn, colLat, colLng} {
		i, ok := t.index(name)
		if !ok {
			return nil, domain.ZipTableStats{}, fmt.Errorf("%s: missing column %q", path, name)
		}
		idx[name] = i
	}

	var rows []domain.ZipRow
	err = t.each(func(rec []string) {
		rows = append(rows, domain.ZipRow{
			Prefix: cell(rec, prefixIdx),
			City:   cell(rec, idx[colCity]),
			State:  cell(rec, idx[stateColumn]),
			Lat:    cell(rec, idx[colLat]),
			Lng:    cell(rec, idx[colLng]),
		})
	})
	if err != nil {
		return nil, domain.ZipTableStats{}, fmt.Errorf("%s: %w", path, err)
	}

	table, stats := domain.NewZipTable(rows)
	return table, stats, nil
}
