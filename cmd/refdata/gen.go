package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/couchcryptid/delivery-eta-service/internal/adapter/model"
	"github.com/couchcryptid/delivery-eta-service/internal/domain"
	"github.com/couchcryptid/delivery-eta-service/internal/refdata"
	"github.com/spf13/cobra"
)

type mockCity struct {
	name       string
	state      string
	lat, lng   float64
	prefixBase int
}

var mockCities = []mockCity{
	{"sao paulo", "SP", -23.55, -46.63, 1000},
	{"campinas", "SP", -22.90, -47.06, 13000},
	{"rio de janeiro", "RJ", -22.90, -43.20, 20000},
	{"belo horizonte", "MG", -19.92, -43.94, 30000},
	{"salvador", "BA", -12.97, -38.50, 40000},
	{"recife", "PE", -8.05, -34.90, 50000},
	{"fortaleza", "CE", -3.73, -38.52, 60000},
	{"manaus", "AM", -3.10, -60.02, 69000},
	{"brasilia", "DF", -15.79, -47.88, 70000},
	{"goiania", "GO", -16.68, -49.25, 74000},
	{"curitiba", "PR", -25.43, -49.27, 80000},
	{"porto alegre", "RS", -30.03, -51.23, 90000},
}

var mockCategories = []string{
	"auto", "bed_bath_table", "computers_accessories", "furniture_decor", "garden_tools",
	"health_beauty", "housewares", "sports_leisure", "telephony", "toys", "watches_gifts",
}

// mockModel generates the delivery times and is written out as the artifact,
// so the fixture's model agrees with its own training data.
var mockModel = model.LinearModel{
	Intercept: 5,
	Numeric: map[string]float64{
		domain.ColTotalItems:         0.3,
		domain.ColTotalFreight:       0.04,
		domain.ColApprovalDelayHours: 0.08,
	},
	Categorical: map[string]map[string]float64{
		domain.ColCustomerState: {
			"SP": 0, "RJ": 2, "MG": 2.5, "PR": 3, "RS": 4, "DF": 4.5,
			"GO": 5, "BA": 7, "PE": 9, "CE": 10, "AM": 13,
		},
	},
}

var snapshotHeader = []string{
	"order_id",
	domain.ColCustomerCity, domain.ColCustomerState, domain.ColZipCodePrefix, domain.ColMainProductCategory,
	domain.ColTotalItems, domain.ColTotalPrice, domain.ColTotalFreight, domain.ColPaymentValue,
	domain.ColPaymentInstallments, domain.ColGeoLat, domain.ColGeoLng, domain.ColPurchaseHour,
	domain.ColPurchaseWeekday, domain.ColApprovalDelayHours, "delivery_days",
}

var lookupHeader = []string{
	domain.ColZipCodePrefix, domain.ColCustomerCity, domain.ColCustomerState, domain.ColGeoLat, domain.ColGeoLng,
}

type genOptions struct {
	out  string
	rows int
	seed uint64
}

func newGenCmd() *cobra.Command {
	var opts genOptions
	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate a reproducible mock snapshot, lookup table, and model artifact",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGen(cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.out, "out", "", "output root (required)")
	cmd.Flags().IntVar(&opts.rows, "rows", 200, "number of snapshot rows")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 42, "random seed")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func runGen(out io.Writer, opts genOptions) error {
	if opts.rows < 1 {
		return fmt.Errorf("rows must be positive, got %d", opts.rows)
	}
	snapshot, lookup := generateRows(rand.New(rand.NewPCG(opts.seed, opts.seed^0x9e3779b97f4a7c15)), opts.rows)

	if err := writeCSV(refdata.SnapshotPath(opts.out), snapshotHeader, snapshot); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	fmt.Fprintf(out, "wrote %s (%d rows)\n", refdata.SnapshotPath(opts.out), len(snapshot))

	if err := writeCSV(refdata.ZipTablePath(opts.out), lookupHeader, lookup); err != nil {
		return fmt.Errorf("writing lookup table: %w", err)
	}
	fmt.Fprintf(out, "wrote %s (%d prefixes)\n", refdata.ZipTablePath(opts.out), len(lookup))

	artifactPath := filepath.Join(opts.out, "models", "delivery_time_model.json")
	if err := writeArtifact(artifactPath); err != nil {
		return fmt.Errorf("writing artifact: %w", err)
	}
	fmt.Fprintf(out, "wrote %s\n", artifactPath)
	return nil
}

// generateRows returns snapshot rows and one lookup row per distinct prefix,
// sorted by prefix.
func generateRows(rng *rand.Rand, n int) (snapshot, lookup [][]string) {
	seen := map[int]bool{}
	type lookupRow struct {
		prefix int
		row    []string
	}
	var zips []lookupRow

	for i := range n {
		c := mockCities[rng.IntN(len(mockCities))]
		prefix := c.prefixBase + rng.IntN(900)
		lat := c.lat + (rng.Float64()-0.5)*0.1
		lng := c.lng + (rng.Float64()-0.5)*0.1

		items := 1 + rng.IntN(4)
		price := round2(10 + rng.Float64()*490)
		freight := round2(5 + rng.Float64()*55)
		delay := round2(rng.ExpFloat64() * 6)

		days := mockModel.Intercept +
			mockModel.Numeric[domain.ColTotalItems]*float64(items) +
			mockModel.Numeric[domain.ColTotalFreight]*freight +
			mockModel.Numeric[domain.ColApprovalDelayHours]*delay +
			mockModel.Categorical[domain.ColCustomerState][c.state] +
			rng.NormFloat64()*1.5

		snapshot = append(snapshot, []string{
			fmt.Sprintf("mock-%06d", i),
			c.name, c.state, strconv.Itoa(prefix), mockCategories[rng.IntN(len(mockCategories))],
			strconv.Itoa(items), formatFloat(price, 2), formatFloat(freight, 2), formatFloat(price+freight, 2),
			strconv.Itoa(1 + rng.IntN(10)), formatFloat(lat, 6), formatFloat(lng, 6),
			strconv.Itoa(rng.IntN(24)), strconv.Itoa(rng.IntN(7)), formatFloat(delay, 2),
			strconv.Itoa(max(1, int(math.Round(days)))),
		})

		if !seen[prefix] {
			seen[prefix] = true
			zips = append(zips, lookupRow{prefix, []string{
				strconv.Itoa(prefix), c.name, c.state, formatFloat(lat, 6), formatFloat(lng, 6),
			}})
		}
	}

	slices.SortFunc(zips, func(a, b lookupRow) int { return a.prefix - b.prefix })
	for _, z := range zips {
		lookup = append(lookup, z.row)
	}
	return snapshot, lookup
}

func writeCSV(path string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return f.Close()
}

func writeArtifact(path string) error {
	clip := 1.0
	lin := mockModel
	a := model.Artifact{
		Name:    "mock_linear_delivery_time",
		Kind:    model.KindLinear,
		Columns: domain.FeatureSchema{}.Columns(),
		ClipMin: &clip,
		Linear:  &lin,
	}
	if err := a.Validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func round2(x float64) float64 { return math.Round(x*100) / 100 }

func formatFloat(x float64, prec int) string { return strconv.FormatFloat(x, 'f', prec, 64) }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
