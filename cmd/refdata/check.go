package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/couchcryptid/delivery-eta-service/internal/adapter/model"
	"github.com/couchcryptid/delivery-eta-service/internal/domain"
	"github.com/couchcryptid/delivery-eta-service/internal/refdata"
	"github.com/spf13/cobra"
)

// phase tracks pass/fail for a check phase. Notes are informational.
type phase struct {
	name   string
	notes  []string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) notef(format string, args ...any) {
	p.notes = append(p.notes, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

type checkOptions struct {
	root        string
	modelPath   string
	orderStatus bool
}

func newCheckCmd() *cobra.Command {
	var opts checkOptions
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate reference files and the model's column contract",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.modelPath == "" {
				opts.modelPath = filepath.Join(opts.root, "models", "delivery_time_model.json")
			}
			return runCheck(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.root, "root", ".", "project root holding data/processed")
	cmd.Flags().StringVar(&opts.modelPath, "model", "", "model artifact (default <root>/models/delivery_time_model.json)")
	cmd.Flags().BoolVar(&opts.orderStatus, "order-status", false, "check against the schema that includes order_status")
	return cmd
}

func runCheck(ctx context.Context, out io.Writer, opts checkOptions) error {
	fmt.Fprintln(out, "=== Delivery ETA Reference Check ===")
	fmt.Fprintln(out)

	schema := domain.FeatureSchema{IncludeOrderStatus: opts.orderStatus}
	catalogPhase, catalog := checkSnapshot(opts.root)
	phases := []*phase{
		catalogPhase,
		checkZipTable(opts.root),
		checkModel(ctx, opts.modelPath, schema, catalog),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-32s %s\n", p.name, status)
		for _, n := range p.notes {
			fmt.Fprintf(out, "      %s\n", n)
		}
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if !allPassed {
		return errors.New("reference check failed")
	}
	fmt.Fprintln(out, "\nAll checks passed.")
	return nil
}

// An absent snapshot is a supported degraded mode, so it passes with a note.
func checkSnapshot(root string) (*phase, domain.Catalog) {
	p := &phase{name: "Training snapshot"}
	c, err := refdata.LoadCatalog(root)
	if err != nil {
		p.errorf("%v", err)
		return p, domain.CatalogAbsent{}
	}
	avail, ok := c.(domain.CatalogAvailable)
	if !ok {
		p.notef("absent: %s (form falls back to free-text inputs)", refdata.SnapshotPath(root))
		return p, c
	}
	p.notef("%d cities, %d categories", len(avail.Cities()), len(avail.Categories()))
	p.notef("default coordinates %.4f, %.4f", avail.Defaults().Lat, avail.Defaults().Lng)
	if len(avail.Categories()) > 0 && !avail.HasCategory(domain.DefaultCategory) {
		p.notef("%q not in snapshot, form preselects %q", domain.DefaultCategory, domain.DefaultCategoryFor(avail))
	}
	return p, c
}

func checkZipTable(root string) *phase {
	p := &phase{name: "Zip lookup table"}
	table, stats, err := refdata.LoadZipTable(root)
	switch {
	case err != nil:
		p.errorf("%v", err)
	case table == nil:
		p.notef("absent: %s (location entry is manual)", refdata.ZipTablePath(root))
	default:
		p.notef("%d rows, %d prefixes, %d dropped, %d duplicates",
			stats.Rows, stats.Entries, stats.Dropped, stats.Duplicates)
		if stats.Entries == 0 {
			p.errorf("no usable rows")
		}
	}
	return p
}

func checkModel(ctx context.Context, path string, schema domain.FeatureSchema, catalog domain.Catalog) *phase {
	p := &phase{name: "Model artifact"}
	a, err := model.LoadArtifact(path)
	if err != nil {
		p.errorf("%v", err)
		return p
	}
	p.notef("%s (%s), %d columns", a.Name, a.Kind, len(a.Columns))

	if diff := a.Diff(schema.Columns()); !diff.Empty() {
		for _, c := range diff.Missing {
			p.errorf("model expects column %q the form does not send", c)
		}
		for _, c := range diff.Unexpected {
			p.errorf("form sends column %q the model was not trained on", c)
		}
		return p
	}

	features := domain.NewAssembler(schema).Assemble(
		domain.NewLocationState(catalog.Defaults()), catalog, domain.DefaultOrderFields(catalog))
	predictor := model.NewArtifactPredictor(path, discardLogger())
	eta, err := predictor.Predict(ctx, features)
	if err != nil {
		p.errorf("predict on form defaults: %v", err)
		return p
	}
	p.notef("form defaults predict %.2f days", eta)
	return p
}
