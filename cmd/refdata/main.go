// Command refdata inspects and generates the files the estimator reads at
// startup: the training snapshot, the postal-code lookup table, and the model
// artifact.
//
// Usage:
//
//	go run ./cmd/refdata check --root . --model models/delivery_time_model.json
//	go run ./cmd/refdata gen --out /tmp/eta-fixture --rows 500
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "refdata",
		Short: "Check and generate delivery-eta reference data",
		Long: `refdata works on the directory layout the estimator expects:

  <root>/data/processed/df_model.csv    training snapshot (cities, categories, default coordinates)
  <root>/data/processed/lookup_zip.csv  postal-code prefix lookup table
  <root>/models/delivery_time_model.json model artifact`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newCheckCmd(), newGenCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
