package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"ledgersync/internal/catalog"
	"ledgersync/internal/reconcile"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Query catalog.Query
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a full sync now",
		Long: `Match every catalog product against Xero items by SKU and print one
outcome per product. The command fails only when the run cannot start:
missing or rejected credentials, an unreachable Xero API or catalog.

Example:
  syncctl run --supplier "Acme" --variations
  syncctl run --offset 100 --batch 50 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Query.CategoryID, "category", "", "only products in this category")
	cmd.Flags().StringVar(&opts.Query.Supplier, "supplier", "", "only products from this supplier")
	cmd.Flags().BoolVar(&opts.Query.NoFeaturedImage, "no-image", false, "only products without a featured image")
	cmd.Flags().BoolVar(&opts.Query.IncludeVariations, "variations", false, "include product variations")
	cmd.Flags().IntVar(&opts.Query.Offset, "offset", 0, "skip this many products")
	cmd.Flags().IntVar(&opts.Query.BatchSize, "batch", 0, "process at most this many products (0 = all)")

	return cmd
}

func runSync(cmd *cobra.Command, opts *RunOptions) error {
	a, err := openApp(cmd.Context(), opts.RootOptions)
	if err != nil {
		return err
	}
	defer a.Close()

	report, runErr := a.Runner.Run(cmd.Context(), opts.Query)
	if report != nil {
		if err := writeReport(cmd.OutOrStdout(), opts.Format, report); err != nil {
			return err
		}
	}
	return runErr
}

func writeReport(w io.Writer, format string, report *reconcile.Report) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	for _, o := range report.Outcomes {
		if _, err := fmt.Fprintln(w, o.String()); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, report.Summary())
	return err
}
