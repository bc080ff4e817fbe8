// Command compras-export writes the filtered procurement rows to an XLSX
// workbook and prints the headline metrics of the selection.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"compras/internal/analytics"
	"compras/internal/cli"
	"compras/internal/core"
	"compras/internal/dataset"
	"compras/internal/export"
	"compras/internal/log"
)

type options struct {
	data        string
	out         string
	region      string
	institution string
	min         string
	max         string
}

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentExport)

	fs := flag.NewFlagSet("compras-export", flag.ExitOnError)
	var opts options
	fs.StringVar(&opts.data, "data", envOr("DATASET_PATH", "df_total_muestra.csv"), "procurement CSV file")
	fs.StringVar(&opts.out, "out", export.FileName, "output workbook")
	fs.StringVar(&opts.region, "region", core.All, "region filter")
	fs.StringVar(&opts.institution, "institution", core.All, "institution filter")
	fs.StringVar(&opts.min, "min", "", "minimum net amount (default: dataset minimum)")
	fs.StringVar(&opts.max, "max", "", "maximum net amount (default: dataset maximum)")
	_ = fs.Parse(os.Args[1:])

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := run(ctx, opts, os.Stdout, logger); err != nil {
		logger.Error("Export failed", log.NewFields().WithOperation(log.OpExport).WithError(err).ToSlice()...)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, stdout io.Writer, logger *log.Logger) error {
	loader := dataset.NewLoader(1, 0, logger)
	table, err := loader.Load(ctx, opts.data)
	if err != nil {
		return err
	}

	bounds := analytics.Options(table).Bounds
	spec := core.FilterSpec{Region: opts.region, Institution: opts.institution, Amount: bounds}
	if opts.min != "" {
		if spec.Amount.Min, err = core.ParseAmount(opts.min); err != nil {
			return fmt.Errorf("-min %q: %w", opts.min, err)
		}
	}
	if opts.max != "" {
		if spec.Amount.Max, err = core.ParseAmount(opts.max); err != nil {
			return fmt.Errorf("-max %q: %w", opts.max, err)
		}
	}

	filtered := analytics.Apply(table, spec)
	data, err := export.WriteXLSX(filtered)
	if err != nil {
		return err
	}
	if err := os.WriteFile(opts.out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.out, err)
	}

	summary := analytics.Summarize(filtered)
	fmt.Fprintf(stdout, "Órdenes de compra: %s\n", humanize.Comma(int64(summary.Orders)))
	fmt.Fprintf(stdout, "Proveedores:       %s\n", humanize.Comma(int64(summary.Suppliers)))
	fmt.Fprintf(stdout, "Monto neto total:  $%s\n", humanize.Commaf(summary.Total))
	fmt.Fprintf(stdout, "Filas exportadas:  %s (%s) -> %s\n",
		humanize.Comma(int64(summary.Rows)), humanize.Bytes(uint64(len(data))), opts.out)
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
