package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"compras/internal/cache"
	"compras/internal/core"
	"compras/internal/log"
)

const utf8BOM = "\ufeff"

// Loader reads procurement CSV files and memoizes the parsed tables by file identity.
type Loader struct {
	memo   *cache.Memo[*core.Table]
	logger *log.Logger
}

// NewLoader creates a loader keeping at most size tables for ttl each.
func NewLoader(size int, ttl time.Duration, logger *log.Logger) *Loader {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Loader{
		memo:   cache.NewMemo[*core.Table](size, ttl),
		logger: logger.WithComponent(log.ComponentDataset),
	}
}

// Cache exposes the table memo so it can be registered with a cache.Manager.
func (l *Loader) Cache() cache.Cleaner {
	return l.memo
}

// Load returns the table stored at path. An unchanged file is parsed once;
// later calls return the same *core.Table.
func (l *Loader) Load(ctx context.Context, path string) (*core.Table, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &core.DataLoadError{Path: path, Err: err}
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, &core.DataLoadError{Path: path, Err: err}
	}
	if info.IsDir() {
		return nil, &core.DataLoadError{Path: path, Err: errors.New("path is a directory")}
	}

	// The read is shared with concurrent callers, so one caller going away
	// must not cancel it for the others.
	key := identity(abs, info)
	table, hit, err := l.memo.Get(key, func() (*core.Table, error) {
		return l.read(context.WithoutCancel(ctx), abs)
	})
	if err != nil {
		return nil, err
	}
	l.logger.DebugContext(ctx, "Dataset requested",
		log.FieldDataset, abs,
		log.FieldCacheHit, hit,
		log.FieldRows, table.Len())
	return table, nil
}

func identity(abs string, info os.FileInfo) string {
	return fmt.Sprintf("%s|%d|%d", abs, info.Size(), info.ModTime().UnixNano())
}

func (l *Loader) read(ctx context.Context, path string) (*core.Table, error) {
	start := time.Now()
	f, err := os.Open(path)
	if err != nil {
		return nil, &core.DataLoadError{Path: path, Err: err}
	}
	defer f.Close()

	table, err := parse(ctx, f)
	if err != nil {
		l.logger.ErrorContext(ctx, "Failed to load dataset",
			log.NewFields().WithOperation(log.OpLoad).With(log.FieldDataset, path).WithError(err).ToSlice()...)
		return nil, &core.DataLoadError{Path: path, Err: err}
	}
	table.Source = path

	l.logger.InfoContext(ctx, "Dataset loaded",
		log.FieldDataset, path,
		log.FieldRows, table.Len(),
		log.FieldDropped, table.Dropped,
		log.FieldDuration, time.Since(start).Milliseconds())
	return table, nil
}

// Parse reads a procurement CSV from r. Rows with a malformed shape or a
// net amount that is not a finite number are dropped and counted.
func Parse(r io.Reader) (*core.Table, error) {
	return parse(context.Background(), r)
}

func parse(ctx context.Context, r io.Reader) (*core.Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, core.ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	columns := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		columns[i] = strings.TrimSpace(h)
	}

	idx, err := indexColumns(columns)
	if err != nil {
		return nil, err
	}

	table := &core.Table{Columns: columns}
	for line := 1; ; line++ {
		if line%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				table.Dropped++
				continue
			}
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}
		if len(row) != len(columns) {
			table.Dropped++
			continue
		}

		rec, ok := idx.record(row)
		if !ok {
			table.Dropped++
			continue
		}
		table.Records = append(table.Records, rec)
	}
	return table, nil
}

type columnIndex map[string]int

func indexColumns(columns []string) (columnIndex, error) {
	idx := make(columnIndex, len(columns))
	for i, c := range columns {
		if _, dup := idx[c]; !dup {
			idx[c] = i
		}
	}
	var missing []string
	for _, c := range core.RequiredColumns {
		if _, ok := idx[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", core.ErrMissingColumn, strings.Join(missing, ", "))
	}
	return idx, nil
}

func (idx columnIndex) record(row []string) (core.Record, bool) {
	amount, err := core.ParseAmount(row[idx[core.ColNetAmount]])
	if err != nil {
		return core.Record{}, false
	}
	rec := core.Record{
		OrderCode:    row[idx[core.ColOrderCode]],
		Region:       row[idx[core.ColRegion]],
		Institution:  row[idx[core.ColInstitution]],
		Supplier:     row[idx[core.ColSupplier]],
		SupplierSize: row[idx[core.ColSupplierSize]],
		NetAmount:    amount,
		Currency:     row[idx[core.ColCurrency]],
		Fields:       row,
	}
	if q, err := core.ParseAmount(row[idx[core.ColQuantity]]); err == nil {
		rec.Quantity = q
		rec.HasQuantity = true
	}
	return rec, true
}
