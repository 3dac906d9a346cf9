// Package gormsource loads table records from a SQL database through gorm.
//
// Rows are read in keyset order, batch after batch, so large tables are
// never fetched with a growing OFFSET.
package gormsource

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/Alp4ka/gotable"
)

const (
	DefaultBatchSize = 500
	MaxBatchSize     = 10_000
)

// Config describes what a Loader reads.
type Config struct {
	// Table is the table or view name.
	Table string
	// Columns selects these columns in this order. Every column when empty.
	Columns []string
	// OrderBy is the keyset order; the last column must be unique. Defaults to
	// "id" ascending.
	OrderBy Orderings
	// BatchSize rows per query, DefaultBatchSize when zero.
	BatchSize int
	// MaxRows stops loading after this many rows. Zero means no limit.
	MaxRows int
	// Scopes narrow the query, e.g. with Where conditions.
	Scopes []func(*gorm.DB) *gorm.DB
}

// Batch is one keyset page of rows.
type Batch struct {
	Records []gotable.Record
	// Columns in the order the database returned them.
	Columns []string
	// Next is the position after the batch, nil on the last one.
	Next *Cursor
}

// Loader reads records from one table.
type Loader struct {
	db     *gorm.DB
	cfg    Config
	logger *slog.Logger
}

func NewLoader(db *gorm.DB, cfg Config, logger *slog.Logger) (*Loader, error) {
	if db == nil {
		return nil, fmt.Errorf("cannot create loader: nil db")
	}
	if !validIdentifier(cfg.Table) {
		return nil, fmt.Errorf("cannot create loader: invalid table name '%s'", cfg.Table)
	}
	if bad, ok := lo.Find(cfg.Columns, func(c string) bool { return !validIdentifier(c) }); ok {
		return nil, fmt.Errorf("cannot create loader: invalid column name '%s'", bad)
	}

	if len(cfg.OrderBy) == 0 {
		cfg.OrderBy = Orderings{{Column: "id", Direction: gotable.DirectionASC}}
	}
	if err := cfg.OrderBy.validate(); err != nil {
		return nil, fmt.Errorf("cannot create loader: %w", err)
	}

	cfg.BatchSize = gotable.NormalizePageSizeMax(lo.Ternary(cfg.BatchSize == 0, DefaultBatchSize, cfg.BatchSize), MaxBatchSize)
	cfg.MaxRows = max(0, cfg.MaxRows)

	if logger == nil {
		logger = slog.Default()
	}

	return &Loader{
		db:     db,
		cfg:    cfg,
		logger: logger.With("source", cfg.Table),
	}, nil
}

// Page reads the batch following cursor, the first batch for a nil cursor.
func (l *Loader) Page(ctx context.Context, cursor *Cursor) (Batch, error) {
	return l.page(ctx, cursor, l.cfg.BatchSize)
}

func (l *Loader) page(ctx context.Context, cursor *Cursor, limit int) (Batch, error) {
	if err := cursor.validate(l.cfg.OrderBy); err != nil {
		return Batch{}, fmt.Errorf("cannot read batch: %w", err)
	}

	query := l.db.WithContext(ctx).Table(l.cfg.Table)
	if len(l.cfg.Columns) > 0 {
		query = query.Select(l.cfg.Columns)
	} else {
		query = query.Select("*")
	}
	query = query.Scopes(l.cfg.Scopes...)
	query = l.cfg.OrderBy.Apply(query)
	query = cursor.Apply(query)

	// One extra row tells whether another batch follows.
	rows, err := query.Limit(limit + 1).Rows()
	if err != nil {
		return Batch{}, fmt.Errorf("cannot query %s: %w", l.cfg.Table, err)
	}
	defer rows.Close()

	columns, records, err := scanRecords(rows)
	if err != nil {
		return Batch{}, fmt.Errorf("cannot scan %s: %w", l.cfg.Table, err)
	}

	batch := Batch{Records: records, Columns: columns}
	if len(records) <= limit {
		return batch, nil
	}

	batch.Records = records[:limit]
	batch.Next, err = nextCursor(l.cfg.OrderBy, lo.LastOrEmpty(batch.Records))
	if err != nil {
		return Batch{}, err
	}

	return batch, nil
}

// Load reads every row, up to MaxRows, and returns the records together with
// the column order reported by the database.
func (l *Loader) Load(ctx context.Context) ([]gotable.Record, []string, error) {
	var (
		records []gotable.Record
		columns []string
		cursor  *Cursor
	)

	for {
		limit := l.cfg.BatchSize
		if l.cfg.MaxRows > 0 {
			limit = min(limit, l.cfg.MaxRows-len(records))
		}

		batch, err := l.page(ctx, cursor, limit)
		if err != nil {
			return nil, nil, err
		}

		l.logger.Debug("batch loaded", "rows", len(batch.Records), "cursor", cursor.String())

		records = append(records, batch.Records...)
		if columns == nil {
			columns = batch.Columns
		}

		if batch.Next == nil || (l.cfg.MaxRows > 0 && len(records) >= l.cfg.MaxRows) {
			return records, columns, nil
		}
		cursor = batch.Next
	}
}

// Source adapts the loader to gotable.Source. Records and, when base has
// none, columns come from the database; everything else comes from base.
func (l *Loader) Source(base gotable.Config) gotable.Source {
	return gotable.SourceFunc(func(ctx context.Context, id string) (gotable.Config, error) {
		records, columns, err := l.Load(ctx)
		if err != nil {
			return gotable.Config{}, err
		}

		cfg := base
		cfg.ID = id
		cfg.Records = records
		if len(cfg.Columns) == 0 {
			cfg.Columns = columns
		}

		return cfg, nil
	})
}

func scanRecords(rows *sql.Rows) ([]string, []gotable.Record, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var records []gotable.Record
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := lo.Map(values, func(_ any, i int) any { return &values[i] })
		if err := rows.Scan(pointers...); err != nil {
			return nil, nil, err
		}

		rec := make(gotable.Record, len(columns))
		for i, column := range columns {
			if b, ok := values[i].([]byte); ok {
				rec[column] = string(b)
				continue
			}
			rec[column] = values[i]
		}
		records = append(records, rec)
	}

	return columns, records, rows.Err()
}
