package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Alp4ka/gotable"
	"github.com/Alp4ka/gotable/source/gormsource"
)

// registerTables adds every configured table to registry. Database handles
// are shared between tables using the same driver and DSN.
func registerTables(registry *gotable.Registry, tables []TableConfig, logger *slog.Logger) error {
	dbs := make(map[string]*gorm.DB)

	for _, table := range tables {
		base := tableBase(table, logger)

		var source gotable.Source
		switch {
		case table.File != "":
			source = fileSource(table.File, base)
		default:
			key := table.Driver + "|" + table.DSN
			db, ok := dbs[key]
			if !ok {
				var err error
				db, err = openDB(table.Driver, table.DSN)
				if err != nil {
					return fmt.Errorf("cannot open database for table %q: %w", table.ID, err)
				}
				dbs[key] = db
			}

			loader, err := gormsource.NewLoader(db, gormsource.Config{
				Table:   lo.Ternary(table.Table == "", table.ID, table.Table),
				Columns: table.Columns,
				OrderBy: parseOrderBy(table.OrderBy),
				MaxRows: table.MaxRows,
			}, logger)
			if err != nil {
				return fmt.Errorf("cannot create loader for table %q: %w", table.ID, err)
			}
			source = loader.Source(base)
		}

		if err := registry.Register(table.ID, source); err != nil {
			return err
		}
		logger.Info("table registered", "table", table.ID)
	}

	return nil
}

func tableBase(table TableConfig, logger *slog.Logger) gotable.Config {
	return gotable.Config{
		Columns:       table.Columns,
		Labels:        table.Labels,
		Searchable:    table.Searchable,
		Filterable:    table.Filterable,
		PrimaryColumn: table.Primary,
		PageSize:      table.PageSize,
		Features: gotable.Features{
			Pagination: table.Features.Pagination,
			Sorting:    table.Features.Sorting,
			Search:     table.Features.Search,
			Filters:    table.Features.Filters,
			Export:     table.Features.Export,
			RowActions: table.Features.RowActions,
		},
		Logger: logger,
	}
}

// parseOrderBy reads entries of the form "column [asc|desc]".
func parseOrderBy(raw []string) gormsource.Orderings {
	return lo.FilterMap(raw, func(entry string, _ int) (gormsource.OrderBy, bool) {
		fields := strings.Fields(entry)
		if len(fields) == 0 {
			return gormsource.OrderBy{}, false
		}

		dir := gotable.DirectionASC
		if len(fields) > 1 {
			dir = gotable.ParseDirection(fields[1])
		}

		return gormsource.OrderBy{Column: fields[0], Direction: dir}, true
	})
}

func openDB(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	return gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
}

// fileSource reads the file on every request so edits show up without a
// restart.
func fileSource(path string, base gotable.Config) gotable.Source {
	return gotable.SourceFunc(func(_ context.Context, id string) (gotable.Config, error) {
		records, columns, err := readRecords(path)
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

func readRecords(path string) ([]gotable.Record, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot open %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		records, err := decodeJSONRecords(f)
		return records, nil, err
	case ".csv":
		return decodeCSVRecords(f)
	default:
		return nil, nil, fmt.Errorf("cannot read %s: unsupported file type", path)
	}
}

func decodeJSONRecords(r io.Reader) ([]gotable.Record, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var records []gotable.Record
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("cannot decode json records: %w", err)
	}

	return records, nil
}

// decodeCSVRecords keeps the header order as the column order.
func decodeCSVRecords(r io.Reader) ([]gotable.Record, []string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("cannot read csv header: %w", err)
	}

	var records []gotable.Record
	for {
		line, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("cannot read csv line: %w", err)
		}

		rec := make(gotable.Record, len(header))
		for i, column := range header {
			if i < len(line) {
				rec[column] = line[i]
			}
		}
		records = append(records, rec)
	}

	return records, header, nil
}
