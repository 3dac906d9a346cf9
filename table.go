package gotable

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Features are the capability flags of one table instance, fixed at
// construction.
type Features struct {
	Pagination bool
	Sorting    bool
	Search     bool
	Filters    bool
	Export     bool
	RowActions bool
}

// DefaultFeatures enables pagination, sorting and search.
func DefaultFeatures() Features {
	return Features{
		Pagination: true,
		Sorting:    true,
		Search:     true,
	}
}

// Config is everything needed to build one table instance.
type Config struct {
	// ID namespaces request parameters. Empty selects single-instance mode.
	ID string
	// Records is the caller-owned dataset. It is never modified.
	Records []Record
	// Columns is the schema in display order. Derived from the first record
	// when empty.
	Columns []string
	// Labels overrides derived column labels.
	Labels map[string]string
	// Searchable limits search to these columns. Empty means all columns.
	Searchable []string
	// Filterable lists columns accepting a column filter in filter mode.
	Filterable []string

	CellRenderers map[string]CellRenderer
	RowActions    map[string]RowActionProvider

	Features Features
	// PageSize rows per page, DefaultPageSize when zero.
	PageSize int
	// PrimaryColumn carries the row actions. First column when empty.
	PrimaryColumn string
	ActionMode    ActionMode
	// Encoder used by Export. CSV when zero.
	Encoder ExportEncoder

	Logger *slog.Logger
}

// Table is one engine instance. It is immutable once built and is meant to be
// constructed per request.
type Table struct {
	id       InstanceID
	records  []Record
	columns  ColumnModel
	features Features
	pageSize int
	renderer Renderer
	resolver Resolver
	encoder  ExportEncoder
	logger   *slog.Logger
}

// New builds a table instance from cfg.
func New(cfg Config) (*Table, error) {
	id := SanitizeID(cfg.ID)
	if cfg.ID != "" && id == "" {
		return nil, fmt.Errorf("cannot build table %q: %w", cfg.ID, ErrInvalidInstanceID)
	}

	if !cfg.ActionMode.Valid() {
		return nil, fmt.Errorf("cannot build table %q: invalid action mode %d", cfg.ID, cfg.ActionMode)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("table", string(id))

	columns := NewColumnModel(cfg.Columns, cfg.Records, cfg.Labels).
		WithSearchable(cfg.Searchable).
		WithFilterable(cfg.Filterable).
		WithSorting(cfg.Features.Sorting).
		WithPrimary(cfg.PrimaryColumn)

	pageSize := cfg.PageSize
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}

	return &Table{
		id:       id,
		records:  cfg.Records,
		columns:  columns,
		features: cfg.Features,
		pageSize: NormalizePageSize(pageSize),
		renderer: NewRenderer(
			cfg.CellRenderers,
			cfg.RowActions,
			columns.Primary(),
			cfg.Features.RowActions,
			cfg.ActionMode,
		),
		resolver: NewResolver(id, columns, cfg.Features, logger),
		encoder:  cfg.Encoder,
		logger:   logger,
	}, nil
}

func (t *Table) ID() InstanceID {
	return t.id
}

func (t *Table) Schema() []string {
	return t.columns.Schema()
}

func (t *Table) Columns() ColumnModel {
	return t.columns
}

func (t *Table) Features() Features {
	return t.features
}

func (t *Table) Resolver() Resolver {
	return t.resolver
}

func (t *Table) Renderer() Renderer {
	return t.renderer
}

func (t *Table) PageSize() int {
	return t.pageSize
}

// Len returns the number of raw records.
func (t *Table) Len() int {
	return len(t.records)
}

func (t *Table) options() PipelineOptions {
	return PipelineOptions{
		Columns:  t.columns,
		Features: t.features,
		PageSize: t.pageSize,
	}
}

// Matching returns the searched, filtered and sorted records before paging.
func (t *Table) Matching(params QueryParams) []Record {
	return Matching(t.records, params, t.options())
}

// Prepare runs the full pipeline for params.
func (t *Table) Prepare(params QueryParams) ResultPage {
	return Query(t.records, params, t.options())
}

// Facets returns the facet lists of the filterable columns over the raw data.
func (t *Table) Facets() map[string][]string {
	if !t.features.Filters {
		return nil
	}

	return t.columns.Facets(t.records)
}

// Export writes the matching records (all pages) with the configured encoder.
func (t *Table) Export(w io.Writer, params QueryParams) error {
	return t.encoder.Encode(w, t.Schema(), t.Matching(params))
}

// WriteExport streams the matching records as a timestamped file download.
func (t *Table) WriteExport(w http.ResponseWriter, now time.Time, params QueryParams) error {
	return t.encoder.WriteExport(w, now, t.Schema(), t.Matching(params))
}

// Values encodes params back into this instance's namespaced parameters.
func (t *Table) Values(params QueryParams) url.Values {
	names := t.resolver.Names()
	values := url.Values{}

	if params.Search != "" {
		values.Set(names.Search, params.Search)
	}
	if params.HasSort() {
		values.Set(names.OrderBy, params.OrderBy)
		values.Set(names.Order, string(params.Order))
	}
	if params.Page > FirstPage {
		values.Set(names.Page, strconv.Itoa(params.Page))
	}
	if params.HasFilter() {
		values.Set(ParamFilterColumn, params.FilterColumn)
		values.Set(ParamFilterValue, params.FilterValue)
	}

	return values
}
