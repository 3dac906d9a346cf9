package gotable

import (
	"slices"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/samber/lo"
)

// Header describes one rendered column header.
type Header struct {
	ID       string
	Label    string
	Sortable bool
	Primary  bool
}

// ColumnModel is the schema of one table instance: which columns exist, in
// which order, and what may be searched, sorted and filtered.
type ColumnModel struct {
	schema     []string
	labels     map[string]string
	searchable []string
	filterable []string
	sorting    bool
	primary    string
}

// NewColumnModel builds the column model. When columns is empty the schema is
// derived from the keys of the first record, sorted ascending since records
// carry no key order. Duplicate columns keep their first occurrence.
func NewColumnModel(columns []string, records []Record, labels map[string]string) ColumnModel {
	schema := lo.Uniq(lo.Compact(columns))
	if len(schema) == 0 && len(records) > 0 {
		schema = lo.Keys(map[string]any(records[0]))
		sort.Strings(schema)
	}

	return ColumnModel{
		schema: schema,
		labels: labels,
	}
}

// WithSearchable restricts search to columns. An empty list means every
// schema column is searched.
func (m ColumnModel) WithSearchable(columns []string) ColumnModel {
	m.searchable = lo.Uniq(lo.Compact(columns))
	return m
}

// WithFilterable sets the columns that accept a column filter. Columns that
// are not part of the schema are ignored.
func (m ColumnModel) WithFilterable(columns []string) ColumnModel {
	m.filterable = lo.Filter(lo.Uniq(columns), func(c string, _ int) bool {
		return slices.Contains(m.schema, c)
	})
	return m
}

// WithSorting toggles sortability of the schema.
func (m ColumnModel) WithSorting(enabled bool) ColumnModel {
	m.sorting = enabled
	return m
}

// WithPrimary selects the column that carries row actions. Unknown columns
// fall back to the first schema column.
func (m ColumnModel) WithPrimary(column string) ColumnModel {
	m.primary = column
	return m
}

// Schema returns the canonical column order.
func (m ColumnModel) Schema() []string {
	return slices.Clone(m.schema)
}

func (m ColumnModel) Has(column string) bool {
	return slices.Contains(m.schema, column)
}

// Primary returns the primary column name, "id" when the schema is empty.
func (m ColumnModel) Primary() string {
	if m.primary != "" && m.Has(m.primary) {
		return m.primary
	}
	if len(m.schema) == 0 {
		return "id"
	}

	return m.schema[0]
}

// Label returns the display label of column: the caller supplied one, or the
// identifier with underscores replaced by spaces and the first letter
// upper-cased.
func (m ColumnModel) Label(column string) string {
	if label, ok := m.labels[column]; ok && label != "" {
		return label
	}

	return deriveLabel(column)
}

func deriveLabel(column string) string {
	label := strings.ReplaceAll(column, "_", " ")
	r, size := utf8.DecodeRuneInString(label)
	if r == utf8.RuneError {
		return label
	}

	return string(unicode.ToUpper(r)) + label[size:]
}

// Headers returns the rendered header of every schema column, in order.
func (m ColumnModel) Headers() []Header {
	primary := m.Primary()
	return lo.Map(m.schema, func(column string, _ int) Header {
		return Header{
			ID:       column,
			Label:    m.Label(column),
			Sortable: m.sorting,
			Primary:  column == primary,
		}
	})
}

// SortableColumns returns every schema column when sorting is enabled.
func (m ColumnModel) SortableColumns() []string {
	if !m.sorting {
		return nil
	}

	return m.Schema()
}

func (m ColumnModel) IsSortable(column string) bool {
	return m.sorting && m.Has(column)
}

// SearchColumns returns the explicit searchable set, or the schema if unset.
func (m ColumnModel) SearchColumns() []string {
	if len(m.searchable) > 0 {
		return slices.Clone(m.searchable)
	}

	return m.Schema()
}

func (m ColumnModel) FilterableColumns() []string {
	return slices.Clone(m.filterable)
}

func (m ColumnModel) IsFilterable(column string) bool {
	return column != "" && slices.Contains(m.filterable, column)
}

// Facet returns the distinct non-empty values observed for column across
// records, sorted ascending. Values are reported in their SanitizeText form so
// each one round-trips through a filter request. Non-scalar values are
// skipped.
func Facet(records []Record, column string) []string {
	seen := make(map[string]struct{})
	for _, rec := range records {
		v, ok := rec.Get(column)
		if !ok || !IsScalar(v) {
			continue
		}
		if s := SanitizeText(FormatValue(v)); s != "" {
			seen[s] = struct{}{}
		}
	}

	values := lo.Keys(seen)
	sort.Strings(values)

	return values
}

// Facets returns the facet list of every filterable column.
func (m ColumnModel) Facets(records []Record) map[string][]string {
	return lo.SliceToMap(m.filterable, func(column string) (string, []string) {
		return column, Facet(records, column)
	})
}
