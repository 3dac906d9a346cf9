package gotable

import (
	"slices"
	"strings"

	"github.com/samber/lo"
)

// PipelineOptions configures Query and Matching.
type PipelineOptions struct {
	Columns  ColumnModel
	Features Features
	// PageSize window size; normalized with NormalizePageSize.
	PageSize int
}

// Search keeps the records where any of columns holds term as a
// case-insensitive substring. Only scalar values take part in matching. Order
// is preserved. An empty term returns records unchanged.
func Search(records []Record, term string, columns []string) []Record {
	if term == "" {
		return records
	}

	needle := strings.ToLower(term)
	return lo.Filter(records, func(rec Record, _ int) bool {
		return lo.SomeBy(columns, func(column string) bool {
			v, ok := rec.Get(column)
			if !ok || !IsScalar(v) {
				return false
			}

			return strings.Contains(strings.ToLower(FormatValue(v)), needle)
		})
	})
}

// FilterByColumn keeps the records whose string form under column equals
// value exactly. Cells are compared in their SanitizeText form, the form a
// filter value has after resolving.
func FilterByColumn(records []Record, column string, value string) []Record {
	if column == "" || value == "" {
		return records
	}

	return lo.Filter(records, func(rec Record, _ int) bool {
		return SanitizeText(rec.String(column)) == value
	})
}

// SortRecords returns a sorted copy of records ordered by column. Numeric
// pairs compare as numbers, anything else as case-insensitive text; missing
// values compare as "". The input slice is left untouched.
func SortRecords(records []Record, column string, dir Direction) []Record {
	sorted := slices.Clone(records)
	if column == "" {
		return sorted
	}

	slices.SortStableFunc(sorted, func(a, b Record) int {
		return dir.Apply(compareValues(a[column], b[column]))
	})

	return sorted
}

// Paginate returns the window (page-1)*size .. page*size of records. Pages
// past the end yield an empty slice.
func Paginate(records []Record, page int, size int) []Record {
	if size <= 0 {
		return []Record{}
	}

	page = NormalizePage(page)
	// Compared before multiplying so huge page numbers cannot wrap around.
	if len(records) == 0 || page-1 > (len(records)-1)/size {
		return []Record{}
	}
	start := (page - 1) * size
	end := min(start+size, len(records))

	return records[start:end]
}

// Matching runs search, column filter and sort: the full result before
// paging. Export consumes this directly.
func Matching(records []Record, params QueryParams, opts PipelineOptions) []Record {
	data := records

	if opts.Features.Search && params.Search != "" {
		data = Search(data, params.Search, opts.Columns.SearchColumns())
	}

	if opts.Features.Filters && params.HasFilter() && opts.Columns.IsFilterable(params.FilterColumn) {
		data = FilterByColumn(data, params.FilterColumn, params.FilterValue)
	}

	if opts.Features.Sorting && params.HasSort() && opts.Columns.Has(params.OrderBy) {
		data = SortRecords(data, params.OrderBy, params.Order)
	}

	return data
}

// Query runs the whole pipeline and returns the requested page together with
// pagination metadata. Total is always the pre-pagination match count.
func Query(records []Record, params QueryParams, opts PipelineOptions) ResultPage {
	data := Matching(records, params, opts)
	total := len(data)
	page := NormalizePage(params.Page)

	if !opts.Features.Pagination {
		return ResultPage{
			Rows:       data,
			Total:      total,
			PageSize:   total,
			TotalPages: FirstPage,
			Page:       page,
		}
	}

	size := NormalizePageSize(opts.PageSize)

	return ResultPage{
		Rows:       Paginate(data, page, size),
		Total:      total,
		PageSize:   size,
		TotalPages: TotalPages(total, size),
		Page:       page,
	}
}
