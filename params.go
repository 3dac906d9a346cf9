package gotable

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"unicode"
)

// Base request parameter names. Search, order-by, order and page are
// namespaced per instance (see InstanceID.Param); the rest are shared by every
// table on the page.
const (
	ParamSearch       = "s"
	ParamOrderBy      = "orderby"
	ParamOrder        = "order"
	ParamPage         = "paged"
	ParamFilterColumn = "column_filter"
	ParamFilterValue  = "filter_value"
	ParamExport       = "export_csv"
	ParamToken        = "_token"
	ParamInstance     = "table_id"
)

// QueryParams is the validated query of a single request.
type QueryParams struct {
	Search       string
	OrderBy      string
	Order        Direction
	Page         int
	FilterColumn string
	FilterValue  string
}

// DefaultQueryParams is the safe query every invalid input degrades to: no
// search, no sort, first page, no filter.
func DefaultQueryParams() QueryParams {
	return QueryParams{Order: DirectionASC, Page: FirstPage}
}

func (p QueryParams) HasSort() bool {
	return p.OrderBy != ""
}

func (p QueryParams) HasFilter() bool {
	return p.FilterColumn != "" && p.FilterValue != ""
}

// ParamNames holds the namespaced parameter names of one instance.
type ParamNames struct {
	Search  string
	OrderBy string
	Order   string
	Page    string
}

func NamesFor(id InstanceID) ParamNames {
	return ParamNames{
		Search:  id.Param(ParamSearch),
		OrderBy: id.Param(ParamOrderBy),
		Order:   id.Param(ParamOrder),
		Page:    id.Param(ParamPage),
	}
}

// Resolver turns transport input into QueryParams for one instance. It is the
// only component reading request parameters; it never fails and degrades any
// invalid input to the defaults.
type Resolver struct {
	id       InstanceID
	names    ParamNames
	columns  ColumnModel
	features Features
	logger   *slog.Logger
}

func NewResolver(id InstanceID, columns ColumnModel, features Features, logger *slog.Logger) Resolver {
	if logger == nil {
		logger = slog.Default()
	}

	return Resolver{
		id:       id,
		names:    NamesFor(id),
		columns:  columns,
		features: features,
		logger:   logger,
	}
}

func (r Resolver) Names() ParamNames {
	return r.names
}

// FromRequest resolves parameters from the query string and, for form posts,
// the request body.
func (r Resolver) FromRequest(req *http.Request) QueryParams {
	if req == nil {
		return DefaultQueryParams()
	}
	if err := req.ParseForm(); err != nil {
		r.logger.Debug("cannot parse request form, using query string", "instance", r.id, "error", err)
		return r.FromValues(req.URL.Query())
	}

	return r.FromValues(req.Form)
}

// FromValues resolves namespaced parameters from transport values.
func (r Resolver) FromValues(values url.Values) QueryParams {
	return r.resolve(
		values.Get(r.names.Search),
		values.Get(r.names.OrderBy),
		values.Get(r.names.Order),
		values.Get(r.names.Page),
		values.Get(ParamFilterColumn),
		values.Get(ParamFilterValue),
	)
}

// FromOverrides resolves an explicit override map keyed by the unnamespaced
// base names (s, orderby, order, paged, column_filter, filter_value).
func (r Resolver) FromOverrides(overrides map[string]string) QueryParams {
	return r.resolve(
		overrides[ParamSearch],
		overrides[ParamOrderBy],
		overrides[ParamOrder],
		overrides[ParamPage],
		overrides[ParamFilterColumn],
		overrides[ParamFilterValue],
	)
}

func (r Resolver) resolve(search, orderBy, order, page, filterColumn, filterValue string) QueryParams {
	params := DefaultQueryParams()

	if r.features.Search {
		params.Search = SanitizeText(search)
	}

	orderBy = SanitizeText(orderBy)
	if orderBy != "" {
		if r.columns.IsSortable(orderBy) {
			params.OrderBy = orderBy
		} else {
			r.logger.Debug("ignoring sort column",
				"instance", r.id,
				"column", orderBy,
				"closest", closestColumn(orderBy, r.columns.Schema()),
			)
		}
	}

	params.Order = ParseDirection(order)
	params.Page = ParsePage(page)

	filterColumn = SanitizeText(filterColumn)
	if r.features.Filters && r.columns.IsFilterable(filterColumn) {
		params.FilterColumn = filterColumn
		params.FilterValue = SanitizeText(filterValue)
		if params.FilterValue == "" {
			params.FilterColumn = ""
		}
	}

	return params
}

// SanitizeText reduces raw input to a single line of plain text: invalid UTF-8
// and markup tags are removed, control characters and whitespace runs become
// one space, and the result is trimmed.
func SanitizeText(raw string) string {
	if raw == "" {
		return ""
	}

	raw = strings.ToValidUTF8(raw, "")

	var b strings.Builder
	b.Grow(len(raw))

	runes := []rune(raw)
	inTag := false
	pendingSpace := false
	for i, r := range runes {
		switch {
		case inTag:
			if r == '>' {
				inTag = false
			}
			continue
		case r == '<' && i+1 < len(runes) && opensTag(runes[i+1]):
			inTag = true
			continue
		case unicode.IsSpace(r) || unicode.IsControl(r):
			pendingSpace = b.Len() > 0
			continue
		}

		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
		}
		b.WriteRune(r)
	}

	return b.String()
}

func opensTag(next rune) bool {
	return unicode.IsLetter(next) || next == '/' || next == '!' || next == '?'
}
