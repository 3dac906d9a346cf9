package gotable

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/url"
	"slices"
	"strconv"

	"github.com/samber/lo"
)

//go:embed templates/*.html
var templatesFS embed.FS

var _templates = template.Must(template.New("gotable").ParseFS(templatesFS, "templates/*.html"))

type pageView struct {
	DOMID         string
	Names         ParamNames
	Headers       []headerView
	Rows          []rowView
	ColumnCount   int
	SearchEnabled bool
	Search        string
	SearchInputID string
	Hidden        []hiddenField
	ExportURL     string
	Facets        []facetView
	TopNav        navView
	BottomNav     navView
}

type headerView struct {
	Header
	URL    string
	Sorted bool
	Order  Direction
}

type rowView struct {
	Cells []cellView
}

type cellView struct {
	Column  string
	Label   string
	Primary bool
	Content template.HTML
	Actions template.HTML
}

type hiddenField struct {
	Name  string
	Value string
}

type facetView struct {
	Column     string
	Label      string
	AllURL     string
	AllCurrent bool
	Values     []facetValueView
}

type facetValueView struct {
	Label   string
	URL     string
	Current bool
}

type navView struct {
	Position   string
	ItemsLabel string
	Paginated  bool
	Multiple   bool
	Page       int
	TotalPages int
	HasPrev    bool
	HasNext    bool
	FirstURL   string
	PrevURL    string
	NextURL    string
	LastURL    string
}

// RenderPage writes the full table for the request values: export link,
// facet controls, search box, headers with sort links, rows and pagination.
// The export link is shown only when export is enabled and exportToken is set.
func (t *Table) RenderPage(w io.Writer, values url.Values, exportToken string) error {
	params := t.resolver.FromValues(values)
	result := t.Prepare(params)

	view := t.pageView(params, result, values)
	view.Hidden = t.hiddenFields(params, values)
	view.ExportURL = t.exportURL(values, exportToken)
	view.Facets = t.facetViews(params, values)

	return execute(w, "page", view)
}

// RenderBody writes only the navigation and row markup used to refresh a
// table in place. Navigation links extend values with the namespaced form of
// params; values may be nil.
func (t *Table) RenderBody(w io.Writer, params QueryParams, values url.Values) error {
	return t.renderBody(w, params, t.Prepare(params), values)
}

func (t *Table) renderBody(w io.Writer, params QueryParams, result ResultPage, values url.Values) error {
	merged := url.Values{}
	for key, vals := range values {
		merged[key] = slices.Clone(vals)
	}
	for key, vals := range t.Values(params) {
		merged[key] = vals
	}

	return execute(w, "fragment", t.pageView(params, result, merged))
}

func execute(w io.Writer, name string, view pageView) error {
	var buf bytes.Buffer
	if err := _templates.ExecuteTemplate(&buf, name, view); err != nil {
		return fmt.Errorf("cannot render %s: %w", name, err)
	}

	_, err := buf.WriteTo(w)
	return err
}

func (t *Table) domID() string {
	return lo.Ternary(t.id.IsSingle(), "default", string(t.id))
}

func (t *Table) pageView(params QueryParams, result ResultPage, values url.Values) pageView {
	names := t.resolver.Names()
	headers := t.columns.Headers()

	return pageView{
		DOMID:         t.domID(),
		Names:         names,
		Headers:       t.headerViews(headers, params, values),
		Rows:          t.rowViews(headers, result.Rows),
		ColumnCount:   max(1, len(headers)),
		SearchEnabled: t.features.Search,
		Search:        params.Search,
		SearchInputID: t.id.Param("search"),
		TopNav:        t.navView("top", result, values),
		BottomNav:     t.navView("bottom", result, values),
	}
}

func (t *Table) headerViews(headers []Header, params QueryParams, values url.Values) []headerView {
	names := t.resolver.Names()

	return lo.Map(headers, func(h Header, _ int) headerView {
		view := headerView{Header: h}
		if !h.Sortable {
			return view
		}

		view.Sorted = params.OrderBy == h.ID
		view.Order = params.Order

		next := DirectionASC
		if view.Sorted {
			next = params.Order.Toggle()
		}
		view.URL = link(values, map[string]string{
			names.OrderBy: h.ID,
			names.Order:   string(next),
		}, names.Page)

		return view
	})
}

func (t *Table) rowViews(headers []Header, rows []Record) []rowView {
	return lo.Map(rows, func(rec Record, _ int) rowView {
		return rowView{
			Cells: lo.Map(headers, func(h Header, _ int) cellView {
				return cellView{
					Column:  h.ID,
					Label:   h.Label,
					Primary: h.Primary,
					Content: t.renderer.Cell(rec, h.ID),
					Actions: t.renderer.ActionList(rec, h.ID),
				}
			}),
		}
	})
}

func (t *Table) navView(position string, result ResultPage, values url.Values) navView {
	pageParam := t.resolver.Names().Page
	pageLink := func(page int) string {
		return link(values, map[string]string{pageParam: strconv.Itoa(page)})
	}

	return navView{
		Position:   position,
		ItemsLabel: itemsLabel(result.Total),
		Paginated:  t.features.Pagination,
		Multiple:   result.TotalPages > 1,
		Page:       result.Page,
		TotalPages: result.TotalPages,
		HasPrev:    result.HasPrev(),
		HasNext:    result.HasNext(),
		FirstURL:   pageLink(FirstPage),
		PrevURL:    pageLink(result.PrevPage()),
		NextURL:    pageLink(result.NextPage()),
		LastURL:    pageLink(result.LastPage()),
	}
}

func itemsLabel(total int) string {
	return lo.Ternary(total == 1, "1 item", strconv.Itoa(total)+" items")
}

// hiddenFields keeps the current sort and page, plus every parameter that
// belongs to other tables on the page, inside the search form.
func (t *Table) hiddenFields(params QueryParams, values url.Values) []hiddenField {
	names := t.resolver.Names()
	owned := []string{names.Search, names.OrderBy, names.Order, names.Page, ParamExport, ParamToken, ParamInstance}

	var fields []hiddenField
	keys := lo.Keys(values)
	slices.Sort(keys)
	for _, key := range keys {
		if slices.Contains(owned, key) {
			continue
		}
		for _, value := range values[key] {
			fields = append(fields, hiddenField{Name: key, Value: value})
		}
	}

	if params.HasSort() {
		fields = append(fields,
			hiddenField{Name: names.OrderBy, Value: params.OrderBy},
			hiddenField{Name: names.Order, Value: string(params.Order)},
		)
	}
	if params.Page > FirstPage {
		fields = append(fields, hiddenField{Name: names.Page, Value: strconv.Itoa(params.Page)})
	}

	return fields
}

func (t *Table) exportURL(values url.Values, token string) string {
	if !t.features.Export || token == "" {
		return ""
	}

	set := map[string]string{
		ParamExport: "1",
		ParamToken:  token,
	}
	if !t.id.IsSingle() {
		set[ParamInstance] = string(t.id)
	}

	return link(values, set, t.resolver.Names().Page)
}

func (t *Table) facetViews(params QueryParams, values url.Values) []facetView {
	facets := t.Facets()
	if len(facets) == 0 {
		return nil
	}

	pageParam := t.resolver.Names().Page

	return lo.FilterMap(t.columns.FilterableColumns(), func(column string, _ int) (facetView, bool) {
		options, ok := facets[column]
		if !ok {
			return facetView{}, false
		}

		active := params.FilterColumn == column
		return facetView{
			Column:     column,
			Label:      t.columns.Label(column),
			AllURL:     link(values, nil, ParamFilterColumn, ParamFilterValue, pageParam),
			AllCurrent: !params.HasFilter(),
			Values: lo.Map(options, func(option string, _ int) facetValueView {
				return facetValueView{
					Label: option,
					URL: link(values, map[string]string{
						ParamFilterColumn: column,
						ParamFilterValue:  option,
					}, pageParam),
					Current: active && params.FilterValue == option,
				}
			}),
		}, true
	})
}

// link returns a relative query URL: base with set applied and drop removed.
// Export parameters never leak into navigation links.
func link(base url.Values, set map[string]string, drop ...string) string {
	values := url.Values{}
	for key, vals := range base {
		values[key] = slices.Clone(vals)
	}

	values.Del(ParamExport)
	values.Del(ParamToken)
	for _, key := range drop {
		values.Del(key)
	}
	for key, value := range set {
		values.Set(key, value)
	}

	return "?" + values.Encode()
}
