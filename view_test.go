package gotable

import (
	"bytes"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderPage(t *testing.T, table *Table, values url.Values, token string) string {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, table.RenderPage(&buf, values, token))

	return buf.String()
}

func Test_Table_RenderPage(t *testing.T) {
	table := newPeopleTable(t, "people", allFeatures())

	html := renderPage(t, table, url.Values{"people_paged": {"2"}, "other_s": {"x"}}, "tok")

	assert.Contains(t, html, `id="table-people"`)
	assert.Contains(t, html, `name="people_s"`)
	assert.Contains(t, html, "person 21")
	assert.NotContains(t, html, "person 01")
	assert.Contains(t, html, "45 items")
	assert.Contains(t, html, `2 of <span class="total-pages">3</span>`)
	assert.Contains(t, html, `class="first-page button"`)
	assert.Contains(t, html, `class="next-page button"`)

	t.Run("export link", func(t *testing.T) {
		assert.Contains(t, html, "Export to CSV")
		assert.Contains(t, html, "export_csv=1")
		assert.Contains(t, html, "_token=tok")
		assert.Contains(t, html, "table_id=people")
	})

	t.Run("hidden fields keep other tables and page", func(t *testing.T) {
		assert.Contains(t, html, `<input type="hidden" name="other_s" value="x" />`)
		assert.Contains(t, html, `<input type="hidden" name="people_paged" value="2" />`)
	})

	t.Run("facets", func(t *testing.T) {
		assert.Contains(t, html, "facet-city")
		assert.Contains(t, html, ">Lima</a>")
		assert.Contains(t, html, "column_filter=city")
	})

	t.Run("sort links", func(t *testing.T) {
		assert.Contains(t, html, "people_orderby=name")
		assert.Contains(t, html, "sortable desc")
	})
}

func Test_Table_RenderPage_NoToken(t *testing.T) {
	table := newPeopleTable(t, "people", allFeatures())

	html := renderPage(t, table, url.Values{}, "")

	assert.NotContains(t, html, "export_csv")
	assert.NotContains(t, html, "Export to CSV")
}

func Test_Table_RenderPage_Sorted(t *testing.T) {
	table := newPeopleTable(t, "people", allFeatures())

	html := renderPage(t, table, url.Values{"people_orderby": {"id"}, "people_order": {"desc"}}, "")

	assert.Contains(t, html, "sorted desc")
	assert.Contains(t, html, `<input type="hidden" name="people_orderby" value="id" />`)
	assert.Contains(t, html, `<input type="hidden" name="people_order" value="desc" />`)
	assert.Less(t, strings.Index(html, "person 45"), strings.Index(html, "person 44"))
}

func Test_Table_RenderPage_Single(t *testing.T) {
	table := newPeopleTable(t, "", DefaultFeatures())

	html := renderPage(t, table, url.Values{"s": {"person 07"}}, "tok")

	assert.Contains(t, html, `id="table-default"`)
	assert.Contains(t, html, `name="s"`)
	assert.Contains(t, html, "1 item<")
	assert.NotContains(t, html, "Export to CSV", "export disabled")
	assert.NotContains(t, html, "facet-", "filters disabled")
}

func Test_Table_RenderPage_Isolation(t *testing.T) {
	alpha := newPeopleTable(t, "alpha", allFeatures())
	beta := newPeopleTable(t, "beta", allFeatures())
	values := url.Values{"alpha_s": {"person 01"}}

	assert.Contains(t, renderPage(t, alpha, values, ""), "1 item<")
	assert.Contains(t, renderPage(t, beta, values, ""), "45 items")
}

func Test_Table_RenderBody(t *testing.T) {
	table := newPeopleTable(t, "people", allFeatures())

	t.Run("last page", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, table.RenderBody(&buf, QueryParams{Order: DirectionASC, Page: 3}, nil))
		html := buf.String()

		assert.Contains(t, html, "person 45")
		assert.NotContains(t, html, "person 20")
		assert.NotContains(t, html, "<form")
		assert.NotContains(t, html, "<thead>")
		assert.Contains(t, html, `class="tablenav top"`)
		assert.Contains(t, html, `class="tablenav bottom"`)
		assert.Contains(t, html, "people_paged=2")
	})

	t.Run("no rows", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, table.RenderBody(&buf, QueryParams{Search: "nobody", Order: DirectionASC, Page: 1}, nil))
		html := buf.String()

		assert.Contains(t, html, "No items found.")
		assert.Contains(t, html, `colspan="3"`)
		assert.Contains(t, html, "0 items")
	})
}

func Test_itemsLabel(t *testing.T) {
	assert.Equal(t, "0 items", itemsLabel(0))
	assert.Equal(t, "1 item", itemsLabel(1))
	assert.Equal(t, "45 items", itemsLabel(45))
}

func Test_link(t *testing.T) {
	base := url.Values{"a": {"1"}, ParamExport: {"1"}, ParamToken: {"x"}, "paged": {"3"}}

	assert.Equal(t, "?a=1&b=2", link(base, map[string]string{"b": "2"}, "paged"))
	assert.Equal(t, "?a=1&paged=3", link(base, nil))
	assert.Equal(t, "1", base.Get(ParamExport), "base untouched")
}
