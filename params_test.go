package gotable

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

var _discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestResolver(id InstanceID, features Features) Resolver {
	columns := NewColumnModel([]string{"name", "city", "age"}, nil, nil).
		WithSorting(features.Sorting).
		WithFilterable([]string{"city"})

	return NewResolver(id, columns, features, _discardLogger)
}

func Test_Resolver_FromValues(t *testing.T) {
	all := Features{Pagination: true, Sorting: true, Search: true, Filters: true}

	tests := []struct {
		name     string
		features Features
		values   url.Values
		want     QueryParams
	}{
		{
			name:     "empty -> defaults",
			features: all,
			values:   url.Values{},
			want:     DefaultQueryParams(),
		},
		{
			name:     "everything valid",
			features: all,
			values: url.Values{
				"s":             {"  ann  "},
				"orderby":       {"age"},
				"order":         {"DESC"},
				"paged":         {"3"},
				"column_filter": {"city"},
				"filter_value":  {"Oslo"},
			},
			want: QueryParams{Search: "ann", OrderBy: "age", Order: DirectionDESC, Page: 3, FilterColumn: "city", FilterValue: "Oslo"},
		},
		{
			name:     "unknown sort column dropped",
			features: all,
			values:   url.Values{"orderby": {"password"}, "order": {"desc"}},
			want:     QueryParams{Order: DirectionDESC, Page: FirstPage},
		},
		{
			name:     "sorting disabled drops sort column",
			features: Features{Search: true},
			values:   url.Values{"orderby": {"age"}},
			want:     DefaultQueryParams(),
		},
		{
			name:     "search disabled drops search",
			features: Features{Sorting: true},
			values:   url.Values{"s": {"ann"}},
			want:     DefaultQueryParams(),
		},
		{
			name:     "garbage order and page",
			features: all,
			values:   url.Values{"order": {"sideways"}, "paged": {"-4"}},
			want:     DefaultQueryParams(),
		},
		{
			name:     "filter on non filterable column ignored",
			features: all,
			values:   url.Values{"column_filter": {"name"}, "filter_value": {"Ann"}},
			want:     DefaultQueryParams(),
		},
		{
			name:     "filter without value ignored",
			features: all,
			values:   url.Values{"column_filter": {"city"}, "filter_value": {"  "}},
			want:     DefaultQueryParams(),
		},
		{
			name:     "filters disabled",
			features: Features{Search: true},
			values:   url.Values{"column_filter": {"city"}, "filter_value": {"Oslo"}},
			want:     DefaultQueryParams(),
		},
		{
			name:     "markup stripped from search",
			features: all,
			values:   url.Values{"s": {"<script>alert(1)</script>smith"}},
			want:     QueryParams{Search: "alert(1)smith", Order: DirectionASC, Page: FirstPage},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newTestResolver("", tt.features).FromValues(tt.values)
			assert.Equal(t, tt.want, got)
		})
	}
}

func Test_Resolver_Namespaced(t *testing.T) {
	features := Features{Sorting: true, Search: true, Pagination: true}
	values := url.Values{
		"alpha_s":       {"ann"},
		"alpha_paged":   {"2"},
		"beta_orderby":  {"city"},
		"beta_order":    {"desc"},
		"s":             {"ignored"},
		"alpha_orderby": {"nope"},
	}

	alpha := newTestResolver("alpha", features).FromValues(values)
	beta := newTestResolver("beta", features).FromValues(values)

	assert.Equal(t, QueryParams{Search: "ann", Order: DirectionASC, Page: 2}, alpha)
	assert.Equal(t, QueryParams{OrderBy: "city", Order: DirectionDESC, Page: FirstPage}, beta)
}

func Test_Resolver_FromRequest(t *testing.T) {
	features := Features{Sorting: true, Search: true, Pagination: true}
	resolver := newTestResolver("people", features)

	t.Run("query string", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/?people_s=bob&people_paged=4", nil)

		assert.Equal(t, QueryParams{Search: "bob", Order: DirectionASC, Page: 4}, resolver.FromRequest(req))
	})

	t.Run("form post", func(t *testing.T) {
		body := url.Values{"people_orderby": {"name"}, "people_order": {"desc"}}.Encode()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		assert.Equal(t, QueryParams{OrderBy: "name", Order: DirectionDESC, Page: FirstPage}, resolver.FromRequest(req))
	})

	t.Run("nil request", func(t *testing.T) {
		assert.Equal(t, DefaultQueryParams(), resolver.FromRequest(nil))
	})
}

func Test_Resolver_FromOverrides(t *testing.T) {
	features := Features{Sorting: true, Search: true, Pagination: true}
	resolver := newTestResolver("people", features)

	got := resolver.FromOverrides(map[string]string{
		"s":              "ann",
		"orderby":        "age",
		"paged":          "2",
		"people_orderby": "city",
	})

	assert.Equal(t, QueryParams{Search: "ann", OrderBy: "age", Order: DirectionASC, Page: 2}, got)
}

func Test_SanitizeText(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"empty", "", ""},
		{"plain", "hello", "hello"},
		{"trimmed", "  hello  ", "hello"},
		{"inner whitespace collapsed", "a \t\n b", "a b"},
		{"tags removed", "<b>bold</b> text", "bold text"},
		{"comment removed", "a<!-- x -->b", "ab"},
		{"bare less-than kept", "1 < 2", "1 < 2"},
		{"control chars", "a\x00b", "a b"},
		{"invalid utf8 dropped", "\xffabc", "abc"},
		{"ampersand kept", "Smith & Co", "Smith & Co"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeText(tt.raw))
		})
	}
}

func Test_QueryParams(t *testing.T) {
	assert.False(t, DefaultQueryParams().HasSort())
	assert.False(t, DefaultQueryParams().HasFilter())
	assert.True(t, QueryParams{OrderBy: "name"}.HasSort())
	assert.False(t, QueryParams{FilterColumn: "city"}.HasFilter())
	assert.True(t, QueryParams{FilterColumn: "city", FilterValue: "Oslo"}.HasFilter())
}
