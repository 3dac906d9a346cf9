package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alp4ka/gotable"
	"github.com/Alp4ka/gotable/auth"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	registry := gotable.NewRegistry()
	registry.MustRegister("people", gotable.StaticSource(gotable.Config{
		Records: []gotable.Record{
			{"name": "Ann", "city": "Oslo"},
			{"name": "Bob", "city": "Rome"},
		},
		Columns:  []string{"name", "city"},
		Features: gotable.Features{Pagination: true, Search: true, Export: true},
	}))

	cfg := &Config{
		Server: ServerConfig{Addr: ":0", Path: "/tables", Metrics: true},
		Auth:   AuthConfig{Secret: "secret", TokenTTL: time.Hour, Admins: []string{"alice"}},
	}

	server, err := NewServer(cfg, registry, newLogger("error", "text", io.Discard))
	require.NoError(t, err)

	return server
}

func Test_Server_Page(t *testing.T) {
	server := newTestServer(t)

	resp, err := server.app.Test(httptest.NewRequest(http.MethodGet, "/tables?people_s=ann", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `id="table-people"`)
	assert.Contains(t, string(body), "Ann")
	assert.NotContains(t, string(body), "Bob")
	assert.NotContains(t, string(body), "export_csv", "anonymous users get no export link")
}

func Test_Server_TokenAndFragment(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/token?action=table_fragment", nil)
	resp, err := server.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/api/token?action=table_fragment", nil)
	req.Header.Set(auth.HeaderUser, "alice")
	resp, err = server.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var issued struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&issued))
	require.NotEmpty(t, issued.Token)

	form := url.Values{
		gotable.ParamToken:    {issued.Token},
		gotable.ParamInstance: {"people"},
		gotable.ParamSearch:   {"bob"},
	}
	req = httptest.NewRequest(http.MethodPost, "/tables", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(auth.HeaderUser, "alice")

	resp, err = server.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload gotable.Response[gotable.Fragment]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.True(t, payload.Success)
	assert.Equal(t, 1, payload.Data.TotalItems)
	assert.Contains(t, payload.Data.HTML, "Bob")
}

func Test_Server_Metrics(t *testing.T) {
	server := newTestServer(t)

	_, err := server.app.Test(httptest.NewRequest(http.MethodGet, "/tables", nil))
	require.NoError(t, err)

	resp, err := server.app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `gotable_requests_total{instance="people",kind="page",status="200"} 1`)
}
