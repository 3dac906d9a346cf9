package gotable

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Token actions and the permission checked by Dispatcher unless overridden.
const (
	ActionExport     = "export_csv"
	ActionFragment   = "table_fragment"
	PermissionManage = "manage_options"
)

// Request kinds reported to Observer.
const (
	KindPage     = "page"
	KindFragment = "fragment"
	KindExport   = "export"
)

// Authorizer verifies anti-replay tokens and requester permissions.
type Authorizer interface {
	VerifyToken(ctx context.Context, token, action string) bool
	Can(r *http.Request, permission string) bool
}

// TokenIssuer issues tokens embedded in rendered pages, such as the export
// link.
type TokenIssuer interface {
	IssueToken(r *http.Request, action string) (string, error)
}

// Observer is notified once per handled table request.
type Observer interface {
	ObserveRequest(instance, kind string, status int, elapsed time.Duration)
}

// Dispatcher routes table requests: POST renders a fragment as JSON, GET with
// the export flag streams a file, any other GET renders full pages. A nil
// Auth refuses every token.
type Dispatcher struct {
	Registry *Registry
	Auth     Authorizer
	Tokens   TokenIssuer
	Observer Observer
	Logger   *slog.Logger
	Now      func() time.Time

	ExportAction   string
	FragmentAction string
	Permission     string
}

var _ http.Handler = (*Dispatcher)(nil)

func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		d.serveFragment(w, r)
	case http.MethodGet, http.MethodHead:
		if r.URL.Query().Get(ParamExport) != "" {
			d.serveExport(w, r)
			return
		}
		d.servePage(w, r)
	default:
		w.Header().Set("Allow", "GET, HEAD, POST")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	}
}

func (d *Dispatcher) serveFragment(w http.ResponseWriter, r *http.Request) {
	started := d.now()

	fragment, id, err := d.fragment(r)
	if err != nil {
		status := writeFailure(w, err)
		level := slog.LevelError
		if IsRequestError(err) {
			level = slog.LevelDebug
		}
		d.logger().Log(r.Context(), level, "fragment request refused", "table", id, "status", status, "error", err)
		d.observe(id, KindFragment, status, started)
		return
	}

	writeJSON(w, http.StatusOK, Success(fragment))
	d.observe(id, KindFragment, http.StatusOK, started)
}

func (d *Dispatcher) fragment(r *http.Request) (Fragment, string, error) {
	if err := r.ParseForm(); err != nil {
		d.logger().Debug("cannot parse fragment form", "error", err)
	}

	if !d.verify(r.Context(), r.Form.Get(ParamToken), d.fragmentAction()) {
		return Fragment{}, "", ErrInvalidToken
	}
	if !d.can(r) {
		return Fragment{}, "", ErrForbidden
	}

	id := SanitizeID(r.Form.Get(ParamInstance)).String()
	if id == "" {
		return Fragment{}, "", ErrMissingInstance
	}

	source, ok := d.lookup(id)
	if !ok {
		return Fragment{}, "", fmt.Errorf("cannot render fragment for %q: %w", id, ErrUnknownInstance)
	}

	cfg, err := source.TableConfig(r.Context(), id)
	if err != nil {
		return Fragment{}, id, fmt.Errorf("cannot load table config: %w", err)
	}
	if len(cfg.Records) == 0 {
		return Fragment{}, id, ErrNoData
	}

	cfg.ID = id
	cfg.Features.Export = false
	if cfg.Logger == nil {
		cfg.Logger = d.logger()
	}

	table, err := New(cfg)
	if err != nil {
		return Fragment{}, id, err
	}

	params := table.Resolver().FromOverrides(firstValues(r.Form))
	result := table.Prepare(params)

	var buf bytes.Buffer
	if err := table.renderBody(&buf, params, result, nil); err != nil {
		return Fragment{}, id, err
	}

	return Fragment{
		HTML:        buf.String(),
		TotalItems:  result.Total,
		PerPage:     result.PageSize,
		CurrentPage: result.Page,
	}, id, nil
}

func (d *Dispatcher) serveExport(w http.ResponseWriter, r *http.Request) {
	started := d.now()
	query := r.URL.Query()

	id := SanitizeID(query.Get(ParamInstance)).String()
	if id == "" {
		if ids := d.ids(); len(ids) == 1 {
			id = ids[0].String()
		}
	}

	status := d.export(w, r, id, query)

	// Only registered ids become observer labels.
	if _, ok := d.lookup(id); !ok {
		id = ""
	}
	d.observe(id, KindExport, status, started)
}

// export checks the token and permission before the source is asked for
// any data.
func (d *Dispatcher) export(w http.ResponseWriter, r *http.Request, id string, query url.Values) int {
	if !d.verify(r.Context(), query.Get(ParamToken), d.exportAction()) {
		http.Error(w, "Security check failed", http.StatusForbidden)
		return http.StatusForbidden
	}
	if !d.can(r) {
		http.Error(w, "access denied", http.StatusForbidden)
		return http.StatusForbidden
	}

	source, ok := d.lookup(id)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return http.StatusNotFound
	}

	cfg, err := source.TableConfig(r.Context(), id)
	if err != nil {
		d.logger().Error("cannot load table config for export", "table", id, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return http.StatusInternalServerError
	}
	if !cfg.Features.Export {
		w.WriteHeader(http.StatusNotFound)
		return http.StatusNotFound
	}

	cfg.ID = id
	if cfg.Logger == nil {
		cfg.Logger = d.logger()
	}

	table, err := New(cfg)
	if err != nil {
		d.logger().Error("cannot build table for export", "table", id, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return http.StatusInternalServerError
	}

	params := table.Resolver().FromValues(query)
	if err := table.WriteExport(w, d.now(), params); err != nil {
		// Headers are already sent.
		d.logger().Error("cannot write export", "table", id, "error", err)
	}

	return http.StatusOK
}

func (d *Dispatcher) servePage(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	ids := query[ParamInstance]
	if len(ids) == 0 {
		for _, id := range d.ids() {
			ids = append(ids, id.String())
		}
	}

	var buf bytes.Buffer
	for _, raw := range ids {
		started := d.now()
		id := SanitizeID(raw).String()

		source, ok := d.lookup(id)
		if !ok {
			d.logger().Warn("skipping unknown table", "table", raw)
			continue
		}

		if err := d.renderPage(&buf, r, id, source, query); err != nil {
			d.logger().Error("cannot render table", "table", id, "error", err)
			d.observe(id, KindPage, http.StatusInternalServerError, started)
			continue
		}
		d.observe(id, KindPage, http.StatusOK, started)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = buf.WriteTo(w)
}

func (d *Dispatcher) renderPage(buf *bytes.Buffer, r *http.Request, id string, source Source, query url.Values) error {
	cfg, err := source.TableConfig(r.Context(), id)
	if err != nil {
		d.logger().Error("cannot load table config, rendering empty table", "table", id, "error", err)
		cfg = Config{Features: cfg.Features}
	}

	cfg.ID = id
	if cfg.Logger == nil {
		cfg.Logger = d.logger()
	}

	table, err := New(cfg)
	if err != nil {
		return err
	}

	var token string
	if cfg.Features.Export && d.Tokens != nil && d.can(r) {
		token, err = d.Tokens.IssueToken(r, d.exportAction())
		if err != nil {
			d.logger().Warn("cannot issue export token", "table", id, "error", err)
			token = ""
		}
	}

	var page bytes.Buffer
	if err := table.RenderPage(&page, query, token); err != nil {
		return err
	}

	_, err = page.WriteTo(buf)
	return err
}

func (d *Dispatcher) verify(ctx context.Context, token, action string) bool {
	if d.Auth == nil || token == "" {
		return false
	}

	return d.Auth.VerifyToken(ctx, token, action)
}

func (d *Dispatcher) can(r *http.Request) bool {
	if d.Auth == nil {
		return false
	}

	return d.Auth.Can(r, d.permission())
}

func (d *Dispatcher) lookup(id string) (Source, bool) {
	if d.Registry == nil || id == "" {
		return nil, false
	}

	return d.Registry.Lookup(id)
}

func (d *Dispatcher) ids() []InstanceID {
	if d.Registry == nil {
		return nil
	}

	return d.Registry.IDs()
}

func (d *Dispatcher) observe(id, kind string, status int, started time.Time) {
	if d.Observer == nil {
		return
	}

	d.Observer.ObserveRequest(id, kind, status, d.now().Sub(started))
}

func (d *Dispatcher) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}

	return d.Logger
}

func (d *Dispatcher) now() time.Time {
	if d.Now == nil {
		return time.Now()
	}

	return d.Now()
}

func (d *Dispatcher) exportAction() string {
	if d.ExportAction == "" {
		return ActionExport
	}

	return d.ExportAction
}

func (d *Dispatcher) fragmentAction() string {
	if d.FragmentAction == "" {
		return ActionFragment
	}

	return d.FragmentAction
}

func (d *Dispatcher) permission() string {
	if d.Permission == "" {
		return PermissionManage
	}

	return d.Permission
}

func firstValues(values url.Values) map[string]string {
	out := make(map[string]string, len(values))
	for key := range values {
		out[key] = values.Get(key)
	}

	return out
}

// IsRequestError reports whether err is caused by the request rather than by
// the server.
func IsRequestError(err error) bool {
	return errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrMissingInstance) ||
		errors.Is(err, ErrUnknownInstance) ||
		errors.Is(err, ErrNoData)
}
