package gotable

import (
	"html/template"
	"strings"
)

// CellRenderer renders the content of one cell. The returned markup is
// emitted verbatim; implementations escape whatever they interpolate.
type CellRenderer interface {
	RenderCell(rec Record, column string) template.HTML
}

// CellRendererFunc adapts a function to CellRenderer.
type CellRendererFunc func(rec Record, column string) template.HTML

func (f CellRendererFunc) RenderCell(rec Record, column string) template.HTML {
	return f(rec, column)
}

// Action is one entry of a row action list.
type Action struct {
	// ID names the action and becomes its CSS class.
	ID string
	// Markup is emitted verbatim, usually a link.
	Markup template.HTML
}

// RowActionProvider produces the actions of one row.
type RowActionProvider interface {
	RowActions(rec Record) []Action
}

// RowActionFunc adapts a function to RowActionProvider.
type RowActionFunc func(rec Record) []Action

func (f RowActionFunc) RowActions(rec Record) []Action {
	return f(rec)
}

// ActionMode controls what the primary column shows when row actions are
// disabled.
type ActionMode int

const (
	// ActionsCollapsible always emits the action container and the responsive
	// toggle on the primary column, empty when row actions are disabled.
	ActionsCollapsible ActionMode = iota
	// ActionsOmitted emits nothing on the primary column when row actions are
	// disabled.
	ActionsOmitted
)

func (m ActionMode) Valid() bool {
	return m == ActionsCollapsible || m == ActionsOmitted
}

// DefaultAction is shown when row actions are enabled but no provider is
// registered for the primary column.
var DefaultAction = Action{ID: "view", Markup: `<span class="screen-reader-text">View</span>`}

// Renderer maps record cells to markup.
type Renderer struct {
	cells      map[string]CellRenderer
	actions    map[string]RowActionProvider
	primary    string
	rowActions bool
	mode       ActionMode
}

func NewRenderer(
	cells map[string]CellRenderer,
	actions map[string]RowActionProvider,
	primary string,
	rowActions bool,
	mode ActionMode,
) Renderer {
	return Renderer{
		cells:      cells,
		actions:    actions,
		primary:    primary,
		rowActions: rowActions,
		mode:       mode,
	}
}

// Cell renders one cell. A registered renderer wins; otherwise the raw value
// is escaped, "" when absent.
func (r Renderer) Cell(rec Record, column string) template.HTML {
	if cell, ok := r.cells[column]; ok && cell != nil {
		return cell.RenderCell(rec, column)
	}

	return template.HTML(template.HTMLEscapeString(rec.String(column)))
}

// Actions returns the action list of rec for column. Only the primary column
// carries actions; nil means no container is rendered.
func (r Renderer) Actions(rec Record, column string) []Action {
	if column != r.primary || !r.rowActions {
		return nil
	}

	if provider, ok := r.actions[column]; ok && provider != nil {
		return provider.RowActions(rec)
	}

	return []Action{DefaultAction}
}

// ActionList renders the action container of the primary column.
func (r Renderer) ActionList(rec Record, column string) template.HTML {
	if column != r.primary {
		return ""
	}
	if !r.rowActions && r.mode == ActionsOmitted {
		return ""
	}

	return renderActions(r.Actions(rec, column))
}

func renderActions(actions []Action) template.HTML {
	var b strings.Builder

	b.WriteString(`<div class="row-actions">`)
	for i, action := range actions {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString(`<span class="`)
		b.WriteString(template.HTMLEscapeString(SanitizeID(action.ID).String()))
		b.WriteString(`">`)
		b.WriteString(string(action.Markup))
		b.WriteString(`</span>`)
	}
	b.WriteString(`</div>`)
	b.WriteString(`<button type="button" class="toggle-row"><span class="screen-reader-text">Show more details</span></button>`)

	return template.HTML(b.String())
}
