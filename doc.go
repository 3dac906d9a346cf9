package gotable

// Package gotable turns an in-memory list of records into a searchable,
// sortable, filterable and paginated HTML table.
//
// Overview
//
// A Table is built per request from a Config with New. Every request
// parameter of a table is namespaced by its InstanceID, so several tables can
// live on the same page:
//   - Resolver: the only reader of request input. It validates search, sort,
//     page and filter values into QueryParams and never fails.
//   - Query: search, column filter, sort and pagination over the records.
//   - Renderer: cell markup and row actions of the primary column.
//   - ExportEncoder: delimited text export of every matching record.
//
// Key concepts
//   - Registry: the tables known to a Dispatcher, each backed by a Source.
//   - Dispatcher: an http.Handler rendering full pages, JSON fragments for
//     in-place refresh, and token protected exports.
//   - Authorizer and Observer: collaborators for token checks, permissions and
//     request metrics. See the auth and metrics packages.
