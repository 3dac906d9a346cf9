package gotable

import "errors"

var (
	// ErrInvalidInstanceID is returned by New when a non-empty identifier has
	// no allowed symbols left after sanitizing.
	ErrInvalidInstanceID = errors.New("invalid instance identifier")
	// ErrMissingInstance is returned when a fragment request names no instance.
	ErrMissingInstance = errors.New("missing table_id")
	// ErrUnknownInstance is returned when no source is registered for an id.
	ErrUnknownInstance = errors.New("unknown table instance")
	// ErrNoData is returned when a source supplies no records.
	ErrNoData = errors.New("no data provided for table")
	// ErrInvalidToken is returned when the anti-replay token is missing,
	// expired or issued for another action.
	ErrInvalidToken = errors.New("invalid token")
	// ErrForbidden is returned when the requester lacks the permission.
	ErrForbidden = errors.New("access denied")
)
