package gotable

import (
	"strings"

	"github.com/samber/lo"
)

// InstanceID identifies one table instance on a page. Every request parameter
// of the instance is prefixed with it, so several tables can share a page
// without reading each other's search, sort or page values.
//
// An empty InstanceID selects single-instance mode where parameter names are
// not prefixed at all.
type InstanceID string

var _instanceIDSymbols = append([]rune("_"), append(lo.LowerCaseLettersCharset, lo.NumbersCharset...)...)

// SanitizeID lowercases raw and drops every rune outside [a-z0-9_].
func SanitizeID(raw string) InstanceID {
	kept := lo.Filter([]rune(strings.ToLower(raw)), func(r rune, _ int) bool {
		return lo.Contains(_instanceIDSymbols, r)
	})

	return InstanceID(kept)
}

// Valid reports whether id consists only of allowed symbols. The empty id is
// valid and means single-instance mode.
func (id InstanceID) Valid() bool {
	return lo.Every(_instanceIDSymbols, []rune(id))
}

// IsSingle reports whether id selects unprefixed parameter names.
func (id InstanceID) IsSingle() bool {
	return id == ""
}

// Param returns the request parameter name for base, namespaced by id.
func (id InstanceID) Param(base string) string {
	if id.IsSingle() {
		return base
	}

	return string(id) + "_" + base
}

func (id InstanceID) String() string {
	return string(id)
}
