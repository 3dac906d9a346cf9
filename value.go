package gotable

import (
	"cmp"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Record is one row of caller-owned data. The engine only reads records.
type Record map[string]any

// Get returns the value stored under column and whether it is present and
// non-nil.
func (r Record) Get(column string) (any, bool) {
	v, ok := r[column]
	if !ok || v == nil {
		return nil, false
	}

	return v, true
}

// String returns the string form of the value under column, "" when absent.
func (r Record) String(column string) string {
	v, ok := r.Get(column)
	if !ok {
		return ""
	}

	return FormatValue(v)
}

// IsScalar reports whether v is a single plain value: a string, bool, number
// or timestamp. nil and composite values (slices, maps, structs) are not.
func IsScalar(v any) bool {
	switch v.(type) {
	case nil:
		return false
	case time.Time, json.Number:
		return true
	}

	switch reflect.TypeOf(v).Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

// FormatValue renders v the way it appears in cells, filters and exports.
func FormatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case json.Number:
		return v.String()
	case fmt.Stringer:
		return v.String()
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

// numericValue returns v as float64 when v is a number or a numeric string.
// Numeric strings use decimal or exponent notation with optional surrounding
// whitespace; hex, inf and nan spellings are rejected.
func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case nil, bool:
		return 0, false
	case string:
		return parseNumeric(n)
	case []byte:
		return parseNumeric(string(n))
	case json.Number:
		return parseNumeric(n.String())
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f, !math.IsNaN(f)
	case reflect.String:
		return parseNumeric(rv.String())
	default:
		return 0, false
	}
}

func parseNumeric(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, "xXnNiIpP_") {
		return 0, false
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}

	return f, true
}

// integerValue returns v as sign and magnitude when v is an integer or a
// base-10 integer string. Magnitudes use the full uint64 range so large ids
// keep their exact order.
func integerValue(v any) (neg bool, mag uint64, ok bool) {
	var s string
	switch n := v.(type) {
	case nil, bool:
		return false, 0, false
	case string:
		s = n
	case []byte:
		s = string(n)
	case json.Number:
		s = n.String()
	default:
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			i := rv.Int()
			if i < 0 {
				return true, uint64(-(i + 1)) + 1, true
			}
			return false, uint64(i), true
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			return false, rv.Uint(), true
		case reflect.String:
			s = rv.String()
		default:
			return false, 0, false
		}
	}

	s = strings.TrimSpace(s)
	neg = strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(strings.TrimPrefix(s, "-"), "+")
	if s == "" || s[0] < '0' || s[0] > '9' {
		return false, 0, false
	}

	mag, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return false, 0, false
	}

	return neg && mag != 0, mag, true
}

func compareIntegers(a, b any) (int, bool) {
	negA, magA, ok := integerValue(a)
	if !ok {
		return 0, false
	}
	negB, magB, ok := integerValue(b)
	if !ok {
		return 0, false
	}

	switch {
	case negA && !negB:
		return -1, true
	case !negA && negB:
		return 1, true
	case negA:
		return cmp.Compare(magB, magA), true
	default:
		return cmp.Compare(magA, magB), true
	}
}

// compareValues orders two cell values: numerically when both are numeric,
// otherwise as case-insensitive text. Integer pairs compare exactly, other
// numbers as float64. Absent values compare as "".
func compareValues(a, b any) int {
	if c, ok := compareIntegers(a, b); ok {
		return c
	}

	if na, ok := numericValue(a); ok {
		if nb, ok := numericValue(b); ok {
			switch {
			case na < nb:
				return -1
			case na > nb:
				return 1
			default:
				return 0
			}
		}
	}

	return strings.Compare(strings.ToLower(FormatValue(a)), strings.ToLower(FormatValue(b)))
}
