package sync

import (
	"reflect"
	"time"

	"github.com/okfde/evidencesync/internal/models"
)

// Equals reports value equality for import comparisons. Date values
// compare equal to their ISO date string and UUID values to their
// string form; string comparison is case sensitive.
func Equals(a, b any) bool {
	a = unwrap(a)
	b = unwrap(b)

	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if t, ok := a.(time.Time); ok {
		return timeEquals(t, b)
	}
	if t, ok := b.(time.Time); ok {
		return timeEquals(t, a)
	}

	if u, ok := a.(models.UUID); ok {
		a = u.String()
	}
	if u, ok := b.(models.UUID); ok {
		b = u.String()
	}

	if na, ok := toFloat(a); ok {
		if nb, ok := toFloat(b); ok {
			return na == nb
		}
	}

	return reflect.DeepEqual(a, b)
}

func timeEquals(t time.Time, other any) bool {
	switch v := other.(type) {
	case time.Time:
		return t.Equal(v)
	case string:
		return t.Format("2006-01-02") == v
	default:
		return false
	}
}

// unwrap dereferences pointers and normalizes typed nils.
func unwrap(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Map:
		if rv.IsNil() {
			return nil
		}
	}
	return rv.Interface()
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// IsEmpty reports whether a value counts as unset for the
// do-not-overwrite update policy. Zero and false are meaningful
// values, not empty.
func IsEmpty(v any) bool {
	v = unwrap(v)
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return s == ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map:
		return rv.Len() == 0
	}
	return false
}

// FilterFutureDate suppresses end dates that lie in the future. Open
// relationships are modeled without an end date.
func FilterFutureDate(t *time.Time, now time.Time) *time.Time {
	if t == nil {
		return nil
	}
	if t.After(now) {
		return nil
	}
	return t
}
