package nocodb

import (
	"strings"
)

// Row is one record as returned by the NocoDB records API.
type Row map[string]any

// Str returns a trimmed string value; absent or null fields yield "".
func (r Row) Str(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// StrPtr returns a trimmed string value, or nil when absent, null or
// empty.
func (r Row) StrPtr(key string) *string {
	s := r.Str(key)
	if s == "" {
		return nil
	}
	return &s
}

// Int64 returns a numeric value as int64. JSON numbers decode as
// float64; NocoDB also delivers some IDs as strings.
func (r Row) Int64(key string) (int64, bool) {
	switch v := r[key].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, false
		}
		var n int64
		for _, c := range s {
			if c < '0' || c > '9' {
				return 0, false
			}
			n = n*10 + int64(c-'0')
		}
		return n, true
	default:
		return 0, false
	}
}

// Int64Ptr returns a numeric value as *int64, nil when absent.
func (r Row) Int64Ptr(key string) *int64 {
	n, ok := r.Int64(key)
	if !ok {
		return nil
	}
	return &n
}

// List splits a comma-delimited string value into its trimmed parts.
func (r Row) List(key string) []string {
	s := r.Str(key)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// NestedIDs extracts the given numeric sub-field from a list of nested
// objects, as delivered for many-to-many link columns.
func (r Row) NestedIDs(key, subKey string) []int64 {
	items, ok := r[key].([]any)
	if !ok {
		return nil
	}
	var ids []int64
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if id, ok := Row(obj).Int64(subKey); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// NestedID extracts a numeric sub-field from a single nested object,
// as delivered for single-link columns.
func (r Row) NestedID(key, subKey string) *int64 {
	obj, ok := r[key].(map[string]any)
	if !ok {
		return nil
	}
	return Row(obj).Int64Ptr(subKey)
}

// FkID reads a foreign-key value that may arrive as a plain number or
// as a single-element list. The second return reports a malformed
// multi-element list.
func (r Row) FkID(key string) (*int64, bool) {
	if items, ok := r[key].([]any); ok {
		if len(items) != 1 {
			return nil, len(items) != 0
		}
		if id, ok := Row(map[string]any{"v": items[0]}).Int64("v"); ok {
			return &id, false
		}
		return nil, true
	}
	return r.Int64Ptr(key), false
}

// Objects returns a list-valued field of nested objects, e.g. the
// attachment column.
func (r Row) Objects(key string) []Row {
	items, ok := r[key].([]any)
	if !ok {
		return nil
	}
	var rows []Row
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			rows = append(rows, Row(obj))
		}
	}
	return rows
}
