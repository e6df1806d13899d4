package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Column conversion helpers shared by all repository files. List and
// map columns are stored as JSON text, timestamps as unix milliseconds
// and dates as ISO date strings.

func encodeStrings(v []string) string {
	if v == nil {
		v = []string{}
	}
	b, _ := json.Marshal(v)
	return string(b)
}

func decodeStrings(s string) []string {
	if s == "" {
		return nil
	}
	var v []string
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil
	}
	if len(v) == 0 {
		return nil
	}
	return v
}

func encodeState(state map[string]any) any {
	if state == nil {
		return nil
	}
	b, _ := json.Marshal(state)
	return string(b)
}

func decodeState(s sql.NullString) map[string]any {
	if !s.Valid || s.String == "" {
		return nil
	}
	var state map[string]any
	if err := json.Unmarshal([]byte(s.String), &state); err != nil {
		return nil
	}
	return state
}

func timeCol(t time.Time) int64 {
	return t.UnixMilli()
}

func colTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func timePtrCol(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixMilli()
}

func colTimePtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.UnixMilli(v.Int64).UTC()
	return &t
}

func dateCol(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format("2006-01-02")
}

func colDate(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s.String)
	if err != nil {
		return nil
	}
	return &t
}

func strPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func intPtr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

// placeholders returns "?, ?, ..." for n arguments.
func placeholders(n int) string {
	if n == 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// notFoundErr converts sql.ErrNoRows into a descriptive error.
func notFoundErr(err error, what string, key any) error {
	if err == sql.ErrNoRows {
		return fmt.Errorf("%s %v not found", what, key)
	}
	return err
}
