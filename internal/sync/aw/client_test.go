package aw

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/okfde/evidencesync/internal/errors"
)

func TestIterRowsPaginates(t *testing.T) {
	all := []map[string]any{{"id": 1}, {"id": 2}, {"id": 3}}
	var pagesServed []int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("sort_by") != "id" || q.Get("sort_direction") != "asc" {
			t.Errorf("missing sort parameters in %q", r.URL.RawQuery)
		}
		if q.Get("pager_limit") != "2" {
			t.Errorf("pager_limit = %q, want 2", q.Get("pager_limit"))
		}
		page, _ := strconv.Atoi(q.Get("page"))
		pagesServed = append(pagesServed, page)

		start := page * 2
		end := start + 2
		if end > len(all) {
			end = len(all)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"meta": map[string]any{"result": map[string]any{"total": len(all), "results_per_page": 2}},
			"data": all[start:end],
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	client.pageSize = 2

	var got []int64
	err := iterRows(context.Background(), client, entityParliaments, nil, func(row ref) error {
		got = append(got, row.ID)
		return nil
	})
	if err != nil {
		t.Fatalf("iterRows failed: %v", err)
	}

	if len(got) != 3 {
		t.Fatalf("expected 3 rows, got %v", got)
	}
	if len(pagesServed) != 2 || pagesServed[0] != 0 || pagesServed[1] != 1 {
		t.Errorf("pages served = %v, want [0 1]", pagesServed)
	}
}

func TestIterRowsStopsOnEmptyPage(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		// Total claims more rows than the API actually serves.
		_ = json.NewEncoder(w).Encode(map[string]any{
			"meta": map[string]any{"result": map[string]any{"total": 100, "results_per_page": 500}},
			"data": []map[string]any{},
		})
	}))
	defer srv.Close()

	err := iterRows(context.Background(), NewClient(srv.URL), entityPoliticians, nil, func(row ref) error {
		t.Errorf("unexpected row %v", row)
		return nil
	})
	if err != nil {
		t.Fatalf("iterRows failed: %v", err)
	}
	if requests != 1 {
		t.Errorf("expected a single request, got %d", requests)
	}
}

func TestFetchPageErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broken", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).fetchPage(context.Background(), entityParliaments, 0, nil)
	if err == nil {
		t.Fatal("expected an error for a non-2xx response")
	}
	if !errors.Is(err, errors.ErrFetchFailed) {
		t.Errorf("error not classified as fetch failure: %v", err)
	}
}
