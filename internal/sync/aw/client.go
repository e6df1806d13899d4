// Package aw implements the one-way import from the
// abgeordnetenwatch.de API into the local database.
package aw

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/okfde/evidencesync/internal/errors"
	"github.com/okfde/evidencesync/internal/logging"
)

const (
	entityParliaments         = "parliaments"
	entityParliamentPeriods   = "parliament-periods"
	entityPoliticians         = "politicians"
	entityCandidaciesMandates = "candidacies-mandates"
)

const resultsPerPage = 500

// Client talks to the unauthenticated abgeordnetenwatch v2 API.
type Client struct {
	baseURL    string
	pageSize   int
	httpClient *http.Client
}

// NewClient creates a new API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		pageSize:   resultsPerPage,
		httpClient: &http.Client{},
	}
}

type resultMeta struct {
	Total          int `json:"total"`
	ResultsPerPage int `json:"results_per_page"`
}

type apiPage struct {
	Meta struct {
		Result resultMeta `json:"result"`
	} `json:"meta"`
	Data json.RawMessage `json:"data"`
}

func (c *Client) fetchPage(ctx context.Context, entityType string, page int, extra url.Values) (*apiPage, error) {
	query := url.Values{}
	query.Set("sort_by", "id")
	query.Set("sort_direction", "asc")
	query.Set("page", strconv.Itoa(page))
	query.Set("pager_limit", strconv.Itoa(c.pageSize))
	for key, values := range extra {
		query[key] = values
	}

	reqURL := c.baseURL + "/" + entityType + "?" + query.Encode()
	logging.Debug("fetching abgeordnetenwatch data", map[string]any{"url": reqURL})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInternal, "failed to create request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrFetchFailed, "GET "+entityType+" failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrFetchFailed, "failed to read response body", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.Newf(errors.ErrFetchFailed, "GET %s returned status %d: %s",
			entityType, resp.StatusCode, string(data))
	}

	var pg apiPage
	if err := json.Unmarshal(data, &pg); err != nil {
		return nil, errors.Wrap(errors.ErrFetchFailed, "failed to decode result page", err)
	}
	return &pg, nil
}

// iterPages walks an entity's pages, calling fn once per page, until a
// page comes back empty or the reported total is reached.
func iterPages[T any](ctx context.Context, c *Client, entityType string, extra url.Values, fn func([]T) error) error {
	page := 0
	offset := 0

	for {
		pg, err := c.fetchPage(ctx, entityType, page, extra)
		if err != nil {
			return err
		}

		var rows []T
		if len(pg.Data) > 0 {
			if err := json.Unmarshal(pg.Data, &rows); err != nil {
				return errors.Wrap(errors.ErrFetchFailed, "failed to decode result rows", err)
			}
		}
		if len(rows) == 0 {
			return nil
		}

		if err := fn(rows); err != nil {
			return err
		}

		offset += pg.Meta.Result.ResultsPerPage
		if offset >= pg.Meta.Result.Total {
			return nil
		}
		page++
	}
}

// iterRows walks an entity's pages, calling fn once per row.
func iterRows[T any](ctx context.Context, c *Client, entityType string, extra url.Values, fn func(T) error) error {
	return iterPages(ctx, c, entityType, extra, func(rows []T) error {
		for _, row := range rows {
			if err := fn(row); err != nil {
				return err
			}
		}
		return nil
	})
}
