// Package nocodb implements the pull and push pipelines against the
// NocoDB REST API.
package nocodb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/okfde/evidencesync/internal/errors"
)

// Client talks to the NocoDB v2 records API. Requests carry the static
// xc-token header; any non-2xx response is a fatal fetch error.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a new API client.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{},
	}
}

func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(errors.ErrInternal, "failed to encode request body", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInternal, "failed to create request", err)
	}
	req.Header.Set("xc-token", c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrFetchFailed, fmt.Sprintf("%s %s failed", method, path), err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrFetchFailed, "failed to read response body", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.Newf(errors.ErrFetchFailed, "%s %s returned status %d: %s",
			method, path, resp.StatusCode, string(data))
	}

	return data, nil
}

type pageInfo struct {
	IsLastPage bool `json:"isLastPage"`
	PageSize   int  `json:"pageSize"`
}

type recordPage struct {
	List     []Row    `json:"list"`
	PageInfo pageInfo `json:"pageInfo"`
}

// IterRecords walks a table's records via offset pagination, calling
// fn for every row. An optional viewID narrows the result to one view.
func (c *Client) IterRecords(ctx context.Context, table, viewID string, fn func(Row) error) error {
	offset := 0

	for {
		query := url.Values{}
		query.Set("offset", strconv.Itoa(offset))
		if viewID != "" {
			query.Set("viewId", viewID)
		}

		data, err := c.doRequest(ctx, http.MethodGet, "/tables/"+table+"/records", query, nil)
		if err != nil {
			return err
		}

		var page recordPage
		if err := json.Unmarshal(data, &page); err != nil {
			return errors.Wrap(errors.ErrFetchFailed, "failed to decode record page", err)
		}

		for _, row := range page.List {
			if err := fn(row); err != nil {
				return err
			}
		}

		if page.PageInfo.IsLastPage || page.PageInfo.PageSize == 0 {
			return nil
		}
		offset += page.PageInfo.PageSize
	}
}

type createdRecord struct {
	ID int64 `json:"Id"`
}

// CreateRecords batch-creates records and returns the new record IDs
// in submission order.
func (c *Client) CreateRecords(ctx context.Context, table string, payloads []map[string]any) ([]int64, error) {
	data, err := c.doRequest(ctx, http.MethodPost, "/tables/"+table+"/records", nil, payloads)
	if err != nil {
		return nil, err
	}

	var created []createdRecord
	if err := json.Unmarshal(data, &created); err != nil {
		return nil, errors.Wrap(errors.ErrExportFailed, "failed to decode create response", err)
	}

	ids := make([]int64, len(created))
	for i, rec := range created {
		ids[i] = rec.ID
	}
	return ids, nil
}

// UpdateRecords batch-updates records keyed by their Id field.
func (c *Client) UpdateRecords(ctx context.Context, table string, payloads []map[string]any) error {
	_, err := c.doRequest(ctx, http.MethodPatch, "/tables/"+table+"/records", nil, payloads)
	return err
}

// LinkRecord sets one foreign-key link on a record.
func (c *Client) LinkRecord(ctx context.Context, table, fieldID string, recordID, relatedID int64) error {
	path := fmt.Sprintf("/tables/%s/links/%s/records/%d", table, fieldID, recordID)
	_, err := c.doRequest(ctx, http.MethodPost, path, nil, map[string]any{"Id": relatedID})
	if err != nil {
		return errors.Wrap(errors.ErrLinkFailed, "link call failed", err)
	}
	return nil
}

// DownloadFile fetches an attachment file from its signed URL. The
// signed URL carries its own authorization, so no token is sent.
func (c *Client) DownloadFile(ctx context.Context, signedURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, signedURL, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDownloadFailed, "failed to create download request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDownloadFailed, "download failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf(errors.ErrDownloadFailed, "download failed for %s: status %d",
			signedURL, resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
