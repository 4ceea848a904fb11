package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/vmunix/episodic/internal/catalog"
)

// Client wraps HTTP calls to episodicd.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new episodicd client.
func NewClient(serverURL string) *Client {
	return &Client{
		baseURL: serverURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SeasonsResponse is the grouped episode listing of a title.
type SeasonsResponse struct {
	Seasons []catalog.SeasonGroup `json:"seasons"`
}

// Seasons fetches the episodes of titleID grouped by season.
func (c *Client) Seasons(ctx context.Context, titleID string) (*SeasonsResponse, error) {
	var resp SeasonsResponse
	if err := c.get(ctx, "/api/titles/"+url.PathEscape(titleID)+"/seasons", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("request creation failed: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server error %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("server error %d: %s", resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(result)
}
