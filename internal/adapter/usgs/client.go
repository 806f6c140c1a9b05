package usgs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/quake-alert-etl/internal/domain"
)

// Client fetches the USGS GeoJSON summary feed.
type Client struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a feed client. timeout bounds the whole request.
func NewClient(feedURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		url: feedURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Fetch downloads the feed and returns its features. A transport failure or
// timeout is logged and yields an empty batch; an error status or a body
// without features is an error.
func (c *Client) Fetch(ctx context.Context) ([]domain.RawEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Warn("feed request failed, continuing with an empty batch", "url", c.url, "error", err)
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("usgs feed error: status %d: %s", resp.StatusCode, body)
	}

	return DecodeFeed(resp.Body, c.logger)
}

var errNoFeatures = errors.New("expected key \"features\" not found in the response")

// DecodeFeed reads a GeoJSON FeatureCollection. Numbers are kept as
// json.Number so integers and decimals stay distinguishable. Features
// without properties.time are skipped.
func DecodeFeed(r io.Reader, logger *slog.Logger) ([]domain.RawEvent, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var collection featureCollection
	if err := dec.Decode(&collection); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}
	if collection.Features == nil {
		return nil, errNoFeatures
	}

	events := make([]domain.RawEvent, 0, len(*collection.Features))
	for i, f := range *collection.Features {
		if !domain.HasEventTime(f) {
			logger.Warn("Skipping data, keys are missing", "feature", i, "id", f["id"])
			continue
		}
		events = append(events, f)
	}
	return events, nil
}

// USGS feed envelope. Features stay untyped so the extractor sees exactly
// what was sent.

type featureCollection struct {
	Type     string             `json:"type"`
	Features *[]domain.RawEvent `json:"features"`
}
