// Package youtube is a thin client for the YouTube Data API v3 endpoints
// this service uses: search, videos, and channels.
package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// defaultAPIBase is the Data API origin.
const defaultAPIBase = "https://www.googleapis.com/youtube/v3"

// maxErrorBodyBytes bounds upstream error bodies attached to errors.
const maxErrorBodyBytes = 2048

// Search result orderings.
const (
	// OrderRelevance is the API default ordering.
	OrderRelevance = "relevance"
	// OrderViewCount orders results by view count descending.
	OrderViewCount = "viewCount"
)

// Client calls the YouTube Data API.
type Client struct {
	// BaseURL is the API origin; overridable in tests.
	BaseURL string
	// HTTPClient performs requests; overridable in tests.
	HTTPClient *http.Client

	apiKey string
}

// New constructs a Client. It fails when the API key is absent so handlers
// can refuse to start the operation.
func New(apiKey string) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("youtube: missing API key")
	}
	return &Client{
		BaseURL:    defaultAPIBase,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		apiKey:     apiKey,
	}, nil
}

// SearchQuery describes one search call.
type SearchQuery struct {
	Query      string
	Order      string // OrderRelevance or OrderViewCount; empty means API default.
	RegionCode string // Optional ISO 3166-1 alpha-2 region.
	MaxResults int    // Defaults to 5.
}

// SearchResult is one video hit from the search endpoint.
type SearchResult struct {
	VideoID      string
	Title        string
	ChannelID    string
	ChannelTitle string
	ThumbnailURL string
	PublishedAt  time.Time
}

// Search returns video hits for a query.
func (c *Client) Search(ctx context.Context, query SearchQuery) ([]SearchResult, error) {
	maxResults := query.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", query.Query)
	params.Set("type", "video")
	params.Set("maxResults", strconv.Itoa(maxResults))
	if query.Order != "" {
		params.Set("order", query.Order)
	}
	if query.RegionCode != "" {
		params.Set("regionCode", query.RegionCode)
	}

	// payload maps the search response fields we consume.
	var payload struct {
		Items []struct {
			ID struct {
				VideoID string `json:"videoId"`
			} `json:"id"`
			Snippet snippet `json:"snippet"`
		} `json:"items"`
	}
	if errGet := c.getJSON(ctx, "/search", params, &payload); errGet != nil {
		return nil, errGet
	}

	results := make([]SearchResult, 0, len(payload.Items))
	for _, item := range payload.Items {
		if item.ID.VideoID == "" {
			continue
		}
		results = append(results, SearchResult{
			VideoID:      item.ID.VideoID,
			Title:        item.Snippet.Title,
			ChannelID:    item.Snippet.ChannelID,
			ChannelTitle: item.Snippet.ChannelTitle,
			ThumbnailURL: item.Snippet.Thumbnails.Default.URL,
			PublishedAt:  item.Snippet.PublishedAt,
		})
	}
	return results, nil
}

// VideoDetails is one video with its statistics.
type VideoDetails struct {
	VideoID      string
	Title        string
	ChannelID    string
	ChannelTitle string
	ThumbnailURL string
	ViewCount    int64
	LikeCount    int64
}

// Videos returns snippet and statistics for the given video IDs.
func (c *Client) Videos(ctx context.Context, videoIDs []string) ([]VideoDetails, error) {
	if len(videoIDs) == 0 {
		return nil, nil
	}

	params := url.Values{}
	params.Set("part", "snippet,statistics")
	params.Set("id", strings.Join(videoIDs, ","))

	var payload struct {
		Items []struct {
			ID         string     `json:"id"`
			Snippet    snippet    `json:"snippet"`
			Statistics statistics `json:"statistics"`
		} `json:"items"`
	}
	if errGet := c.getJSON(ctx, "/videos", params, &payload); errGet != nil {
		return nil, errGet
	}

	details := make([]VideoDetails, 0, len(payload.Items))
	for _, item := range payload.Items {
		details = append(details, VideoDetails{
			VideoID:      item.ID,
			Title:        item.Snippet.Title,
			ChannelID:    item.Snippet.ChannelID,
			ChannelTitle: item.Snippet.ChannelTitle,
			ThumbnailURL: item.Snippet.Thumbnails.Default.URL,
			ViewCount:    item.Statistics.ViewCount.Int64(),
			LikeCount:    item.Statistics.LikeCount.Int64(),
		})
	}
	return details, nil
}

// ChannelStats is one channel with its subscriber count.
type ChannelStats struct {
	ChannelID       string
	Title           string
	ThumbnailURL    string
	SubscriberCount int64
}

// Channel returns snippet and statistics for one channel.
func (c *Client) Channel(ctx context.Context, channelID string) (*ChannelStats, error) {
	params := url.Values{}
	params.Set("part", "snippet,statistics")
	params.Set("id", channelID)

	var payload struct {
		Items []struct {
			ID      string  `json:"id"`
			Snippet snippet `json:"snippet"`
			Stats   struct {
				SubscriberCount apiCount `json:"subscriberCount"`
			} `json:"statistics"`
		} `json:"items"`
	}
	if errGet := c.getJSON(ctx, "/channels", params, &payload); errGet != nil {
		return nil, errGet
	}
	if len(payload.Items) == 0 {
		return nil, fmt.Errorf("youtube: channel %s not found", channelID)
	}

	item := payload.Items[0]
	return &ChannelStats{
		ChannelID:       item.ID,
		Title:           item.Snippet.Title,
		ThumbnailURL:    item.Snippet.Thumbnails.Default.URL,
		SubscriberCount: item.Stats.SubscriberCount.Int64(),
	}, nil
}

// snippet maps the shared snippet fields across endpoints.
type snippet struct {
	Title        string    `json:"title"`
	ChannelID    string    `json:"channelId"`
	ChannelTitle string    `json:"channelTitle"`
	PublishedAt  time.Time `json:"publishedAt"`
	Thumbnails   struct {
		Default struct {
			URL string `json:"url"`
		} `json:"default"`
	} `json:"thumbnails"`
}

// statistics maps video statistics fields.
type statistics struct {
	ViewCount apiCount `json:"viewCount"`
	LikeCount apiCount `json:"likeCount"`
}

// apiCount is a counter the API reports as a decimal string.
type apiCount string

// Int64 parses the counter, returning 0 for absent or malformed values.
func (c apiCount) Int64() int64 {
	parsed, errParse := strconv.ParseInt(strings.TrimSpace(string(c)), 10, 64)
	if errParse != nil {
		return 0
	}
	return parsed
}

// getJSON issues a keyed GET and decodes the JSON response.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	params.Set("key", c.apiKey)

	req, errReq := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path+"?"+params.Encode(), nil)
	if errReq != nil {
		return fmt.Errorf("youtube: build %s request: %w", path, errReq)
	}

	resp, errDo := c.HTTPClient.Do(req)
	if errDo != nil {
		return fmt.Errorf("youtube: %s request: %w", path, errDo)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return fmt.Errorf("youtube: %s failed: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if errDecode := json.NewDecoder(resp.Body).Decode(out); errDecode != nil {
		return fmt.Errorf("youtube: decode %s response: %w", path, errDecode)
	}
	return nil
}
