// Package youtube provides the platform metadata API capability for the
// sync engine. The live implementation talks to the YouTube Data API v3
// over plain net/http; the interface keeps the engine testable with fakes.
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

const defaultBaseURL = "https://www.googleapis.com/youtube/v3"

// ChannelDetails is the enrichment payload for one channel.
type ChannelDetails struct {
	Title           string
	Description     string
	SubscriberCount int64
	VideoCount      int64
	ViewCount       int64
}

// VideoDetails is the enrichment payload for one video.
type VideoDetails struct {
	Title        string
	Description  string
	PublishedAt  time.Time
	Tags         []string
	Duration     string // raw ISO-8601 duration token, e.g. "PT1H2M3S"
	ViewCount    int64
	LikeCount    int64
	CommentCount int64
}

// MetadataClient is the injectable platform API capability.
// Both lookups return nil, nil when the entity no longer exists upstream.
type MetadataClient interface {
	ChannelByID(ctx context.Context, id string) (*ChannelDetails, error)
	VideoByID(ctx context.Context, id string) (*VideoDetails, error)
}

// Client is the HTTP implementation of MetadataClient.
type Client struct {
	apiKey  string
	baseURL string
	client  http.Client
}

// NewClient creates a MetadataClient using the given API key.
func NewClient(apiKey string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("youtube client requires an API key (YOUTUBE_API_KEY)")
	}
	return &Client{apiKey: apiKey, baseURL: defaultBaseURL}, nil
}

// API response shapes. Count statistics arrive as decimal strings; any
// missing count defaults to zero.
type listResponse struct {
	Items []item `json:"items"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type item struct {
	Snippet struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		PublishedAt string   `json:"publishedAt"`
		Tags        []string `json:"tags"`
	} `json:"snippet"`
	ContentDetails struct {
		Duration string `json:"duration"`
	} `json:"contentDetails"`
	Statistics map[string]string `json:"statistics"`
}

// ChannelByID requests snippet/statistics/contentDetails for one channel.
func (c *Client) ChannelByID(ctx context.Context, id string) (*ChannelDetails, error) {
	it, err := c.lookup(ctx, "channels", id)
	if err != nil {
		return nil, err
	}
	if it == nil {
		return nil, nil
	}

	return &ChannelDetails{
		Title:           it.Snippet.Title,
		Description:     it.Snippet.Description,
		SubscriberCount: countStat(it.Statistics, "subscriberCount"),
		VideoCount:      countStat(it.Statistics, "videoCount"),
		ViewCount:       countStat(it.Statistics, "viewCount"),
	}, nil
}

// VideoByID requests snippet/statistics/contentDetails for one video.
func (c *Client) VideoByID(ctx context.Context, id string) (*VideoDetails, error) {
	it, err := c.lookup(ctx, "videos", id)
	if err != nil {
		return nil, err
	}
	if it == nil {
		return nil, nil
	}

	publishedAt, err := time.Parse(time.RFC3339, it.Snippet.PublishedAt)
	if err != nil {
		publishedAt = time.Time{}
	}

	return &VideoDetails{
		Title:        it.Snippet.Title,
		Description:  it.Snippet.Description,
		PublishedAt:  publishedAt,
		Tags:         it.Snippet.Tags,
		Duration:     it.ContentDetails.Duration,
		ViewCount:    countStat(it.Statistics, "viewCount"),
		LikeCount:    countStat(it.Statistics, "likeCount"),
		CommentCount: countStat(it.Statistics, "commentCount"),
	}, nil
}

// lookup issues one list call. An empty item list means the entity is gone
// upstream; that is reported as nil, nil, not an error.
func (c *Client) lookup(ctx context.Context, resource, id string) (*item, error) {
	q := url.Values{}
	q.Set("part", "snippet,statistics,contentDetails")
	q.Set("id", id)
	q.Set("key", c.apiKey)

	endpoint := fmt.Sprintf("%s/%s?%s", c.baseURL, resource, q.Encode())
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("youtube API error (status %d): %s", resp.StatusCode, string(body))
	}

	var lr listResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	if lr.Error != nil {
		return nil, fmt.Errorf("youtube API error: %s", lr.Error.Message)
	}
	if len(lr.Items) == 0 {
		return nil, nil
	}
	return &lr.Items[0], nil
}

// countStat parses a decimal count field, defaulting to zero when the field
// is absent or malformed.
func countStat(stats map[string]string, key string) int64 {
	raw, ok := stats[key]
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// ChannelIDFromURL strips the channel URL prefix to recover the API id.
func ChannelIDFromURL(channelURL string) string {
	return strings.TrimPrefix(channelURL, "https://www.youtube.com/channel/")
}

// VideoIDFromURL extracts the v= parameter from a watch URL.
func VideoIDFromURL(videoURL string) string {
	if idx := strings.Index(videoURL, "="); idx >= 0 {
		return videoURL[idx+1:]
	}
	return videoURL
}
