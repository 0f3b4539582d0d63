package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// ErrNotFound is returned when the Data API has no item for the given id.
var ErrNotFound = errors.New("youtube resource not found")

type ClientConfig struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client

	// RequestsPerSecond protects the daily quota; every outbound call waits
	// on the limiter first.
	RequestsPerSecond float64
	Burst             int
}

// Client is a thin read client for the YouTube Data API v3. It is the
// authoritative source for comment author metadata and channel/video
// statistics.
type Client struct {
	apiKey     string
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewClient(config ClientConfig) *Client {
	if strings.TrimSpace(config.BaseURL) == "" {
		config.BaseURL = "https://www.googleapis.com/youtube/v3"
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{}
	}
	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = 8
	}
	if config.Burst <= 0 {
		config.Burst = 16
	}

	return &Client{
		apiKey:     strings.TrimSpace(config.APIKey),
		baseURL:    strings.TrimSuffix(config.BaseURL, "/"),
		timeout:    config.Timeout,
		httpClient: config.HTTPClient,
		limiter:    rate.NewLimiter(rate.Limit(config.RequestsPerSecond), config.Burst),
	}
}

// CommentMetadata is the authoritative comment envelope: author and
// publication facts come from here, never from the classifier.
type CommentMetadata struct {
	AuthorName  string
	AuthorID    string
	PublishedAt time.Time
	IsTopLevel  bool
}

// VideoInfo is the snippet plus counters for one video.
type VideoInfo struct {
	ID           string
	ChannelID    string
	Title        string
	ThumbnailURL string
	PublishedAt  time.Time
	Stats        VideoStats
}

type VideoStats struct {
	Views    int64
	Likes    int64
	Dislikes int64
	Comments int64
}

type ChannelInfo struct {
	ID           string
	Title        string
	ThumbnailURL string
	Subscribers  int64
	Views        int64
	VideoCount   int64
}

func (c *Client) CommentMetadata(ctx context.Context, commentID string) (CommentMetadata, error) {
	var response struct {
		Items []struct {
			Snippet struct {
				AuthorDisplayName string `json:"authorDisplayName"`
				AuthorChannelID   struct {
					Value string `json:"value"`
				} `json:"authorChannelId"`
				PublishedAt time.Time `json:"publishedAt"`
				ParentID    string    `json:"parentId"`
			} `json:"snippet"`
		} `json:"items"`
	}

	query := url.Values{"part": {"snippet"}, "id": {commentID}}
	if err := c.get(ctx, "/comments", query, &response); err != nil {
		return CommentMetadata{}, err
	}
	if len(response.Items) == 0 {
		return CommentMetadata{}, fmt.Errorf("comment %s: %w", commentID, ErrNotFound)
	}

	snippet := response.Items[0].Snippet
	return CommentMetadata{
		AuthorName:  snippet.AuthorDisplayName,
		AuthorID:    snippet.AuthorChannelID.Value,
		PublishedAt: snippet.PublishedAt,
		IsTopLevel:  snippet.ParentID == "",
	}, nil
}

func (c *Client) VideoInfo(ctx context.Context, videoID string) (VideoInfo, error) {
	var response struct {
		Items []struct {
			ID      string `json:"id"`
			Snippet struct {
				ChannelID   string    `json:"channelId"`
				Title       string    `json:"title"`
				PublishedAt time.Time `json:"publishedAt"`
				Thumbnails  struct {
					Default struct {
						URL string `json:"url"`
					} `json:"default"`
				} `json:"thumbnails"`
			} `json:"snippet"`
			Statistics struct {
				ViewCount    string `json:"viewCount"`
				LikeCount    string `json:"likeCount"`
				DislikeCount string `json:"dislikeCount"`
				CommentCount string `json:"commentCount"`
			} `json:"statistics"`
		} `json:"items"`
	}

	query := url.Values{"part": {"snippet,statistics"}, "id": {videoID}}
	if err := c.get(ctx, "/videos", query, &response); err != nil {
		return VideoInfo{}, err
	}
	if len(response.Items) == 0 {
		return VideoInfo{}, fmt.Errorf("video %s: %w", videoID, ErrNotFound)
	}

	item := response.Items[0]
	return VideoInfo{
		ID:           item.ID,
		ChannelID:    item.Snippet.ChannelID,
		Title:        item.Snippet.Title,
		ThumbnailURL: item.Snippet.Thumbnails.Default.URL,
		PublishedAt:  item.Snippet.PublishedAt,
		Stats: VideoStats{
			Views:    parseCount(item.Statistics.ViewCount),
			Likes:    parseCount(item.Statistics.LikeCount),
			Dislikes: parseCount(item.Statistics.DislikeCount),
			Comments: parseCount(item.Statistics.CommentCount),
		},
	}, nil
}

func (c *Client) ChannelInfo(ctx context.Context, channelID string) (ChannelInfo, error) {
	var response struct {
		Items []struct {
			ID      string `json:"id"`
			Snippet struct {
				Title      string `json:"title"`
				Thumbnails struct {
					Default struct {
						URL string `json:"url"`
					} `json:"default"`
				} `json:"thumbnails"`
			} `json:"snippet"`
			Statistics struct {
				SubscriberCount string `json:"subscriberCount"`
				ViewCount       string `json:"viewCount"`
				VideoCount      string `json:"videoCount"`
			} `json:"statistics"`
		} `json:"items"`
	}

	query := url.Values{"part": {"snippet,statistics"}, "id": {channelID}}
	if err := c.get(ctx, "/channels", query, &response); err != nil {
		return ChannelInfo{}, err
	}
	if len(response.Items) == 0 {
		return ChannelInfo{}, fmt.Errorf("channel %s: %w", channelID, ErrNotFound)
	}

	item := response.Items[0]
	return ChannelInfo{
		ID:           item.ID,
		Title:        item.Snippet.Title,
		ThumbnailURL: item.Snippet.Thumbnails.Default.URL,
		Subscribers:  parseCount(item.Statistics.SubscriberCount),
		Views:        parseCount(item.Statistics.ViewCount),
		VideoCount:   parseCount(item.Statistics.VideoCount),
	}, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	query.Set("key", c.apiKey)
	request, err := http.NewRequestWithContext(
		timeoutCtx,
		http.MethodGet,
		c.baseURL+path+"?"+query.Encode(),
		nil,
	)
	if err != nil {
		return fmt.Errorf("create youtube request: %w", err)
	}
	request.Header.Set("Accept", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("youtube transport error: %w", err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return fmt.Errorf("read youtube body: %w", err)
	}

	if response.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if response.StatusCode < 200 || response.StatusCode > 299 {
		message := strings.TrimSpace(string(body))
		if len(message) > 500 {
			message = message[:500]
		}
		return fmt.Errorf("youtube status %d: %s", response.StatusCode, message)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode youtube response: %w", err)
	}
	return nil
}

// The Data API serializes counters as strings.
func parseCount(value string) int64 {
	parsed, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0
	}
	return parsed
}
