package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to the external workflow engine that classifies and filters
// comment text. The engine's response shape is not strictly contracted, so
// every response goes through NormalizePayload before use.
type Client struct {
	baseURL    string
	token      string
	timeout    time.Duration
	httpClient *http.Client
}

type ClientConfig struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

func NewClient(config ClientConfig) *Client {
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{}
	}
	return &Client{
		baseURL:    strings.TrimSuffix(strings.TrimSpace(config.BaseURL), "/"),
		token:      strings.TrimSpace(config.Token),
		timeout:    config.Timeout,
		httpClient: config.HTTPClient,
	}
}

// AnalysisResult is the normalized outcome of an analysis run. Payload is
// the full normalized body; Title comes from summary_title when present.
type AnalysisResult struct {
	Title   string
	Payload json.RawMessage
}

// ClassifiedComment is one entry of a classify response. Older workflow
// revisions used "comment" for the text field, newer ones use "text".
type ClassifiedComment struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Comment string `json:"comment"`
	Type    int    `json:"comment_type"`
}

// Body returns the comment text regardless of which wire field carried it.
func (c ClassifiedComment) Body() string {
	if strings.TrimSpace(c.Text) != "" {
		return c.Text
	}
	return c.Comment
}

// FilteredComment is one entry of a filter response.
type FilteredComment struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	IsFiltered bool   `json:"is_filtered"`
}

func (c *Client) Analyze(ctx context.Context, videoID string) (AnalysisResult, error) {
	body, err := c.post(ctx, "/comment-analysis", map[string]any{"video_id": videoID})
	if err != nil {
		return AnalysisResult{}, err
	}

	payload := NormalizePayload(body)
	return AnalysisResult{
		Title:   ExtractTitle(payload),
		Payload: payload,
	}, nil
}

func (c *Client) Classify(
	ctx context.Context,
	videoID string,
	classifiedAt *time.Time,
) ([]ClassifiedComment, error) {
	request := map[string]any{"video_id": videoID}
	if classifiedAt != nil {
		request["comment_classified_at"] = classifiedAt.UTC().Format(time.RFC3339)
	}

	body, err := c.post(ctx, "/comment-classify", request)
	if err != nil {
		return nil, err
	}

	entries := ExtractEntries(NormalizePayload(body))
	comments := make([]ClassifiedComment, 0, len(entries))
	for _, entry := range entries {
		var comment ClassifiedComment
		if err := json.Unmarshal(entry, &comment); err != nil {
			continue
		}
		if comment.ID == "" {
			continue
		}
		comments = append(comments, comment)
	}
	return comments, nil
}

func (c *Client) Filter(ctx context.Context, videoID, keyword string) ([]FilteredComment, error) {
	body, err := c.post(ctx, "/comment-filter", map[string]any{
		"video_id":          videoID,
		"filtering_keyword": keyword,
	})
	if err != nil {
		return nil, err
	}

	entries := ExtractEntries(NormalizePayload(body))
	comments := make([]FilteredComment, 0, len(entries))
	for _, entry := range entries {
		var comment FilteredComment
		if err := json.Unmarshal(entry, &comment); err != nil {
			continue
		}
		if comment.ID == "" {
			continue
		}
		comments = append(comments, comment)
	}
	return comments, nil
}

func (c *Client) post(ctx context.Context, path string, payload map[string]any) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal workflow payload: %w", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	request, err := http.NewRequestWithContext(
		timeoutCtx,
		http.MethodPost,
		c.baseURL+path,
		bytes.NewReader(encoded),
	)
	if err != nil {
		return nil, fmt.Errorf("create workflow request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")
	if c.token != "" {
		request.Header.Set("Authorization", "Bearer "+c.token)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("workflow transport error: %w", err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("read workflow body: %w", err)
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		message := strings.TrimSpace(string(body))
		if len(message) > 500 {
			message = message[:500]
		}
		return nil, fmt.Errorf("workflow status %d: %s", response.StatusCode, message)
	}

	return body, nil
}
