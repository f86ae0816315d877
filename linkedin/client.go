package linkedin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const restliProtocolVersion = "2.0.0"

// Comment is one comment on a post, with the bot's own comments already
// filtered out by GetComments.
type Comment struct {
	ID     string
	Actor  string // bare person id, urn prefix stripped
	Text   string
	PostID string
}

// Client calls the LinkedIn content and social-action endpoints on behalf
// of an authenticated member.
type Client struct {
	auth       *Auth
	httpClient *http.Client
}

// NewClient creates a content API client bound to the given session.
func NewClient(auth *Auth) *Client {
	return &Client{
		auth:       auth,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type sharePayload struct {
	Author          string         `json:"author"`
	LifecycleState  string         `json:"lifecycleState"`
	SpecificContent map[string]any `json:"specificContent"`
	Visibility      map[string]any `json:"visibility"`
}

// CreatePost publishes a public text post and returns its ID. The author
// identity is re-resolved from the profile endpoint on every call rather
// than cached between publishes.
func (c *Client) CreatePost(ctx context.Context, content string) (string, error) {
	if !c.auth.Authenticated() {
		return "", fmt.Errorf("not authenticated")
	}

	if _, err := c.auth.Profile(ctx); err != nil {
		return "", fmt.Errorf("resolve author: %w", err)
	}
	if c.auth.PersonID() == "" {
		return "", fmt.Errorf("could not determine author identity")
	}

	payload := sharePayload{
		Author:         "urn:li:person:" + c.auth.PersonID(),
		LifecycleState: "PUBLISHED",
		SpecificContent: map[string]any{
			"com.linkedin.ugc.ShareContent": map[string]any{
				"shareCommentary":    map[string]any{"text": content},
				"shareMediaCategory": "NONE",
			},
		},
		Visibility: map[string]any{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := c.post(ctx, "/ugcPosts", payload, &result); err != nil {
		return "", fmt.Errorf("create post: %w", err)
	}

	slog.Info("published post", "post_id", result.ID)
	return result.ID, nil
}

// ListRecentPosts returns IDs of the member's posts created within daysBack
// days, newest first. The endpoint is permission-gated for many
// applications; a 403 is an expected empty result, not an error.
func (c *Client) ListRecentPosts(ctx context.Context, daysBack, maxPosts int) ([]string, error) {
	if !c.auth.Authenticated() || c.auth.PersonID() == "" {
		return nil, fmt.Errorf("not authenticated")
	}

	params := url.Values{}
	params.Set("q", "authors")
	params.Set("authors", fmt.Sprintf("List(urn:li:person:%s)", c.auth.PersonID()))
	params.Set("count", fmt.Sprint(maxPosts))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.auth.apiURL+"/ugcPosts?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized {
		slog.Debug("post listing not permitted for this application", "status", resp.StatusCode)
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list posts status %d", resp.StatusCode)
	}

	var payload struct {
		Elements []struct {
			ID      string `json:"id"`
			Created struct {
				Time int64 `json:"time"` // epoch millis
			} `json:"created"`
		} `json:"elements"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	cutoff := time.Now().AddDate(0, 0, -daysBack)
	var ids []string
	for _, el := range payload.Elements {
		created := time.UnixMilli(el.Created.Time)
		if created.After(cutoff) {
			ids = append(ids, el.ID)
		}
	}
	return ids, nil
}

// GetComments lists comments on a post, excluding any authored by the
// authenticated member.
func (c *Client) GetComments(ctx context.Context, postID string) ([]Comment, error) {
	if !c.auth.Authenticated() {
		return nil, fmt.Errorf("not authenticated")
	}

	endpoint := c.auth.apiURL + "/socialActions/" + url.PathEscape(postID) + "/comments"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get comments status %d", resp.StatusCode)
	}

	var payload struct {
		Elements []struct {
			ID      string `json:"id"`
			Actor   string `json:"actor"`
			Message struct {
				Text string `json:"text"`
			} `json:"message"`
		} `json:"elements"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	var comments []Comment
	for _, el := range payload.Elements {
		actor := bareActor(el.Actor)
		if actor == c.auth.PersonID() {
			continue // never reply to ourselves
		}
		comments = append(comments, Comment{
			ID:     el.ID,
			Actor:  actor,
			Text:   el.Message.Text,
			PostID: postID,
		})
	}
	return comments, nil
}

// ReplyToComment posts a reply under parentID on the given post.
func (c *Client) ReplyToComment(ctx context.Context, postID, parentID, text string) error {
	if !c.auth.Authenticated() {
		return fmt.Errorf("not authenticated")
	}

	payload := map[string]any{
		"actor":         "urn:li:person:" + c.auth.PersonID(),
		"message":       map[string]any{"text": text},
		"parentComment": parentID,
	}

	if err := c.post(ctx, "/socialActions/"+url.PathEscape(postID)+"/comments", payload, nil); err != nil {
		return fmt.Errorf("reply to comment: %w", err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.auth.accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Restli-Protocol-Version", restliProtocolVersion)
}

func (c *Client) post(ctx context.Context, path string, body any, result any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.auth.apiURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

// bareActor strips the urn:li:person: prefix from an actor URN.
func bareActor(urn string) string {
	if i := strings.LastIndex(urn, ":"); i >= 0 {
		return urn[i+1:]
	}
	return urn
}
