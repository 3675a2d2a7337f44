// Package remote wraps the Blogger-compatible CMS API: post CRUD with
// state transitions, the token refresh endpoint, and the backup
// endpoint. It owns the HTTP error taxonomy: 401/403 become
// domain.ErrAuthExpired, network errors and 5xx become
// domain.ErrRemoteUnavailable, other 4xx surface the server message
// verbatim.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/readmark/readmark/internal/domain"
	"github.com/readmark/readmark/internal/logger"
	"github.com/readmark/readmark/internal/utils"
)

// DefaultTimeout bounds every remote call.
const DefaultTimeout = 10 * time.Second

// Post statuses as the CMS reports them.
const (
	StatusDraft     = "DRAFT"
	StatusLive      = "LIVE"
	StatusScheduled = "SCHEDULED"
)

// Post is a CMS post record.
type Post struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Labels    []string `json:"labels"`
	Status    string   `json:"status"`
	Published string   `json:"published,omitempty"` // RFC 3339
	Updated   string   `json:"updated,omitempty"`   // RFC 3339
}

// CredentialSource provides the bearer credential and can renew it.
// Implemented by the token manager.
type CredentialSource interface {
	Get() (*domain.Credential, error)
	Refresh(ctx context.Context) bool
}

// Client issues authenticated calls against the CMS.
type Client struct {
	baseURL string
	http    *http.Client
	creds   CredentialSource
	log     logger.Logger
}

// NewClient creates a CMS client for the given base URL. The
// credential source is attached later via SetCredentials because the
// token manager needs the client's RefreshToken first.
func NewClient(baseURL string, log logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		log:     log,
	}
}

// SetCredentials attaches the credential source.
func (c *Client) SetCredentials(creds CredentialSource) {
	c.creds = creds
}

// apiError is the CMS error envelope.
type apiError struct {
	Error string `json:"error"`
}

// do issues one authenticated request. On a 401/403 it refreshes the
// credential and retries exactly once; a second rejection is
// domain.ErrAuthExpired. No other status is retried.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	err := c.doOnce(ctx, method, path, body, out)
	if !errors.Is(err, domain.ErrAuthExpired) {
		return err
	}
	if c.creds == nil || !c.creds.Refresh(ctx) {
		return domain.ErrAuthExpired
	}
	return c.doOnce(ctx, method, path, body, out)
}

func (c *Client) doOnce(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.creds != nil {
		cred, cerr := c.creds.Get()
		if cerr == nil && cred != nil && cred.AccessToken != "" {
			req.Header.Set("Authorization", "Bearer "+cred.AccessToken)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRemoteUnavailable, err)
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode >= 400 {
		return statusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// statusError maps an HTTP failure to the error taxonomy.
func statusError(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return domain.ErrAuthExpired
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", domain.ErrRemoteUnavailable, resp.StatusCode)
	}

	// Other 4xx: surface the server's message verbatim.
	var envelope apiError
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Error != "" {
		return fmt.Errorf("remote error (status %d): %s", resp.StatusCode, envelope.Error)
	}
	return fmt.Errorf("remote error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(data)))
}

// validatePost rejects empty titles and content before any network
// call is made.
func validatePost(post *Post) error {
	if strings.TrimSpace(post.Title) == "" {
		return &domain.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if strings.TrimSpace(post.Content) == "" {
		return &domain.ValidationError{Field: "content", Reason: "must not be empty"}
	}
	return nil
}

// GetPost fetches one post by id.
func (c *Client) GetPost(ctx context.Context, id string) (*Post, error) {
	var post Post
	if err := c.do(ctx, http.MethodGet, "/posts/"+id, nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// ListPosts fetches all posts visible to the credential.
func (c *Client) ListPosts(ctx context.Context) ([]Post, error) {
	var posts []Post
	if err := c.do(ctx, http.MethodGet, "/posts", nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// CreatePost creates a draft post.
func (c *Client) CreatePost(ctx context.Context, post *Post) (*Post, error) {
	if err := validatePost(post); err != nil {
		return nil, err
	}
	var created Post
	if err := c.do(ctx, http.MethodPost, "/posts", post, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdatePost replaces a post's content.
func (c *Client) UpdatePost(ctx context.Context, post *Post) (*Post, error) {
	if err := validatePost(post); err != nil {
		return nil, err
	}
	var updated Post
	if err := c.do(ctx, http.MethodPut, "/posts/"+post.ID, post, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeletePost removes a post.
func (c *Client) DeletePost(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/posts/"+id, nil, nil)
}

// PublishPost transitions a draft to LIVE.
func (c *Client) PublishPost(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/posts/"+id+"/publish", nil, nil)
}

// RevertPost transitions a post back to DRAFT.
func (c *Client) RevertPost(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/posts/"+id+"/revert", nil, nil)
}

// refreshRequest/refreshResponse are the token endpoint wire types.
type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	ExpiresAt    int64  `json:"expiresAt"`
}

// RefreshToken exchanges a refresh token for a new credential. It
// deliberately bypasses the bearer auth and the retry-once logic: a
// rejected refresh token is final.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*domain.Credential, error) {
	data, err := json.Marshal(refreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal refresh request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/token", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to build refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRemoteUnavailable, err)
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode >= 400 {
		return nil, statusError(resp)
	}
	var out refreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode refresh response: %w", err)
	}
	return &domain.Credential{
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
		ExpiresAt:    out.ExpiresAt,
	}, nil
}

// PushBackup uploads the consolidated snapshot for the user.
func (c *Client) PushBackup(ctx context.Context, userID string, snap domain.BackupSnapshot) error {
	return c.do(ctx, http.MethodPost, "/backup/"+userID, snap, nil)
}
