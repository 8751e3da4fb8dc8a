package listing

// #region imports
import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// #endregion

// #region token-source

// TokenSource supplies OAuth credentials at request time. The client
// never stores raw tokens, so nothing above this package ever sees them.
type TokenSource interface {
	APIKey() (string, error)
	AccessToken() (string, error)
}

// EnvTokenSource reads credentials from the environment on each call.
type EnvTokenSource struct{}

func (EnvTokenSource) APIKey() (string, error) {
	key := os.Getenv("ETSY_API_KEY")
	if key == "" {
		return "", fmt.Errorf("ETSY_API_KEY not set")
	}
	return key, nil
}

func (EnvTokenSource) AccessToken() (string, error) {
	tok := os.Getenv("ETSY_ACCESS_TOKEN")
	if tok == "" {
		return "", fmt.Errorf("ETSY_ACCESS_TOKEN not set")
	}
	return tok, nil
}

// #endregion

// #region client

const (
	defaultEtsyBaseURL = "https://openapi.etsy.com/v3"

	maxAttempts  = 3
	retryBackoff = 2 * time.Second
)

// Client talks to the Etsy Open API v3 for one shop.
type Client struct {
	client  *http.Client
	baseURL string
	tokens  TokenSource
	shopID  int64
	backoff time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API endpoint. Used by tests.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.client = h }
}

// NewClient creates an Etsy client bound to a shop.
func NewClient(shopID int64, tokens TokenSource, opts ...ClientOption) (*Client, error) {
	if shopID <= 0 {
		return nil, fmt.Errorf("etsy: invalid shop ID %d", shopID)
	}
	if tokens == nil {
		return nil, fmt.Errorf("etsy: nil token source")
	}
	c := &Client{
		client:  &http.Client{Timeout: 60 * time.Second},
		baseURL: defaultEtsyBaseURL,
		tokens:  tokens,
		shopID:  shopID,
		backoff: retryBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// do sends a request with auth headers, retrying rate limits and server
// errors with a fixed backoff.
func (c *Client) do(ctx context.Context, build func() (*http.Request, error)) ([]byte, error) {
	apiKey, err := c.tokens.APIKey()
	if err != nil {
		return nil, err
	}
	token, err := c.tokens.AccessToken()
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		req, err := build()
		if err != nil {
			return nil, err
		}
		req.Header.Set("x-api-key", apiKey)
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("etsy request: %w", err)
		}
		raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read etsy response: %w", err)
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return raw, nil
		}

		lastErr = fmt.Errorf("etsy status %d: %s", resp.StatusCode, truncate(raw))
		if resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode < 500 {
			return nil, lastErr
		}
		if attempt < maxAttempts {
			log.Printf("[ETSY] attempt %d failed (%d), retrying", attempt, resp.StatusCode)
			select {
			case <-time.After(c.backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, lastErr
}

func truncate(raw []byte) string {
	if len(raw) > 300 {
		raw = raw[:300]
	}
	return string(raw)
}

// #endregion

// #region create-listing

// Draft is the subset of listing fields returned on creation.
type Draft struct {
	ListingID int64  `json:"listing_id"`
	State     string `json:"state"`
	Title     string `json:"title"`
}

// CreateDraft creates an unpublished digital listing from the metadata.
func (c *Client) CreateDraft(ctx context.Context, meta Metadata) (Draft, error) {
	form := url.Values{}
	form.Set("quantity", "999")
	form.Set("title", meta.Title)
	form.Set("description", meta.Description)
	form.Set("price", strconv.FormatFloat(meta.Price, 'f', 2, 64))
	form.Set("who_made", "i_did")
	form.Set("when_made", "2020_2026")
	form.Set("taxonomy_id", "2078") // Digital Prints
	form.Set("type", "download")
	form.Set("state", "draft")
	for _, tag := range meta.Tags {
		form.Add("tags", tag)
	}

	endpoint := fmt.Sprintf("%s/application/shops/%d/listings", c.baseURL, c.shopID)
	raw, err := c.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
			bytes.NewBufferString(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	})
	if err != nil {
		return Draft{}, fmt.Errorf("create draft: %w", err)
	}

	var draft Draft
	if err := json.Unmarshal(raw, &draft); err != nil {
		return Draft{}, fmt.Errorf("parse draft response: %w", err)
	}
	log.Printf("[ETSY] created draft listing %d", draft.ListingID)
	return draft, nil
}

// #endregion

// #region uploads

// UploadImage attaches one listing photo with the given display rank.
func (c *Client) UploadImage(ctx context.Context, listingID int64, path string, rank int) error {
	endpoint := fmt.Sprintf("%s/application/shops/%d/listings/%d/images",
		c.baseURL, c.shopID, listingID)
	extra := map[string]string{"rank": strconv.Itoa(rank)}
	if _, err := c.upload(ctx, endpoint, "image", path, extra); err != nil {
		return fmt.Errorf("upload image %s: %w", filepath.Base(path), err)
	}
	return nil
}

// UploadFile attaches one digital delivery file.
func (c *Client) UploadFile(ctx context.Context, listingID int64, path string) error {
	endpoint := fmt.Sprintf("%s/application/shops/%d/listings/%d/files",
		c.baseURL, c.shopID, listingID)
	extra := map[string]string{"name": filepath.Base(path)}
	if _, err := c.upload(ctx, endpoint, "file", path, extra); err != nil {
		return fmt.Errorf("upload file %s: %w", filepath.Base(path), err)
	}
	return nil
}

// upload sends one multipart POST. The body is rebuilt per attempt so
// retries do not reuse a drained reader.
func (c *Client) upload(ctx context.Context, endpoint, field, path string, extra map[string]string) ([]byte, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	return c.do(ctx, func() (*http.Request, error) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile(field, filepath.Base(path))
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(payload); err != nil {
			return nil, err
		}
		for k, v := range extra {
			if err := mw.WriteField(k, v); err != nil {
				return nil, err
			}
		}
		if err := mw.Close(); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", mw.FormDataContentType())
		return req, nil
	})
}

// #endregion
