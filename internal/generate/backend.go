package generate

// #region imports
import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/danielpatrickdp/pack-qa/internal/config"
)

// #endregion

// #region backend

// Backend renders a single image for one prompt. The pipeline calls it
// once per variant and writes the returned PNG bytes to disk.
type Backend interface {
	Render(ctx context.Context, prompt string, res config.Resolution) ([]byte, error)
}

// #endregion

// #region http-backend

const (
	defaultImageBaseURL = "https://api.openai.com/v1"
	defaultImageModel   = "gpt-image-1"
)

// HTTPBackend renders images through the OpenAI images API.
type HTTPBackend struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

// BackendOption configures an HTTPBackend.
type BackendOption func(*HTTPBackend)

// WithImageBaseURL overrides the API endpoint. Used by tests.
func WithImageBaseURL(url string) BackendOption {
	return func(b *HTTPBackend) { b.baseURL = url }
}

// WithImageModel overrides the generation model.
func WithImageModel(model string) BackendOption {
	return func(b *HTTPBackend) { b.model = model }
}

// WithImageHTTPClient overrides the HTTP client.
func WithImageHTTPClient(c *http.Client) BackendOption {
	return func(b *HTTPBackend) { b.client = c }
}

// NewHTTPBackend creates a live image backend. The key stays inside the
// backend and is only attached to outgoing requests.
func NewHTTPBackend(apiKey string, opts ...BackendOption) (*HTTPBackend, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("image backend: missing API key")
	}
	b := &HTTPBackend{
		client:  &http.Client{Timeout: 120 * time.Second},
		baseURL: defaultImageBaseURL,
		apiKey:  apiKey,
		model:   defaultImageModel,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

type imageRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size"`
}

type imageResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

// Render submits one generation request and decodes the base64 payload.
func (b *HTTPBackend) Render(ctx context.Context, prompt string, res config.Resolution) ([]byte, error) {
	body, err := json.Marshal(imageRequest{
		Model:  b.model,
		Prompt: prompt,
		N:      1,
		Size:   fmt.Sprintf("%dx%d", res.Width, res.Height),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal image request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		b.baseURL+"/images/generations", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build image request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, fmt.Errorf("read image response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image API status %d: %s", resp.StatusCode, firstLine(raw))
	}

	var parsed imageResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse image response: %w", err)
	}
	if len(parsed.Data) == 0 {
		return nil, fmt.Errorf("image API returned no data")
	}

	img, err := base64.StdEncoding.DecodeString(parsed.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("decode image payload: %w", err)
	}
	return img, nil
}

func firstLine(raw []byte) string {
	if i := bytes.IndexByte(raw, '\n'); i >= 0 {
		raw = raw[:i]
	}
	if len(raw) > 200 {
		raw = raw[:200]
	}
	return string(raw)
}

// #endregion

// #region dry-run-backend

// DryRunBackend renders deterministic flat-color PNGs at the requested
// resolution so the downstream pixel checks still exercise real files.
type DryRunBackend struct {
	Seed int64
}

// Render produces a solid-color image. The color is derived from the
// prompt and seed so reruns are reproducible.
func (b *DryRunBackend) Render(ctx context.Context, prompt string, res config.Resolution) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log.Printf("[DRY RUN] render %dx%d for prompt %q", res.Width, res.Height, excerpt(prompt))

	h := fnv.New32a()
	fmt.Fprintf(h, "%d:%s", b.Seed, prompt)
	sum := h.Sum32()
	fill := color.RGBA{
		R: uint8(sum),
		G: uint8(sum >> 8),
		B: uint8(sum >> 16),
		A: 255,
	}

	img := image.NewRGBA(image.Rect(0, 0, res.Width, res.Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: fill}, image.Point{}, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode placeholder: %w", err)
	}
	return buf.Bytes(), nil
}

func excerpt(s string) string {
	if len(s) > 48 {
		return s[:48] + "..."
	}
	return s
}

// #endregion
