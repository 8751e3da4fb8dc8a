// Package critic implements the evaluator collaborator in its two modes:
// an authoritative vision-model critic and a clearly flagged simulated one.
package critic

// #region imports
import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/danielpatrickdp/pack-qa/internal/config"
	"github.com/danielpatrickdp/pack-qa/internal/loop"
	"github.com/danielpatrickdp/pack-qa/internal/rubric"
)

// #endregion

// #region defaults

const (
	defaultBaseURL   = "https://api.openai.com/v1"
	defaultModel     = "gpt-4o"
	defaultMaxImages = 12

	// visionBlend weights the vision model's technical score against the
	// automated checks: final technical = 70% vision + 30% automated.
	visionBlend = 0.7
)

const fallbackSystemPrompt = "You are an expert quality evaluator for streaming overlay images. " +
	"Evaluate them objectively against the 4-dimension rubric and respond only with valid JSON."

// #endregion

// #region critic-struct

// Critic scores a candidate batch through a vision-capable chat model.
// The API key is resolved at construction; callers of Evaluate never see it.
type Critic struct {
	client    *http.Client
	baseURL   string
	apiKey    string
	model     string
	packDir   string
	theme     string
	res       config.Resolution
	maxImages int
}

// Option tweaks critic construction.
type Option func(*Critic)

// WithBaseURL points the critic at an OpenAI-compatible endpoint.
func WithBaseURL(u string) Option { return func(c *Critic) { c.baseURL = strings.TrimRight(u, "/") } }

// WithModel overrides the vision model ID.
func WithModel(m string) Option { return func(c *Critic) { c.model = m } }

// WithHTTPClient injects a client, mainly for tests.
func WithHTTPClient(h *http.Client) Option { return func(c *Critic) { c.client = h } }

// WithMaxImages caps how many images are attached per request.
func WithMaxImages(n int) Option { return func(c *Critic) { c.maxImages = n } }

// New creates an authoritative critic for one pack.
func New(apiKey, packDir string, cfg *config.PackConfig, opts ...Option) (*Critic, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("critic: api key not set")
	}
	c := &Critic{
		client:    &http.Client{Timeout: 90 * time.Second},
		baseURL:   defaultBaseURL,
		apiKey:    apiKey,
		model:     defaultModel,
		packDir:   packDir,
		theme:     cfg.Theme,
		res:       cfg.Resolution,
		maxImages: defaultMaxImages,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Authoritative marks this critic's assessments as genuine.
func (c *Critic) Authoritative() bool { return true }

// #endregion

// #region evaluate

// Evaluate runs automated checks, asks the vision model for the rubric
// assessment, and merges both. An unreachable model or unparseable
// response is an error, never a silent pass.
func (c *Critic) Evaluate(ctx context.Context, batch loop.Batch) (rubric.Evaluation, error) {
	autoScore, autoIssues := rubric.AutomatedScore(c.packDir, c.res)
	critical := rubric.CheckCriticalIssues(c.packDir, c.res)

	log.Printf("[CRITIC] %s: automated score %.1f/10, %d issue(s), %d critical",
		batch.Pack, autoScore, len(autoIssues), len(critical))

	content, err := c.requestAssessment(ctx, batch, autoScore, autoIssues)
	if err != nil {
		return rubric.Evaluation{}, err
	}

	parsed, err := parseResponse(content)
	if err != nil {
		return rubric.Evaluation{}, fmt.Errorf("critic: %w", err)
	}

	return c.buildEvaluation(batch, parsed, autoScore, autoIssues, critical), nil
}

// #endregion

// #region request

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"` // string or []contentPart
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *Critic) requestAssessment(ctx context.Context, batch loop.Batch, autoScore float64, autoIssues []string) (string, error) {
	parts := []contentPart{{Type: "text", Text: c.buildPrompt(batch, autoScore, autoIssues)}}
	parts = append(parts, c.encodeImages(batch)...)

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: fallbackSystemPrompt},
			{Role: "user", Content: parts},
		},
		MaxTokens:   2000,
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("critic: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("critic: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("critic: vision call: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("critic: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("critic: vision call returned %d: %s", resp.StatusCode, firstLine(raw))
	}

	var cr chatResponse
	if err := json.Unmarshal(raw, &cr); err != nil {
		return "", fmt.Errorf("critic: decode response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("critic: response contained no choices")
	}
	return cr.Choices[0].Message.Content, nil
}

// encodeImages attaches base64 previews, capped at maxImages for payload control.
func (c *Critic) encodeImages(batch loop.Batch) []contentPart {
	var parts []contentPart

	categories := make([]string, 0, len(batch.Assets))
	for cat := range batch.Assets {
		categories = append(categories, cat)
	}
	sort.Strings(categories)

	for _, cat := range categories {
		for _, asset := range batch.Assets[cat] {
			if len(parts) >= c.maxImages {
				return parts
			}
			raw, err := os.ReadFile(asset.Path)
			if err != nil {
				log.Printf("[CRITIC] failed to encode image %s: %v", asset.Path, err)
				continue
			}
			parts = append(parts, contentPart{
				Type: "image_url",
				ImageURL: &imageURL{
					URL:    "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw),
					Detail: "low",
				},
			})
		}
	}
	return parts
}

func firstLine(b []byte) string {
	s := strings.TrimSpace(string(b))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

// #endregion

// #region prompt

func (c *Critic) buildPrompt(batch loop.Batch, autoScore float64, autoIssues []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Pack Evaluation Request\n\n")
	fmt.Fprintf(&b, "**Pack Name:** %s\n", batch.Pack)
	fmt.Fprintf(&b, "**Theme:** %s\n", c.theme)
	fmt.Fprintf(&b, "**Target Resolution:** %dx%d\n\n", c.res.Width, c.res.Height)

	fmt.Fprintf(&b, "## Automated Technical Checks\n\n")
	fmt.Fprintf(&b, "**Automated Score:** %.1f/10\n", autoScore)
	if len(autoIssues) > 0 {
		b.WriteString("**Issues Found:**\n")
		for _, issue := range autoIssues {
			fmt.Fprintf(&b, "- %s\n", issue)
		}
	} else {
		b.WriteString("**No automated issues found.**\n")
	}

	fmt.Fprintf(&b, "\n## Images to Evaluate\n\n")
	categories := make([]string, 0, len(batch.Assets))
	for cat := range batch.Assets {
		categories = append(categories, cat)
	}
	sort.Strings(categories)
	for _, cat := range categories {
		fmt.Fprintf(&b, "### %s\nVariants: %d\n", cat, len(batch.Assets[cat]))
		for _, asset := range batch.Assets[cat] {
			fmt.Fprintf(&b, "- %s\n", asset.ID)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Your Task\n\n")
	b.WriteString("1. Evaluate ALL images using the 4-dimension rubric\n")
	b.WriteString("2. Identify any critical issues\n")
	b.WriteString("3. Select the BEST variant for each category\n")
	b.WriteString("4. Provide 3-5 actionable improvement deltas in the form " +
		"`prompts.<category> -> Verb: 'directive'`\n\n")
	b.WriteString("Respond ONLY with valid JSON matching the specified output format.")

	return b.String()
}

// #endregion

// #region merge

func (c *Critic) buildEvaluation(batch loop.Batch, parsed criticResponse, autoScore float64, autoIssues []string, critical []string) rubric.Evaluation {
	dims := make([]rubric.DimensionScore, 0, len(parsed.DimensionScores))
	for _, d := range parsed.DimensionScores {
		ds := rubric.DimensionScore{
			Dimension: d.Dimension,
			Score:     d.Score,
			Weight:    d.Weight,
			Rationale: d.Justification,
			Issues:    d.Issues,
		}
		// Blend automated checks into the technical dimension.
		if d.Dimension == rubric.DimTechnicalQuality {
			ds.Score = d.Score*visionBlend + autoScore*(1-visionBlend)
			ds.Issues = append(ds.Issues, autoIssues...)
		}
		dims = append(dims, ds)
	}

	return rubric.Evaluation{
		PackName:       batch.Pack,
		OverallScore:   rubric.OverallScore(dims),
		Dimensions:     dims,
		CriticalIssues: append(critical, parsed.CriticalIssues...),
		Selected:       parsed.SelectedImages,
		Deltas:         parsed.Deltas,
		ChecksPassed:   len(autoIssues) == 0,
		Synthetic:      false,
	}
}

// #endregion
