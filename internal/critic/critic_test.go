package critic

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/danielpatrickdp/pack-qa/internal/config"
	"github.com/danielpatrickdp/pack-qa/internal/loop"
	"github.com/danielpatrickdp/pack-qa/internal/packdir"
	"github.com/danielpatrickdp/pack-qa/internal/rubric"
)

// #region helpers

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
}

// seedPack creates a pack dir with one clean final overlay and one raw
// batch asset, returning the dir and the batch.
func seedPack(t *testing.T) (string, loop.Batch) {
	t.Helper()
	dir := t.TempDir()
	finalDir := filepath.Join(dir, packdir.FinalDir)
	if err := os.MkdirAll(finalDir, 0o755); err != nil {
		t.Fatal(err)
	}
	writePNG(t, filepath.Join(finalDir, "starting_soon.png"), 1920, 1080)

	rawDir := filepath.Join(dir, packdir.RawDir)
	if err := os.MkdirAll(rawDir, 0o755); err != nil {
		t.Fatal(err)
	}
	assetPath := filepath.Join(rawDir, "starting_soon_01.png")
	writePNG(t, assetPath, 1920, 1080)

	batch := loop.Batch{
		Pack: "p",
		Assets: map[string][]loop.Asset{
			"starting_soon": {{ID: "starting_soon_01", Path: assetPath}},
		},
	}
	return dir, batch
}

func testCfg() *config.PackConfig {
	return &config.PackConfig{
		Theme:      "Cyberpunk Neon",
		Prompts:    map[string]string{"starting_soon": "neon screen"},
		Resolution: config.DefaultResolution(),
	}
}

func chatReply(content string) string {
	body, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"content": content}},
		},
	})
	return string(body)
}

// #endregion

// #region evaluate-tests

func TestCriticEvaluate(t *testing.T) {
	dir, batch := seedPack(t)

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, chatReply(validResponse))
	}))
	defer srv.Close()

	c, err := New("sk-test", dir, testCfg(), WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !c.Authoritative() {
		t.Error("real critic must be authoritative")
	}

	ev, err := c.Evaluate(context.Background(), batch)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if gotAuth != "Bearer sk-test" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if ev.Synthetic {
		t.Error("authoritative evaluation marked synthetic")
	}
	if ev.Selected["starting_soon"] != "starting_soon_02" {
		t.Errorf("selection = %v", ev.Selected)
	}
	if !rubric.InBounds(ev) {
		t.Errorf("evaluation out of bounds: %+v", ev)
	}

	// Clean pack: automated score 10, vision technical 8.0.
	// Blended technical = 8.0*0.7 + 10*0.3 = 8.6.
	for _, d := range ev.Dimensions {
		if d.Dimension == rubric.DimTechnicalQuality && math.Abs(d.Score-8.6) > 1e-9 {
			t.Errorf("blended technical score = %.2f, want 8.6", d.Score)
		}
	}
}

func TestCriticEvaluate_BadResponse(t *testing.T) {
	dir, batch := seedPack(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chatReply("The pack looks nice overall."))
	}))
	defer srv.Close()

	c, err := New("sk-test", dir, testCfg(), WithBaseURL(srv.URL))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Evaluate(context.Background(), batch); err == nil {
		t.Error("prose response must be an error, never a silent pass")
	}
}

func TestCriticEvaluate_HTTPError(t *testing.T) {
	dir, batch := seedPack(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, err := New("sk-test", dir, testCfg(), WithBaseURL(srv.URL))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Evaluate(context.Background(), batch); err == nil {
		t.Error("HTTP failure must surface as an error")
	}
}

func TestNew_RequiresKey(t *testing.T) {
	if _, err := New("", t.TempDir(), testCfg()); err == nil {
		t.Error("empty API key accepted")
	}
}

// #endregion

// #region simulated-tests

func TestSimulatedEvaluate(t *testing.T) {
	s := NewSimulated("", nil)
	if s.Authoritative() {
		t.Error("simulated critic claims authority")
	}

	batch := loop.Batch{
		Pack: "p",
		Assets: map[string][]loop.Asset{
			"starting_soon": {{ID: "starting_soon_02"}, {ID: "starting_soon_01"}},
		},
	}
	ev, err := s.Evaluate(context.Background(), batch)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if !ev.Synthetic {
		t.Error("simulated evaluation not marked synthetic")
	}
	if ev.Selected["starting_soon"] != "starting_soon_01" {
		t.Errorf("expected first sorted ID, got %s", ev.Selected["starting_soon"])
	}
	if !rubric.InBounds(ev) {
		t.Errorf("synthetic scores out of bounds: %+v", ev)
	}
	for _, d := range ev.Dimensions {
		if d.Rationale == "" || d.Rationale[0] != '[' {
			t.Errorf("rationale not tagged as simulated: %q", d.Rationale)
		}
	}
}

func TestSimulatedEvaluate_BaseScoreOverride(t *testing.T) {
	s := NewSimulated("", nil)
	s.BaseScores = map[string]float64{
		rubric.DimBrandConsistency: 9.0,
		rubric.DimTechnicalQuality: 9.0,
		rubric.DimEtsyCompliance:   9.0,
		rubric.DimVisualAppeal:     9.0,
	}

	ev, err := s.Evaluate(context.Background(), loop.Batch{Pack: "p"})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(ev.OverallScore-9.0) > 1e-9 {
		t.Errorf("overridden score = %.1f, want 9.0", ev.OverallScore)
	}
}

// #endregion
