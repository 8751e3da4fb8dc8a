package generate

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danielpatrickdp/pack-qa/internal/config"
	"github.com/danielpatrickdp/pack-qa/internal/packdir"
)

// #region helpers

func testPackConfig() *config.PackConfig {
	return &config.PackConfig{
		Theme: "Cyberpunk Neon",
		Prompts: map[string]string{
			"starting_soon": "Neon starting soon screen",
			"offline":       "Neon offline screen",
		},
		Resolution: config.Resolution{Width: 320, Height: 180},
		Output:     config.OutputSpec{FilenamePattern: "%s_%02d.png"},
	}
}

// #endregion

// #region schedule-tests

func TestVariantCount(t *testing.T) {
	tests := []struct {
		round int
		want  int
	}{
		{1, 3}, {2, 2}, {3, 1}, {4, 1},
	}
	for _, tt := range tests {
		if got := VariantCount(tt.round); got != tt.want {
			t.Errorf("VariantCount(%d) = %d, want %d", tt.round, got, tt.want)
		}
	}
}

// #endregion

// #region backend-tests

func TestDryRunBackend(t *testing.T) {
	b := &DryRunBackend{Seed: 7}
	res := config.Resolution{Width: 320, Height: 180}

	img1, err := b.Render(context.Background(), "neon overlay", res)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	decoded, err := png.Decode(bytes.NewReader(img1))
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	bounds := decoded.Bounds()
	if bounds.Dx() != 320 || bounds.Dy() != 180 {
		t.Errorf("rendered %dx%d, want 320x180", bounds.Dx(), bounds.Dy())
	}

	// Same seed and prompt reproduce the same bytes.
	img2, err := b.Render(context.Background(), "neon overlay", res)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(img1, img2) {
		t.Error("dry-run renders are not deterministic")
	}

	// Different prompt changes the fill.
	img3, _ := b.Render(context.Background(), "other prompt", res)
	if bytes.Equal(img1, img3) {
		t.Error("different prompts produced identical renders")
	}
}

// #endregion

// #region pipeline-tests

func TestPipelineRegenerate(t *testing.T) {
	dir := t.TempDir()
	cfg := testPackConfig()
	p := NewPipeline("p", dir, cfg, &DryRunBackend{})

	batch, err := p.Regenerate(context.Background(), 1, nil)
	if err != nil {
		t.Fatalf("Regenerate: %v", err)
	}

	if batch.Pack != "p" {
		t.Errorf("batch pack = %s", batch.Pack)
	}
	for _, cat := range []string{"starting_soon", "offline"} {
		assets := batch.Assets[cat]
		if len(assets) != 3 {
			t.Fatalf("%s: expected 3 round-1 variants, got %d", cat, len(assets))
		}
		for _, a := range assets {
			if _, err := os.Stat(a.Path); err != nil {
				t.Errorf("asset file missing: %s", a.Path)
			}
			if !strings.HasPrefix(a.ID, cat+"_") {
				t.Errorf("asset ID %q should carry the category prefix", a.ID)
			}
		}
	}

	// Round 2 drops to 2 variants and lands in its own raw subdirectory.
	batch2, err := p.Regenerate(context.Background(), 2, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(batch2.Assets["offline"]) != 2 {
		t.Errorf("round 2 should render 2 variants, got %d", len(batch2.Assets["offline"]))
	}
	if !strings.Contains(batch2.Assets["offline"][0].Path, "round02") {
		t.Errorf("round 2 assets in wrong directory: %s", batch2.Assets["offline"][0].Path)
	}
}

func TestPipelineRegenerate_AppliesDeltas(t *testing.T) {
	dir := t.TempDir()
	cfg := testPackConfig()
	p := NewPipeline("p", dir, cfg, &DryRunBackend{})

	_, err := p.Regenerate(context.Background(), 2,
		[]string{"prompts.offline -> enhance: 'rain streaks'"})
	if err != nil {
		t.Fatalf("Regenerate: %v", err)
	}

	if !strings.Contains(cfg.Prompts["offline"], "rain streaks") {
		t.Errorf("directive not applied to prompt: %q", cfg.Prompts["offline"])
	}

	// Refined config persisted next to the pack assets.
	saved, err := config.Load(filepath.Join(dir, packdir.ConfigFile))
	if err != nil {
		t.Fatalf("reload config: %v", err)
	}
	if !strings.Contains(saved.Prompts["offline"], "rain streaks") {
		t.Error("refined config not saved to disk")
	}
}

func TestPipelinePromote(t *testing.T) {
	dir := t.TempDir()
	cfg := testPackConfig()
	p := NewPipeline("p", dir, cfg, &DryRunBackend{})

	batch, err := p.Regenerate(context.Background(), 1, nil)
	if err != nil {
		t.Fatal(err)
	}

	selected := map[string]string{
		"starting_soon": batch.Assets["starting_soon"][1].ID,
		"offline":       batch.Assets["offline"][0].ID,
	}
	if err := p.Promote(selected); err != nil {
		t.Fatalf("Promote: %v", err)
	}

	for cat := range selected {
		final := filepath.Join(dir, packdir.FinalDir, cat+".png")
		if _, err := os.Stat(final); err != nil {
			t.Errorf("promoted overlay missing: %s", final)
		}
	}

	if err := p.Promote(map[string]string{"starting_soon": "no_such_id"}); err == nil {
		t.Error("promoting an unknown asset ID should fail")
	}
}

// #endregion

// #region prompt-tests

func TestComposePrompt(t *testing.T) {
	cfg := testPackConfig()

	if got := ComposePrompt(cfg, "offline"); got != "Neon offline screen" {
		t.Errorf("without brand tokens prompt should pass through, got %q", got)
	}

	cfg.Brand = &config.BrandTokens{
		PrimaryColors: []string{"#FF00FF", "#00FFFF"},
		Lighting:      "neon glow",
		Mood:          "cyberpunk",
	}
	got := ComposePrompt(cfg, "offline")
	for _, want := range []string{"Neon offline screen", "primary colors #FF00FF, #00FFFF", "neon glow", "cyberpunk mood"} {
		if !strings.Contains(got, want) {
			t.Errorf("composed prompt missing %q: %q", want, got)
		}
	}
}

// #endregion
