// Package generate produces the per-round image batches. It owns the
// prompt composition, the variant schedule, and the raw/final directory
// layout inside a pack.
package generate

// #region imports
import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/danielpatrickdp/pack-qa/internal/config"
	"github.com/danielpatrickdp/pack-qa/internal/delta"
	"github.com/danielpatrickdp/pack-qa/internal/loop"
	"github.com/danielpatrickdp/pack-qa/internal/packdir"
)

// #endregion

// #region schedule

// VariantCount returns how many variants to render per category in a
// given round. Later rounds narrow the search: 3, then 2, then 1.
func VariantCount(round int) int {
	switch {
	case round <= 1:
		return 3
	case round == 2:
		return 2
	default:
		return 1
	}
}

// #endregion

// #region pipeline

// Pipeline renders a batch per round and applies refinement directives
// to the pack config between rounds.
type Pipeline struct {
	pack    string
	packDir string
	cfg     *config.PackConfig
	backend Backend
	last    loop.Batch
}

// NewPipeline wires a pack config to a rendering backend.
func NewPipeline(pack, dir string, cfg *config.PackConfig, backend Backend) *Pipeline {
	return &Pipeline{pack: pack, packDir: dir, cfg: cfg, backend: backend}
}

// Config exposes the live pack config, including directive rewrites.
func (p *Pipeline) Config() *config.PackConfig { return p.cfg }

// Regenerate applies the previous round's directives to the prompts,
// persists the updated config, and renders a fresh batch of variants.
func (p *Pipeline) Regenerate(ctx context.Context, round int, deltas []string) (loop.Batch, error) {
	if len(deltas) > 0 {
		changes := delta.ApplyAll(p.cfg, deltas)
		for _, ch := range changes {
			log.Printf("[GEN] %s %s: %q -> %q", ch.Action, ch.Target, ch.Before, ch.After)
		}
		if err := p.cfg.Save(filepath.Join(p.packDir, packdir.ConfigFile)); err != nil {
			return loop.Batch{}, fmt.Errorf("persist refined config: %w", err)
		}
	}

	rawDir := filepath.Join(p.packDir, packdir.RawDir, fmt.Sprintf("round%02d", round))
	if err := packdir.Ensure(rawDir); err != nil {
		return loop.Batch{}, err
	}

	batch := loop.Batch{Pack: p.pack, Assets: map[string][]loop.Asset{}}
	variants := VariantCount(round)

	for _, cat := range p.cfg.Categories() {
		prompt := ComposePrompt(p.cfg, cat)
		for v := 1; v <= variants; v++ {
			img, err := p.backend.Render(ctx, prompt, p.cfg.Resolution)
			if err != nil {
				return loop.Batch{}, fmt.Errorf("render %s variant %d: %w", cat, v, err)
			}

			name := fmt.Sprintf(p.cfg.Output.FilenamePattern, cat, v)
			path := filepath.Join(rawDir, name)
			if err := os.WriteFile(path, img, 0o644); err != nil {
				return loop.Batch{}, fmt.Errorf("write %s: %w", path, err)
			}

			id := strings.TrimSuffix(name, filepath.Ext(name))
			batch.Assets[cat] = append(batch.Assets[cat], loop.Asset{ID: id, Path: path})
		}
		log.Printf("[GEN] round %d: %d variant(s) for %s", round, variants, cat)
	}

	p.last = batch
	return batch, nil
}

// #endregion

// #region promote

// Promote copies the critic's selected assets from the most recent batch
// into the final overlay directory, one file per category.
func (p *Pipeline) Promote(selected map[string]string) error {
	finalDir := filepath.Join(p.packDir, packdir.FinalDir)
	if err := packdir.Ensure(finalDir); err != nil {
		return err
	}

	for cat, id := range selected {
		src := ""
		for _, a := range p.last.Assets[cat] {
			if a.ID == id {
				src = a.Path
				break
			}
		}
		if src == "" {
			return fmt.Errorf("selected asset %q not found in %s batch", id, cat)
		}
		dst := filepath.Join(finalDir, cat+".png")
		if err := copyFile(src, dst); err != nil {
			return fmt.Errorf("promote %s: %w", cat, err)
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// #endregion

// #region listing-images

// Listing photo sizes. The marketplace wants at least 2000px on the
// short side and a landscape or square first image.
var listingSizes = []config.Resolution{
	{Width: 3000, Height: 2400},
	{Width: 2400, Height: 2400},
}

// RenderListingImages produces the marketplace preview photos: one
// landscape hero followed by a square shot per category.
func (p *Pipeline) RenderListingImages(ctx context.Context) error {
	dir := filepath.Join(p.packDir, packdir.ListingDir)
	if err := packdir.Ensure(dir); err != nil {
		return err
	}

	hero, err := p.backend.Render(ctx, heroPrompt(p.cfg), listingSizes[0])
	if err != nil {
		return fmt.Errorf("render hero image: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "01_hero.png"), hero, 0o644); err != nil {
		return fmt.Errorf("write hero image: %w", err)
	}

	for i, cat := range p.cfg.Categories() {
		img, err := p.backend.Render(ctx, ComposePrompt(p.cfg, cat)+". Product preview shot", listingSizes[1])
		if err != nil {
			return fmt.Errorf("render listing image for %s: %w", cat, err)
		}
		name := fmt.Sprintf("%02d_%s.png", i+2, cat)
		if err := os.WriteFile(filepath.Join(dir, name), img, 0o644); err != nil {
			return fmt.Errorf("write listing image %s: %w", name, err)
		}
	}
	log.Printf("[GEN] rendered %d listing image(s)", len(p.cfg.Categories())+1)
	return nil
}

func heroPrompt(cfg *config.PackConfig) string {
	return fmt.Sprintf("Product hero shot for a %s themed stream overlay pack, showing all screens arranged in a grid", cfg.Theme)
}

// #endregion

// #region prompt

// ComposePrompt merges the category prompt with the pack's brand tokens.
func ComposePrompt(cfg *config.PackConfig, category string) string {
	base := cfg.Prompts[category]
	b := cfg.Brand
	if b == nil {
		return base
	}

	var parts []string
	if len(b.PrimaryColors) > 0 {
		parts = append(parts, "primary colors "+strings.Join(b.PrimaryColors, ", "))
	}
	if len(b.SecondaryColors) > 0 {
		parts = append(parts, "accent colors "+strings.Join(b.SecondaryColors, ", "))
	}
	if b.Texture != "" {
		parts = append(parts, b.Texture+" texture")
	}
	if b.Composition != "" {
		parts = append(parts, b.Composition)
	}
	if b.Lighting != "" {
		parts = append(parts, b.Lighting)
	}
	if b.Mood != "" {
		parts = append(parts, b.Mood+" mood")
	}
	if len(parts) == 0 {
		return base
	}
	return base + ". Brand style: " + strings.Join(parts, "; ")
}

var _ loop.Regenerator = (*Pipeline)(nil)

// #endregion
