package generate

// #region imports
import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/danielpatrickdp/pack-qa/internal/packdir"
)

// #endregion

// #region mockups

// The label badge sits in the top-left corner of every mockup.
var (
	mockupBadge = image.Rect(20, 20, 220, 80)
	mockupInk   = image.NewUniform(color.White)
	mockupFill  = image.NewUniform(color.RGBA{A: 128})
)

// RenderMockups composes the configured marketing labels onto final
// overlays, one mockup per labeled category. Packs without mockup_texts
// skip the step entirely.
func (p *Pipeline) RenderMockups() error {
	texts := p.cfg.Output.MockupTexts
	if len(texts) == 0 {
		return nil
	}

	mockupsDir := filepath.Join(p.packDir, packdir.MockupsDir)
	if err := packdir.Ensure(mockupsDir); err != nil {
		return err
	}

	kinds := make([]string, 0, len(texts))
	for kind := range texts {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	rendered := 0
	for _, kind := range kinds {
		src := findFinal(filepath.Join(p.packDir, packdir.FinalDir), kind)
		if src == "" {
			log.Printf("[GEN] no final image for mockup %q", kind)
			continue
		}
		dst := filepath.Join(mockupsDir, "mockup_"+kind+".png")
		if err := renderMockup(src, dst, mockupLabel(kind, texts[kind])); err != nil {
			return fmt.Errorf("mockup %s: %w", kind, err)
		}
		rendered++
	}
	log.Printf("[GEN] rendered %d mockup(s)", rendered)
	return nil
}

// findFinal locates the category's final overlay, accepting both the
// plain and the indexed naming scheme.
func findFinal(finalDir, kind string) string {
	plain := filepath.Join(finalDir, kind+".png")
	if _, err := os.Stat(plain); err == nil {
		return plain
	}
	matches, _ := filepath.Glob(filepath.Join(finalDir, kind+"_*.png"))
	sort.Strings(matches)
	if len(matches) > 0 {
		return matches[0]
	}
	return ""
}

func renderMockup(srcPath, dstPath, label string) error {
	in, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer in.Close()

	src, err := png.Decode(in)
	if err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(srcPath), err)
	}

	canvas := image.NewRGBA(src.Bounds())
	draw.Draw(canvas, canvas.Bounds(), src, src.Bounds().Min, draw.Src)
	draw.Draw(canvas, mockupBadge, mockupFill, image.Point{}, draw.Over)

	d := font.Drawer{
		Dst:  canvas,
		Src:  mockupInk,
		Face: basicfont.Face7x13,
		Dot:  fixed.P(30, 46),
	}
	d.DrawString(label)

	out, err := os.Create(dstPath)
	if err != nil {
		return err
	}
	if err := png.Encode(out, canvas); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// mockupLabel falls back to a title-cased category name when the
// configured text is empty.
func mockupLabel(kind, label string) string {
	if label != "" {
		return label
	}
	words := strings.Split(kind, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// #endregion
