// Package deliver assembles the customer-facing download bundles: one
// ZIP archive per category, built from the final overlays and capped at
// the marketplace upload limits.
package deliver

// #region imports
import (
	"archive/zip"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/danielpatrickdp/pack-qa/internal/packdir"
)

// #endregion

// #region limits

const (
	// Marketplace rules for digital downloads.
	maxFilesPerZip = 5
	maxZipBytes    = 20 << 20

	// At most this many variants ship per category bundle.
	variantsPerBundle = 3
)

// #endregion

// #region build

// Bundle describes one produced archive.
type Bundle struct {
	Category string
	Path     string
	Files    int
	Bytes    int64
}

// BuildAll groups the final overlays by category prefix and writes one
// archive per category into the delivery directory.
func BuildAll(packDir, theme string) ([]Bundle, error) {
	finalDir := filepath.Join(packDir, packdir.FinalDir)
	outDir := filepath.Join(packDir, packdir.DeliveryDir)
	if err := packdir.Ensure(outDir); err != nil {
		return nil, err
	}

	groups, err := groupByCategory(finalDir)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("no final images in %s", finalDir)
	}

	cats := make([]string, 0, len(groups))
	for cat := range groups {
		cats = append(cats, cat)
	}
	sort.Strings(cats)

	var bundles []Bundle
	for _, cat := range cats {
		files := groups[cat]
		if len(files) > variantsPerBundle {
			files = files[:variantsPerBundle]
		}

		bundle, err := buildOne(outDir, theme, cat, files)
		if err != nil {
			return nil, fmt.Errorf("bundle %s: %w", cat, err)
		}
		bundles = append(bundles, bundle)
		log.Printf("[DELIVER] %s: %d file(s), %.1f MB",
			filepath.Base(bundle.Path), bundle.Files, float64(bundle.Bytes)/(1<<20))
	}
	return bundles, nil
}

// buildOne writes a single category archive with renamed variants and a
// README, then verifies the size cap.
func buildOne(outDir, theme, category string, files []string) (Bundle, error) {
	path := filepath.Join(outDir, category+".zip")
	f, err := os.Create(path)
	if err != nil {
		return Bundle{}, err
	}

	zw := zip.NewWriter(f)
	count := 0
	for i, src := range files {
		name := fmt.Sprintf("%s_v%d%s", category, i+1, filepath.Ext(src))
		if err := addFile(zw, name, src); err != nil {
			zw.Close()
			f.Close()
			return Bundle{}, err
		}
		count++
	}

	w, err := zw.Create("README.txt")
	if err == nil {
		_, err = io.WriteString(w, readme(theme, category))
	}
	if err != nil {
		zw.Close()
		f.Close()
		return Bundle{}, fmt.Errorf("write README: %w", err)
	}
	count++

	if err := zw.Close(); err != nil {
		f.Close()
		return Bundle{}, err
	}
	if err := f.Close(); err != nil {
		return Bundle{}, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return Bundle{}, err
	}
	if count > maxFilesPerZip {
		return Bundle{}, fmt.Errorf("%d files exceeds the %d-file limit", count, maxFilesPerZip)
	}
	if info.Size() > maxZipBytes {
		return Bundle{}, fmt.Errorf("%d bytes exceeds the %d MB limit", info.Size(), maxZipBytes>>20)
	}

	return Bundle{Category: category, Path: path, Files: count, Bytes: info.Size()}, nil
}

func addFile(zw *zip.Writer, name, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, in)
	return err
}

// #endregion

// #region grouping

// groupByCategory buckets final images by the category prefix of their
// filename. "starting_soon.png" and "starting_soon_02.png" share a bucket.
func groupByCategory(finalDir string) (map[string][]string, error) {
	entries, err := os.ReadDir(finalDir)
	if err != nil {
		return nil, fmt.Errorf("read final dir: %w", err)
	}

	groups := map[string][]string{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".png" && ext != ".jpg" && ext != ".jpeg" {
			continue
		}
		cat := categoryOf(e.Name())
		groups[cat] = append(groups[cat], filepath.Join(finalDir, e.Name()))
	}
	for cat := range groups {
		sort.Strings(groups[cat])
	}
	return groups, nil
}

// categoryOf strips the extension and any trailing _NN variant counter.
func categoryOf(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if i := strings.LastIndex(base, "_"); i > 0 {
		tail := base[i+1:]
		if len(tail) > 0 && isDigits(tail) {
			return base[:i]
		}
	}
	return base
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// #endregion

// #region readme

func readme(theme, category string) string {
	return fmt.Sprintf(`%s - %s

Thank you for your purchase!

Contents: high-resolution PNG overlays (1920x1080) for this category.
Import them as image sources in OBS, Streamlabs, or similar software.

For personal use on your own stream. Redistribution or resale of the
files themselves is not permitted.
`, theme, strings.ReplaceAll(category, "_", " "))
}

// #endregion
