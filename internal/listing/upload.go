package listing

// #region imports
import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/danielpatrickdp/pack-qa/internal/packdir"
)

// #endregion

// #region publish

// Publish creates a draft listing for a finished pack and uploads its
// listing photos and delivery archives. Photos go up in sorted order so
// the first (landscape hero) image keeps rank 1.
func Publish(ctx context.Context, c *Client, packDir, theme string, categories []string) (Draft, error) {
	meta := BuildMetadata(theme, categories)

	draft, err := c.CreateDraft(ctx, meta)
	if err != nil {
		return Draft{}, err
	}

	photos, err := listFiles(filepath.Join(packDir, packdir.ListingDir), ".png", ".jpg", ".jpeg")
	if err != nil {
		return Draft{}, err
	}
	if len(photos) == 0 {
		return Draft{}, fmt.Errorf("no listing images in %s", packdir.ListingDir)
	}
	for i, photo := range photos {
		if err := c.UploadImage(ctx, draft.ListingID, photo, i+1); err != nil {
			return Draft{}, err
		}
	}
	log.Printf("[ETSY] uploaded %d listing image(s)", len(photos))

	archives, err := listFiles(filepath.Join(packDir, packdir.DeliveryDir), ".zip")
	if err != nil {
		return Draft{}, err
	}
	if len(archives) == 0 {
		return Draft{}, fmt.Errorf("no delivery archives in %s", packdir.DeliveryDir)
	}
	for _, archive := range archives {
		if err := c.UploadFile(ctx, draft.ListingID, archive); err != nil {
			return Draft{}, err
		}
	}
	log.Printf("[ETSY] uploaded %d delivery archive(s)", len(archives))

	return draft, nil
}

func listFiles(dir string, exts ...string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		for _, want := range exts {
			if ext == want {
				out = append(out, filepath.Join(dir, e.Name()))
				break
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

// #endregion
