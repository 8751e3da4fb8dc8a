// Package packdir defines the on-disk layout of a pack working directory.
package packdir

import (
	"fmt"
	"os"
	"path/filepath"
)

// #region layout

// Subdirectory names, ordered the way the pipeline moves assets through them.
const (
	RawDir      = "01_raw"
	SelectedDir = "02_selected"
	FinalDir    = "03_final"
	MockupsDir  = "04_mockups"
	ListingDir  = "listing_images"
	DeliveryDir = "06_digital_delivery"
	QADir       = "qa"
)

// ConfigFile is the per-pack configuration filename.
const ConfigFile = "config.yaml"

// #endregion

// #region root

// Root returns the base directory holding all packs.
// PACK_QA_ROOT overrides the default "packs".
func Root() string {
	if v := os.Getenv("PACK_QA_ROOT"); v != "" {
		return v
	}
	return "packs"
}

// PackPath returns the directory for a named pack.
func PackPath(name string) string {
	return filepath.Join(Root(), name)
}

// #endregion

// #region ensure

// Ensure creates a directory if missing.
func Ensure(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", path, err)
	}
	return nil
}

// #endregion
