package rubric

import (
	"archive/zip"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danielpatrickdp/pack-qa/internal/config"
	"github.com/danielpatrickdp/pack-qa/internal/packdir"
)

// #region helpers

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}

func writeZip(t *testing.T, path string, padding int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	zw := zip.NewWriter(f)
	w, err := zw.Create("readme.txt")
	if err != nil {
		t.Fatalf("zip entry: %v", err)
	}
	if _, err := w.Write(make([]byte, padding)); err != nil {
		t.Fatalf("zip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
}

var testRes = config.Resolution{Width: 1920, Height: 1080}

// #endregion

// #region overlay-tests

func TestValidateOverlays(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "starting_soon.png"), 1920, 1080)
	writePNG(t, filepath.Join(dir, "be_right_back.png"), 1920, 1080)

	issues, ok := ValidateOverlays(dir, testRes)
	if !ok || len(issues) != 0 {
		t.Errorf("clean overlays flagged: %v", issues)
	}

	writePNG(t, filepath.Join(dir, "offline.png"), 1280, 720)
	issues, ok = ValidateOverlays(dir, testRes)
	if ok {
		t.Error("undersized overlay passed validation")
	}
	if len(issues) != 1 || !strings.Contains(issues[0], "wrong resolution") {
		t.Errorf("unexpected issues: %v", issues)
	}
}

func TestValidateOverlays_EmptyDir(t *testing.T) {
	issues, ok := ValidateOverlays(t.TempDir(), testRes)
	if ok {
		t.Error("empty final dir should fail")
	}
	if len(issues) == 0 {
		t.Error("expected a missing-overlay issue")
	}
}

// #endregion

// #region listing-tests

func TestValidateListingImages(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "01_hero.png"), 3000, 2400)
	writePNG(t, filepath.Join(dir, "02_detail.png"), 2400, 2400)

	errs, _, ok := ValidateListingImages(dir)
	if !ok {
		t.Errorf("valid listing photos rejected: %v", errs)
	}
}

func TestValidateListingImages_TooSmall(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "01_hero.png"), 1200, 900)

	errs, _, ok := ValidateListingImages(dir)
	if ok {
		t.Error("undersized listing photo accepted")
	}
	if len(errs) != 1 || !strings.Contains(errs[0], "too small") {
		t.Errorf("unexpected errors: %v", errs)
	}
}

func TestValidateListingImages_PortraitFirst(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "01_hero.png"), 2000, 3000)

	errs, _, ok := ValidateListingImages(dir)
	if ok {
		t.Error("portrait first image accepted")
	}
	found := false
	for _, e := range errs {
		if strings.Contains(e, "landscape or square") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected orientation error, got: %v", errs)
	}
}

func TestValidateListingImages_MissingDirIsOK(t *testing.T) {
	_, _, ok := ValidateListingImages(filepath.Join(t.TempDir(), "nonexistent"))
	if !ok {
		t.Error("absent listing dir should not fail early rounds")
	}
}

// #endregion

// #region delivery-tests

func TestValidateDeliveryZips_TooMany(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 6; i++ {
		writeZip(t, filepath.Join(dir, string(rune('a'+i))+".zip"), 16)
	}

	issues, ok := ValidateDeliveryZips(dir)
	if ok {
		t.Error("six download files accepted, limit is five")
	}
	if len(issues) != 1 || !strings.Contains(issues[0], "too many") {
		t.Errorf("unexpected issues: %v", issues)
	}
}

func TestValidateDeliveryZips_Clean(t *testing.T) {
	dir := t.TempDir()
	writeZip(t, filepath.Join(dir, "overlays.zip"), 16)

	issues, ok := ValidateDeliveryZips(dir)
	if !ok {
		t.Errorf("small zip rejected: %v", issues)
	}
}

// #endregion

// #region scoring-tests

func TestAutomatedScore(t *testing.T) {
	packDir := t.TempDir()
	finalDir := filepath.Join(packDir, packdir.FinalDir)
	if err := os.MkdirAll(finalDir, 0o755); err != nil {
		t.Fatal(err)
	}
	writePNG(t, filepath.Join(finalDir, "starting_soon.png"), 1920, 1080)

	score, issues := AutomatedScore(packDir, testRes)
	if score != 10.0 {
		t.Errorf("clean pack scored %.1f, want 10.0: %v", score, issues)
	}

	writePNG(t, filepath.Join(finalDir, "offline.png"), 800, 600)
	score, issues = AutomatedScore(packDir, testRes)
	if score != 9.5 {
		t.Errorf("one issue should deduct 0.5: got %.1f (%v)", score, issues)
	}
}

func TestCheckCriticalIssues(t *testing.T) {
	packDir := t.TempDir()

	critical := CheckCriticalIssues(packDir, testRes)
	if len(critical) == 0 {
		t.Error("missing final dir should be critical")
	}

	finalDir := filepath.Join(packDir, packdir.FinalDir)
	if err := os.MkdirAll(finalDir, 0o755); err != nil {
		t.Fatal(err)
	}
	writePNG(t, filepath.Join(finalDir, "starting_soon.png"), 1920, 1080)

	critical = CheckCriticalIssues(packDir, testRes)
	if len(critical) != 0 {
		t.Errorf("clean pack has critical issues: %v", critical)
	}

	writePNG(t, filepath.Join(finalDir, "offline.png"), 1280, 720)
	critical = CheckCriticalIssues(packDir, testRes)
	if len(critical) != 1 || !strings.HasPrefix(critical[0], "CRITICAL: ") {
		t.Errorf("expected one CRITICAL resolution issue, got: %v", critical)
	}
}

// #endregion
