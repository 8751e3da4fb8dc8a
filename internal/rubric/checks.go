package rubric

// #region imports
import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/danielpatrickdp/pack-qa/internal/config"
	"github.com/danielpatrickdp/pack-qa/internal/packdir"
)

// #endregion

// #region limits

// Etsy marketplace limits enforced by the automated checks.
const (
	minListingPx       = 2000
	listingWarnBytes   = 1 << 20  // 1MB recommended cap per listing image
	listingErrorBytes  = 2 << 20  // 2MB hard limit
	maxDeliveryFiles   = 5        // max digital download files per listing
	deliveryLimitBytes = 20 << 20 // 20MB per download file
)

// issuePenalty is deducted from 10 per automated issue.
const issuePenalty = 0.5

// #endregion

// #region overlays

// ValidateOverlays checks every final overlay PNG against the target resolution.
func ValidateOverlays(finalDir string, res config.Resolution) ([]string, bool) {
	var issues []string

	if _, err := os.Stat(finalDir); err != nil {
		issues = append(issues, fmt.Sprintf("final directory not found: %s", finalDir))
		return issues, false
	}

	overlays, _ := filepath.Glob(filepath.Join(finalDir, "*.png"))
	if len(overlays) == 0 {
		issues = append(issues, fmt.Sprintf("no overlay PNG files found in %s", finalDir))
		return issues, false
	}

	sort.Strings(overlays)
	for _, p := range overlays {
		w, h, err := imageSize(p)
		if err != nil {
			issues = append(issues, fmt.Sprintf("failed to read %s: %v", filepath.Base(p), err))
			continue
		}
		if w != res.Width || h != res.Height {
			issues = append(issues, fmt.Sprintf(
				"overlay wrong resolution: %s is %dx%d, expected %dx%d",
				filepath.Base(p), w, h, res.Width, res.Height))
		}
	}

	return issues, len(issues) == 0
}

// #endregion

// #region listings

// ValidateListingImages checks listing photos against Etsy requirements:
// minimum 2000px on the smallest side, first image landscape or square,
// 1MB recommended / 2MB hard size limits.
func ValidateListingImages(listingDir string) (errs, warnings []string, ok bool) {
	if _, err := os.Stat(listingDir); err != nil {
		// Listing photos are produced late in the pipeline; absence is not a failure.
		return nil, nil, true
	}

	var photos []string
	for _, pat := range []string{"*.jpg", "*.jpeg", "*.png"} {
		matches, _ := filepath.Glob(filepath.Join(listingDir, pat))
		photos = append(photos, matches...)
	}
	sort.Strings(photos)

	for idx, p := range photos {
		name := filepath.Base(p)

		w, h, err := imageSize(p)
		if err != nil {
			errs = append(errs, fmt.Sprintf("failed to validate %s: %v", name, err))
			continue
		}

		if w < minListingPx || h < minListingPx {
			errs = append(errs, fmt.Sprintf(
				"%s: too small %dx%d, Etsy requires min %dpx on smallest side",
				name, w, h, minListingPx))
		}
		if idx == 0 && w < h {
			errs = append(errs, fmt.Sprintf(
				"%s: first listing image should be landscape or square (current: %dx%d)",
				name, w, h))
		}

		if info, err := os.Stat(p); err == nil {
			switch {
			case info.Size() > listingErrorBytes:
				errs = append(errs, fmt.Sprintf(
					"%s: size %.1fMB exceeds Etsy's 2MB limit", name, mb(info.Size())))
			case info.Size() > listingWarnBytes:
				warnings = append(warnings, fmt.Sprintf(
					"%s: size %.1fMB > 1MB, Etsy recommends <=1MB for faster loading", name, mb(info.Size())))
			}
		}
	}

	return errs, warnings, len(errs) == 0
}

// #endregion

// #region downloads

// ValidateDeliveryZips checks download ZIPs against Etsy digital-delivery
// limits: max 5 files, max 20MB each.
func ValidateDeliveryZips(zipsDir string) ([]string, bool) {
	if _, err := os.Stat(zipsDir); err != nil {
		return nil, true
	}

	zips, _ := filepath.Glob(filepath.Join(zipsDir, "*.zip"))
	var issues []string

	if len(zips) > maxDeliveryFiles {
		issues = append(issues, fmt.Sprintf(
			"too many download files: %d ZIPs found, Etsy allows max %d", len(zips), maxDeliveryFiles))
	}

	sort.Strings(zips)
	for _, p := range zips {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		if info.Size() > deliveryLimitBytes {
			issues = append(issues, fmt.Sprintf(
				"%s: size %.1fMB exceeds Etsy's 20MB limit", filepath.Base(p), mb(info.Size())))
		}
	}

	return issues, len(issues) == 0
}

// #endregion

// #region critical

// CheckCriticalIssues finds problems that block shipping regardless of score:
// missing final assets, resolution mismatches, oversized download files.
func CheckCriticalIssues(packDir string, res config.Resolution) []string {
	var critical []string

	finalDir := filepath.Join(packDir, packdir.FinalDir)
	if _, err := os.Stat(finalDir); err != nil {
		critical = append(critical, fmt.Sprintf("missing %s/ directory", packdir.FinalDir))
		return critical
	}

	overlays, _ := filepath.Glob(filepath.Join(finalDir, "*.png"))
	if len(overlays) == 0 {
		critical = append(critical, fmt.Sprintf("no overlay PNG files found in %s/", packdir.FinalDir))
	}

	overlayIssues, _ := ValidateOverlays(finalDir, res)
	for _, issue := range overlayIssues {
		if strings.Contains(strings.ToLower(issue), "wrong resolution") {
			critical = append(critical, "CRITICAL: "+issue)
		}
	}

	zipIssues, _ := ValidateDeliveryZips(filepath.Join(packDir, packdir.DeliveryDir))
	for _, issue := range zipIssues {
		if strings.Contains(strings.ToLower(issue), "exceeds") {
			critical = append(critical, "CRITICAL: "+issue)
		}
	}

	return critical
}

// #endregion

// #region automated-score

// AutomatedScore computes the technical quality score from automated checks:
// start at 10, deduct 0.5 per issue, floor at 0.
func AutomatedScore(packDir string, res config.Resolution) (float64, []string) {
	var all []string

	overlayIssues, _ := ValidateOverlays(filepath.Join(packDir, packdir.FinalDir), res)
	all = append(all, overlayIssues...)

	listingErrs, _, _ := ValidateListingImages(filepath.Join(packDir, packdir.ListingDir))
	all = append(all, listingErrs...)

	zipIssues, _ := ValidateDeliveryZips(filepath.Join(packDir, packdir.DeliveryDir))
	all = append(all, zipIssues...)

	score := 10.0 - float64(len(all))*issuePenalty
	if score < 0 {
		score = 0
	}
	return score, all
}

// #endregion

// #region helpers

func imageSize(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

func mb(n int64) float64 {
	return float64(n) / (1 << 20)
}

// #endregion
