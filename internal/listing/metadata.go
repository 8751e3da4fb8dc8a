// Package listing builds marketplace metadata and publishes draft
// listings through the Etsy Open API v3.
package listing

// #region imports
import (
	"fmt"
	"strings"
)

// #endregion

// #region limits

const (
	maxTitleLen = 140
	maxTags     = 13
	maxTagLen   = 20

	DefaultPrice = 14.99
)

// #endregion

// #region metadata

// Metadata holds the SEO fields for one listing draft.
type Metadata struct {
	Title       string
	Description string
	Tags        []string
	Price       float64
}

// BuildMetadata derives title, description, and tags from the theme and
// category set, clamped to the marketplace field limits.
func BuildMetadata(theme string, categories []string) Metadata {
	title := fmt.Sprintf("%s Stream Overlay Pack | Twitch OBS Screens + Alerts | Instant Download", theme)
	// Clamp on rune boundaries so non-ASCII themes never leave a split rune.
	if r := []rune(title); len(r) > maxTitleLen {
		title = string(r[:maxTitleLen])
	}

	return Metadata{
		Title:       title,
		Description: buildDescription(theme, categories),
		Tags:        buildTags(theme),
		Price:       DefaultPrice,
	}
}

func buildDescription(theme string, categories []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<p><strong>%s Stream Overlay Pack</strong></p>\n", theme)
	b.WriteString("<p>A complete set of high-resolution 1920x1080 PNG overlays for your stream:</p>\n<ul>\n")
	for _, cat := range categories {
		fmt.Fprintf(&b, "<li>%s</li>\n", titleCase(cat))
	}
	b.WriteString("</ul>\n")
	b.WriteString("<p>Works with OBS, Streamlabs, and any software that accepts image sources.</p>\n")
	b.WriteString("<p><strong>Instant digital download.</strong> No physical item will be shipped.</p>\n")
	return b.String()
}

// titleCase turns a snake_case category into a display label.
func titleCase(cat string) string {
	words := strings.Split(cat, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// buildTags returns exactly 13 tags, each within the 20-character cap.
func buildTags(theme string) []string {
	candidates := []string{
		strings.ToLower(theme),
		"stream overlay",
		"twitch overlay",
		"obs overlay",
		"stream package",
		"streaming assets",
		"twitch graphics",
		"stream screens",
		"starting soon",
		"stream alerts",
		"streamer gift",
		"digital download",
		"gaming overlay",
		"twitch panels",
		"vtuber overlay",
	}

	tags := make([]string, 0, maxTags)
	seen := map[string]bool{}
	for _, t := range candidates {
		if len(tags) == maxTags {
			break
		}
		if len(t) == 0 || len(t) > maxTagLen || seen[t] {
			continue
		}
		seen[t] = true
		tags = append(tags, t)
	}
	return tags
}

// #endregion
