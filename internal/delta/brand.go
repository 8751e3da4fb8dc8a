package delta

// #region imports
import (
	"fmt"
	"regexp"
	"strings"

	"github.com/danielpatrickdp/pack-qa/internal/config"
)

// #endregion

// #region defaults

// DefaultBrandTokens derives an initial brand identity from the pack theme.
func DefaultBrandTokens(theme string) *config.BrandTokens {
	lower := strings.ToLower(theme)

	switch {
	case strings.Contains(lower, "cyberpunk") || strings.Contains(lower, "neon"):
		return &config.BrandTokens{
			PrimaryColors:   []string{"#FF00FF", "#00FFFF", "#FFD700"},
			SecondaryColors: []string{"#1A1A2E", "#16213E", "#0F3460"},
			Texture:         "wet glass with specular highlights, chrome reflections",
			Composition:     "rule of thirds, golden ratio focal point, dynamic asymmetry",
			Lighting:        "neon glow, strong backlight, volumetric fog, rim lighting",
			Mood:            "cyberpunk, energetic, futuristic, mysterious",
		}
	case strings.Contains(lower, "fantasy") || strings.Contains(lower, "magic"):
		return &config.BrandTokens{
			PrimaryColors:   []string{"#8B00FF", "#FF1493", "#FFD700"},
			SecondaryColors: []string{"#2C003E", "#4B0082", "#6A0DAD"},
			Texture:         "ethereal glow, particle effects, magical sparkles",
			Composition:     "centered symmetry, mystical framing, depth of field",
			Lighting:        "soft ambient glow, magical aura, ethereal backlight",
			Mood:            "magical, enchanting, mystical, dreamlike",
		}
	default:
		return &config.BrandTokens{
			PrimaryColors:   []string{"#FF6B6B", "#4ECDC4", "#FFE66D"},
			SecondaryColors: []string{"#2C2C2C", "#3D3D3D", "#4E4E4E"},
			Texture:         "clean surface, subtle gradients",
			Composition:     "balanced layout, clear focal point",
			Lighting:        "soft natural light, balanced shadows",
			Mood:            "modern, professional, engaging",
		}
	}
}

// #endregion

// #region apply-brand

// ApplyToBrand mutates a single brand token field per the directive.
// Returns the change made, or nil when the target is unknown.
func ApplyToBrand(b *config.BrandTokens, token string, d Delta) *Change {
	set := func(field *string) *Change {
		before := *field
		if d.Action == ActionChange {
			*field = d.Content
		} else {
			*field = ApplyToPrompt(*field, d)
		}
		return &Change{Target: d.Target, Action: d.Action, Before: Excerpt(before), After: Excerpt(*field)}
	}

	switch token {
	case "texture":
		return set(&b.Texture)
	case "composition":
		return set(&b.Composition)
	case "lighting":
		return set(&b.Lighting)
	case "mood":
		return set(&b.Mood)
	case "primary_colors":
		before := strings.Join(b.PrimaryColors, ", ")
		b.PrimaryColors = appendColors(b.PrimaryColors, d.Content)
		return &Change{Target: d.Target, Action: d.Action, Before: before, After: strings.Join(b.PrimaryColors, ", ")}
	case "secondary_colors":
		before := strings.Join(b.SecondaryColors, ", ")
		b.SecondaryColors = appendColors(b.SecondaryColors, d.Content)
		return &Change{Target: d.Target, Action: d.Action, Before: before, After: strings.Join(b.SecondaryColors, ", ")}
	}
	return nil
}

var hexColor = regexp.MustCompile(`#[0-9A-Fa-f]{6}`)

func appendColors(existing []string, content string) []string {
	for _, c := range hexColor.FindAllString(content, -1) {
		c = strings.ToUpper(c)
		dup := false
		for _, e := range existing {
			if strings.EqualFold(e, c) {
				dup = true
				break
			}
		}
		if !dup {
			existing = append(existing, c)
		}
	}
	return existing
}

// #endregion

// #region validate

// ValidateBrandTokens returns advisory warnings about a brand identity.
func ValidateBrandTokens(b *config.BrandTokens) []string {
	var warnings []string
	if b == nil {
		return []string{"no brand tokens set"}
	}
	if len(b.PrimaryColors) == 0 {
		warnings = append(warnings, "no primary colors defined")
	}
	if len(b.PrimaryColors) > 4 {
		warnings = append(warnings, fmt.Sprintf("%d primary colors, palettes over 4 dilute brand identity", len(b.PrimaryColors)))
	}
	for _, c := range append(append([]string{}, b.PrimaryColors...), b.SecondaryColors...) {
		if !hexColor.MatchString(c) {
			warnings = append(warnings, fmt.Sprintf("color %q is not a hex value", c))
		}
	}
	if b.Mood == "" {
		warnings = append(warnings, "mood token is empty")
	}
	return warnings
}

// #endregion
