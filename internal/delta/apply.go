package delta

// #region imports
import (
	"log"
	"strings"

	"github.com/danielpatrickdp/pack-qa/internal/config"
)

// #endregion

// #region apply-all

// ApplyAll routes a round's directives into the pack config, rewriting
// category prompts and brand tokens in place. Returns the change log.
func ApplyAll(cfg *config.PackConfig, raws []string) []Change {
	var changes []Change

	for _, d := range ParseAll(raws) {
		switch {
		case strings.HasPrefix(d.Target, "prompts."):
			category := strings.TrimPrefix(d.Target, "prompts.")
			changes = append(changes, applyPromptTarget(cfg, category, d)...)

		case strings.HasPrefix(d.Target, "brand."), strings.HasPrefix(d.Target, "brand_tokens."):
			token := d.Target[strings.Index(d.Target, ".")+1:]
			if cfg.Brand == nil {
				cfg.Brand = DefaultBrandTokens(cfg.Theme)
			}
			if ch := ApplyToBrand(cfg.Brand, token, d); ch != nil {
				changes = append(changes, *ch)
			} else {
				log.Printf("[DELTA] unknown brand token target: %s", d.Target)
			}

		default:
			log.Printf("[DELTA] unknown target %q, applying to all prompts", d.Target)
			changes = append(changes, applyPromptTarget(cfg, "general", d)...)
		}
	}

	return changes
}

// applyPromptTarget rewrites one category prompt, or all of them for the
// "general" pseudo-category.
func applyPromptTarget(cfg *config.PackConfig, category string, d Delta) []Change {
	if category != "general" {
		before, ok := cfg.Prompts[category]
		if !ok {
			log.Printf("[DELTA] directive targets unknown category %q", category)
			return nil
		}
		after := ApplyToPrompt(before, d)
		cfg.Prompts[category] = after
		return []Change{{Target: d.Target, Action: d.Action, Before: Excerpt(before), After: Excerpt(after)}}
	}

	var changes []Change
	for _, cat := range cfg.Categories() {
		before := cfg.Prompts[cat]
		after := ApplyToPrompt(before, d)
		cfg.Prompts[cat] = after
		changes = append(changes, Change{
			Target: "prompts." + cat, Action: d.Action,
			Before: Excerpt(before), After: Excerpt(after),
		})
	}
	return changes
}

// #endregion
