// Package delta parses and applies the critic's improvement directives to
// pack prompts and brand tokens between rounds.
package delta

// #region imports
import (
	"fmt"
	"log"
	"regexp"
	"strings"
)

// #endregion

// #region action

// Action is the imperative verb carried by a directive.
type Action string

const (
	ActionEnhance    Action = "enhance"
	ActionRefine     Action = "refine"
	ActionAdjust     Action = "adjust"
	ActionSimplify   Action = "simplify"
	ActionStrengthen Action = "strengthen"
	ActionVary       Action = "vary"

	// Legacy verbs still emitted by older critic prompts.
	ActionAdd    Action = "add"
	ActionRemove Action = "remove"
	ActionChange Action = "change"
)

// #endregion

// #region delta

// Delta is a parsed improvement directive addressed to a generation
// parameter: a category prompt (prompts.<category>) or a shared brand
// setting (brand.<token>).
type Delta struct {
	Target  string
	Action  Action
	Content string
}

// TargetGeneral is the fallback target for unparseable directives.
const TargetGeneral = "prompts.general"

// #endregion

// #region parse

// deltaPattern matches the wire format: target → Action: 'content'.
// Content is anchored on the trailing quote so interior apostrophes
// survive parsing.
var deltaPattern = regexp.MustCompile(`^(.+?)\s*(?:→|->)\s*(\w+):\s*['"](.+)['"]\s*$`)

// Parse decodes a raw directive string. Unparseable input degrades to a
// general adjustment rather than being dropped.
func Parse(raw string) Delta {
	m := deltaPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		log.Printf("[DELTA] could not parse directive format: %s", raw)
		return Delta{Target: TargetGeneral, Action: ActionAdjust, Content: raw}
	}
	return Delta{
		Target:  strings.TrimSpace(m[1]),
		Action:  Action(strings.ToLower(strings.TrimSpace(m[2]))),
		Content: strings.TrimSpace(m[3]),
	}
}

// ParseAll decodes a batch of raw directives.
func ParseAll(raws []string) []Delta {
	out := make([]Delta, 0, len(raws))
	for _, raw := range raws {
		out = append(out, Parse(raw))
	}
	return out
}

// #endregion

// #region apply-prompt

// ApplyToPrompt rewrites a single prompt according to the directive's verb.
func ApplyToPrompt(prompt string, d Delta) string {
	switch d.Action {
	case ActionAdd, ActionEnhance, ActionStrengthen:
		return strings.TrimRight(prompt, " ,.") + ", " + d.Content

	case ActionAdjust, ActionRefine:
		return strings.TrimRight(prompt, " ") + ". Refinement: " + d.Content

	case ActionVary:
		return strings.TrimRight(prompt, " ") + ". Vary across outputs: " + d.Content

	case ActionSimplify, ActionRemove:
		return removeMatching(prompt, d.Content)

	case ActionChange:
		// Full replacement is drastic; keep it loud in the logs.
		log.Printf("[DELTA] change action replaces entire prompt with: %s", d.Content)
		return d.Content

	default:
		log.Printf("[DELTA] unknown action %q, treating as adjustment", d.Action)
		return strings.TrimRight(prompt, " ") + ". Note: " + d.Content
	}
}

// removeMatching drops sentences that mention the given content.
func removeMatching(prompt, content string) string {
	needle := strings.ToLower(content)
	parts := strings.Split(prompt, ".")
	kept := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		if !strings.Contains(strings.ToLower(p), needle) {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return prompt
	}
	return strings.TrimSpace(strings.Join(kept, ".")) + "."
}

// #endregion

// #region change-log

// Change records one applied directive for the round report.
type Change struct {
	Target string
	Action Action
	Before string
	After  string
}

// Excerpt shortens text for change-log display.
func Excerpt(s string) string {
	const max = 60
	if len(s) <= max {
		return s
	}
	return fmt.Sprintf("%s...", s[:max])
}

// #endregion
