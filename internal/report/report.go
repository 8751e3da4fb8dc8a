// Package report writes the human-readable QA reports: one immutable
// markdown file per round plus a per-pack summary.
package report

// #region imports
import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/danielpatrickdp/pack-qa/internal/loop"
	"github.com/danielpatrickdp/pack-qa/internal/packdir"
	"github.com/danielpatrickdp/pack-qa/internal/rubric"
)

// #endregion

// #region writer

// Writer persists QA reports under <root>/<pack>/qa/.
type Writer struct {
	root string
}

// NewWriter creates a report writer rooted at the packs directory.
func NewWriter(root string) *Writer {
	return &Writer{root: root}
}

func (w *Writer) qaDir(pack string) string {
	return filepath.Join(w.root, pack, packdir.QADir)
}

// RoundPath returns where a given round report lives.
func (w *Writer) RoundPath(pack string, round int) string {
	return filepath.Join(w.qaDir(pack), fmt.Sprintf("round%02d.md", round))
}

// SummaryPath returns where the pack summary lives.
func (w *Writer) SummaryPath(pack string) string {
	return filepath.Join(w.qaDir(pack), "summary.md")
}

// #endregion

// #region record-round

// RecordRound writes one round report. Reports are append-only: an
// existing file for the same round is never overwritten.
func (w *Writer) RecordRound(pack string, round loop.Round) error {
	if err := packdir.Ensure(w.qaDir(pack)); err != nil {
		return err
	}

	path := w.RoundPath(pack, round.Number)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("report %s already exists, rounds are immutable", path)
	}

	if err := os.WriteFile(path, []byte(renderRound(pack, round)), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	log.Printf("[REPORT] saved %s", path)
	return nil
}

func renderRound(pack string, round loop.Round) string {
	ev := round.Evaluation
	var b strings.Builder

	fmt.Fprintf(&b, "# Round %02d - Quality Assurance Report\n\n", round.Number)
	fmt.Fprintf(&b, "**Pack:** %s\n", pack)
	fmt.Fprintf(&b, "**Date:** %s\n", round.Timestamp.UTC().Format("2006-01-02T15:04:05Z"))
	if ev.Synthetic {
		b.WriteString("**Mode:** SIMULATED (non-authoritative)\n")
	}

	b.WriteString("\n## Critic Evaluation\n\n")
	fmt.Fprintf(&b, "- **Overall Score:** %.1f/10\n", ev.OverallScore)
	for _, d := range ev.Dimensions {
		fmt.Fprintf(&b, "- **%s:** %.1f/10 - %s\n", titleCase(d.Dimension), d.Score, d.Rationale)
	}

	b.WriteString("\n## Critical Issues\n\n")
	if len(ev.CriticalIssues) > 0 {
		for _, issue := range ev.CriticalIssues {
			fmt.Fprintf(&b, "- %s\n", issue)
		}
	} else {
		b.WriteString("None\n")
	}

	b.WriteString("\n## Selected Assets (Auto-Curated)\n\n")
	if len(ev.Selected) > 0 {
		cats := make([]string, 0, len(ev.Selected))
		for cat := range ev.Selected {
			cats = append(cats, cat)
		}
		sort.Strings(cats)
		for _, cat := range cats {
			fmt.Fprintf(&b, "- %s: %s\n", cat, ev.Selected[cat])
		}
	} else {
		b.WriteString("(No assets selected)\n")
	}

	b.WriteString("\n## Deltas for Next Round\n\n")
	if len(ev.Deltas) > 0 {
		for i, d := range ev.Deltas {
			fmt.Fprintf(&b, "%d. %s\n", i+1, d)
		}
	} else {
		b.WriteString("(No improvements suggested)\n")
	}

	b.WriteString("\n## Next Steps\n\n")
	fmt.Fprintf(&b, "**Decision:** %s\n", round.Decision)
	fmt.Fprintf(&b, "**Reason:** %s\n", round.Reason)

	b.WriteString("\n---\n")
	fmt.Fprintf(&b, "**Runtime:** %dm%02ds\n", int(round.Runtime.Minutes()), int(round.Runtime.Seconds())%60)

	return b.String()
}

// #endregion

// #region record-terminal

// RecordTerminal writes the multi-round summary once the pack retires.
func (w *Writer) RecordTerminal(pack string, result loop.Result) error {
	if err := packdir.Ensure(w.qaDir(pack)); err != nil {
		return err
	}

	path := w.SummaryPath(pack)
	if err := os.WriteFile(path, []byte(renderSummary(pack, result)), 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	log.Printf("[REPORT] saved %s", path)
	return nil
}

func renderSummary(pack string, result loop.Result) string {
	var b strings.Builder

	b.WriteString("# Multi-Round Evaluation Summary\n\n")
	fmt.Fprintf(&b, "**Pack:** %s\n", pack)
	fmt.Fprintf(&b, "**Total Rounds:** %d\n\n", len(result.Rounds))

	b.WriteString("## Score Progression\n\n")
	if len(result.Rounds) > 0 {
		b.WriteString("| Round | Overall | Brand | Technical | Etsy | Visual | Decision |\n")
		b.WriteString("|-------|---------|-------|-----------|------|--------|----------|\n")
		for _, round := range result.Rounds {
			dims := map[string]float64{}
			for _, d := range round.Evaluation.Dimensions {
				dims[d.Dimension] = d.Score
			}
			fmt.Fprintf(&b, "| %02d | %.1f | %.1f | %.1f | %.1f | %.1f | %s |\n",
				round.Number, round.Evaluation.OverallScore,
				dims[rubric.DimBrandConsistency], dims[rubric.DimTechnicalQuality],
				dims[rubric.DimEtsyCompliance], dims[rubric.DimVisualAppeal],
				round.Decision)
		}
	} else {
		b.WriteString("(No rounds recorded)\n")
	}

	b.WriteString("\n## Final Result\n\n")
	switch result.Outcome {
	case loop.OutcomeAccept:
		fmt.Fprintf(&b, "**ACCEPTED** with score %.1f/10 (round %d)\n", result.FinalScore(), len(result.Rounds))
	case loop.OutcomeMaxRounds:
		fmt.Fprintf(&b, "**INCOMPLETE** - stopped at round %d with score %.1f/10\n", len(result.Rounds), result.FinalScore())
	case loop.OutcomeFailed:
		fmt.Fprintf(&b, "**FAILED** - %s\n", result.Reason)
	}

	b.WriteString("\n---\n")
	fmt.Fprintf(&b, "**Outcome:** %s\n", result.Outcome)

	return b.String()
}

// #endregion

// #region helpers

func titleCase(dim string) string {
	words := strings.Split(dim, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

var _ loop.Sink = (*Writer)(nil)

// #endregion
