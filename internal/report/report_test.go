package report

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/danielpatrickdp/pack-qa/internal/loop"
	"github.com/danielpatrickdp/pack-qa/internal/rubric"
)

// #region helpers

func sampleRound(num int, score float64, decision loop.Decision) loop.Round {
	return loop.Round{
		Number:    num,
		Timestamp: time.Date(2026, 8, 20, 14, 30, 0, 0, time.UTC),
		Evaluation: rubric.Evaluation{
			OverallScore: score,
			Dimensions: []rubric.DimensionScore{
				{Dimension: rubric.DimBrandConsistency, Score: score, Weight: 0.30, Rationale: "consistent palette"},
				{Dimension: rubric.DimTechnicalQuality, Score: score, Weight: 0.25, Rationale: "sharp renders"},
			},
			Selected: map[string]string{"starting_soon": "starting_soon_01"},
			Deltas:   []string{"prompts.starting_soon -> enhance: 'more glow'"},
		},
		Decision: decision,
		Reason:   "score below threshold",
		Runtime:  3*time.Minute + 12*time.Second,
	}
}

// #endregion

// #region round-tests

func TestRecordRound(t *testing.T) {
	w := NewWriter(t.TempDir())
	round := sampleRound(1, 7.4, loop.DecisionContinue)

	if err := w.RecordRound("cyber_pack", round); err != nil {
		t.Fatalf("RecordRound: %v", err)
	}

	raw, err := os.ReadFile(w.RoundPath("cyber_pack", 1))
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	body := string(raw)

	for _, want := range []string{
		"# Round 01 - Quality Assurance Report",
		"**Pack:** cyber_pack",
		"**Overall Score:** 7.4/10",
		"**Brand Consistency:** 7.4/10 - consistent palette",
		"- starting_soon: starting_soon_01",
		"1. prompts.starting_soon -> enhance: 'more glow'",
		"**Decision:** CONTINUE",
		"**Runtime:** 3m12s",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("report missing %q", want)
		}
	}
}

func TestRecordRound_Immutable(t *testing.T) {
	w := NewWriter(t.TempDir())
	round := sampleRound(1, 7.4, loop.DecisionContinue)

	if err := w.RecordRound("p", round); err != nil {
		t.Fatal(err)
	}
	err := w.RecordRound("p", round)
	if err == nil {
		t.Fatal("second write for the same round accepted")
	}
	if !strings.Contains(err.Error(), "immutable") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRecordRound_SimulatedFlagged(t *testing.T) {
	w := NewWriter(t.TempDir())
	round := sampleRound(1, 7.0, loop.DecisionContinue)
	round.Evaluation.Synthetic = true

	if err := w.RecordRound("p", round); err != nil {
		t.Fatal(err)
	}
	raw, _ := os.ReadFile(w.RoundPath("p", 1))
	if !strings.Contains(string(raw), "SIMULATED") {
		t.Error("synthetic evaluation not flagged in report")
	}
}

// #endregion

// #region summary-tests

func TestRecordTerminal(t *testing.T) {
	w := NewWriter(t.TempDir())
	result := loop.Result{
		Pack:    "cyber_pack",
		Outcome: loop.OutcomeAccept,
		Reason:  "score 8.8 >= threshold 8.5",
		Rounds: []loop.Round{
			sampleRound(1, 7.2, loop.DecisionContinue),
			sampleRound(2, 8.8, loop.DecisionAccept),
		},
	}

	if err := w.RecordTerminal("cyber_pack", result); err != nil {
		t.Fatalf("RecordTerminal: %v", err)
	}

	raw, err := os.ReadFile(w.SummaryPath("cyber_pack"))
	if err != nil {
		t.Fatal(err)
	}
	body := string(raw)

	for _, want := range []string{
		"**Total Rounds:** 2",
		"| 01 | 7.2 |",
		"| 02 | 8.8 |",
		"**ACCEPTED** with score 8.8/10 (round 2)",
		"**Outcome:** ACCEPT",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("summary missing %q", want)
		}
	}
}

func TestRecordTerminal_Failed(t *testing.T) {
	w := NewWriter(t.TempDir())
	result := loop.Result{
		Pack:    "broken",
		Outcome: loop.OutcomeFailed,
		Reason:  "round 1: evaluation failed: critic unavailable",
	}

	if err := w.RecordTerminal("broken", result); err != nil {
		t.Fatal(err)
	}
	raw, _ := os.ReadFile(w.SummaryPath("broken"))
	if !strings.Contains(string(raw), "**FAILED** - round 1") {
		t.Errorf("failure reason missing from summary: %s", raw)
	}
}

// #endregion
