package replay

import (
	"path/filepath"
	"testing"

	"github.com/danielpatrickdp/pack-qa/internal/loop"
)

// #region fixture-tests

// TestReplay_Fixtures runs every recorded session through the real loop
// and diffs the decisions, outcome, and error against the recording.
// This is the primary regression test for the gate rule and the retry
// behavior.
func TestReplay_Fixtures(t *testing.T) {
	fixtures := []string{
		"improves_then_accepts.json",
		"max_rounds.json",
		"timeout_recovery.json",
		"persistent_failure.json",
		"fails_after_progress.json",
		"incomplete_selection.json",
	}

	for _, name := range fixtures {
		t.Run(name, func(t *testing.T) {
			f, err := LoadFixture(filepath.Join("testdata", name))
			if err != nil {
				t.Fatalf("LoadFixture: %v", err)
			}

			out := Replay(f)
			for _, problem := range Diff(f, out) {
				t.Error(problem)
			}
		})
	}
}

// TestReplay_DeltasCarryForward verifies the critic's directives from a
// CONTINUE round reach the next regeneration call.
func TestReplay_DeltasCarryForward(t *testing.T) {
	f, err := LoadFixture(filepath.Join("testdata", "improves_then_accepts.json"))
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}

	cfg := f.Config.ToLoopConfig()
	regen := NewScriptedRegenerator(f.Pack, cfg.Categories)
	eval := NewScriptedEvaluator(f.Evaluations, cfg.Categories)
	runner := loop.NewRunner(cfg, eval, regen, &memorySink{})

	if _, err := runner.Run(t.Context(), f.Pack); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(regen.Deltas) != 3 {
		t.Fatalf("expected 3 regeneration calls, got %d", len(regen.Deltas))
	}
	if len(regen.Deltas[0]) != 0 {
		t.Errorf("round 1 should receive no directives, got %v", regen.Deltas[0])
	}
	if len(regen.Deltas[1]) != 2 {
		t.Errorf("round 2 should receive round 1's 2 directives, got %v", regen.Deltas[1])
	}
	if len(regen.Deltas[2]) != 1 {
		t.Errorf("round 3 should receive round 2's directive, got %v", regen.Deltas[2])
	}
}

// TestReplay_TimeoutRetryConsumedOnce checks the deadline retry fires
// exactly once: one timeout plus one success is two evaluator calls.
func TestReplay_TimeoutRetryConsumedOnce(t *testing.T) {
	f, err := LoadFixture(filepath.Join("testdata", "timeout_recovery.json"))
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}

	out := Replay(f)
	if out.Err != nil {
		t.Fatalf("unexpected error: %v", out.Err)
	}
	if out.EvalCalls != 2 {
		t.Errorf("expected 2 evaluator calls, got %d", out.EvalCalls)
	}
}

// #endregion
