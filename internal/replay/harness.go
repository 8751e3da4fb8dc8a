package replay

// #region imports
import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/danielpatrickdp/pack-qa/internal/loop"
	"github.com/danielpatrickdp/pack-qa/internal/rubric"
)

// #endregion

// #region scripted-evaluator

// ScriptedEvaluator replays a fixture's evaluator calls in order. Each
// call consumes one scripted entry, so retries advance the script too.
type ScriptedEvaluator struct {
	script     []FixtureEvaluation
	categories []string
	calls      int
}

// NewScriptedEvaluator builds an evaluator from a fixture script.
func NewScriptedEvaluator(script []FixtureEvaluation, categories []string) *ScriptedEvaluator {
	return &ScriptedEvaluator{script: script, categories: categories}
}

// Calls reports how many evaluator invocations the loop made.
func (s *ScriptedEvaluator) Calls() int { return s.calls }

func (s *ScriptedEvaluator) Authoritative() bool { return false }

// Evaluate pops the next scripted entry.
func (s *ScriptedEvaluator) Evaluate(ctx context.Context, batch loop.Batch) (rubric.Evaluation, error) {
	if s.calls >= len(s.script) {
		return rubric.Evaluation{}, fmt.Errorf("script exhausted after %d call(s)", s.calls)
	}
	entry := s.script[s.calls]
	s.calls++

	switch entry.Fail {
	case "timeout":
		return rubric.Evaluation{}, fmt.Errorf("scripted: %w", context.DeadlineExceeded)
	case "error":
		return rubric.Evaluation{}, fmt.Errorf("scripted evaluator failure")
	}

	omitted := map[string]bool{}
	for _, cat := range entry.OmitSelection {
		omitted[cat] = true
	}

	ev := rubric.Evaluation{
		PackName:       batch.Pack,
		OverallScore:   entry.OverallScore,
		CriticalIssues: entry.CriticalIssues,
		Selected:       map[string]string{},
		Deltas:         entry.Deltas,
		ChecksPassed:   len(entry.CriticalIssues) == 0,
		Synthetic:      true,
	}
	for _, dim := range rubric.DimensionOrder {
		ev.Dimensions = append(ev.Dimensions, rubric.DimensionScore{
			Dimension: dim,
			Score:     entry.OverallScore,
			Weight:    rubric.Dimensions[dim].Weight,
			Rationale: "scripted",
		})
	}
	for _, cat := range s.categories {
		if omitted[cat] {
			continue
		}
		if assets := batch.Assets[cat]; len(assets) > 0 {
			ev.Selected[cat] = assets[0].ID
		}
	}
	return ev, nil
}

// #endregion

// #region scripted-regenerator

// ScriptedRegenerator fabricates in-memory batches without touching
// disk. Asset IDs encode the round so selections stay distinguishable.
type ScriptedRegenerator struct {
	pack       string
	categories []string
	Deltas     [][]string // directives received per call, for assertions
}

// NewScriptedRegenerator builds a regenerator for the fixture's pack.
func NewScriptedRegenerator(pack string, categories []string) *ScriptedRegenerator {
	return &ScriptedRegenerator{pack: pack, categories: categories}
}

func (s *ScriptedRegenerator) Regenerate(ctx context.Context, round int, deltas []string) (loop.Batch, error) {
	s.Deltas = append(s.Deltas, deltas)
	batch := loop.Batch{Pack: s.pack, Assets: map[string][]loop.Asset{}}
	for _, cat := range s.categories {
		id := fmt.Sprintf("%s_r%02d_01", cat, round)
		batch.Assets[cat] = append(batch.Assets[cat], loop.Asset{ID: id})
	}
	return batch, nil
}

// #endregion

// #region replay

// Outcome bundles everything a fixture run produced.
type Outcome struct {
	Result    loop.Result
	Err       error
	Decisions []loop.Decision
	EvalCalls int
}

// memorySink records rounds without persistence.
type memorySink struct {
	rounds []loop.Round
}

func (m *memorySink) RecordRound(pack string, round loop.Round) error {
	m.rounds = append(m.rounds, round)
	return nil
}

func (m *memorySink) RecordTerminal(pack string, result loop.Result) error { return nil }

// Replay runs a fixture through the real loop runner.
func Replay(f *Fixture) Outcome {
	cfg := f.Config.ToLoopConfig()
	cfg.TimeoutBackoff = time.Millisecond

	eval := NewScriptedEvaluator(f.Evaluations, cfg.Categories)
	regen := NewScriptedRegenerator(f.Pack, cfg.Categories)
	sink := &memorySink{}

	runner := loop.NewRunner(cfg, eval, regen, sink)
	result, err := runner.Run(context.Background(), f.Pack)

	out := Outcome{Result: result, Err: err, EvalCalls: eval.Calls()}
	for _, round := range sink.rounds {
		out.Decisions = append(out.Decisions, round.Decision)
	}
	return out
}

// #endregion

// #region diff

// Diff compares a run against the fixture's expectations and returns
// one message per mismatch.
func Diff(f *Fixture, out Outcome) []string {
	var problems []string

	if len(out.Decisions) != len(f.Expected.Decisions) {
		problems = append(problems, fmt.Sprintf("expected %d decision(s), got %d",
			len(f.Expected.Decisions), len(out.Decisions)))
	} else {
		for i, want := range f.Expected.Decisions {
			if string(out.Decisions[i]) != want {
				problems = append(problems, fmt.Sprintf("round %d: expected decision %s, got %s",
					i+1, want, out.Decisions[i]))
			}
		}
	}

	if string(out.Result.Outcome) != f.Expected.Outcome {
		problems = append(problems, fmt.Sprintf("expected outcome %s, got %s",
			f.Expected.Outcome, out.Result.Outcome))
	}

	if f.Expected.ErrorContains != "" {
		if out.Err == nil {
			problems = append(problems, fmt.Sprintf("expected an error containing %q, got none",
				f.Expected.ErrorContains))
		} else if !strings.Contains(out.Err.Error(), f.Expected.ErrorContains) {
			problems = append(problems, fmt.Sprintf("expected error containing %q, got %q",
				f.Expected.ErrorContains, out.Err))
		}
	} else if out.Err != nil {
		problems = append(problems, fmt.Sprintf("unexpected error: %v", out.Err))
	}

	return problems
}

// #endregion
