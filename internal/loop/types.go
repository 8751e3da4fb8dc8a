package loop

// #region imports
import (
	"context"
	"time"

	"github.com/danielpatrickdp/pack-qa/internal/rubric"
)

// #endregion

// #region decision

// Decision is the per-round outcome of the quality gate.
type Decision string

const (
	DecisionContinue  Decision = "CONTINUE"
	DecisionAccept    Decision = "STOP_ACCEPT"
	DecisionMaxRounds Decision = "STOP_MAX_ROUNDS"
)

// #endregion

// #region phase

// Phase tracks where a pack sits inside a round.
type Phase string

const (
	PhaseRoundPending Phase = "ROUND_PENDING"
	PhaseRoundScored  Phase = "ROUND_SCORED"
	PhaseContinuing   Phase = "CONTINUING"
	PhaseTerminal     Phase = "TERMINAL"
)

// #endregion

// #region outcome

// Outcome is the single terminal state a pack reaches.
type Outcome string

const (
	OutcomeAccept    Outcome = "ACCEPT"
	OutcomeMaxRounds Outcome = "MAX_ROUNDS"
	OutcomeFailed    Outcome = "FAILED"
)

// #endregion

// #region asset

// Asset is one generated variant within a candidate batch.
type Asset struct {
	ID   string // filename, unique within the batch
	Path string
}

// Batch is a candidate set of generated assets, grouped by category.
type Batch struct {
	Pack   string
	Assets map[string][]Asset
}

// #endregion

// #region round

// Round is the immutable record of one evaluation iteration.
// Round numbers are strictly increasing and contiguous starting at 1.
type Round struct {
	Number     int
	Timestamp  time.Time
	Evaluation rubric.Evaluation
	Variants   int // variants generated per category this round
	Decision   Decision
	Reason     string
	Runtime    time.Duration
}

// #endregion

// #region result

// Result summarizes a completed pack run.
type Result struct {
	Pack    string
	Outcome Outcome
	Reason  string
	Rounds  []Round
}

// FinalScore returns the overall score of the last scored round, or 0.
func (r Result) FinalScore() float64 {
	if len(r.Rounds) == 0 {
		return 0
	}
	return r.Rounds[len(r.Rounds)-1].Evaluation.OverallScore
}

// ScoreTrend returns the overall-score progression across rounds.
func (r Result) ScoreTrend() []float64 {
	trend := make([]float64, 0, len(r.Rounds))
	for _, rd := range r.Rounds {
		trend = append(trend, rd.Evaluation.OverallScore)
	}
	return trend
}

// #endregion

// #region config

// Config holds all tuning knobs for a pack run. Passed explicitly so
// concurrent packs can run with independent settings.
type Config struct {
	Threshold      float64       // minimum overall score to accept
	MaxRounds      int           // hard cap on evaluation rounds
	Categories     []string      // required selection keys, fixed at pack creation
	EvalTimeout    time.Duration // per-call bound on the evaluator
	RegenTimeout   time.Duration // per-call bound on regeneration
	EvalRetries    int           // extra evaluator attempts after a non-timeout failure
	TimeoutBackoff time.Duration // wait before the single timeout retry
}

// DefaultConfig returns the standard run settings.
func DefaultConfig() Config {
	return Config{
		Threshold:      8.5,
		MaxRounds:      3,
		EvalTimeout:    60 * time.Second,
		RegenTimeout:   120 * time.Second,
		EvalRetries:    1,
		TimeoutBackoff: 2 * time.Second,
	}
}

// #endregion

// #region collaborators

// Evaluator scores a candidate batch. Implementations own any external
// API authentication; no credential material crosses into the loop.
type Evaluator interface {
	Evaluate(ctx context.Context, batch Batch) (rubric.Evaluation, error)
	Authoritative() bool
}

// Regenerator produces the candidate batch for a round. For round 1 deltas
// is empty (initial generation); later rounds carry the prior round's
// improvement directives.
type Regenerator interface {
	Regenerate(ctx context.Context, round int, deltas []string) (Batch, error)
}

// #endregion
