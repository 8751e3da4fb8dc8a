package loop

// #region imports
import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/danielpatrickdp/pack-qa/internal/rubric"
)

// #endregion

// #region runner-struct

// Runner drives the iterative quality-gate loop for a single pack:
// regenerate, evaluate, decide, record. Strictly sequential per pack;
// round N+1 never starts before round N's decision is recorded.
type Runner struct {
	config Config
	eval   Evaluator
	regen  Regenerator
	sink   Sink
	phase  Phase
}

// NewRunner wires a fully configured runner. sink may be a MultiSink.
func NewRunner(config Config, eval Evaluator, regen Regenerator, sink Sink) *Runner {
	return &Runner{
		config: config,
		eval:   eval,
		regen:  regen,
		sink:   sink,
		phase:  PhaseRoundPending,
	}
}

// Phase returns the runner's current loop phase.
func (r *Runner) Phase() Phase {
	return r.phase
}

// #endregion

// #region run

// Run executes rounds until a terminal state is reached. The returned error
// is non-nil only for OutcomeFailed; OutcomeMaxRounds is a normal result.
func (r *Runner) Run(ctx context.Context, pack string) (Result, error) {
	if len(r.config.Categories) == 0 {
		return Result{}, fmt.Errorf("pack %s: no required categories configured", pack)
	}
	if r.config.MaxRounds < 1 {
		return Result{}, fmt.Errorf("pack %s: max rounds must be positive, got %d", pack, r.config.MaxRounds)
	}

	log.Printf("[LOOP] %s: start threshold=%.1f max_rounds=%d authoritative=%v",
		pack, r.config.Threshold, r.config.MaxRounds, r.eval.Authoritative())

	var rounds []Round
	var deltas []string

	for num := 1; ; num++ {
		r.phase = PhaseRoundPending
		start := time.Now()

		batch, err := r.regenerate(ctx, num, deltas)
		if err != nil {
			return r.fail(pack, rounds, num, err)
		}

		ev, err := r.evaluate(ctx, batch)
		if err != nil {
			return r.fail(pack, rounds, num, err)
		}
		if err := r.validateEvaluation(ev); err != nil {
			return r.fail(pack, rounds, num, err)
		}
		r.phase = PhaseRoundScored

		decision, reason := r.decide(num, ev)
		round := Round{
			Number:     num,
			Timestamp:  time.Now().UTC(),
			Evaluation: ev,
			Variants:   batchVariants(batch),
			Decision:   decision,
			Reason:     reason,
			Runtime:    time.Since(start),
		}
		// The sink is the durable record; a round that cannot be persisted
		// terminates the pack rather than letting history diverge.
		if err := r.sink.RecordRound(pack, round); err != nil {
			return r.fail(pack, rounds, num, fmt.Errorf("recording round: %v", err))
		}
		rounds = append(rounds, round)
		log.Printf("[LOOP] %s: round %02d score=%.1f decision=%s (%s)",
			pack, num, ev.OverallScore, decision, reason)

		switch decision {
		case DecisionAccept:
			return r.finish(pack, rounds, OutcomeAccept, reason), nil
		case DecisionMaxRounds:
			return r.finish(pack, rounds, OutcomeMaxRounds, reason), nil
		}

		r.phase = PhaseContinuing
		deltas = ev.Deltas
	}
}

// #endregion

// #region decide

// decide applies the gate rule: accept at or above threshold, stop at the
// round cap, otherwise continue.
func (r *Runner) decide(round int, ev rubric.Evaluation) (Decision, string) {
	if ev.OverallScore >= r.config.Threshold {
		return DecisionAccept, fmt.Sprintf("score %.1f >= threshold %.1f",
			ev.OverallScore, r.config.Threshold)
	}
	if round >= r.config.MaxRounds {
		return DecisionMaxRounds, fmt.Sprintf("max rounds (%d) reached with score %.1f < threshold %.1f",
			r.config.MaxRounds, ev.OverallScore, r.config.Threshold)
	}
	return DecisionContinue, fmt.Sprintf("score %.1f < threshold %.1f",
		ev.OverallScore, r.config.Threshold)
}

// #endregion

// #region evaluate

// evaluate invokes the evaluator under its timeout. A deadline hit is
// retried exactly once after TimeoutBackoff, then escalated; other failures
// get EvalRetries additional attempts before terminating the pack.
func (r *Runner) evaluate(ctx context.Context, batch Batch) (rubric.Evaluation, error) {
	attempts := r.config.EvalRetries + 1
	timeoutRetried := false

	for attempt := 1; ; attempt++ {
		ev, err := r.callEvaluator(ctx, batch)
		if err == nil {
			return ev, nil
		}

		if isDeadline(err) && ctx.Err() == nil {
			if !timeoutRetried {
				timeoutRetried = true
				log.Printf("[LOOP] %s: evaluator timed out, retrying after %s",
					batch.Pack, r.config.TimeoutBackoff)
				if err := sleepCtx(ctx, r.config.TimeoutBackoff); err != nil {
					return rubric.Evaluation{}, fmt.Errorf("%w: %v", ErrEvaluationFailed, err)
				}
				continue
			}
			return rubric.Evaluation{}, fmt.Errorf("%w: evaluator: %w", ErrEvaluationFailed, ErrTimeoutExceeded)
		}

		if ctx.Err() != nil || attempt >= attempts {
			return rubric.Evaluation{}, fmt.Errorf("%w: %v", ErrEvaluationFailed, err)
		}
		log.Printf("[LOOP] %s: evaluator attempt %d failed: %v", batch.Pack, attempt, err)
	}
}

func (r *Runner) callEvaluator(ctx context.Context, batch Batch) (rubric.Evaluation, error) {
	cctx, cancel := context.WithTimeout(ctx, r.config.EvalTimeout)
	defer cancel()
	return r.eval.Evaluate(cctx, batch)
}

// #endregion

// #region regenerate

// regenerate invokes the regeneration collaborator under its timeout, with
// the same single timeout retry as the evaluator.
func (r *Runner) regenerate(ctx context.Context, round int, deltas []string) (Batch, error) {
	timeoutRetried := false

	for {
		cctx, cancel := context.WithTimeout(ctx, r.config.RegenTimeout)
		batch, err := r.regen.Regenerate(cctx, round, deltas)
		cancel()
		if err == nil {
			return batch, nil
		}

		if isDeadline(err) && ctx.Err() == nil && !timeoutRetried {
			timeoutRetried = true
			log.Printf("[LOOP] regeneration timed out on round %d, retrying after %s",
				round, r.config.TimeoutBackoff)
			if serr := sleepCtx(ctx, r.config.TimeoutBackoff); serr != nil {
				return Batch{}, fmt.Errorf("%w: %v", ErrEvaluationFailed, serr)
			}
			continue
		}
		if isDeadline(err) {
			return Batch{}, fmt.Errorf("%w: regeneration: %w", ErrEvaluationFailed, ErrTimeoutExceeded)
		}
		return Batch{}, fmt.Errorf("%w: regeneration: %v", ErrEvaluationFailed, err)
	}
}

// #endregion

// #region validate

// validateEvaluation enforces the selection contract and score bounds
// before a round may be marked ROUND_SCORED.
func (r *Runner) validateEvaluation(ev rubric.Evaluation) error {
	if !rubric.InBounds(ev) {
		return fmt.Errorf("%w: score out of [0,10] bounds", ErrEvaluationFailed)
	}
	for _, cat := range r.config.Categories {
		if ev.Selected[cat] == "" {
			return fmt.Errorf("%w: no asset selected for category %q", ErrIncompleteSelection, cat)
		}
	}
	return nil
}

// #endregion

// #region terminal

// finish records the single terminal transition for the pack.
func (r *Runner) finish(pack string, rounds []Round, outcome Outcome, reason string) Result {
	r.phase = PhaseTerminal
	result := Result{Pack: pack, Outcome: outcome, Reason: reason, Rounds: rounds}
	if err := r.sink.RecordTerminal(pack, result); err != nil {
		log.Printf("[LOOP] %s: failed to record terminal state: %v", pack, err)
	}
	log.Printf("[LOOP] %s: terminal outcome=%s after %d round(s)", pack, outcome, len(rounds))
	return result
}

// fail terminates the pack in FAILED state without advancing the round
// counter. Previously recorded rounds remain intact and readable.
func (r *Runner) fail(pack string, rounds []Round, atRound int, cause error) (Result, error) {
	reason := fmt.Sprintf("round %d: %v", atRound, cause)
	result := r.finish(pack, rounds, OutcomeFailed, reason)
	return result, fmt.Errorf("pack %s: %w", pack, cause)
}

// #endregion

// #region helpers

func batchVariants(b Batch) int {
	max := 0
	for _, assets := range b.Assets {
		if len(assets) > max {
			max = len(assets)
		}
	}
	return max
}

func isDeadline(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// #endregion
