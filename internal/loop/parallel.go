package loop

// #region imports
import (
	"context"

	"golang.org/x/sync/errgroup"
)

// #endregion

// #region job

// Job binds a pack name to its independently configured runner.
type Job struct {
	Pack   string
	Runner *Runner
}

// #endregion

// #region run-all

// RunAll executes multiple packs concurrently, each with its own isolated
// round sequence. limit caps concurrent packs; limit <= 0 means unbounded.
// Failed packs do not cancel the others; every result is returned.
func RunAll(ctx context.Context, jobs []Job, limit int) ([]Result, error) {
	results := make([]Result, len(jobs))
	errs := make([]error, len(jobs))

	g := &errgroup.Group{}
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, job := range jobs {
		g.Go(func() error {
			res, err := job.Runner.Run(ctx, job.Pack)
			results[i] = res
			errs[i] = err
			return nil
		})
	}
	_ = g.Wait()

	// Surface the first pack failure; results carry per-pack outcomes.
	for _, err := range errs {
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// #endregion
