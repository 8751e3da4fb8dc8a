// Package replay re-runs recorded evaluation sessions through the real
// quality-gate loop, entirely in memory. Fixtures script what the critic
// returned each round; the loop's decisions are compared against the
// recorded expectations.
package replay

// #region imports
import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/pack-qa/internal/loop"
)

// #endregion

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description string              `json:"description"`
	Pack        string              `json:"pack"`
	Config      FixtureConfig       `json:"config"`
	Evaluations []FixtureEvaluation `json:"evaluations"`
	Expected    FixtureExpected     `json:"expected"`
}

// FixtureConfig mirrors loop.Config with JSON tags. Zero values fall
// back to the loop defaults.
type FixtureConfig struct {
	Threshold   float64  `json:"threshold"`
	MaxRounds   int      `json:"max_rounds"`
	Categories  []string `json:"categories"`
	EvalRetries int      `json:"eval_retries"`
}

// FixtureEvaluation scripts one evaluator call. Fail may be "", "error",
// or "timeout"; a timeout surfaces as a deadline error to the loop.
type FixtureEvaluation struct {
	OverallScore   float64  `json:"overall_score"`
	CriticalIssues []string `json:"critical_issues,omitempty"`
	Deltas         []string `json:"deltas,omitempty"`
	Fail           string   `json:"fail,omitempty"`
	OmitSelection  []string `json:"omit_selection,omitempty"`
}

// FixtureExpected captures the recorded loop behavior to diff against.
type FixtureExpected struct {
	Decisions     []string `json:"decisions"`
	Outcome       string   `json:"outcome"`
	ErrorContains string   `json:"error_contains,omitempty"`
}

// #endregion

// #region load

// LoadFixture reads and validates a fixture file.
func LoadFixture(path string) (*Fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}

	var f Fixture
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if f.Pack == "" {
		return nil, fmt.Errorf("fixture %s: missing pack name", path)
	}
	if len(f.Evaluations) == 0 {
		return nil, fmt.Errorf("fixture %s: no evaluations scripted", path)
	}
	return &f, nil
}

// ToLoopConfig converts the fixture config, filling unset fields from
// the loop defaults.
func (c FixtureConfig) ToLoopConfig() loop.Config {
	cfg := loop.DefaultConfig()
	if c.Threshold > 0 {
		cfg.Threshold = c.Threshold
	}
	if c.MaxRounds > 0 {
		cfg.MaxRounds = c.MaxRounds
	}
	if len(c.Categories) > 0 {
		cfg.Categories = c.Categories
	}
	cfg.EvalRetries = c.EvalRetries
	return cfg
}

// #endregion
