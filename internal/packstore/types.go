package packstore

// #region imports
import (
	"time"

	"github.com/danielpatrickdp/pack-qa/internal/rubric"
)

// #endregion

// #region pack-record

// PackRecord is one row in the packs table.
type PackRecord struct {
	ID         string
	Name       string
	Categories []string
	Threshold  float64
	MaxRounds  int
	CreatedAt  time.Time

	// Terminal fields are empty until the pack reaches its single
	// terminal state.
	TerminalOutcome string
	TerminalReason  string
	TerminatedAt    *time.Time
}

// Terminal reports whether the pack has been retired.
func (p PackRecord) Terminal() bool {
	return p.TerminalOutcome != ""
}

// #endregion

// #region round-record

// RoundRecord is one row in the rounds table. Rounds are append-only and
// never edited after insertion.
type RoundRecord struct {
	PackID     string
	Number     int
	Evaluation rubric.Evaluation
	Decision   string
	Reason     string
	Runtime    time.Duration
	CreatedAt  time.Time
}

// #endregion
