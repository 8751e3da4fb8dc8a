package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/pack-qa/internal/packstore"
	"github.com/danielpatrickdp/pack-qa/internal/replay"
)

// #region main

// Exports a pack's recorded round history as a replay fixture, so real
// sessions can be frozen into the regression corpus.
func main() {
	dbPath := flag.String("db", "", "path to pack_qa.db")
	pack := flag.String("pack", "", "pack to export")
	outPath := flag.String("out", "", "output fixture JSON path")
	flag.Parse()

	if *dbPath == "" || *pack == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: fixture-export --db path/to/pack_qa.db --pack name --out fixture.json")
		os.Exit(2)
	}

	if err := run(*dbPath, *pack, *outPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region export

func run(dbPath, pack, outPath string) error {
	store, err := packstore.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer store.Close()

	rec, err := store.GetPack(pack)
	if err != nil {
		return err
	}
	if !rec.Terminal() {
		return fmt.Errorf("pack %s is still active, only terminal packs export cleanly", pack)
	}
	rounds, err := store.ListRounds(pack)
	if err != nil {
		return err
	}
	if len(rounds) == 0 {
		return fmt.Errorf("pack %s has no recorded rounds", pack)
	}

	f := replay.Fixture{
		Description: fmt.Sprintf("exported from %s on %s", pack, rec.TerminatedAt.Format("2006-01-02")),
		Pack:        pack,
		Config: replay.FixtureConfig{
			Threshold:  rec.Threshold,
			MaxRounds:  rec.MaxRounds,
			Categories: rec.Categories,
		},
		Expected: replay.FixtureExpected{Outcome: rec.TerminalOutcome},
	}
	for _, r := range rounds {
		f.Evaluations = append(f.Evaluations, replay.FixtureEvaluation{
			OverallScore:   r.Evaluation.OverallScore,
			CriticalIssues: r.Evaluation.CriticalIssues,
			Deltas:         r.Evaluation.Deltas,
		})
		f.Expected.Decisions = append(f.Expected.Decisions, r.Decision)
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(outPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write fixture: %w", err)
	}

	fmt.Printf("exported %d round(s) to %s\n", len(rounds), outPath)
	return nil
}

// #endregion export
