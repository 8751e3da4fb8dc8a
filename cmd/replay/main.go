package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/pack-qa/internal/packstore"
	"github.com/danielpatrickdp/pack-qa/internal/replay"
)

// #region main

func main() {
	fixturePath := flag.String("fixture", "", "path to fixture JSON (fixture mode)")
	dbPath := flag.String("db", "", "path to pack_qa.db (DB mode)")
	pack := flag.String("pack", "", "pack to replay from the database")
	flag.Parse()

	fixtureMode := *fixturePath != ""
	dbMode := *dbPath != ""
	if fixtureMode == dbMode {
		fmt.Fprintln(os.Stderr, "usage: replay --fixture path/to/fixture.json")
		fmt.Fprintln(os.Stderr, "       replay --db path/to/pack_qa.db --pack name")
		os.Exit(2)
	}

	var exitCode int
	if fixtureMode {
		exitCode = runFixtureMode(*fixturePath)
	} else {
		exitCode = runDBMode(*dbPath, *pack)
	}
	os.Exit(exitCode)
}

// #endregion main

// #region fixture-mode

func runFixtureMode(path string) int {
	f, err := replay.LoadFixture(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		return 2
	}

	out := replay.Replay(f)
	return printComparison(f, out)
}

// #endregion fixture-mode

// #region db-mode

// runDBMode rebuilds a fixture from a pack's recorded rounds and re-runs
// it through the current loop. Divergence means the gate rule or retry
// behavior changed since the pack was evaluated.
func runDBMode(dbPath, pack string) int {
	if pack == "" {
		fmt.Fprintln(os.Stderr, "--db requires --pack")
		return 2
	}

	store, err := packstore.NewStore(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		return 2
	}
	defer store.Close()

	rec, err := store.GetPack(pack)
	if err != nil {
		fmt.Fprintf(os.Stderr, "get pack: %v\n", err)
		return 2
	}
	rounds, err := store.ListRounds(pack)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list rounds: %v\n", err)
		return 2
	}
	if len(rounds) == 0 {
		fmt.Fprintf(os.Stderr, "pack %s has no recorded rounds\n", pack)
		return 2
	}

	f := &replay.Fixture{
		Description: fmt.Sprintf("rebuilt from %s history", pack),
		Pack:        pack,
		Config: replay.FixtureConfig{
			Threshold:  rec.Threshold,
			MaxRounds:  rec.MaxRounds,
			Categories: rec.Categories,
		},
	}
	for _, r := range rounds {
		f.Evaluations = append(f.Evaluations, replay.FixtureEvaluation{
			OverallScore:   r.Evaluation.OverallScore,
			CriticalIssues: r.Evaluation.CriticalIssues,
			Deltas:         r.Evaluation.Deltas,
		})
		f.Expected.Decisions = append(f.Expected.Decisions, r.Decision)
	}
	f.Expected.Outcome = rec.TerminalOutcome
	if !rec.Terminal() {
		fmt.Fprintf(os.Stderr, "warning: pack %s is not terminal, outcome comparison will diverge\n", pack)
	}

	out := replay.Replay(f)
	return printComparison(f, out)
}

// #endregion db-mode

// #region output

func printComparison(f *replay.Fixture, out replay.Outcome) int {
	fmt.Printf("%-8s| %-16s| %-16s| %s\n", "Round", "Expected", "Replayed", "Match")
	fmt.Printf("%-8s+%-17s+%-17s+%s\n", "--------", "-----------------", "-----------------", "------")

	n := len(f.Expected.Decisions)
	if len(out.Decisions) > n {
		n = len(out.Decisions)
	}
	for i := 0; i < n; i++ {
		exp, got := "-", "-"
		if i < len(f.Expected.Decisions) {
			exp = f.Expected.Decisions[i]
		}
		if i < len(out.Decisions) {
			got = string(out.Decisions[i])
		}
		match := "DIFF"
		if exp == got {
			match = "OK"
		}
		fmt.Printf("%-8d| %-16s| %-16s| %s\n", i+1, exp, got, match)
	}

	problems := replay.Diff(f, out)
	fmt.Printf("\nOutcome: expected %s, got %s\n", f.Expected.Outcome, out.Result.Outcome)
	if len(problems) == 0 {
		fmt.Println("Summary: match")
		return 0
	}
	fmt.Printf("Summary: %d divergence(s)\n", len(problems))
	for _, p := range problems {
		fmt.Printf("  - %s\n", p)
	}
	return 1
}

// #endregion output
