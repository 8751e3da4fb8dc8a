package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/pack-qa/internal/packstore"
	"github.com/danielpatrickdp/pack-qa/internal/rubric"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to the pack history database")
	pack := flag.String("pack", "", "show round history for one pack")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/pack_qa.db [--pack name] [--json]")
		os.Exit(2)
	}

	store, err := packstore.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if *pack != "" {
		err = runDetailMode(store, *pack, *jsonOut)
	} else {
		err = runListMode(store, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	Name      string  `json:"name"`
	Threshold float64 `json:"threshold"`
	MaxRounds int     `json:"max_rounds"`
	Outcome   string  `json:"outcome"`
	CreatedAt string  `json:"created_at"`
}

func runListMode(store *packstore.Store, jsonOut bool) error {
	names, err := store.ListPacks()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Fprintln(os.Stderr, "no packs found")
		return nil
	}

	rows := make([]listRow, 0, len(names))
	for _, name := range names {
		rec, err := store.GetPack(name)
		if err != nil {
			return err
		}
		outcome := "ACTIVE"
		if rec.Terminal() {
			outcome = rec.TerminalOutcome
		}
		rows = append(rows, listRow{
			Name:      rec.Name,
			Threshold: rec.Threshold,
			MaxRounds: rec.MaxRounds,
			Outcome:   outcome,
			CreatedAt: rec.CreatedAt.Format("2006-01-02T15:04:05Z"),
		})
	}

	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("%-28s  %9s  %6s  %-12s  %s\n", "Pack", "Threshold", "Rounds", "Outcome", "Created")
	for _, r := range rows {
		fmt.Printf("%-28s  %9.1f  %6d  %-12s  %s\n",
			r.Name, r.Threshold, r.MaxRounds, r.Outcome, r.CreatedAt)
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

type roundRow struct {
	Round    int                `json:"round"`
	Overall  float64            `json:"overall_score"`
	Decision string             `json:"decision"`
	Reason   string             `json:"reason"`
	Critical int                `json:"critical_issues"`
	Dims     map[string]float64 `json:"dimensions"`
	Runtime  string             `json:"runtime"`
}

func runDetailMode(store *packstore.Store, pack string, jsonOut bool) error {
	rec, err := store.GetPack(pack)
	if err != nil {
		return err
	}
	rounds, err := store.ListRounds(pack)
	if err != nil {
		return err
	}

	rows := make([]roundRow, 0, len(rounds))
	for _, r := range rounds {
		dims := map[string]float64{}
		for _, d := range r.Evaluation.Dimensions {
			dims[d.Dimension] = d.Score
		}
		rows = append(rows, roundRow{
			Round:    r.Number,
			Overall:  r.Evaluation.OverallScore,
			Decision: r.Decision,
			Reason:   r.Reason,
			Critical: len(r.Evaluation.CriticalIssues),
			Dims:     dims,
			Runtime:  r.Runtime.String(),
		})
	}

	if jsonOut {
		return printJSON(struct {
			Pack   packstore.PackRecord `json:"pack"`
			Rounds []roundRow           `json:"rounds"`
		}{rec, rows})
	}

	fmt.Printf("Pack:      %s\n", rec.Name)
	fmt.Printf("Threshold: %.1f\n", rec.Threshold)
	fmt.Printf("Created:   %s\n", rec.CreatedAt.Format("2006-01-02T15:04:05Z"))
	if rec.Terminal() {
		fmt.Printf("Outcome:   %s (%s)\n", rec.TerminalOutcome, rec.TerminalReason)
	} else {
		fmt.Printf("Outcome:   ACTIVE\n")
	}

	fmt.Printf("\n%-6s  %7s  %6s  %6s  %5s  %7s  %-15s  %s\n",
		"Round", "Overall", "Brand", "Tech", "Etsy", "Visual", "Decision", "Runtime")
	for _, r := range rows {
		fmt.Printf("%-6d  %7.1f  %6.1f  %6.1f  %5.1f  %7.1f  %-15s  %s\n",
			r.Round, r.Overall,
			r.Dims[rubric.DimBrandConsistency], r.Dims[rubric.DimTechnicalQuality],
			r.Dims[rubric.DimEtsyCompliance], r.Dims[rubric.DimVisualAppeal],
			r.Decision, r.Runtime)
	}
	return nil
}

// #endregion detail-mode

// #region output

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// #endregion output
