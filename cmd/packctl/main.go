package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/danielpatrickdp/pack-qa/internal/config"
	"github.com/danielpatrickdp/pack-qa/internal/critic"
	"github.com/danielpatrickdp/pack-qa/internal/deliver"
	"github.com/danielpatrickdp/pack-qa/internal/generate"
	"github.com/danielpatrickdp/pack-qa/internal/listing"
	"github.com/danielpatrickdp/pack-qa/internal/loop"
	"github.com/danielpatrickdp/pack-qa/internal/packdir"
	"github.com/danielpatrickdp/pack-qa/internal/packstore"
	"github.com/danielpatrickdp/pack-qa/internal/report"
)

// #region main

func main() {
	dbPath := flag.String("db", "pack_qa.db", "path to the pack history database")
	threshold := flag.Float64("threshold", 0, "override the acceptance threshold")
	maxRounds := flag.Int("max-rounds", 0, "override the round cap")
	dryRun := flag.Bool("dry-run", false, "use the simulated critic and placeholder renders")
	seed := flag.Int64("seed", 0, "seed for dry-run renders")
	parallel := flag.Int("parallel", 2, "max packs evaluated concurrently")
	upload := flag.Bool("upload", false, "create a draft Etsy listing for accepted packs")
	shopID := flag.Int64("shop", 0, "Etsy shop ID (required with -upload)")
	flag.Parse()

	packs := flag.Args()
	if len(packs) == 0 {
		fmt.Fprintln(os.Stderr, "usage: packctl [flags] PACK [PACK...]")
		flag.PrintDefaults()
		os.Exit(2)
	}
	if *upload && *shopID <= 0 {
		fmt.Fprintln(os.Stderr, "-upload requires -shop")
		os.Exit(2)
	}

	store, err := packstore.NewStore(*dbPath)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer store.Close()

	reports := report.NewWriter(packdir.Root())
	ctx := context.Background()

	runs := make([]*packRun, 0, len(packs))
	jobs := make([]loop.Job, 0, len(packs))
	for _, name := range packs {
		run, err := preparePack(store, reports, name, *threshold, *maxRounds, *dryRun, *seed)
		if err != nil {
			log.Fatalf("prepare %s: %v", name, err)
		}
		runs = append(runs, run)
		jobs = append(jobs, loop.Job{Pack: name, Runner: run.runner})
	}

	results, runErr := loop.RunAll(ctx, jobs, *parallel)
	if runErr != nil {
		log.Printf("run: %v", runErr)
	}

	exitCode := 0
	for i, result := range results {
		run := runs[i]
		fmt.Printf("%s: %s (%s)\n", result.Pack, result.Outcome, result.Reason)

		if result.Outcome != loop.OutcomeAccept {
			if result.Outcome != loop.OutcomeMaxRounds {
				exitCode = 1
			}
			continue
		}
		if err := finishPack(ctx, run, result, *upload, *shopID); err != nil {
			log.Printf("finish %s: %v", result.Pack, err)
			exitCode = 1
		}
	}
	os.Exit(exitCode)
}

// #endregion

// #region prepare

// packRun bundles one pack's wiring for the post-loop finishing steps.
type packRun struct {
	name     string
	dir      string
	cfg      *config.PackConfig
	pipeline *generate.Pipeline
	runner   *loop.Runner
}

func preparePack(store *packstore.Store, reports *report.Writer, name string,
	threshold float64, maxRounds int, dryRun bool, seed int64) (*packRun, error) {

	dir := packdir.PackPath(name)
	cfg, err := config.Load(filepath.Join(dir, packdir.ConfigFile))
	if err != nil {
		return nil, err
	}

	loopCfg := loop.DefaultConfig()
	loopCfg.Categories = cfg.Categories()
	if threshold > 0 {
		loopCfg.Threshold = threshold
	}
	if maxRounds > 0 {
		loopCfg.MaxRounds = maxRounds
	}

	if _, err := store.GetPack(name); err != nil {
		if _, err := store.CreatePack(name, loopCfg); err != nil {
			return nil, fmt.Errorf("register pack: %w", err)
		}
	}

	var evaluator loop.Evaluator
	var backend generate.Backend
	if dryRun {
		evaluator = critic.NewSimulated(dir, cfg)
		backend = &generate.DryRunBackend{Seed: seed}
	} else {
		apiKey := os.Getenv("OPENAI_API_KEY")
		evaluator, err = critic.New(apiKey, dir, cfg)
		if err != nil {
			return nil, err
		}
		backend, err = generate.NewHTTPBackend(apiKey)
		if err != nil {
			return nil, err
		}
	}

	pipeline := generate.NewPipeline(name, dir, cfg, backend)
	sink := loop.MultiSink{store, reports}
	return &packRun{
		name:     name,
		dir:      dir,
		cfg:      cfg,
		pipeline: pipeline,
		runner:   loop.NewRunner(loopCfg, evaluator, pipeline, sink),
	}, nil
}

// #endregion

// #region finish

// finishPack turns an accepted pack into deliverables: promote the
// selected assets, render mockups and listing photos, build the download
// archives, and optionally publish a draft listing.
func finishPack(ctx context.Context, run *packRun, result loop.Result, upload bool, shopID int64) error {
	final := result.Rounds[len(result.Rounds)-1]
	if err := run.pipeline.Promote(final.Evaluation.Selected); err != nil {
		return err
	}
	if err := run.pipeline.RenderMockups(); err != nil {
		return err
	}
	if err := run.pipeline.RenderListingImages(ctx); err != nil {
		return err
	}
	if _, err := deliver.BuildAll(run.dir, run.cfg.Theme); err != nil {
		return err
	}
	if !upload {
		return nil
	}

	client, err := listing.NewClient(shopID, listing.EnvTokenSource{})
	if err != nil {
		return err
	}
	draft, err := listing.Publish(ctx, client, run.dir, run.cfg.Theme, run.cfg.Categories())
	if err != nil {
		return err
	}
	fmt.Printf("%s: draft listing %d created\n", run.name, draft.ListingID)
	return nil
}

// #endregion
