package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/danielpatrickdp/pack-qa/internal/config"
	"github.com/danielpatrickdp/pack-qa/internal/delta"
	"github.com/danielpatrickdp/pack-qa/internal/packdir"
)

// #region main

// Scaffolds a pack working directory: the full subdirectory tree plus a
// config.yaml seeded with default prompts and theme brand tokens.
func main() {
	theme := flag.String("theme", "", "pack theme, e.g. 'Cyberpunk Neon'")
	categories := flag.String("categories", "starting_soon,be_right_back,stream_ending,offline",
		"comma-separated overlay categories")
	force := flag.Bool("force", false, "overwrite an existing config.yaml")
	flag.Parse()

	if flag.NArg() != 1 || *theme == "" {
		fmt.Fprintln(os.Stderr, "usage: newpack --theme 'Theme Name' [--categories a,b,c] PACK_NAME")
		os.Exit(2)
	}
	name := flag.Arg(0)

	if err := run(name, *theme, strings.Split(*categories, ","), *force); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("created pack %s at %s\n", name, packdir.PackPath(name))
}

// #endregion main

// #region scaffold

func run(name, theme string, categories []string, force bool) error {
	dir := packdir.PackPath(name)

	for _, sub := range []string{
		packdir.RawDir, packdir.SelectedDir, packdir.FinalDir,
		packdir.MockupsDir, packdir.ListingDir, packdir.DeliveryDir, packdir.QADir,
	} {
		if err := packdir.Ensure(filepath.Join(dir, sub)); err != nil {
			return err
		}
	}

	cfgPath := filepath.Join(dir, packdir.ConfigFile)
	if _, err := os.Stat(cfgPath); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", cfgPath)
	}

	cfg := &config.PackConfig{
		Theme:      theme,
		Prompts:    map[string]string{},
		Resolution: config.DefaultResolution(),
		Output:     config.OutputSpec{FilenamePattern: "%s_%02d.png"},
		Brand:      delta.DefaultBrandTokens(theme),
	}
	for _, cat := range categories {
		cat = strings.TrimSpace(cat)
		if cat == "" {
			continue
		}
		cfg.Prompts[cat] = defaultPrompt(theme, cat)
	}
	if len(cfg.Prompts) == 0 {
		return fmt.Errorf("no categories given")
	}

	return cfg.Save(cfgPath)
}

func defaultPrompt(theme, category string) string {
	label := strings.ReplaceAll(category, "_", " ")
	return fmt.Sprintf("%s themed stream overlay screen for %q, 1920x1080, bold title text, room for a webcam frame", theme, label)
}

// #endregion scaffold
