package config

// #region imports
import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// #endregion

// #region resolution

// Resolution is the target pixel size for generated and final images.
type Resolution struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// DefaultResolution returns the standard overlay resolution.
func DefaultResolution() Resolution {
	return Resolution{Width: 1920, Height: 1080}
}

// #endregion

// #region output-spec

// OutputSpec defines naming rules for exported images.
type OutputSpec struct {
	FilenamePattern string            `yaml:"filename_pattern"`
	MockupTexts     map[string]string `yaml:"mockup_texts,omitempty"`
}

// #endregion

// #region brand-tokens

// BrandTokens holds the shared visual-identity settings applied to every
// category prompt in a pack.
type BrandTokens struct {
	PrimaryColors   []string `yaml:"primary_colors"`
	SecondaryColors []string `yaml:"secondary_colors"`
	Texture         string   `yaml:"texture"`
	Composition     string   `yaml:"composition"`
	Lighting        string   `yaml:"lighting"`
	Mood            string   `yaml:"mood"`
}

// #endregion

// #region pack-config

// PackConfig is the full per-pack configuration loaded from config.yaml.
type PackConfig struct {
	Theme      string            `yaml:"theme"`
	Prompts    map[string]string `yaml:"prompts"`
	Resolution Resolution        `yaml:"resolution"`
	Output     OutputSpec        `yaml:"output"`
	Brand      *BrandTokens      `yaml:"brand_tokens,omitempty"`
}

// Categories returns the sorted category names defined by the prompts map.
// The set is fixed at pack creation and drives the per-round selection contract.
func (c *PackConfig) Categories() []string {
	cats := make([]string, 0, len(c.Prompts))
	for k := range c.Prompts {
		cats = append(cats, k)
	}
	sort.Strings(cats)
	return cats
}

// #endregion

// #region load

// Load reads and validates a pack config.yaml.
func Load(path string) (*PackConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg PackConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.Theme == "" {
		return nil, fmt.Errorf("config %s: missing theme", path)
	}
	if len(cfg.Prompts) == 0 {
		return nil, fmt.Errorf("config %s: missing prompts", path)
	}
	if cfg.Resolution.Width <= 0 || cfg.Resolution.Height <= 0 {
		return nil, fmt.Errorf("config %s: invalid resolution %dx%d",
			path, cfg.Resolution.Width, cfg.Resolution.Height)
	}
	if cfg.Output.FilenamePattern == "" {
		cfg.Output.FilenamePattern = "%s_%02d.png"
	}

	return &cfg, nil
}

// #endregion

// #region save

// Save writes the config back to disk. Used after a refinement pass updates
// prompts or brand tokens between rounds.
func (c *PackConfig) Save(path string) error {
	out, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// #endregion
