package internal

import (
	"log/slog"
	"runtime"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/wikimd/internal/identity"
	"github.com/starford/wikimd/internal/manifest"
	"github.com/starford/wikimd/internal/pipeline"
	"github.com/starford/wikimd/internal/watcher"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Input    InputConfig       `yaml:"input"`
	Output   OutputConfig      `yaml:"output"`
	Convert  ConvertConfig     `yaml:"convert"`
	Manifest ManifestConfig    `yaml:"manifest"`
	Index    IndexConfig       `yaml:"index"`
	Metrics  MetricsConfig     `yaml:"metrics"`
	Watch    WatchConfig       `yaml:"watch"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	for _, v := range []validation.Validatable{
		&c.Input, &c.Output, &c.Convert, &c.Manifest, &c.Watch,
	} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
}

// InputConfig points at the Confluence HTML export directory.
type InputConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the input configuration.
func (c *InputConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// OutputConfig holds the output tree location.
type OutputConfig struct {
	Path  string `yaml:"path"`
	Clean bool   `yaml:"clean"`
}

// Validate validates the output configuration.
func (c *OutputConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// ConvertConfig controls how pages are rendered and placed.
type ConvertConfig struct {
	Workers         int               `yaml:"workers"`
	Layout          string            `yaml:"layout"`
	Lang            string            `yaml:"lang"`
	Preamble        string            `yaml:"preamble"`
	ImageBase       string            `yaml:"image_base"`
	DefaultLanguage string            `yaml:"default_language"`
	DevDocsFolder   string            `yaml:"dev_docs_folder"`
	Identifiers     IdentifiersConfig `yaml:"identifiers"`
}

// Validate validates the convert configuration.
func (c *ConvertConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Workers, validation.Required, validation.Min(1), validation.Max(256)),
		validation.Field(&c.Layout, validation.Required),
		validation.Field(&c.Lang, validation.Required),
		validation.Field(&c.DefaultLanguage, validation.Required),
		validation.Field(&c.DevDocsFolder, validation.Required),
	); err != nil {
		return err
	}
	return c.Identifiers.Validate()
}

// IdentifiersConfig selects how page identifiers are generated.
//
// Mode is "random" (default, a fresh identifier per run) or "deterministic"
// (derived from the input filename, stable across runs).
type IdentifiersConfig struct {
	Mode   string `yaml:"mode"`
	Length int    `yaml:"length"`
}

// Validate validates the identifiers configuration.
func (c *IdentifiersConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = identity.ModeRandom
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(identity.ModeRandom, identity.ModeDeterministic)),
		validation.Field(&c.Length, validation.Required, validation.Min(6), validation.Max(26)),
	)
}

// ManifestConfig holds the manifest location relative to the output root.
type ManifestConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the manifest configuration.
func (c *ManifestConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// IndexConfig holds the optional SQLite site index path. Empty disables it.
type IndexConfig struct {
	Path string `yaml:"path"`
}

// MetricsConfig holds the optional Prometheus textfile path.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// WatchConfig controls re-running on export changes.
type WatchConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Debounce time.Duration `yaml:"debounce"`
}

// Validate validates the watch configuration.
func (c *WatchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Debounce, validation.Min(0)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
		},
		Input: InputConfig{
			Path: "./export",
		},
		Output: OutputConfig{
			Path: "./site",
		},
		Convert: ConvertConfig{
			Workers:         runtime.NumCPU(),
			Layout:          "article_with_sidebar",
			Lang:            "en",
			Preamble:        "{% include global.html %}",
			ImageBase:       "{{ site.baseurl }}",
			DefaultLanguage: "php",
			DevDocsFolder:   pipeline.DefaultDevDocs,
			Identifiers: IdentifiersConfig{
				Mode:   identity.ModeRandom,
				Length: identity.DefaultLength,
			},
		},
		Manifest: ManifestConfig{
			Path: manifest.DefaultPath,
		},
		Watch: WatchConfig{
			Debounce: watcher.DefaultDebounce,
		},
	}
}
