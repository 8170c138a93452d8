package commands

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/assets"
	"github.com/gogpu/assets/fetch"
	"github.com/gogpu/assets/fontdb"
)

// Config is the structure of an assetfit.yaml file. Command line flags
// override the values it sets.
type Config struct {
	Workers    int            `yaml:"workers"`
	FailureTTL *time.Duration `yaml:"failure_ttl"`

	HTTP   HTTPConfig   `yaml:"http"`
	Fonts  FontsConfig  `yaml:"fonts"`
	Output OutputConfig `yaml:"output"`
}

// HTTPConfig configures URI fetching.
type HTTPConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

// FontsConfig configures the font database used for SVG text.
type FontsConfig struct {
	// Dirs replaces the platform font directories.
	Dirs []string `yaml:"dirs"`
	// Generic maps generic family names (serif, sans-serif, ...) to
	// installed families.
	Generic map[string]string `yaml:"generic"`
}

// OutputConfig describes the box images are fitted into.
type OutputConfig struct {
	Width     float64 `yaml:"width"`
	Height    float64 `yaml:"height"`
	Fit       string  `yaml:"fit"`
	Scale     float64 `yaml:"scale"`
	Grayscale bool    `yaml:"grayscale"`
	Dir       string  `yaml:"dir"`
}

func defaultConfig() Config {
	return Config{
		Output: OutputConfig{
			Width:  256,
			Height: 256,
			Fit:    assets.ObjectFitContain.String(),
			Scale:  1,
			Dir:    ".",
		},
	}
}

// LoadConfig reads a configuration file on top of the defaults. An empty
// path returns the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg Config) validate() error {
	if _, err := assets.ParseObjectFit(cfg.Output.Fit); err != nil {
		return err
	}
	if cfg.Output.Width <= 0 || cfg.Output.Height <= 0 {
		return fmt.Errorf("output size must be positive, got %gx%g", cfg.Output.Width, cfg.Output.Height)
	}
	if cfg.Output.Scale <= 0 {
		return fmt.Errorf("output scale must be positive, got %g", cfg.Output.Scale)
	}
	for name := range cfg.Fonts.Generic {
		if _, ok := parseGeneric(name); !ok {
			return fmt.Errorf("unknown generic font family %q", name)
		}
	}
	return nil
}

// runtimeOptions translates the configuration into Runtime options.
func (cfg Config) runtimeOptions() []assets.Option {
	var opts []assets.Option
	if cfg.Workers > 0 {
		opts = append(opts, assets.WithWorkers(cfg.Workers))
	}
	if cfg.FailureTTL != nil {
		opts = append(opts, assets.WithFailureTTL(*cfg.FailureTTL))
	}

	var httpOpts []fetch.Option
	if cfg.HTTP.Timeout > 0 {
		httpOpts = append(httpOpts, fetch.WithTimeout(cfg.HTTP.Timeout))
	}
	if cfg.HTTP.UserAgent != "" {
		httpOpts = append(httpOpts, fetch.WithUserAgent(cfg.HTTP.UserAgent))
	}
	if len(httpOpts) > 0 {
		opts = append(opts, assets.WithHTTPClient(fetch.New(httpOpts...)))
	}

	if db := cfg.fontDatabase(); db != nil {
		opts = append(opts, assets.WithFontDatabase(db))
	}
	return opts
}

// fontDatabase returns a database for the configured fonts, or nil to use
// the shared default.
func (cfg Config) fontDatabase() *fontdb.Database {
	if len(cfg.Fonts.Dirs) == 0 && len(cfg.Fonts.Generic) == 0 {
		return nil
	}
	var opts []fontdb.Option
	if len(cfg.Fonts.Dirs) > 0 {
		opts = append(opts, fontdb.WithFontDirs(cfg.Fonts.Dirs...))
	}
	for name, family := range cfg.Fonts.Generic {
		if g, ok := parseGeneric(name); ok {
			opts = append(opts, fontdb.WithGenericFamily(g, family))
		}
	}
	db := fontdb.New(opts...)
	db.LoadSystemFonts()
	return db
}

func parseGeneric(name string) (fontdb.Generic, bool) {
	for _, g := range []fontdb.Generic{fontdb.Serif, fontdb.SansSerif, fontdb.Monospace, fontdb.Cursive, fontdb.Fantasy} {
		if strings.EqualFold(g.String(), name) {
			return g, true
		}
	}
	return 0, false
}

// outputFlags binds the output flags of a command. Flags the user set win
// over the configuration file.
type outputFlags struct {
	width, height float64
	fit           string
	scale         float64
	grayscale     bool
	dir           string
}

func (f *outputFlags) register(cmd *cobra.Command) {
	d := defaultConfig().Output
	cmd.Flags().Float64Var(&f.width, "width", d.Width, "Box width in layout pixels")
	cmd.Flags().Float64Var(&f.height, "height", d.Height, "Box height in layout pixels")
	cmd.Flags().StringVar(&f.fit, "fit", d.Fit, "Object fit: contain, fill, cover or none")
	cmd.Flags().Float64Var(&f.scale, "scale", d.Scale, "Device pixels per layout pixel")
	cmd.Flags().BoolVar(&f.grayscale, "grayscale", false, "Convert images to grayscale")
	cmd.Flags().StringVarP(&f.dir, "out", "o", d.Dir, "Output directory")
}

func (f *outputFlags) apply(cmd *cobra.Command, cfg *Config) error {
	flags := cmd.Flags()
	if flags.Changed("width") {
		cfg.Output.Width = f.width
	}
	if flags.Changed("height") {
		cfg.Output.Height = f.height
	}
	if flags.Changed("fit") {
		cfg.Output.Fit = f.fit
	}
	if flags.Changed("scale") {
		cfg.Output.Scale = f.scale
	}
	if flags.Changed("grayscale") {
		cfg.Output.Grayscale = f.grayscale
	}
	if flags.Changed("out") {
		cfg.Output.Dir = f.dir
	}
	return cfg.validate()
}

// loadConfig reads the --config file and applies f on top of it.
func (c *CLI) loadConfig(cmd *cobra.Command, f *outputFlags) (Config, error) {
	cfg, err := LoadConfig(c.configPath)
	if err != nil {
		return Config{}, err
	}
	if f != nil {
		if err := f.apply(cmd, &cfg); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}
