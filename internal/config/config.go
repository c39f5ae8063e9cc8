package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Contamination is the expected outlier share for the cleansing detector.
	Contamination float64 `mapstructure:"contamination" yaml:"contamination"`
	Verbose       bool    `mapstructure:"verbose" yaml:"verbose"`
	OutputDir     string  `mapstructure:"output_dir" yaml:"output_dir"`
	Format        string  `mapstructure:"format" yaml:"format"`
	Seed          int64   `mapstructure:"seed" yaml:"seed"`
	TopN          int     `mapstructure:"top_n" yaml:"top_n"`
	// Delimiter forces the CSV field separator; empty means sniff.
	Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
}

// Keys lists the settable configuration keys.
var Keys = []string{"contamination", "verbose", "output_dir", "format", "seed", "top_n", "delimiter"}

var formats = map[string]bool{"table": true, "markdown": true, "json": true, "yaml": true}

// Validate reports the first invalid setting.
func (c *Global) Validate() error {
	if c.Contamination <= 0 || c.Contamination > 0.5 {
		return fmt.Errorf("invalid contamination %v: must be in (0, 0.5]", c.Contamination)
	}
	if !formats[c.Format] {
		return fmt.Errorf("invalid format %q: use table, markdown, json or yaml", c.Format)
	}
	if c.TopN < 0 {
		return fmt.Errorf("invalid top_n %d: must not be negative", c.TopN)
	}
	if len([]rune(c.Delimiter)) > 1 {
		return fmt.Errorf("invalid delimiter %q: must be a single character", c.Delimiter)
	}
	return nil
}

// Set parses val into the named key and validates the result. c is left
// unchanged on error.
func (c *Global) Set(key, val string) error {
	next := *c
	switch key {
	case "contamination":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("invalid float for contamination: %w", err)
		}
		next.Contamination = f
	case "verbose":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid bool for verbose: %w", err)
		}
		next.Verbose = b
	case "output_dir":
		next.OutputDir = val
	case "format":
		next.Format = strings.ToLower(val)
		if next.Format == "md" {
			next.Format = "markdown"
		}
	case "seed":
		i, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid int for seed: %w", err)
		}
		next.Seed = i
	case "top_n":
		i, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid int for top_n: %w", err)
		}
		next.TopN = i
	case "delimiter":
		if val == `\t` || val == "tab" {
			val = "\t"
		}
		next.Delimiter = val
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// DelimiterRune returns the forced delimiter, or 0 to sniff.
func (c *Global) DelimiterRune() rune {
	for _, r := range c.Delimiter {
		return r
	}
	return 0
}

func defaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".sentinel"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.sentinel/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := defaultDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Command flags are applied on top
// by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("SENTINEL")
	v.AutomaticEnv()

	v.SetDefault("contamination", 0.05)
	v.SetDefault("verbose", false)
	v.SetDefault("output_dir", "")
	v.SetDefault("format", "table")
	v.SetDefault("seed", 42)
	v.SetDefault("top_n", 10)
	v.SetDefault("delimiter", "")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		v.SetConfigType("yaml")
	} else {
		dir, err := defaultDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	c.Format = strings.ToLower(c.Format)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &c, nil
}
