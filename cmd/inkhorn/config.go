package main

import (
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the inkhorn configuration file
// (~/.config/inkhorn/config.yaml). All numeric fields are pointers so we can
// distinguish "not set" from zero values.
type Config struct {
	ModelPath string `yaml:"model_path"`

	// Training defaults
	Order            *int     `yaml:"order"`
	MinWordCount     *int     `yaml:"min_word_count"`
	MinSentenceChars *int     `yaml:"min_sentence_chars"`
	MaxSentenceChars *int     `yaml:"max_sentence_chars"`
	MinAlphaRatio    *float64 `yaml:"min_alpha_ratio"`
	Workers          *int     `yaml:"workers"`

	// Sampling defaults
	Temperature *float64 `yaml:"temperature"`
	MaxTokens   *int64   `yaml:"max_tokens"`
	Seed        *int64   `yaml:"seed"`

	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Server
	ServerAddress string `yaml:"server_address"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "inkhorn", "config.yaml")
}

// applyTrainConfig applies config file defaults to train command variables
// when the corresponding CLI flag was not explicitly set.
func applyTrainConfig(c *cli.Command, cfg Config,
	order *int64, minCount *int64, minChars *int64, maxChars *int64,
	alphaRatio *float64, workers *int64,
) {
	if cfg.ModelPath != "" && !c.IsSet("model") {
		modelPath = cfg.ModelPath
	}
	if cfg.Order != nil && !c.IsSet("order") {
		*order = int64(*cfg.Order)
	}
	if cfg.MinWordCount != nil && !c.IsSet("min-count") {
		*minCount = int64(*cfg.MinWordCount)
	}
	if cfg.MinSentenceChars != nil && !c.IsSet("min-chars") {
		*minChars = int64(*cfg.MinSentenceChars)
	}
	if cfg.MaxSentenceChars != nil && !c.IsSet("max-chars") {
		*maxChars = int64(*cfg.MaxSentenceChars)
	}
	if cfg.MinAlphaRatio != nil && !c.IsSet("alpha-ratio") {
		*alphaRatio = *cfg.MinAlphaRatio
	}
	if cfg.Workers != nil && !c.IsSet("workers") {
		*workers = int64(*cfg.Workers)
	}
}

// applySamplingConfig applies config file defaults to sampling variables.
func applySamplingConfig(c *cli.Command, cfg Config,
	temp *float64, maxTokens *int64, seed *int64,
) {
	if cfg.ModelPath != "" && !c.IsSet("model") {
		modelPath = cfg.ModelPath
	}
	if cfg.Temperature != nil && !c.IsSet("temperature") && !c.IsSet("temp") && !c.IsSet("t") {
		*temp = *cfg.Temperature
	}
	if cfg.MaxTokens != nil && !c.IsSet("max-tokens") && !c.IsSet("n") {
		*maxTokens = *cfg.MaxTokens
	}
	if cfg.Seed != nil && !c.IsSet("seed") {
		*seed = *cfg.Seed
	}
}

// applyServeConfig applies config file defaults to serve command variables.
func applyServeConfig(c *cli.Command, cfg Config, addr *string) {
	if cfg.ModelPath != "" && !c.IsSet("model") {
		modelPath = cfg.ModelPath
	}
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
}

// LoadConfig reads the config file. Returns a zero Config if the file
// doesn't exist or cannot be parsed.
func LoadConfig() Config {
	path := configPath()
	if path == "" {
		return Config{}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}
	}
	return cfg
}
