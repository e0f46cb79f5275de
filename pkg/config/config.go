// Package config provides configuration loading for lushi.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/japaniel/lushi/pkg/word"
)

// Config is the complete lushi configuration
type Config struct {
	Poem     PoemConfig     `yaml:"poem"`
	Lexicon  LexiconConfig  `yaml:"lexicon"`
	Phonetic PhoneticConfig `yaml:"phonetic"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// PoemConfig controls generation
type PoemConfig struct {
	// Rows is 4 (quatrain) or 8 (octave)
	Rows int `yaml:"rows"`
	// Cols is 5 or 7 characters per line
	Cols int `yaml:"cols"`
	// Candidates is the number of random poems generated per run
	Candidates int `yaml:"candidates"`
	// Workers is the number of goroutines scoring candidates
	Workers int `yaml:"workers"`
	// Keep is how many of the best poems are printed
	Keep int `yaml:"keep"`
}

// LexiconConfig locates the word store and names the topic
type LexiconConfig struct {
	Database   string `yaml:"database"`
	Dictionary string `yaml:"dictionary"`
	// SourceURL is downloaded when Dictionary does not exist
	SourceURL string `yaml:"source_url"`
	Topic     string `yaml:"topic"`
	// TopicType is a category list such as "noun|nature"
	TopicType string `yaml:"topic_type"`
}

// PhoneticConfig configures topic transcription
type PhoneticConfig struct {
	// Endpoint is the dictionary page prefix; empty disables web lookups
	Endpoint  string        `yaml:"endpoint"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
	// Static maps text to space separated bopomofo and is consulted first
	Static map[string]string `yaml:"static,omitempty"`
}

type LoggingConfig struct {
	Debug bool `yaml:"debug"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Poem: PoemConfig{
			Rows:       4,
			Cols:       5,
			Candidates: 200,
			Workers:    4,
			Keep:       3,
		},
		Lexicon: LexiconConfig{
			Database:  "lushi.db",
			Topic:     "春",
			TopicType: "time|nature",
		},
		Phonetic: PhoneticConfig{
			Timeout: 10 * time.Second,
		},
	}
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.Poem.Rows != 4 && c.Poem.Rows != 8 {
		return fmt.Errorf("poem.rows must be 4 or 8, got %d", c.Poem.Rows)
	}
	if c.Poem.Cols != 5 && c.Poem.Cols != 7 {
		return fmt.Errorf("poem.cols must be 5 or 7, got %d", c.Poem.Cols)
	}
	if c.Poem.Candidates < 1 {
		return fmt.Errorf("poem.candidates must be at least 1")
	}
	if c.Poem.Workers < 1 {
		return fmt.Errorf("poem.workers must be at least 1")
	}
	if c.Poem.Keep < 1 {
		return fmt.Errorf("poem.keep must be at least 1")
	}
	if c.Lexicon.Topic == "" {
		return fmt.Errorf("lexicon.topic is required")
	}
	if c.Phonetic.Timeout < 0 {
		return fmt.Errorf("phonetic.timeout must not be negative")
	}
	return nil
}

// TopicCategories parses Lexicon.TopicType.
func (c *Config) TopicCategories() word.Type {
	return word.ParseType(c.Lexicon.TopicType)
}

// LoadFromFile loads configuration from a YAML file on top of the defaults
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Poem.Rows != 0 {
		c.Poem.Rows = other.Poem.Rows
	}
	if other.Poem.Cols != 0 {
		c.Poem.Cols = other.Poem.Cols
	}
	if other.Poem.Candidates != 0 {
		c.Poem.Candidates = other.Poem.Candidates
	}
	if other.Poem.Workers != 0 {
		c.Poem.Workers = other.Poem.Workers
	}
	if other.Poem.Keep != 0 {
		c.Poem.Keep = other.Poem.Keep
	}

	if other.Lexicon.Database != "" {
		c.Lexicon.Database = other.Lexicon.Database
	}
	if other.Lexicon.Dictionary != "" {
		c.Lexicon.Dictionary = other.Lexicon.Dictionary
	}
	if other.Lexicon.SourceURL != "" {
		c.Lexicon.SourceURL = other.Lexicon.SourceURL
	}
	if other.Lexicon.Topic != "" {
		c.Lexicon.Topic = other.Lexicon.Topic
	}
	if other.Lexicon.TopicType != "" {
		c.Lexicon.TopicType = other.Lexicon.TopicType
	}

	if other.Phonetic.Endpoint != "" {
		c.Phonetic.Endpoint = other.Phonetic.Endpoint
	}
	if other.Phonetic.Timeout != 0 {
		c.Phonetic.Timeout = other.Phonetic.Timeout
	}
	if other.Phonetic.UserAgent != "" {
		c.Phonetic.UserAgent = other.Phonetic.UserAgent
	}
	if len(other.Phonetic.Static) > 0 {
		if c.Phonetic.Static == nil {
			c.Phonetic.Static = make(map[string]string, len(other.Phonetic.Static))
		}
		for k, v := range other.Phonetic.Static {
			c.Phonetic.Static[k] = v
		}
	}

	if other.Logging.Debug {
		c.Logging.Debug = true
	}
}
