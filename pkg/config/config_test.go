package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/lushi/pkg/word"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 4, cfg.Poem.Rows)
	assert.Equal(t, 5, cfg.Poem.Cols)
	assert.Equal(t, "春", cfg.Lexicon.Topic)
	assert.Equal(t, word.Time|word.Nature, cfg.TopicCategories())
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid default config", func(c *Config) {}, false},
		{"octave of sevens", func(c *Config) { c.Poem.Rows, c.Poem.Cols = 8, 7 }, false},
		{"six rows", func(c *Config) { c.Poem.Rows = 6 }, true},
		{"six columns", func(c *Config) { c.Poem.Cols = 6 }, true},
		{"no candidates", func(c *Config) { c.Poem.Candidates = 0 }, true},
		{"no workers", func(c *Config) { c.Poem.Workers = 0 }, true},
		{"keep nothing", func(c *Config) { c.Poem.Keep = 0 }, true},
		{"missing topic", func(c *Config) { c.Lexicon.Topic = "" }, true},
		{"negative timeout", func(c *Config) { c.Phonetic.Timeout = -time.Second }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lushi.yaml")
	content := `
poem:
  rows: 8
  cols: 7
lexicon:
  topic: 秋月
  topic_type: time|nature
phonetic:
  endpoint: https://dict.example.org/word/
  timeout: 3s
  static:
    秋月: ㄑㄧㄡ ㄩㄝˋ
logging:
  debug: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Poem.Rows)
	assert.Equal(t, 7, cfg.Poem.Cols)
	assert.Equal(t, 200, cfg.Poem.Candidates, "unset values keep defaults")
	assert.Equal(t, "秋月", cfg.Lexicon.Topic)
	assert.Equal(t, 3*time.Second, cfg.Phonetic.Timeout)
	assert.Equal(t, "ㄑㄧㄡ ㄩㄝˋ", cfg.Phonetic.Static["秋月"])
	assert.True(t, cfg.Logging.Debug)
	assert.NoError(t, cfg.Validate())

	_, err = LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("poem: [1, 2"), 0644))
	_, err = LoadFromFile(bad)
	assert.Error(t, err)
}

func TestSaveAndReload(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Lexicon.Dictionary = "data/lexicon.json"
	path := filepath.Join(t.TempDir(), "nested", "lushi.yaml")
	require.NoError(t, cfg.SaveToFile(path))

	again, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestMerge(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Phonetic.Static = map[string]string{"春": "ㄔㄨㄣ"}
	cfg.Merge(&Config{
		Poem:     PoemConfig{Cols: 7, Workers: 8},
		Lexicon:  LexiconConfig{Database: ":memory:"},
		Phonetic: PhoneticConfig{Static: map[string]string{"秋": "ㄑㄧㄡ"}},
		Logging:  LoggingConfig{Debug: true},
	})
	assert.Equal(t, 4, cfg.Poem.Rows)
	assert.Equal(t, 7, cfg.Poem.Cols)
	assert.Equal(t, 8, cfg.Poem.Workers)
	assert.Equal(t, ":memory:", cfg.Lexicon.Database)
	assert.Equal(t, "春", cfg.Lexicon.Topic)
	assert.Len(t, cfg.Phonetic.Static, 2)
	assert.True(t, cfg.Logging.Debug)

	cfg.Merge(nil)
	assert.Equal(t, 7, cfg.Poem.Cols)
}
