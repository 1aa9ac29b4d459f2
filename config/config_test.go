package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	require.NoError(t, c.Validate())
	assert.True(t, c.Segment.HMM)
	assert.Equal(t, 1.0, c.Segment.FloorFreq)
	assert.Equal(t, []int{2, 3}, c.Segment.SearchSubLength)
	assert.Equal(t, "json", c.Server.Encoding)
}

func TestLoad(t *testing.T) {
	c, err := Load(filepath.Join("testdata", "config.toml"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("testdata", "dict.txt"), c.Dict.Main)
	assert.Equal(t, "", c.Dict.User)
	assert.Equal(t, "/opt/fenci/hmm_model.utf8", c.Dict.HMM)
	// not in the file, so the default is kept and resolved
	assert.Equal(t, filepath.Join("testdata", "data", "idf.utf8"), c.Dict.IDF)

	assert.False(t, c.Segment.HMM)
	assert.Equal(t, 0.5, c.Segment.FloorFreq)
	assert.Equal(t, []int{2, 3, 4}, c.Segment.SearchSubLength)
	assert.Equal(t, 4096, c.Segment.CacheSize)

	assert.Equal(t, "127.0.0.1:9000", c.Server.Addr)
	assert.Equal(t, "msgpack", c.Server.Encoding)
	assert.Equal(t, filepath.Join("testdata", "userdb"), c.Server.UserStore)
	assert.Equal(t, "debug", c.Log.Level)
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "invalid.toml"))
	assert.ErrorContains(t, err, "floor_frequency")

	_, err = Load(filepath.Join("testdata", "missing.toml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.toml")
	require.NoError(t, os.WriteFile(path, []byte("[segment\nhmm = ="), 0644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{"negative cache", func(c *Config) { c.Segment.CacheSize = -1 }},
		{"short sub length", func(c *Config) { c.Segment.SearchSubLength = []int{1} }},
		{"encoding", func(c *Config) { c.Server.Encoding = "xml" }},
		{"log level", func(c *Config) { c.Log.Level = "loud" }},
		{"user freq", func(c *Config) { c.Segment.DefaultUserFreq = -3 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.modify(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.toml")

	c := DefaultConfig()
	c.Dict.Main = "/data/dict.txt"
	c.Segment.CacheSize = 0
	c.Server.Addr = ":9999"
	require.NoError(t, Save(c, path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/dict.txt", got.Dict.Main)
	assert.Equal(t, 0, got.Segment.CacheSize)
	assert.Equal(t, ":9999", got.Server.Addr)
	assert.Equal(t, filepath.Join(dir, "nested", "data", "user_dict.txt"), got.Dict.User)
}

func TestLoadOrDefault(t *testing.T) {
	c, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), c)
}
