/*
Package config manages the TOML configuration of the fenci tools.
*/
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
)

// Config holds the entire config structure
type Config struct {
	Dict    DictConfig    `toml:"dict"`
	Segment SegmentConfig `toml:"segment"`
	Server  ServerConfig  `toml:"server"`
	Log     LogConfig     `toml:"log"`
}

// DictConfig names the data files. Empty paths are skipped, except Main.
type DictConfig struct {
	Main      string `toml:"main"`
	User      string `toml:"user"`
	HMM       string `toml:"hmm"`
	IDF       string `toml:"idf"`
	StopWords string `toml:"stop_words"`
	// Snapshot, when set and present, is loaded instead of Main and User.
	Snapshot string `toml:"snapshot"`
}

// SegmentConfig holds segmentation options.
type SegmentConfig struct {
	HMM             bool    `toml:"hmm"`
	FloorFreq       float64 `toml:"floor_frequency"`
	DefaultUserFreq float64 `toml:"default_user_frequency"`
	SearchSubLength []int   `toml:"search_sub_lengths"`
	UnknownTag      string  `toml:"unknown_tag"`
	CacheSize       int     `toml:"cache_size"`
}

// ServerConfig has server related options.
type ServerConfig struct {
	Addr      string `toml:"addr"`
	UserStore string `toml:"user_store"`
	Encoding  string `toml:"encoding"`
	MaxTopK   int    `toml:"max_top_k"`
}

// LogConfig holds logging options.
type LogConfig struct {
	Level string `toml:"level"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Dict: DictConfig{
			Main:      "data/dict.txt",
			User:      "data/user_dict.txt",
			HMM:       "data/hmm_model.utf8",
			IDF:       "data/idf.utf8",
			StopWords: "data/stop_words.utf8",
		},
		Segment: SegmentConfig{
			HMM:             true,
			FloorFreq:       1,
			SearchSubLength: []int{2, 3},
			UnknownTag:      "x",
			CacheSize:       4096,
		},
		Server: ServerConfig{
			Addr:     ":8080",
			Encoding: "json",
			MaxTopK:  100,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load decodes a TOML file over the defaults. Keys the file sets override
// defaults, the rest keep their default values.
func Load(configPath string) (*Config, error) {
	config := DefaultConfig()
	md, err := toml.DecodeFile(configPath, config)
	if err != nil {
		return nil, fmt.Errorf("decode config %s: %w", configPath, err)
	}
	for _, key := range md.Undecoded() {
		log.Warnf("Unknown config key %q in %s", key.String(), configPath)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", configPath, err)
	}
	config.resolvePaths(filepath.Dir(configPath))
	return config, nil
}

// LoadOrDefault loads configPath when it is set, otherwise returns the defaults.
func LoadOrDefault(configPath string) (*Config, error) {
	if configPath == "" {
		return DefaultConfig(), nil
	}
	return Load(configPath)
}

// Save saves into a TOML file
func Save(config *Config, configPath string) error {
	if dir := filepath.Dir(configPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	file, err := os.Create(configPath)
	if err != nil {
		return err
	}
	defer file.Close()
	return toml.NewEncoder(file).Encode(config)
}

// Validate checks values that would make the engine misbehave.
func (c *Config) Validate() error {
	if c.Segment.FloorFreq <= 0 {
		return fmt.Errorf("segment.floor_frequency must be positive, got %v", c.Segment.FloorFreq)
	}
	if c.Segment.DefaultUserFreq < 0 {
		return fmt.Errorf("segment.default_user_frequency must not be negative, got %v", c.Segment.DefaultUserFreq)
	}
	if c.Segment.CacheSize < 0 {
		return fmt.Errorf("segment.cache_size must not be negative, got %d", c.Segment.CacheSize)
	}
	for _, l := range c.Segment.SearchSubLength {
		if l < 2 {
			return fmt.Errorf("segment.search_sub_lengths must be at least 2, got %d", l)
		}
	}
	switch c.Server.Encoding {
	case "json", "msgpack":
	default:
		return fmt.Errorf("server.encoding must be json or msgpack, got %q", c.Server.Encoding)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// resolvePaths makes relative data paths relative to the config file.
func (c *Config) resolvePaths(base string) {
	for _, p := range []*string{
		&c.Dict.Main, &c.Dict.User, &c.Dict.HMM, &c.Dict.IDF,
		&c.Dict.StopWords, &c.Dict.Snapshot, &c.Server.UserStore,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
}
