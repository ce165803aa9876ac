package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

const (
	// FileName is the config file name looked up in the working directory.
	FileName = "youtube-playlist.yaml"
	appName  = "youtube-playlist"

	defaultDirectory    = "~/Music"
	defaultLogLevel     = "warn"
	defaultAudioFormat  = "mp3"
	defaultYtdlpPath    = "yt-dlp"
	defaultYtdlpTimeout = 10 * time.Minute
)

type Config struct {
	Directory     string            `yaml:"directory"`
	LogLevel      string            `yaml:"log_level"`
	Playlists     map[string]string `yaml:"playlists"`
	Notifications *bool             `yaml:"notifications"`

	Ytdlp YtdlpConfig `yaml:"ytdlp"`
}

type YtdlpConfig struct {
	Path        string        `yaml:"path"`
	AudioFormat string        `yaml:"audio_format"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Load reads a single config file and applies defaults.
func Load(path string) (*Config, error) {
	config, err := read(path)
	if err != nil {
		return nil, err
	}
	config.setDefaults()
	return config, nil
}

// LoadFiles reads every existing file in paths, in order, with later files
// overriding earlier ones key by key. Missing files are skipped.
func LoadFiles(paths ...string) (*Config, error) {
	config := &Config{}
	for _, path := range paths {
		next, err := read(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		slog.Debug("loaded config file", "path", path)
		config.merge(next)
	}
	config.setDefaults()
	return config, nil
}

// SearchPaths returns the locations a config file is looked up in: the
// working directory, the home directory and the user config directory.
func SearchPaths() []string {
	paths := []string{FileName}
	if home, err := homedir.Dir(); err == nil {
		paths = append(paths, filepath.Join(home, "."+FileName))
	}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, appName, "config.yaml"))
	}
	return paths
}

// PlaylistID returns the remote id configured for the playlist name.
func (c *Config) PlaylistID(name string) (string, error) {
	id, ok := c.Playlists[name]
	if !ok {
		return "", fmt.Errorf("unknown playlist %q, configured playlists: %s", name, strings.Join(c.PlaylistNames(), ", "))
	}
	return id, nil
}

// PlaylistNames returns the configured playlist names.
func (c *Config) PlaylistNames() []string {
	names := make([]string, 0, len(c.Playlists))
	for name := range c.Playlists {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// NotificationsEnabled reports whether desktop notifications should be sent.
func (c *Config) NotificationsEnabled() bool {
	return c.Notifications == nil || *c.Notifications
}

// Level parses the configured log level.
func (c *Config) Level() (slog.Level, error) {
	return ParseLevel(c.LogLevel)
}

// ParseLevel parses a log level name such as "debug" or "warn".
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

func read(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config *Config

	// Unmarshal the YAML data into the struct
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if config == nil {
		config = &Config{}
	}

	return config, nil
}

func (c *Config) merge(other *Config) {
	if other.Directory != "" {
		c.Directory = other.Directory
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.Notifications != nil {
		c.Notifications = other.Notifications
	}
	if len(other.Playlists) > 0 && c.Playlists == nil {
		c.Playlists = make(map[string]string, len(other.Playlists))
	}
	for name, id := range other.Playlists {
		c.Playlists[name] = id
	}
	if other.Ytdlp.Path != "" {
		c.Ytdlp.Path = other.Ytdlp.Path
	}
	if other.Ytdlp.AudioFormat != "" {
		c.Ytdlp.AudioFormat = other.Ytdlp.AudioFormat
	}
	if other.Ytdlp.Timeout != 0 {
		c.Ytdlp.Timeout = other.Ytdlp.Timeout
	}
}

func (c *Config) setDefaults() {
	if c.Directory == "" {
		c.Directory = defaultDirectory
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.Playlists == nil {
		c.Playlists = make(map[string]string)
	}
	if c.Ytdlp.Path == "" {
		c.Ytdlp.Path = defaultYtdlpPath
	}
	if c.Ytdlp.AudioFormat == "" {
		c.Ytdlp.AudioFormat = defaultAudioFormat
	}
	if c.Ytdlp.Timeout == 0 {
		c.Ytdlp.Timeout = defaultYtdlpTimeout
	}
}
