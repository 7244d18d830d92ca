// Package config loads reelcut settings. Precedence, lowest first: built-in
// defaults, the YAML file, environment variables. Command line flags are
// applied on top by the cli package.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Out        string  `yaml:"out"`
	CacheDir   string  `yaml:"cache_dir"`
	Clips      int     `yaml:"clips"`
	MinClipSec float64 `yaml:"min_clip_sec"`
	MaxClipSec float64 `yaml:"max_clip_sec"`
	Jobs       int     `yaml:"jobs"`
	SkipFailed bool    `yaml:"skip_failed"`
	Subtitles  bool    `yaml:"subtitles"`

	Reframe    ReframeConfig    `yaml:"reframe"`
	FFmpeg     FFmpegConfig     `yaml:"ffmpeg"`
	Whisper    WhisperConfig    `yaml:"whisper"`
	OpenRouter OpenRouterConfig `yaml:"openrouter"`
}

type ReframeConfig struct {
	Enabled       bool    `yaml:"enabled"`
	Aspect        string  `yaml:"aspect"`
	Detector      string  `yaml:"detector"`
	Cascade       string  `yaml:"cascade"`
	Stride        int     `yaml:"stride"`
	SmoothSeconds float64 `yaml:"smooth_seconds"`
}

type FFmpegConfig struct {
	FFmpeg  string `yaml:"ffmpeg"`
	FFprobe string `yaml:"ffprobe"`
}

type WhisperConfig struct {
	Bin      string `yaml:"bin"`
	Model    string `yaml:"model"`
	Language string `yaml:"language"`
	Threads  int    `yaml:"threads"`
}

type OpenRouterConfig struct {
	// APIKey only comes from the environment.
	APIKey       string   `yaml:"-"`
	Model        string   `yaml:"model"`
	BaseURL      string   `yaml:"base_url"`
	AllowedHosts []string `yaml:"allowed_hosts"`
}

func Default() *Config {
	return &Config{
		Out:        "out",
		CacheDir:   ".cache",
		Clips:      3,
		MinClipSec: 15,
		MaxClipSec: 60,
		Jobs:       1,
		Subtitles:  true,
		Reframe: ReframeConfig{
			Enabled:       true,
			Aspect:        "9:16",
			Detector:      "pigo",
			Cascade:       ".cache/models/facefinder",
			Stride:        2,
			SmoothSeconds: 1.0,
		},
		FFmpeg: FFmpegConfig{
			FFmpeg:  "ffmpeg",
			FFprobe: "ffprobe",
		},
		Whisper: WhisperConfig{
			Bin:   ".cache/bin/whisper.cpp",
			Model: ".cache/models/ggml-base.bin",
		},
		OpenRouter: OpenRouterConfig{
			BaseURL: "https://openrouter.ai",
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path and
// the process environment. An empty path looks for a reelcut.yaml in the
// working directory; an explicit path must exist.
func Load(path string) (*Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = findConfigFile()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist) && !explicit:
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := applyEnv(cfg, lookup); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfigFile() string {
	candidates := []string{"reelcut.yaml", "reelcut.yml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "reelcut", "config.yaml"))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	str("OPENROUTER_API_KEY", &cfg.OpenRouter.APIKey)
	str("OPENROUTER_MODEL", &cfg.OpenRouter.Model)
	str("OPENROUTER_BASE_URL", &cfg.OpenRouter.BaseURL)
	str("REELCUT_CACHE_DIR", &cfg.CacheDir)
	str("REELCUT_FFMPEG", &cfg.FFmpeg.FFmpeg)
	str("REELCUT_FFPROBE", &cfg.FFmpeg.FFprobe)
	str("REELCUT_WHISPER_BIN", &cfg.Whisper.Bin)
	str("REELCUT_WHISPER_MODEL", &cfg.Whisper.Model)
	str("REELCUT_WHISPER_LANGUAGE", &cfg.Whisper.Language)
	str("REELCUT_CASCADE", &cfg.Reframe.Cascade)
	str("REELCUT_DETECTOR", &cfg.Reframe.Detector)

	if v, ok := lookup("OPENROUTER_ALLOWED_HOSTS"); ok && strings.TrimSpace(v) != "" {
		cfg.OpenRouter.AllowedHosts = splitList(v)
	}
	if v, ok := lookup("REELCUT_JOBS"); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("REELCUT_JOBS: %w", err)
		}
		cfg.Jobs = n
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
