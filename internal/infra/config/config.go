package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Download DownloadConfig `mapstructure:"download" yaml:"download"`
	Speech   SpeechConfig   `mapstructure:"speech" yaml:"speech"`
	Process  ProcessConfig  `mapstructure:"process" yaml:"process"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	Store    StoreConfig    `mapstructure:"store" yaml:"store"`

	Port string `mapstructure:"port" yaml:"port"`
}

// RemoteBrowserConfig points at the managed browser-session service.
// An empty APIKey simply disables the remote-browser capability.
type RemoteBrowserConfig struct {
	BaseURL   string `mapstructure:"base_url" yaml:"base_url"`
	APIKey    string `mapstructure:"api_key" yaml:"api_key"`
	ProjectID string `mapstructure:"project_id" yaml:"project_id"`
}

type DownloadConfig struct {
	WorkDir       string              `mapstructure:"work_dir" yaml:"work_dir"`
	OutputDir     string              `mapstructure:"output_dir" yaml:"output_dir"`
	MethodTimeout time.Duration       `mapstructure:"method_timeout" yaml:"method_timeout"`
	ProbeAddr     string              `mapstructure:"probe_addr" yaml:"probe_addr"`
	RemoteBrowser RemoteBrowserConfig `mapstructure:"remote_browser" yaml:"remote_browser"`
}

// SpeechConfig holds synthesis backend credentials. Absent credentials
// disable the corresponding tier, never a startup error.
type SpeechConfig struct {
	CloneBaseURL   string        `mapstructure:"clone_base_url" yaml:"clone_base_url"`
	CloneAPIKey    string        `mapstructure:"clone_api_key" yaml:"clone_api_key"`
	TTSBaseURL     string        `mapstructure:"tts_base_url" yaml:"tts_base_url"`
	TTSAPIKey      string        `mapstructure:"tts_api_key" yaml:"tts_api_key"`
	DefaultVoice   string        `mapstructure:"default_voice" yaml:"default_voice"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
}

type ProcessConfig struct {
	FfmpegPath  string `mapstructure:"ffmpeg_path" yaml:"ffmpeg_path"`
	FfprobePath string `mapstructure:"ffprobe_path" yaml:"ffprobe_path"`
}

type LogConfig struct {
	Path          string `mapstructure:"path" yaml:"path"`
	Level         string `mapstructure:"level" yaml:"level"`
	IncludeStdout bool   `mapstructure:"include_stdout" yaml:"include_stdout"`
}

type StoreConfig struct {
	// Backend is "sqlite" or "postgres".
	Backend     string `mapstructure:"backend" yaml:"backend"`
	SQLitePath  string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
	PostgresDSN string `mapstructure:"postgres_dsn" yaml:"postgres_dsn"`
}

func Load(path string) (*Config, error) {

	if path == "" {
		path = "config.yaml"
	}

	v := viper.New()

	// Set Defaults
	v.SetDefault("port", "8080")
	v.SetDefault("download.work_dir", "./work")
	v.SetDefault("download.output_dir", "./output")
	v.SetDefault("download.method_timeout", "5m")
	v.SetDefault("download.probe_addr", "1.1.1.1:443")
	v.SetDefault("download.remote_browser.base_url", "https://api.browserbay.dev/v1")
	v.SetDefault("speech.default_voice", "alloy")
	v.SetDefault("speech.request_timeout", "2m")
	v.SetDefault("process.ffmpeg_path", "ffmpeg")
	v.SetDefault("process.ffprobe_path", "ffprobe")
	v.SetDefault("log.path", "clipwash.log")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.include_stdout", true)
	v.SetDefault("store.backend", "sqlite")
	v.SetDefault("store.sqlite_path", "./data/clipwash.db")

	// A missing config file is fine: everything has a default or comes
	// from the environment.
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	// Support Environment Variables
	v.SetEnvPrefix("CLIPWASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Download.WorkDir == "" {
		c.Download.WorkDir = "./work"
	}
	if c.Download.OutputDir == "" {
		c.Download.OutputDir = "./output"
	}
	if c.Download.MethodTimeout <= 0 {
		c.Download.MethodTimeout = 5 * time.Minute
	}
	if c.Speech.RequestTimeout <= 0 {
		c.Speech.RequestTimeout = 2 * time.Minute
	}

	switch c.Store.Backend {
	case "", "sqlite":
		c.Store.Backend = "sqlite"
		if c.Store.SQLitePath == "" {
			c.Store.SQLitePath = "./data/clipwash.db"
		}
	case "postgres":
		if c.Store.PostgresDSN == "" {
			return fmt.Errorf("store backend is postgres but postgres_dsn is empty")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}

	return nil
}
