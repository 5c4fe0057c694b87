// Package config loads polecat configuration from a YAML file, environment
// variables (prefix POLECAT), and flags, in ascending precedence.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the complete polecat configuration.
type Config struct {
	Paths   PathsConfig   `mapstructure:"paths"`
	Swarm   SwarmConfig   `mapstructure:"swarm"`
	Agents  AgentsConfig  `mapstructure:"agents"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// PathsConfig locates the directories polecat works in.
type PathsConfig struct {
	// Home is the worker home: worktrees live at <home>/<task-id>, the
	// drain file and metrics live alongside them. Overridable with
	// POLECAT_HOME or --home.
	Home string `mapstructure:"home"`
	// Tasks is the task store directory. Defaults to <home>/tasks.
	Tasks string `mapstructure:"tasks"`
	// Repo is the mainline repository tasks are merged into.
	Repo string `mapstructure:"repo"`
	// FrameworkRoot locates the agent-runner CLI installation.
	// Overridable with POLECAT_FRAMEWORK_ROOT.
	FrameworkRoot string `mapstructure:"framework_root"`
}

// SwarmConfig controls worker fleet behavior.
type SwarmConfig struct {
	// ClaudeCount is the default number of claude workers.
	ClaudeCount int `mapstructure:"claude_count"`
	// GeminiCount is the default number of gemini workers.
	GeminiCount int `mapstructure:"gemini_count"`
	// GeminiStaggerSeconds spaces out gemini worker starts to avoid
	// thundering-herd quota errors. The first gemini starts immediately.
	GeminiStaggerSeconds int `mapstructure:"gemini_stagger_seconds"`
	// CyclePauseSeconds is the safety pause between a worker's clean exit
	// and its restart.
	CyclePauseSeconds int `mapstructure:"cycle_pause_seconds"`
}

// GeminiStagger returns the stagger as a time.Duration.
func (c *SwarmConfig) GeminiStagger() time.Duration {
	return time.Duration(c.GeminiStaggerSeconds) * time.Second
}

// CyclePause returns the restart pause as a time.Duration.
func (c *SwarmConfig) CyclePause() time.Duration {
	return time.Duration(c.CyclePauseSeconds) * time.Second
}

// AgentsConfig names the agent CLI commands workers invoke.
type AgentsConfig struct {
	ClaudeCommand string `mapstructure:"claude_command"`
	GeminiCommand string `mapstructure:"gemini_command"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	// Dir is where log files are written; empty logs to stderr.
	Dir string `mapstructure:"dir"`
}

// Default returns the built-in defaults.
func Default() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	polecatHome := filepath.Join(home, ".polecat")

	return &Config{
		Paths: PathsConfig{
			Home:  polecatHome,
			Tasks: filepath.Join(polecatHome, "tasks"),
		},
		Swarm: SwarmConfig{
			ClaudeCount:          0,
			GeminiCount:          0,
			GeminiStaggerSeconds: 15,
			CyclePauseSeconds:    5,
		},
		Agents: AgentsConfig{
			ClaudeCommand: "claude",
			GeminiCommand: "gemini",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// SetDefaults registers default values with viper.
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("paths.home", defaults.Paths.Home)
	viper.SetDefault("paths.tasks", defaults.Paths.Tasks)
	viper.SetDefault("paths.repo", defaults.Paths.Repo)
	viper.SetDefault("paths.framework_root", defaults.Paths.FrameworkRoot)

	viper.SetDefault("swarm.claude_count", defaults.Swarm.ClaudeCount)
	viper.SetDefault("swarm.gemini_count", defaults.Swarm.GeminiCount)
	viper.SetDefault("swarm.gemini_stagger_seconds", defaults.Swarm.GeminiStaggerSeconds)
	viper.SetDefault("swarm.cycle_pause_seconds", defaults.Swarm.CyclePauseSeconds)

	viper.SetDefault("agents.claude_command", defaults.Agents.ClaudeCommand)
	viper.SetDefault("agents.gemini_command", defaults.Agents.GeminiCommand)

	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
}

// BindEnv wires the POLECAT_* environment variables. Nested keys use
// underscores: POLECAT_PATHS_HOME overrides paths.home. The two short
// variables POLECAT_HOME and POLECAT_FRAMEWORK_ROOT are bound explicitly
// because they predate the nested scheme.
func BindEnv() {
	viper.SetEnvPrefix("POLECAT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	_ = viper.BindEnv("paths.home", "POLECAT_HOME", "POLECAT_PATHS_HOME")
	_ = viper.BindEnv("paths.framework_root", "POLECAT_FRAMEWORK_ROOT", "POLECAT_PATHS_FRAMEWORK_ROOT")
}

// Load reads the configuration from viper into a Config struct. The tasks
// directory falls back to <home>/tasks when not set explicitly.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if cfg.Paths.Tasks == "" {
		cfg.Paths.Tasks = filepath.Join(cfg.Paths.Home, "tasks")
	}
	return &cfg, nil
}

// Get returns the current configuration, falling back to defaults when
// unmarshaling fails.
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "polecat")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".polecat"
	}
	return filepath.Join(home, ".config", "polecat")
}

// ConfigFile returns the path to the config file.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
