// Package cmd implements the polecat CLI.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/polecat-sh/polecat/internal/config"
	"github.com/polecat-sh/polecat/internal/logging"
	"github.com/polecat-sh/polecat/internal/task"
)

var rootCmd = &cobra.Command{
	Use:   "polecat",
	Short: "Autonomous coding-agent worker fleet",
	Long: `Polecat runs a fleet of ephemeral coding-agent workers that pull tasks
from a shared queue, execute each one in an isolated git worktree, and
merge completed branches into mainline through a serialized merge slot.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/polecat/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))

	rootCmd.PersistentFlags().String("home", "", "worker home directory (default is $HOME/.polecat, env POLECAT_HOME)")
	_ = viper.BindPFlag("paths.home", rootCmd.PersistentFlags().Lookup("home"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/polecat")
		viper.AddConfigPath(".")
	}

	config.BindEnv()

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}

// openStore opens the task store for the configured tasks directory.
func openStore(cfg *config.Config) (*task.Store, error) {
	return task.NewStore(cfg.Paths.Tasks)
}

// newLogger builds the structured logger. Commands whose stdout is consumed
// by scripts keep all logging on the configured sink (file or stderr).
func newLogger(cfg *config.Config) (*logging.Logger, error) {
	return logging.NewLogger(cfg.Logging.Dir, cfg.Logging.Level)
}
