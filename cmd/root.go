package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"mdbrowser/internal/config"
)

var (
	configFile string
	logLevel   string
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mdbrowser",
		Short: "Browse local markdown with automatic right-to-left detection",
		Long: `mdbrowser serves a directory of markdown files in the browser. Every
paragraph, heading, list item and quote is checked for Arabic, Hebrew and
other right-to-left scripts and laid out in the matching direction.

Examples:
  mdbrowser serve ~/notes
  mdbrowser detect "مرحبا بالعالم"
  mdbrowser detect --blocks --file README.md
  mdbrowser render notes.md -o notes.html --theme dark`,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
		SilenceUsage:      true,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default $XDG_CONFIG_HOME/mdbrowser/config.yaml)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")

	root.AddCommand(newServeCmd(), newDetectCmd(), newRenderCmd())
	return root
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig builds the configuration for cmd. bindings maps config keys to
// flag names; a flag only overrides the file and environment when it was set.
func loadConfig(cmd *cobra.Command, bindings map[string]string) (*config.Config, error) {
	v := config.New(configFile)
	if err := bindFlags(cmd, v, bindings); err != nil {
		return nil, err
	}
	if logLevel != "" {
		v.Set("log_level", logLevel)
	}

	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	level, _ := config.ParseLevel(cfg.LogLevel)
	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
	return cfg, nil
}

func bindFlags(cmd *cobra.Command, v *viper.Viper, bindings map[string]string) error {
	for key, name := range bindings {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			return fmt.Errorf("unknown flag %q", name)
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind %s: %w", name, err)
		}
	}
	return nil
}
