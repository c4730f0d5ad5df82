package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/agubarev/lowcode/internal/core"
	"github.com/agubarev/lowcode/pkg/config"
	"github.com/agubarev/lowcode/pkg/util"
	"github.com/davecgh/go-spew/spew"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile string
	debug   bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           "lowcode",
	Short:         "Multi-tenant low-code platform core.",
	Long:          `Manages domains, applications, permissions and workflow definitions.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.lowcode.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "verbose logging and configuration dump")
}

// configPath returns an explicitly given config path or the default
// one if it exists, an empty path means defaults and environment only
func configPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}

	home, err := homedir.Dir()
	if err != nil {
		return "", errors.Wrap(err, "failed to find home directory")
	}

	path := filepath.Join(home, ".lowcode.yaml")
	if !util.Exists(path) {
		return "", nil
	}

	return path, nil
}

func loadConfig() (config.Config, error) {
	path, err := configPath()
	if err != nil {
		return config.Config{}, err
	}

	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}

	if debug {
		cfg.Log.Debug = true
	}

	return cfg, nil
}

// logger is silent unless asked otherwise, output is reserved for results
func logger(cfg config.Config) (*zap.Logger, error) {
	if !cfg.Log.Debug && cfg.Log.Dir == "" {
		return zap.NewNop(), nil
	}

	return util.DefaultLogger(cfg.Log.Debug, cfg.Log.Dir)
}

// openRuntime loads configuration and builds the core
func openRuntime(ctx context.Context) (*core.Runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	l, err := logger(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize logger")
	}

	if cfg.Log.Debug {
		dump := cfg
		if dump.Postgres.DSN != "" {
			dump.Postgres.DSN = "[redacted]"
		}

		if dump.Redis.Password != "" {
			dump.Redis.Password = "[redacted]"
		}

		l.Debug("configuration", zap.String("dump", spew.Sdump(dump)))
	}

	if cfg.Backend == config.BackendMemory {
		l.Warn("memory backend is selected, nothing will be persisted")
	}

	return core.Open(ctx, cfg, l, nil)
}

// printJSON writes a result to the standard output
func printJSON(cmd *cobra.Command, v interface{}) error {
	return util.PrettyJSON(cmd.OutOrStdout(), v)
}
