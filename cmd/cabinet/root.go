// Root command for the cabinet CLI.
package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/osteokit/cabinet/internal/hybrid"
	"github.com/osteokit/cabinet/internal/paths"
	"github.com/osteokit/cabinet/pkg/cabinet"
	"github.com/osteokit/cabinet/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// Global flag values.
var (
	flagConfigDir string
	flagDataDir   string
	flagJSON      bool
	flagVerbose   bool
)

// configDataDir holds the data_dir value loaded from config.yaml.
// Set by PersistentPreRunE so all subcommands can use it.
var configDataDir string

// manager is the storage façade shared by all subcommands for the
// lifetime of one invocation.
var manager *hybrid.Manager

var logger *slog.Logger

var rootCmd = &cobra.Command{
	Use:     "cabinet",
	Short:   "Cabinet is a local-first store for an osteopathy practice",
	Long: `Cabinet manages the records of an osteopathy practice on the
practitioner's own machine. Patient data never leaves the device;
practice configuration may be served from the hosted service when one
is configured.`,
	Version:       cabinet.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelWarn
		if flagVerbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

		configDir, err := resolveConfigDir()
		if err != nil {
			return err
		}
		v, err := loadConfig(configDir)
		if err != nil {
			return err
		}
		configDataDir = v.GetString(cfgKeyDataDir)

		dataDir, err := resolveDataDir()
		if err != nil {
			return err
		}
		cfg := types.Config{
			DataDir:       dataDir,
			CloudFallback: v.GetBool(cfgKeyCloudFallback),
			DisableLock:   v.GetBool(cfgKeyDisableLock),
			Remote: types.RemoteConfig{
				BaseURL: v.GetString(cfgKeyRemoteURL),
				APIKey:  v.GetString(cfgKeyRemoteAPIKey),
				Timeout: v.GetDuration(cfgKeyRemoteTimeout),
			},
		}
		if cfg.Remote.Timeout == 0 {
			cfg.Remote.Timeout = 10 * time.Second
		}

		manager = hybrid.New(cfg, logger)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if manager != nil {
			return manager.Close()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: platform config dir)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default: $(CWD)/.cabinet-db)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "verbose logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(migrateCmd)
}

// resolveDataDir follows the precedence chain:
// --data-dir flag > config.yaml data_dir > CABINET_DATA_DIR env > default.
func resolveDataDir() (string, error) {
	return paths.ResolveDataDir(flagDataDir, configDataDir)
}

// resolveConfigDir follows the precedence chain:
// --config-dir flag > CABINET_CONFIG_DIR env > DefaultConfigDir().
func resolveConfigDir() (string, error) {
	return paths.ResolveConfigDir(flagConfigDir)
}
