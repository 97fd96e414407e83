// Package root assembles duskvm's command tree, adapted from the
// operator-registry opm command's root.NewCmd: one cobra.Command with
// persistent config flags and DUSKVM_* environment fallback, and one
// subcommand per concern (the scenario subcommand lives in this
// package).
package root

import (
	"os"
	"strconv"

	"duskos/kernel"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Config holds the flags shared by every subcommand (spec.md's
// [AMBIENT] Configuration: pool sizes, swap disk path, log level, all
// overridable via DUSKVM_* environment variables when the flag is
// left at its default).
type Config struct {
	PoolSize  int
	SwapSlots uint64
	SwapDisk  string
	LogLevel  string
}

// NewCmd builds the root duskvm command.
func NewCmd() *cobra.Command {
	cfg := &Config{}

	cmd := &cobra.Command{
		Use:   "duskvm",
		Short: "exercise the virtual memory subsystem core",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			applyEnvDefaults(cmd, cfg)
			level, err := logrus.ParseLevel(cfg.LogLevel)
			if err != nil {
				level = logrus.InfoLevel
			}
			kernel.Log.SetLevel(level)
		},
	}

	flags := cmd.PersistentFlags()
	flags.IntVar(&cfg.PoolSize, "pool-size", 8, "user frame pool size, in pages (DUSKVM_POOL_SIZE)")
	flags.Uint64Var(&cfg.SwapSlots, "swap-slots", 32, "swap disk size, in page-sized slots (DUSKVM_SWAP_SLOTS)")
	flags.StringVar(&cfg.SwapDisk, "swap-disk", "", "path to a bbolt-backed swap disk file; empty uses an in-memory disk (DUSKVM_SWAP_DISK)")
	flags.StringVar(&cfg.LogLevel, "log-level", "info", "logrus level (DUSKVM_LOG_LEVEL)")

	cmd.AddCommand(newScenarioCmd(cfg))
	return cmd
}

func applyEnvDefaults(cmd *cobra.Command, cfg *Config) {
	changed := cmd.Flags().Changed
	if v := os.Getenv("DUSKVM_POOL_SIZE"); v != "" && !changed("pool-size") {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.PoolSize = n
		}
	}
	if v := os.Getenv("DUSKVM_SWAP_SLOTS"); v != "" && !changed("swap-slots") {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.SwapSlots = n
		}
	}
	if v := os.Getenv("DUSKVM_SWAP_DISK"); v != "" && !changed("swap-disk") {
		cfg.SwapDisk = v
	}
	if v := os.Getenv("DUSKVM_LOG_LEVEL"); v != "" && !changed("log-level") {
		cfg.LogLevel = v
	}
}
