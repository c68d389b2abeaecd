package main

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vitazok/exercise-analyzer-backend/pkg/logger"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "exercise-analyzer",
		Short:        "Analyze exercise form from pose landmarks",
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			// A missing .env is normal outside development.
			if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			return nil
		},
	}

	root.AddCommand(
		newServeCmd(),
		newAnalyzeCmd(),
		newSubmitCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Run: func(cmd *cobra.Command, _ []string) {
				cmd.Println(version)
			},
		},
	)
	return root
}

// initLogger sets up the global logger. An invalid level falls back to info.
func initLogger(cmd *cobra.Command, format, level string) error {
	if err := logger.Init(logger.WithFormat(format), logger.WithWriter(cmd.ErrOrStderr())); err != nil {
		return err
	}
	if err := logger.SetLevelString(level); err != nil {
		logger.Get().Warn(cmd.Context(), "invalid log_level; falling back to info",
			logger.String("log_level", level), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return nil
}
