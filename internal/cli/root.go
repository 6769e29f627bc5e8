// Package cli provides the mapframe command-line interface.
package cli

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/mapframe-labs/mapframe/internal/cli/commands"
	"github.com/mapframe-labs/mapframe/internal/config"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

var cfgFile string

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mapframe",
		Short: "mapframe - move tabular and geospatial data to and from a hosted SQL service",
		Long: `mapframe reads tables and queries from a hosted geospatial SQL service into
local tabular data, and pushes local CSV or GeoJSON data back up as tables.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" || cmd.Name() == "version" {
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			logger := newLogger(cfg.Verbose)
			ctx := commands.WithRuntime(cmd.Context(), &commands.Runtime{
				Config: cfg,
				Logger: logger,
			})
			cmd.SetContext(ctx)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./mapframe.yaml)")
	rootCmd.PersistentFlags().String("host", "", "service hostname")
	rootCmd.PersistentFlags().Int("port", 0, "service port")
	rootCmd.PersistentFlags().String("database", "", "database name")
	rootCmd.PersistentFlags().String("username", "", "username")
	rootCmd.PersistentFlags().String("password", "", "password")
	rootCmd.PersistentFlags().String("schema", "", "target schema (default: the connection's current schema)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")

	rootCmd.AddCommand(commands.NewDownloadCmd())
	rootCmd.AddCommand(commands.NewUploadCmd())
	rootCmd.AddCommand(commands.NewDeleteCmd())
	rootCmd.AddCommand(commands.NewDescribeCmd())
	rootCmd.AddCommand(commands.NewGeomTypeCmd())

	return rootCmd
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
