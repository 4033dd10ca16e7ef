package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Version is set at build time
	Version = "dev"
	// BuildTime is set at build time
	BuildTime = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "tmpl",
		Short:         "Render, check and inspect templates",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd.Context()); err != nil {
				return err
			}
			a.logger.Debug("tmpl starting",
				zap.String("version", Version),
				zap.String("build_time", BuildTime),
				zap.String("command", cmd.Name()),
				zap.String("config", a.cfg.String()),
			)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.root, "root", "r", "", "directory template paths are resolved against")
	rootCmd.PersistentFlags().BoolVar(&a.useRedis, "redis", false, "load templates from Redis (TMPL_REDIS_ADDR)")

	rootCmd.AddCommand(newRenderCmd(a))
	rootCmd.AddCommand(newCheckCmd(a))
	rootCmd.AddCommand(newVarsCmd(a))
	rootCmd.AddCommand(newWatchCmd(a))

	return rootCmd
}
