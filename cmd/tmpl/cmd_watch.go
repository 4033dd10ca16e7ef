package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aescanero/dago-templates/internal/watch"
)

func newWatchCmd(a *app) *cobra.Command {
	var opts renderOptions

	cmd := &cobra.Command{
		Use:   "watch <template>",
		Short: "Render a template again whenever a template file changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.useRedis {
				return fmt.Errorf("watch works with file templates only")
			}
			dir := a.root
			if dir == "" {
				dir = "."
			}

			rerender := func() error {
				return writeOutput(opts.output, cmd.OutOrStdout(), func(w io.Writer) error {
					return a.render(args[0], opts, w)
				})
			}
			if err := rerender(); err != nil {
				return err
			}

			w, err := watch.NewWatcher(a.engine.Cache(), a.logger, dir)
			if err != nil {
				return err
			}
			w.OnChange(func(path string) {
				if err := rerender(); err != nil {
					a.logger.Error("failed to render template", zap.String("changed", path), zap.Error(err))
					return
				}
				a.logger.Info("template rendered", zap.String("changed", path))
			})
			if err := w.Start(); err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			a.logger.Info("watching templates, press Ctrl+C to stop", zap.String("dir", dir))
			<-ctx.Done()

			return w.Stop()
		},
	}

	addRenderFlags(cmd, &opts)
	return cmd
}
