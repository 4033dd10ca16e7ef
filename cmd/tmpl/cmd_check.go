package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newCheckCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <template>...",
		Short: "Parse templates and report syntax errors",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, path := range args {
				if _, err := a.engine.FromFile(path); err != nil {
					failed++
					fmt.Fprintln(cmd.ErrOrStderr(), err)
					a.logger.Debug("template check failed", zap.String("path", path), zap.Error(err))
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "ok %s\n", path)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d templates failed", failed, len(args))
			}
			return nil
		},
	}
	return cmd
}
