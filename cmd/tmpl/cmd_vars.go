package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aescanero/dago-templates/internal/template"
)

func newVarsCmd(a *app) *cobra.Command {
	var flat bool

	cmd := &cobra.Command{
		Use:   "vars <template>",
		Short: "List the variables and nested templates of a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tmpl, err := a.engine.FromFile(args[0])
			if err != nil {
				return err
			}
			if !flat {
				fmt.Fprint(cmd.OutOrStdout(), template.Hierarchy(tmpl))
				return nil
			}
			for _, name := range template.AllVariableFQNames(tmpl) {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&flat, "flat", false, "print fully-qualified variable names only")
	return cmd
}
