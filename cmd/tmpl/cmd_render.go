package main

import (
	"io"

	"github.com/spf13/cobra"
)

func addRenderFlags(cmd *cobra.Command, opts *renderOptions) {
	cmd.Flags().StringVarP(&opts.data, "data", "d", "", "JSON or YAML data file, - for stdin")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write to a file instead of stdout")
	cmd.Flags().StringVarP(&opts.group, "group", "g", "", "variable group for variables without one (html, js, attr, ...)")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "fail unless every variable and nested template is populated")
}

func newRenderCmd(a *app) *cobra.Command {
	var opts renderOptions

	cmd := &cobra.Command{
		Use:   "render <template>",
		Short: "Render a template with data from a JSON or YAML file",
		Long: `Render a template to stdout.

Variables and nested templates are read from the data document by name:
a mapping populates a nested template once, a sequence once per element.
Names missing from the data are left empty.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeOutput(opts.output, cmd.OutOrStdout(), func(w io.Writer) error {
				return a.render(args[0], opts, w)
			})
		},
	}

	addRenderFlags(cmd, &opts)
	return cmd
}
