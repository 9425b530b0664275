package main

import (
	"github.com/hyperjump/kbase/internal/cli"
	"github.com/spf13/cobra"
)

func newIndexCmd(opts *rootOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "index [knowledge-base]",
		Short: "Bring the index up to date",
		Long: `Run one maintenance pass: embed files whose content changed since they were
last indexed, for the named knowledge base or all of them. If the index is
missing, it is rebuilt from every file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := cli.ParseFormat(format)
			if err != nil {
				return err
			}
			a, err := opts.setup(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			kb := ""
			if len(args) == 1 {
				kb = args[0]
			}
			report, err := a.service.Update(cmd.Context(), kb)
			if err != nil {
				return err
			}
			return cli.WriteReport(cmd.OutOrStdout(), report, f)
		},
	}
	cmd.Flags().StringVarP(&format, "output", "o", "text", "output format: text or json")
	return cmd
}
