package main

import (
	"github.com/hyperjump/kbase/internal/cli"
	"github.com/spf13/cobra"
)

func newStatusCmd(opts *rootOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show index status and disk usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := cli.ParseFormat(format)
			if err != nil {
				return err
			}
			a, err := opts.setup(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			st, err := a.service.Status()
			if err != nil {
				return err
			}
			return cli.WriteStatus(cmd.OutOrStdout(), st, f)
		},
	}
	cmd.Flags().StringVarP(&format, "output", "o", "text", "output format: text or json")
	return cmd
}
