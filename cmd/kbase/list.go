package main

import (
	"github.com/hyperjump/kbase/internal/cli"
	"github.com/hyperjump/kbase/internal/indexer"
	"github.com/spf13/cobra"
)

func newListCmd(opts *rootOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the knowledge bases under the root",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := cli.ParseFormat(format)
			if err != nil {
				return err
			}
			cfg, _, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}
			names, err := indexer.ListKnowledgeBases(cfg.KnowledgeBases.RootDir)
			if err != nil {
				return err
			}
			return cli.WriteKnowledgeBases(cmd.OutOrStdout(), names, f)
		},
	}
	cmd.Flags().StringVarP(&format, "output", "o", "text", "output format: text or json")
	return cmd
}
