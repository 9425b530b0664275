package main

import (
	"fmt"

	"github.com/hyperjump/kbase/internal/cli"
	"github.com/spf13/cobra"
)

func newWatchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Index all knowledge bases, then keep the index updated as files change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.setup(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.service.Update(cmd.Context(), "")
			if err != nil {
				return err
			}
			if err := cli.WriteReport(cmd.ErrOrStderr(), report, cli.OutputText); err != nil {
				return err
			}

			w := newIndexWatcher(cmd.Context(), a)
			if err := w.Start(cmd.Context()); err != nil {
				return err
			}
			defer w.Stop()
			fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s (Ctrl+C to stop)\n", a.cfg.KnowledgeBases.RootDir)
			<-cmd.Context().Done()
			return nil
		},
	}
}
