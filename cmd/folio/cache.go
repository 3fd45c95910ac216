package main

import (
	"github.com/spf13/cobra"

	"github.com/pders01/folio/internal/tui"
)

func newCacheCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the GitHub data cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Drop every cached GitHub category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			agg, closer, err := opts.newAggregator(cmd.Context())
			if err != nil {
				return err
			}
			defer closer.Close()

			if err := agg.ClearCache(cmd.Context()); err != nil {
				return err
			}
			tui.Status(cmd.OutOrStdout(), tui.StatusSuccess, "Cache cleared ("+opts.cfg.Cache.Backend+")")
			return nil
		},
	})
	return cmd
}
