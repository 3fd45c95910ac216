package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pders01/folio/internal/feed"
)

func newFeedCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:       "feed rss|atom|json",
		Short:     "Print a feed document to stdout",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"rss", "atom", "json"},
		RunE: func(cmd *cobra.Command, args []string) error {
			source, closer, err := opts.openSource()
			if err != nil {
				return err
			}
			defer closer.Close()

			gen, err := opts.newGenerator(source)
			if err != nil {
				return err
			}
			render, err := feedFormat(gen, args[0])
			if err != nil {
				return err
			}
			body, err := render(cmd.Context())
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(body)
			return err
		},
	}
}

func feedFormat(gen *feed.Generator, format string) (func(context.Context) ([]byte, error), error) {
	switch format {
	case "rss":
		return gen.GenerateRSS, nil
	case "atom":
		return gen.GenerateAtom, nil
	case "json":
		return gen.GenerateJSONFeed, nil
	default:
		return nil, fmt.Errorf("unknown feed format %q (want rss, atom or json)", format)
	}
}
