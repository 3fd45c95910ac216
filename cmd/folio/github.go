package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pders01/folio/internal/aggregator"
	"github.com/pders01/folio/internal/tui"
)

func newGitHubCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "github [type]",
		Short: "Print aggregated GitHub data as JSON",
		Long: "Print aggregated GitHub data as JSON. type is one of " +
			categoryNames() + " and defaults to all.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			category := aggregator.CategoryAll
			if len(args) == 1 {
				c, ok := aggregator.ParseCategory(args[0])
				if !ok {
					return fmt.Errorf("invalid type %q (want one of %s)", args[0], categoryNames())
				}
				category = c
			}

			agg, closer, err := opts.newAggregator(cmd.Context())
			if err != nil {
				return err
			}
			defer closer.Close()

			data, err := agg.Get(cmd.Context(), category)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), data)
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "rate-limit",
			Short: "Show the GitHub API rate limit (never cached)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				agg, closer, err := opts.newAggregator(cmd.Context())
				if err != nil {
					return err
				}
				defer closer.Close()

				rl, err := agg.GetRateLimitStatus(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), rl)
			},
		},
		&cobra.Command{
			Use:   "summary",
			Short: "Show a styled overview of the GitHub profile",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				agg, closer, err := opts.newAggregator(cmd.Context())
				if err != nil {
					return err
				}
				defer closer.Close()

				data, err := agg.GetGitHubData(cmd.Context())
				if err != nil {
					return err
				}
				tui.GitHubSummary(cmd.OutOrStdout(), data)
				return nil
			},
		},
	)
	return cmd
}

func categoryNames() string {
	names := make([]string, len(aggregator.Categories))
	for i, c := range aggregator.Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
