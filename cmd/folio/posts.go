package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pders01/folio/internal/importer"
	"github.com/pders01/folio/internal/search"
	"github.com/pders01/folio/internal/tui"
)

func newPostsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "List, show, import and search blog posts",
	}
	cmd.AddCommand(
		newPostsListCmd(opts),
		newPostsShowCmd(opts),
		newPostsImportCmd(opts),
		newPostsSearchCmd(opts),
	)
	return cmd
}

func newPostsListCmd(opts *options) *cobra.Command {
	var published bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List posts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			source, closer, err := opts.openSource()
			if err != nil {
				return err
			}
			defer closer.Close()

			list, err := source.ListPosts(cmd.Context())
			if err != nil {
				return err
			}
			if published {
				kept := list[:0]
				for _, p := range list {
					if p.Eligible() {
						kept = append(kept, p)
					}
				}
				list = kept
			}
			tui.PostList(cmd.OutOrStdout(), list, termWidth())
			return nil
		},
	}
	cmd.Flags().BoolVar(&published, "published", false, "only posts that appear in the feeds")
	return cmd
}

func newPostsShowCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID|SLUG",
		Short: "Render a post in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, closer, err := opts.openSource()
			if err != nil {
				return err
			}
			defer closer.Close()

			p, err := findPost(cmd.Context(), source, args[0])
			if err != nil {
				return err
			}
			var r tui.MarkdownRenderer
			return r.RenderPost(cmd.OutOrStdout(), p, termWidth())
		},
	}
}

func newPostsImportCmd(opts *options) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "import [URL...]",
		Short: "Import posts from external feeds into the bolt store",
		Long: "Import posts from RSS, Atom or JSON feeds, dev.to profiles or Medium\n" +
			"profiles into the bolt store at posts.db_path. With no URLs every\n" +
			"previously imported feed is refreshed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			im := importer.New(store, opts.cfg.Feed)
			im.SetPermissiveValidation(opts.permissive)
			im.SetForceRefresh(force)

			var results []*importer.Result
			var importErr error
			if len(args) == 0 {
				results, importErr = im.Refresh(cmd.Context())
			} else {
				results, importErr = im.ImportAll(cmd.Context(), args)
			}

			out := cmd.OutOrStdout()
			feeds, total := 0, 0
			for _, r := range results {
				if r == nil {
					continue
				}
				feeds++
				total += r.Imported
				if r.NotModified {
					tui.Status(out, tui.StatusInfo, tui.MsgNotModified(r.Origin.Title))
				} else {
					tui.Status(out, tui.StatusSuccess, tui.MsgImported(r.Origin.Title, r.Imported))
				}
			}
			failures := 0
			if importErr != nil {
				for _, line := range strings.Split(importErr.Error(), "\n") {
					tui.Status(out, tui.StatusError, line)
					failures++
				}
			}

			docs := -1
			if opts.cfg.Search.Enabled {
				if s, err := opts.openSearch(cmd.Context(), store); err == nil {
					if dc, ok := s.(search.DocCounter); ok {
						docs, _ = dc.DocCount()
					}
					s.Close()
				}
			}
			tui.Status(out, tui.StatusInfo, tui.MsgImportSummary(feeds, total, failures, docs))

			if importErr != nil {
				return fmt.Errorf("%d feeds failed to import", failures)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "ignore ETag and Last-Modified and refetch")
	return cmd
}

func newPostsSearchCmd(opts *options) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search QUERY...",
		Short: "Full-text search over published posts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, closer, err := opts.openSource()
			if err != nil {
				return err
			}
			defer closer.Close()

			s, err := opts.openSearch(cmd.Context(), source)
			if err != nil {
				return err
			}
			defer s.Close()

			results, err := s.Search(cmd.Context(), strings.Join(args, " "), limit)
			if err != nil {
				return err
			}
			tui.SearchResults(cmd.OutOrStdout(), results, termWidth())
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of results")
	return cmd
}
