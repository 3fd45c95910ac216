package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/juju/clock"
	"github.com/spf13/cobra"

	"github.com/pders01/folio/internal/debuglog"
	"github.com/pders01/folio/internal/httpapi"
	"github.com/pders01/folio/internal/search"
	"github.com/pders01/folio/internal/tui"
)

func newServeCmd(opts *options) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				opts.cfg.Server.Addr = addr
			}
			if !opts.quiet {
				tui.ShowBanner(cmd.OutOrStdout(), Version)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, opts)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func serve(ctx context.Context, opts *options) error {
	source, closeSource, err := opts.openSource()
	if err != nil {
		return err
	}
	defer closeSource.Close()

	gen, err := opts.newGenerator(source)
	if err != nil {
		return err
	}
	agg, closeCache, err := opts.newAggregator(ctx)
	if err != nil {
		return err
	}
	defer closeCache.Close()

	searcher, err := opts.openSearch(ctx, source)
	if err != nil {
		return err
	}
	defer searcher.Close()
	if r, ok := searcher.(search.Reindexer); ok && opts.cfg.Search.ReindexInterval > 0 {
		go reindexLoop(ctx, clock.WallClock, r, opts.cfg.Search.ReindexInterval)
	}

	debuglog.Infof("serving %s posts from %s on %s", opts.cfg.Posts.Driver, opts.cfg.Site.Link, opts.cfg.Server.Addr)
	srv := httpapi.NewServer(opts.cfg.Server, httpapi.Deps{
		GitHub: agg,
		Feeds:  gen,
		Search: searcher,
	})
	return srv.Run(ctx)
}

// reindexLoop refreshes the search index every interval until ctx ends.
func reindexLoop(ctx context.Context, clk clock.Clock, r search.Reindexer, every time.Duration) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-clk.After(every):
			if err := r.Reindex(ctx); err != nil && ctx.Err() == nil {
				debuglog.Warnf("reindexing search: %v", err)
			}
		}
	}
}
