package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/pders01/folio/internal/config"
	"github.com/pders01/folio/internal/debuglog"
)

// options are the persistent flags plus the config they load.
type options struct {
	configPath string
	logLevel   string
	quiet      bool
	permissive bool

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "folio",
		Short:         "Blog feeds and a cached GitHub profile API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if skipConfig(cmd) {
				return nil
			}
			return opts.load()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to configuration file")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error, off (overrides config)")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "skip the startup banner")
	flags.BoolVar(&opts.permissive, "permissive", false, "allow local feed hosts and data paths outside ~/.folio")

	root.AddCommand(
		newServeCmd(opts),
		newFeedCmd(opts),
		newGitHubCmd(opts),
		newPostsCmd(opts),
		newCacheCmd(opts),
		newConfigCmd(),
		newVersionCmd(),
	)
	return root
}

// skipConfig reports whether cmd runs without loading configuration.
func skipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations["skip-config"] == "true" {
			return true
		}
	}
	return false
}

func (o *options) load() error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if err := debuglog.Setup(debuglog.ParseLogLevel(cfg.Log.Level), cfg.Log.File); err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	o.cfg = cfg
	return nil
}

// termWidth is the width of stdout, or 0 when it is not a terminal.
func termWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0
	}
	return w
}
