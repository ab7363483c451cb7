package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jdholdren/newscat/internal/config"
	"github.com/jdholdren/newscat/internal/logger"
)

var (
	version = "dev"
	commit  = "none"
)

// cli holds what every subcommand shares once the root has run.
type cli struct {
	out    io.Writer
	errOut io.Writer

	cfg     config.Config
	catalog config.Catalog

	flagStore          string
	flagCatalog        string
	flagFreshOnCorrupt bool
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	c := &cli{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:          "newscat",
		Short:        "Fetch news feeds and sort new articles into categories",
		Long:         "newscat fetches RSS and Atom feeds, classifies articles it has not seen before and keeps them for a week.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVar(&c.flagStore, "store", "", "path to the JSON store (overrides NEWSCAT_STORE)")
	root.PersistentFlags().StringVar(&c.flagCatalog, "catalog", "", "path to the YAML feed and label catalog (overrides NEWSCAT_CATALOG)")
	root.PersistentFlags().BoolVar(&c.flagFreshOnCorrupt, "fresh-on-corrupt", false, "move a corrupt store aside and start empty")

	root.AddCommand(
		c.runCmd(),
		c.listCmd(),
		c.pruneCmd(),
		c.serveCmd(),
		c.exportCmd(),
		versionCmd(),
	)

	return root
}

// setup parses the config, applies flag overrides and installs the logger.
func (c *cli) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(cmd.Context(), nil)
	if err != nil {
		return err
	}
	if c.flagStore != "" {
		cfg.StorePath = c.flagStore
	}
	if c.flagCatalog != "" {
		cfg.CatalogPath = c.flagCatalog
	}
	if c.flagFreshOnCorrupt {
		cfg.FreshOnCorrupt = true
	}
	c.cfg = cfg

	slog.SetDefault(logger.New(c.errOut, cfg.LoggerFormat, cfg.Debug))

	catalog, err := config.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return err
	}
	c.catalog = catalog

	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		// Needs no config.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "newscat %s (commit: %s)\n", version, commit)
		},
	}
}
