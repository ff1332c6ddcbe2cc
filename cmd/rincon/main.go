// Command rincon builds and serves the El Rincón del Lector catalog.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/erazemk/rincon/internal/config"
	"github.com/erazemk/rincon/internal/view"
)

// cli carries what every subcommand needs after the root pre-run.
type cli struct {
	configPath string
	logPath    string
	verbose    bool

	cfg      *config.Config
	closeLog func()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := &cli{}
	root := c.rootCommand()
	err := root.ExecuteContext(ctx)
	if c.closeLog != nil {
		c.closeLog()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func (c *cli) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "rincon",
		Short:         "Catalog tools for El Rincón del Lector",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&c.configPath, "config", "c", config.DefaultPath, "YAML config file")
	flags.StringVarP(&c.logPath, "log", "l", "", "also write logs to this file")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "log debug messages")

	root.AddCommand(
		c.serveCommand(),
		c.buildCommand(),
		c.urlsCommand(),
		c.precacheCommand(),
		c.migrateCommand(),
	)
	return root
}

// setup installs the logger and loads the configuration.
func (c *cli) setup() error {
	closeLog, err := setupLogger(c.logPath, c.verbose)
	if err != nil {
		return err
	}
	c.closeLog = closeLog

	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg
	return nil
}

// validate checks the configuration after flags were applied.
func (c *cli) validate() error {
	if err := c.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func (c *cli) viewOptions() view.Options {
	return view.Options{Site: c.cfg.MetaSite(), Prices: c.cfg.Prices()}
}

// httpClient is used to fetch remote catalogs.
func (c *cli) httpClient() *http.Client {
	return &http.Client{Timeout: c.cfg.Catalog.Timeout}
}
