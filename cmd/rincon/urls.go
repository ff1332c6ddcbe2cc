package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/erazemk/rincon/internal/catalog"
	"github.com/erazemk/rincon/internal/site"
)

func (c *cli) urlsCommand() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "urls",
		Short: "Print the share URL of every book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.validate(); err != nil {
				return err
			}
			urls, err := c.shareURLs(cmd)
			if err != nil {
				return err
			}

			if err := site.WriteURLs(os.Stdout, urls); err != nil {
				return err
			}
			fmt.Println()

			if out == "" {
				out = c.cfg.Build.URLsFile
			}
			if out != "-" {
				if err := site.SaveURLs(out, urls); err != nil {
					return err
				}
				slog.Info("url list saved", "path", out, "urls", len(urls))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", `also save the list to this file ("-" to skip)`)
	return cmd
}

// shareURLs loads the catalog and returns the share URL of every book.
func (c *cli) shareURLs(cmd *cobra.Command) ([]string, error) {
	books, err := catalog.Load(cmd.Context(), c.httpClient(), c.cfg.Catalog.Source)
	if err != nil {
		return nil, err
	}
	return site.ShareURLs(c.cfg.MetaSite(), books.IDs()), nil
}
