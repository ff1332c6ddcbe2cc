package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/erazemk/rincon/internal/catalog"
	"github.com/erazemk/rincon/internal/site"
	"github.com/erazemk/rincon/internal/view"
)

func (c *cli) buildCommand() *cobra.Command {
	var (
		output   string
		variant  string
		previews bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Generate the static catalog site",
		Long: `Generate index.html with every book, one share page per book and a copy
of books.json. Files whose content did not change are left untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "" {
				c.cfg.Build.OutputDir = output
			}
			if variant != "" {
				c.cfg.Build.Variant = variant
			}
			if cmd.Flags().Changed("previews") {
				c.cfg.Build.Previews = previews
			}
			if err := c.validate(); err != nil {
				return err
			}

			books, raw, err := catalog.LoadRaw(cmd.Context(), c.httpClient(), c.cfg.Catalog.Source)
			if err != nil {
				return err
			}

			renderer, err := view.NewRenderer()
			if err != nil {
				return err
			}
			builder := site.New(renderer, site.Options{
				OutputDir: c.cfg.Build.OutputDir,
				ImagesDir: c.cfg.Build.ImagesDir,
				Variant:   c.cfg.Build.Variant,
				Previews:  c.cfg.Build.Previews,
				View:      c.viewOptions(),
			})

			rep, err := builder.Build(cmd.Context(), books, raw)
			if err != nil {
				return err
			}
			slog.Info("site built",
				"dir", c.cfg.Build.OutputDir,
				"books", books.Len(),
				"written", len(rep.Written),
				"unchanged", len(rep.Unchanged),
				"previews", rep.Previews,
				"failed", len(rep.Failed),
			)
			if err := rep.Err(); err != nil {
				return fmt.Errorf("%d files failed: %w", len(rep.Failed), err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output directory (default from config)")
	cmd.Flags().StringVar(&variant, "variant", "", `book page variant: "redirect" or "standalone"`)
	cmd.Flags().BoolVar(&previews, "previews", false, "render 1200x630 social preview images")
	return cmd
}
