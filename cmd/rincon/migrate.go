package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/erazemk/rincon/internal/catalog"
	"github.com/erazemk/rincon/internal/migrate"
)

func (c *cli) migrateCommand() *cobra.Command {
	var imagesDir string

	cmd := &cobra.Command{
		Use:   "migrate-images",
		Short: "Move base64 images out of books.json into files",
		Long: `Extract every data:image entry in the catalog file into the images
directory, rewrite the catalog to reference the files and keep a backup of
the original next to it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.validate(); err != nil {
				return err
			}
			if catalog.IsRemote(c.cfg.Catalog.Source) {
				return errors.New("migrate-images needs a local catalog file")
			}
			if imagesDir == "" {
				imagesDir = c.cfg.Build.ImagesDir
			}

			res, err := migrate.Run(cmd.Context(), migrate.Options{
				CatalogPath:  c.cfg.Catalog.Source,
				ImagesDir:    imagesDir,
				BackupSuffix: c.cfg.Migrate.BackupSuffix,
				LogFile:      c.cfg.Migrate.LogFile,
			})
			if err != nil {
				return err
			}

			fmt.Printf("Backup: %s\n", migrate.BackupPath(c.cfg.Catalog.Source, c.cfg.Migrate.BackupSuffix))
			fmt.Printf("Books with embedded images: %d\n", res.BooksWithImages)
			fmt.Printf("Images extracted: %d\n", len(res.Entries))
			for _, f := range res.Failures {
				fmt.Printf("  book %d image %d: %v\n", f.BookID, f.Index, f.Err)
			}
			if len(res.Failures) > 0 {
				return fmt.Errorf("%d images could not be extracted", len(res.Failures))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&imagesDir, "images", "i", "", "directory for extracted images (default from config)")
	return cmd
}
