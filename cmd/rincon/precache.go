package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/erazemk/rincon/internal/precache"
)

func (c *cli) precacheCommand() *cobra.Command {
	var (
		batch int
		pause time.Duration
	)

	cmd := &cobra.Command{
		Use:   "precache [url...]",
		Short: "Ask Facebook to scrape the share pages",
		Long: `Ask the Facebook Graph API to re-scrape every share page so link previews
are current. Without arguments all catalog books are warmed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fb := c.cfg.Facebook
			if batch > 0 {
				fb.BatchSize = batch
			}
			if cmd.Flags().Changed("pause") {
				fb.Pause = pause
			}
			c.cfg.Facebook = fb
			if err := c.validate(); err != nil {
				return err
			}

			urls := args
			if len(urls) == 0 {
				var err error
				if urls, err = c.shareURLs(cmd); err != nil {
					return err
				}
			}

			warmer := precache.New(&http.Client{Timeout: fb.Timeout}, precache.Options{
				GraphURL:    fb.GraphURL,
				AccessToken: fb.AccessToken,
				BatchSize:   fb.BatchSize,
				Pause:       fb.Pause,
			})
			summary, err := warmer.Warm(cmd.Context(), urls)
			if summary != nil {
				for _, r := range summary.Results {
					if r.OK() {
						fmt.Printf("ok     %s\n", r.URL)
					} else {
						fmt.Printf("failed %s: %s\n", r.URL, describe(r))
					}
				}
				fmt.Printf("%d/%d pages warmed\n", summary.Succeeded, len(urls))
			}
			if err != nil {
				return err
			}
			if summary.Succeeded < len(urls) {
				return fmt.Errorf("%d pages could not be warmed", len(urls)-summary.Succeeded)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&batch, "batch", 0, "URLs per batch (default from config)")
	cmd.Flags().DurationVar(&pause, "pause", 0, "pause between batches (default from config)")
	return cmd
}

func describe(r precache.Result) string {
	if r.Err != nil {
		return r.Err.Error()
	}
	return http.StatusText(r.Status)
}
