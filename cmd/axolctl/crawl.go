package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/karlicoss/axol/internal/crawlrun"
	"github.com/karlicoss/axol/internal/feed"
	"github.com/karlicoss/axol/internal/registry"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

func newCrawlCmd(app *appState) *cobra.Command {
	var limit int
	var include, exclude string
	var dry, quiet, parallel bool
	var schedule string

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "search + store new results for every matching feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			runOnce := func() error {
				feeds, err := registry.GetFeeds(app.user.Feeds(), func(f feed.Any) string { return f.Name() }, include, exclude)
				if err != nil {
					return err
				}

				runResults, err := crawlrun.Run(cmd.Context(), feeds, limit, dry, parallel)
				if err != nil {
					return err
				}

				anyErr := false
				for _, fr := range runResults {
					for _, e := range fr.Errs {
						anyErr = true
						fmt.Printf("%s: error: %v\n", fr.Feed.Name(), e)
					}
					if !quiet {
						for _, r := range fr.Results {
							if r.Err != nil {
								fmt.Printf("%s: %s: parse error: %v\n", fr.Feed.Name(), r.Uid, r.Err)
								continue
							}
							fmt.Printf("%s: %s: %+v\n", fr.Feed.Name(), r.Uid, r.Entity)
						}
					}
					fmt.Printf("%s: %d new\n", fr.Feed.Name(), len(fr.Results))
				}
				if anyErr {
					return errExitNonZero
				}
				return nil
			}

			if schedule == "" {
				return runOnce()
			}
			return runScheduled(app, schedule, runOnce)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "upper bound on results per feed (0 = unbounded)")
	cmd.Flags().StringVar(&include, "include", "", "feed name-prefix regex to include")
	cmd.Flags().StringVar(&exclude, "exclude", "", "feed name-prefix regex to exclude")
	cmd.Flags().BoolVar(&dry, "dry", false, "compute but do not write new rows")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "suppress per-item output")
	cmd.Flags().BoolVar(&parallel, "parallel", false, "group feeds by provider and crawl groups concurrently")
	cmd.Flags().StringVar(&schedule, "schedule", "", "run repeatedly on this 5-field cron expression instead of once, until interrupted")
	return cmd
}

// runScheduled turns a one-shot crawl into a foreground daemon: it runs
// runOnce immediately, then again on every tick of the given cron
// expression, until the process receives SIGINT/SIGTERM. Errors from
// individual runs are logged but never stop the schedule — only the signal
// does, so one bad run never kills the loop.
func runScheduled(app *appState, expr string, runOnce func() error) error {
	c := cron.New()
	id, err := c.AddFunc(expr, func() {
		if err := runOnce(); err != nil && err != errExitNonZero {
			app.log.Error("scheduled crawl failed", "err", err)
		}
	})
	if err != nil {
		return fmt.Errorf("crawl --schedule %q: %w", expr, err)
	}
	_ = id

	if err := runOnce(); err != nil && err != errExitNonZero {
		app.log.Error("initial crawl failed", "err", err)
	}

	c.Start()
	app.log.Info("crawl scheduled, waiting for signal", "schedule", expr)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	ctx := c.Stop()
	<-ctx.Done()
	return nil
}
