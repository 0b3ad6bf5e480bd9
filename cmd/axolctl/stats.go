package main

import (
	"fmt"

	axolfeed "github.com/karlicoss/axol/internal/feed"
	"github.com/karlicoss/axol/internal/registry"
	"github.com/karlicoss/axol/internal/stats"
	"github.com/karlicoss/axol/internal/store"
	"github.com/spf13/cobra"
)

func newStatsCmd(app *appState) *cobra.Command {
	var include, exclude string
	var threshold float64

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "histogram of field values across entities of each matching feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			feeds, err := registry.GetFeeds(app.user.Feeds(), func(f axolfeed.Any) string { return f.Name() }, include, exclude)
			if err != nil {
				return err
			}

			for _, f := range feeds {
				st, err := f.Open(store.ReadOnly)
				if err != nil {
					return fmt.Errorf("%s: %w", f.Name(), err)
				}
				results, err := f.Read(cmd.Context(), st)
				st.Close()
				if err != nil {
					return fmt.Errorf("%s: %w", f.Name(), err)
				}

				var entities []any
				for _, r := range results {
					if r.Err == nil {
						entities = append(entities, r.Entity)
					}
				}

				rows := stats.Histogram(entities, threshold)
				fmt.Printf("%s:\n", f.Name())
				for _, row := range rows {
					fmt.Printf("  %s=%s: %d/%d (%.0f%%)\n", row.Field, row.Value, row.Count, row.Total, row.Ratio()*100)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&include, "include", "", "feed name-prefix regex to include")
	cmd.Flags().StringVar(&exclude, "exclude", "", "feed name-prefix regex to exclude")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "minimum count/total ratio to report")
	return cmd
}
