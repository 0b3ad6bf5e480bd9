package main

import (
	"fmt"

	axolfeed "github.com/karlicoss/axol/internal/feed"
	"github.com/karlicoss/axol/internal/registry"
	"github.com/karlicoss/axol/internal/store"
	"github.com/spf13/cobra"
)

func newFeedsCmd(app *appState) *cobra.Command {
	var include, exclude string
	var searchPreview, dbStats bool

	cmd := &cobra.Command{
		Use:   "feeds",
		Short: "tabulate declared feeds",
		RunE: func(cmd *cobra.Command, args []string) error {
			feeds, err := registry.GetFeeds(app.user.Feeds(), func(f axolfeed.Any) string { return f.Name() }, include, exclude)
			if err != nil {
				return err
			}

			for _, f := range feeds {
				if searchPreview {
					for _, sq := range f.SearchQueries() {
						fmt.Printf("%-30s search: %s\n", f.Name(), sq)
					}
				} else {
					fmt.Printf("%-30s prefix=%-12s path=%s\n", f.Name(), f.Prefix(), f.DBPath())
				}
				if dbStats {
					st, err := f.Open(store.ReadOnly)
					if err != nil {
						fmt.Printf("  db: %v\n", err)
						continue
					}
					rows, err := st.SelectAll(cmd.Context())
					st.Close()
					if err != nil {
						fmt.Printf("  db: %v\n", err)
						continue
					}
					fmt.Printf("  db: %d rows\n", len(rows))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&include, "include", "", "feed name-prefix regex to include")
	cmd.Flags().StringVar(&exclude, "exclude", "", "feed name-prefix regex to exclude")
	cmd.Flags().BoolVar(&searchPreview, "search", false, "tabulate the compiled SearchQuery fan-out instead of the feed list")
	cmd.Flags().BoolVar(&dbStats, "db-stats", false, "include each feed's stored item count")
	return cmd
}
