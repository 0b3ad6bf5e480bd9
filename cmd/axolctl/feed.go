package main

import (
	"fmt"

	axolfeed "github.com/karlicoss/axol/internal/feed"
	"github.com/karlicoss/axol/internal/registry"
	"github.com/karlicoss/axol/internal/store"
	"github.com/spf13/cobra"
)

func newFeedCmd(app *appState) *cobra.Command {
	var include, exclude string

	cmd := &cobra.Command{
		Use:   "feed",
		Short: "stream each matching feed's stored results to stdout",
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
				for _, r := range results {
					if r.Err != nil {
						fmt.Printf("%s: %s: parse error: %v\n", f.Name(), r.Uid, r.Err)
						continue
					}
					fmt.Printf("%s: %s: %+v\n", f.Name(), r.Uid, r.Entity)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&include, "include", "", "feed name-prefix regex to include")
	cmd.Flags().StringVar(&exclude, "exclude", "", "feed name-prefix regex to exclude")
	return cmd
}
