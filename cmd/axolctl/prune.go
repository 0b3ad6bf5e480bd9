package main

import (
	"fmt"

	axolfeed "github.com/karlicoss/axol/internal/feed"
	"github.com/karlicoss/axol/internal/registry"
	"github.com/karlicoss/axol/internal/store"
	"github.com/spf13/cobra"
)

func newPruneCmd(app *appState) *cobra.Command {
	var include, exclude string
	var dry, print bool

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "apply each matching feed's exclude predicate destructively",
		RunE: func(cmd *cobra.Command, args []string) error {
			feeds, err := registry.GetFeeds(app.user.Feeds(), func(f axolfeed.Any) string { return f.Name() }, include, exclude)
			if err != nil {
				return err
			}

			for _, f := range feeds {
				st, err := f.Open(store.Writable)
				if err != nil {
					return fmt.Errorf("%s: %w", f.Name(), err)
				}
				results, err := f.PruneDB(cmd.Context(), st, dry)
				st.Close()
				if err != nil {
					return fmt.Errorf("%s: %w", f.Name(), err)
				}
				fmt.Printf("%s: %d pruned (dry=%v)\n", f.Name(), len(results), dry)
				if print {
					for _, r := range results {
						fmt.Printf("  %s: %+v\n", r.Uid, r.Entity)
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&include, "include", "", "feed name-prefix regex to include")
	cmd.Flags().StringVar(&exclude, "exclude", "", "feed name-prefix regex to exclude")
	cmd.Flags().BoolVar(&dry, "dry", false, "report what would be pruned without deleting")
	cmd.Flags().BoolVar(&print, "print", false, "print each pruned row")
	return cmd
}
