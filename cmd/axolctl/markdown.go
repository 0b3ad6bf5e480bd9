package main

import (
	"fmt"

	axolfeed "github.com/karlicoss/axol/internal/feed"
	"github.com/karlicoss/axol/internal/registry"
	"github.com/karlicoss/axol/internal/render"
	"github.com/karlicoss/axol/internal/store"
	"github.com/spf13/cobra"
)

func newMarkdownCmd(app *appState) *cobra.Command {
	var include string
	var toDir string

	cmd := &cobra.Command{
		Use:   "markdown",
		Short: "render each matching feed's entities to Markdown",
		RunE: func(cmd *cobra.Command, args []string) error {
			feeds, err := registry.GetFeeds(app.user.Feeds(), func(f axolfeed.Any) string { return f.Name() }, include, "")
			if err != nil {
				return err
			}

			r := render.Markdown{}
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
				if err := r.Render(f.Name(), results, toDir); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&include, "include", "", "feed name-prefix regex to include")
	cmd.Flags().StringVar(&toDir, "to", ".", "output directory")
	return cmd
}
