package main

import (
	"context"
	"fmt"

	"github.com/karlicoss/axol/internal/core"
	"github.com/karlicoss/axol/internal/providers/github"
	"github.com/karlicoss/axol/internal/providers/hackernews"
	"github.com/karlicoss/axol/internal/providers/lobsters"
	"github.com/karlicoss/axol/internal/providers/pinboard"
	"github.com/karlicoss/axol/internal/providers/reddit"
	"github.com/spf13/cobra"
)

// adhocAdapter is the type-erased shape search needs: a Search that yields
// raw pairs and a Parse that yields a printable entity. It exists only in
// the CLI layer — the core's provider.Adapter stays fully generic.
type adhocAdapter struct {
	search func(ctx context.Context, text string, limit int) func(yield func(core.Pair, error) bool)
	parse  func(core.RawRecord) (any, error)
}

func adapterFor(app *appState, module string) (*adhocAdapter, error) {
	switch module {
	case hackernews.Prefix:
		a := hackernews.New(app.limiters.For(hackernews.Prefix, app.cfg.RateLimits.HackerNewsPerSecond, 1))
		return &adhocAdapter{
			search: func(ctx context.Context, text string, limit int) func(func(core.Pair, error) bool) {
				return a.Search(ctx, hackernews.String(text).Compile()[0], limit)
			},
			parse: func(d core.RawRecord) (any, error) { return a.Parse(d) },
		}, nil
	case reddit.Prefix:
		a := reddit.New(reddit.Credentials{
			ClientID: app.cfg.Credentials.RedditClientID, ClientSecret: app.cfg.Credentials.RedditClientSecret,
			Username: app.cfg.Credentials.RedditUsername, Password: app.cfg.Credentials.RedditPassword,
			UserAgent: app.cfg.Credentials.RedditUserAgent,
		}, app.limiters.For(reddit.Prefix, app.cfg.RateLimits.RedditPerSecond, 1))
		return &adhocAdapter{
			search: func(ctx context.Context, text string, limit int) func(func(core.Pair, error) bool) {
				return a.Search(ctx, reddit.String(text).Compile()[0], limit)
			},
			parse: func(d core.RawRecord) (any, error) { return a.Parse(d) },
		}, nil
	case github.Prefix:
		a := github.New(app.cfg.Credentials.GitHubToken, app.limiters.For(github.Prefix, app.cfg.RateLimits.GitHubPerSecond, 1))
		return &adhocAdapter{
			search: func(ctx context.Context, text string, limit int) func(func(core.Pair, error) bool) {
				return a.Search(ctx, github.String(text).Compile()[0], limit)
			},
			parse: func(d core.RawRecord) (any, error) { return a.Parse(d) },
		}, nil
	case lobsters.Prefix:
		a := lobsters.New(app.limiters.For(lobsters.Prefix, app.cfg.RateLimits.LobstersPerSecond, 1))
		return &adhocAdapter{
			search: func(ctx context.Context, text string, limit int) func(func(core.Pair, error) bool) {
				return a.Search(ctx, lobsters.String(text).Compile()[0], limit)
			},
			parse: func(d core.RawRecord) (any, error) { return a.Parse(d) },
		}, nil
	case pinboard.Prefix:
		a := pinboard.New(app.limiters.For(pinboard.Prefix, app.cfg.RateLimits.PinboardPerSecond, 1))
		return &adhocAdapter{
			search: func(ctx context.Context, text string, limit int) func(func(core.Pair, error) bool) {
				return a.Search(ctx, pinboard.String(text).Compile()[0], limit)
			},
			parse: func(d core.RawRecord) (any, error) { return a.Parse(d) },
		}, nil
	default:
		return nil, fmt.Errorf("unknown module %q (want one of hackernews, reddit, github, lobsters, pinboard)", module)
	}
}

func newSearchCmd(app *appState) *cobra.Command {
	var limit int
	var raw bool
	var quiet bool

	cmd := &cobra.Command{
		Use:   "search <module> <query>",
		Short: "run a provider's search ad-hoc, with no DB writes",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			module, queryText := args[0], args[1]
			adapter, err := adapterFor(app, module)
			if err != nil {
				return err
			}

			count := 0
			for pair, err := range adapter.search(cmd.Context(), queryText, limit) {
				if err != nil {
					return err
				}
				count++
				if quiet {
					continue
				}
				if raw {
					fmt.Println(string(pair.Data))
					continue
				}
				entity, err := adapter.parse(pair.Data)
				if err != nil {
					fmt.Printf("%s: parse error: %v\n", pair.Uid, err)
					continue
				}
				fmt.Printf("%s: %+v\n", pair.Uid, entity)
			}
			if quiet {
				fmt.Printf("%d results\n", count)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "upper bound on results (0 = unbounded)")
	cmd.Flags().BoolVar(&raw, "raw", false, "print raw bytes instead of the parsed entity")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "suppress per-item output, print only the count")
	return cmd
}
