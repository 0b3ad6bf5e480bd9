// Package examplefeeds is a concrete implementation of the user
// configuration contract (internal/userconfig.Provider), demonstrating how
// a real user config module declares feeds for every provider. Spec §6
// describes this as an out-of-scope external collaborator the core only
// consumes through its interface; this package is the reference instance
// axolctl ships with so the CLI has something to run against out of the
// box. A real deployment would replace it with its own package of the same
// shape.
package examplefeeds

import (
	"log/slog"
	"path/filepath"

	"github.com/karlicoss/axol/internal/config"
	"github.com/karlicoss/axol/internal/feed"
	"github.com/karlicoss/axol/internal/provider"
	"github.com/karlicoss/axol/internal/providers/github"
	"github.com/karlicoss/axol/internal/providers/hackernews"
	"github.com/karlicoss/axol/internal/providers/lobsters"
	"github.com/karlicoss/axol/internal/providers/pinboard"
	"github.com/karlicoss/axol/internal/providers/reddit"
	"github.com/karlicoss/axol/internal/query"
	"github.com/karlicoss/axol/internal/userconfig"
)

// New builds the example feed list: one feed per provider. The Hacker News,
// Reddit and Lobsters feeds watch the topic "axol"; the GitHub and Pinboard
// feeds watch the two-word phrase "axol watch engine". GitHub's kind
// fan-out and Lobsters' stories/comments fan-out happen for any query;
// Pinboard's tag-variant fan-out happens only for raw or whitespace-
// containing queries, which the phrase exercises.
func New(cfg *config.Config, limiters *provider.Limiters, log *slog.Logger) (userconfig.Provider, error) {
	dir := cfg.StorageDir

	hnName, err := feed.Name(hackernews.Prefix, "axol")
	if err != nil {
		return nil, err
	}
	rdName, err := feed.Name(reddit.Prefix, "axol")
	if err != nil {
		return nil, err
	}
	ghName, err := feed.Name(github.Prefix, "axol")
	if err != nil {
		return nil, err
	}
	lbName, err := feed.Name(lobsters.Prefix, "axol")
	if err != nil {
		return nil, err
	}
	pbName, err := feed.Name(pinboard.Prefix, "axol")
	if err != nil {
		return nil, err
	}

	hn := feed.New(
		hnName, dbPath(dir, hnName),
		[]query.Compilable[hackernews.SearchQuery]{hackernews.String("axol")},
		hackernews.New(limiters.For(hackernews.Prefix, cfg.RateLimits.HackerNewsPerSecond, 1)),
		nil, log,
	)

	rd := feed.New(
		rdName, dbPath(dir, rdName),
		[]query.Compilable[reddit.SearchQuery]{reddit.String("axol")},
		reddit.New(reddit.Credentials{
			ClientID:     cfg.Credentials.RedditClientID,
			ClientSecret: cfg.Credentials.RedditClientSecret,
			Username:     cfg.Credentials.RedditUsername,
			Password:     cfg.Credentials.RedditPassword,
			UserAgent:    cfg.Credentials.RedditUserAgent,
		}, limiters.For(reddit.Prefix, cfg.RateLimits.RedditPerSecond, 1)),
		nil, log,
	)

	gh := feed.New(
		ghName, dbPath(dir, ghName),
		[]query.Compilable[github.SearchQuery]{github.String("axol watch engine")},
		github.New(cfg.Credentials.GitHubToken, limiters.For(github.Prefix, cfg.RateLimits.GitHubPerSecond, 1)),
		nil, log,
	)

	lb := feed.New(
		lbName, dbPath(dir, lbName),
		[]query.Compilable[lobsters.SearchQuery]{lobsters.String("axol")},
		lobsters.New(limiters.For(lobsters.Prefix, cfg.RateLimits.LobstersPerSecond, 1)),
		nil, log,
	)

	pb := feed.New(
		pbName, dbPath(dir, pbName),
		[]query.Compilable[pinboard.SearchQuery]{pinboard.String("axol watch engine")},
		pinboard.New(limiters.For(pinboard.Prefix, cfg.RateLimits.PinboardPerSecond, 1)),
		nil, log,
	)

	return userconfig.Static{
		Dir: dir,
		FeedList: []feed.Any{
			feed.Erase(hn),
			feed.Erase(rd),
			feed.Erase(gh),
			feed.Erase(lb),
			feed.Erase(pb),
		},
	}, nil
}

func dbPath(dir, feedName string) string {
	return filepath.Join(dir, feedName+".sqlite")
}
