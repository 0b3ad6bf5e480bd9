// Package crawlrun implements the "--parallel" crawl fan-out: feeds are
// grouped by provider PREFIX and groups run concurrently, while feeds
// sharing a PREFIX still run sequentially within their group to respect
// that provider's rate limit. Built on errgroup.Group rather than a manual
// sync.WaitGroup + error channel.
package crawlrun

import (
	"context"

	"github.com/karlicoss/axol/internal/feed"
	"github.com/karlicoss/axol/internal/store"
	"golang.org/x/sync/errgroup"
)

// FeedResult pairs one feed's Crawl output with its own errors, so the
// caller can report per-feed outcomes: per-feed errors collect into an
// error list, and the CLI exits non-zero if any feed errored.
type FeedResult struct {
	Feed    feed.Any
	Results []feed.AnyResult
	Errs    []error
}

// Run executes Crawl for every feed in feeds. If parallel is false, feeds
// run sequentially in declaration order (same as one PREFIX-group of one).
// If parallel is true, feeds are grouped by Prefix() and groups run
// concurrently via errgroup; within one group, feeds still run one at a
// time.
func Run(ctx context.Context, feeds []feed.Any, limit int, dry, parallel bool) ([]FeedResult, error) {
	if !parallel {
		var out []FeedResult
		for _, f := range feeds {
			out = append(out, runOne(ctx, f, limit, dry))
		}
		return out, nil
	}

	groups := make(map[string][]feed.Any)
	var order []string
	for _, f := range feeds {
		p := f.Prefix()
		if _, ok := groups[p]; !ok {
			order = append(order, p)
		}
		groups[p] = append(groups[p], f)
	}

	results := make([][]FeedResult, len(order))
	g, gctx := errgroup.WithContext(ctx)
	for i, prefix := range order {
		i, prefix := i, prefix
		g.Go(func() error {
			var group []FeedResult
			for _, f := range groups[prefix] {
				group = append(group, runOne(gctx, f, limit, dry))
			}
			results[i] = group
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []FeedResult
	for _, group := range results {
		out = append(out, group...)
	}
	return out, nil
}

func runOne(ctx context.Context, f feed.Any, limit int, dry bool) FeedResult {
	st, err := f.Open(store.Writable)
	if err != nil {
		return FeedResult{Feed: f, Errs: []error{err}}
	}
	defer st.Close()

	results, errs := f.Crawl(ctx, st, limit, dry)
	return FeedResult{Feed: f, Results: results, Errs: errs}
}
