// Package provider declares the adapter contract every content source
// (Hacker News, Reddit, GitHub, Lobsters, Pinboard) implements, plus the
// shared rate-limiter registry the orchestrator hands to adapters at
// construction time.
package provider

import (
	"context"
	"iter"

	"github.com/karlicoss/axol/internal/core"
)

// Adapter is satisfied by every provider package. S is that provider's
// compiled SearchQuery atom (see package query); E is its parsed Entity sum
// type.
type Adapter[S comparable, E any] interface {
	// Prefix is the stable short provider name used to form feed names,
	// e.g. "hackernews", "reddit".
	Prefix() string

	// Search produces a lazy, newest-first (or provider-preferred order)
	// sequence of (Uid, RawRecord) pairs for one compiled SearchQuery.
	// Implementations deduplicate internally per invocation and stop once
	// limit results (if limit > 0) have been yielded. A non-nil error from
	// the sequence ends iteration; the orchestrator records it as a
	// transport/provider error for that SearchQuery and continues with
	// the next one.
	Search(ctx context.Context, sq S, limit int) iter.Seq2[core.Pair, error]

	// Parse maps raw bytes to the provider's Entity sum type. It is pure
	// and must never panic on malformed input; a returned error becomes
	// the Error arm of the feed's Entity-or-Error stream.
	Parse(data core.RawRecord) (E, error)
}
