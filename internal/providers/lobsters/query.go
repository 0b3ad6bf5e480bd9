// Package lobsters implements the provider.Adapter (C3) for Lobsters, an
// HTML-scrape provider (the service exposes no public JSON search API),
// generalised to a listing-page story/comment scraper.
package lobsters

import "github.com/karlicoss/axol/internal/query"

// Prefix is the stable short provider name used to form feed names.
const Prefix = "lobsters"

// Kind selects Lobsters' two searchable item types.
type Kind string

const (
	KindStories  Kind = "stories"
	KindComments Kind = "comments"
)

var bothKinds = []Kind{KindStories, KindComments}

// Query is the user-level query object for Lobsters. Search there is
// exact-only at the service; Pinned, when non-empty, fixes a single kind
// instead of the default fan-out over both.
type Query struct {
	Text  string
	QKind query.Kind
	Pin   Kind // zero value means "fan out over both kinds"
}

func String(text string) Query { return Query{Text: text, QKind: query.KindString} }
func Exact(text string) Query  { return Query{Text: text, QKind: query.KindExact} }
func Raw(text string) Query    { return Query{Text: text, QKind: query.KindRaw} }

// Pinned fixes the search to a single kind.
func (q Query) Pinned(k Kind) Query {
	q.Pin = k
	return q
}

// SearchQuery is the compiled atom: a Lobsters kind paired with its quoted
// query text.
type SearchQuery struct {
	Text string
	Kind Kind
}

// Compile fans out over {stories, comments} unless a kind is pinned.
func (q Query) Compile() []SearchQuery {
	text := query.Quote(q.Text, q.QKind)
	kinds := bothKinds
	if q.Pin != "" {
		kinds = []Kind{q.Pin}
	}
	out := make([]SearchQuery, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, SearchQuery{Text: text, Kind: k})
	}
	return out
}
