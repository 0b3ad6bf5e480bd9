// Package reddit implements the provider.Adapter (C3) for Reddit, queried
// via a submissions-only search endpoint and de-truncated by fanning the
// same query out across multiple sort orders, using a plain http.Client
// against Reddit's listing-response shape.
package reddit

import "github.com/karlicoss/axol/internal/query"

// Prefix is the stable short provider name used to form feed names.
const Prefix = "reddit"

// Query is the user-level query object for Reddit.
type Query struct {
	Text string
	Kind query.Kind
}

func String(text string) Query { return Query{Text: text, Kind: query.KindString} }
func Exact(text string) Query  { return Query{Text: text, Kind: query.KindExact} }
func Raw(text string) Query    { return Query{Text: text, Kind: query.KindRaw} }

// SearchQuery is the compiled atom passed to Search. Reddit has no kind
// fan-out at the query-compiler level (the sort-order fan-out happens
// inside Search itself, since it compensates for API truncation rather
// than expressing distinct query semantics).
type SearchQuery struct {
	Text string
}

func (q Query) Compile() []SearchQuery {
	return []SearchQuery{{Text: query.Quote(q.Text, q.Kind)}}
}
