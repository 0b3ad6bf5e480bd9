// Package hackernews implements the provider.Adapter (C3) for Hacker News,
// searched via Algolia's search_by_date HN index with a plain http.Client;
// axol needs only the Algolia search endpoint, not the Firebase item API or
// an HTML comment-page fallback.
package hackernews

import "github.com/karlicoss/axol/internal/query"

// Prefix is the stable short provider name used to form feed names.
const Prefix = "hackernews"

// Query is the user-level query object for Hacker News. It compiles to a
// single SearchQuery: HN has no kind fan-out (unlike GitHub or Pinboard).
type Query struct {
	Text string
	Kind query.Kind
}

// String builds a default (exact-phrase) query, the common case per spec
// §4.2: "treat as an exact phrase (default, because fuzzy-by-default yields
// too many false positives)".
func String(text string) Query { return Query{Text: text, Kind: query.KindString} }

// Exact is an explicit exact-phrase query, equivalent to String but kept
// distinct for clarity at call sites.
func Exact(text string) Query { return Query{Text: text, Kind: query.KindExact} }

// Raw passes text through untouched (no quoting).
func Raw(text string) Query { return Query{Text: text, Kind: query.KindRaw} }

// SearchQuery is the compiled, immutable atom passed to Search.
type SearchQuery struct {
	Text string
}

// Compile implements query.Compilable. HN has exactly one SearchQuery per
// Query; the per-provider character validation ('\'' is forbidden) happens
// in Search, not here, since Compile never rejects a query.
func (q Query) Compile() []SearchQuery {
	return []SearchQuery{{Text: query.Quote(q.Text, q.Kind)}}
}
