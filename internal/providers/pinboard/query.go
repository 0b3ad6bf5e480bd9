// Package pinboard implements the provider.Adapter (C3) for Pinboard, an
// HTML+embedded-JSON scrape provider, built on goquery against Pinboard's
// search result pages and /t:<tag> listing.
package pinboard

import (
	"strings"

	"github.com/karlicoss/axol/internal/query"
)

// Prefix is the stable short provider name used to form feed names.
const Prefix = "pinboard"

// Kind is one of Pinboard's two searchable surfaces.
type Kind string

const (
	KindRegular Kind = "regular"
	KindTag     Kind = "tag"
)

// Query is the user-level query object for Pinboard.
type Query struct {
	Text string
	Kind query.Kind
}

func String(text string) Query { return Query{Text: text, Kind: query.KindString} }
func Exact(text string) Query  { return Query{Text: text, Kind: query.KindExact} }
func Raw(text string) Query    { return Query{Text: text, Kind: query.KindRaw} }

// SearchQuery is the compiled atom: a Pinboard kind paired with the literal
// text to search (for KindRegular, the quoted phrase; for KindTag, one tag
// variant).
type SearchQuery struct {
	Text string
	Kind Kind
}

// Compile always emits the regular query. If the query's Kind is raw, or
// the text contains whitespace, it additionally emits tag queries for each
// of {joined, joined_underscore, joined_hyphen} variants (distinct) — a
// single-word exact/string query emits only the regular form, per spec
// §4.2.
func (q Query) Compile() []SearchQuery {
	out := []SearchQuery{{Text: query.Quote(q.Text, q.Kind), Kind: KindRegular}}

	if q.Kind != query.KindRaw && !strings.ContainsAny(q.Text, " \t\n") {
		return out
	}

	seen := map[string]struct{}{}
	for _, variant := range tagVariants(q.Text) {
		if _, dup := seen[variant]; dup {
			continue
		}
		seen[variant] = struct{}{}
		out = append(out, SearchQuery{Text: variant, Kind: KindTag})
	}
	return out
}

func tagVariants(text string) []string {
	fields := strings.Fields(text)
	joined := strings.Join(fields, "")
	underscore := strings.Join(fields, "_")
	hyphen := strings.Join(fields, "-")
	return []string{joined, underscore, hyphen}
}
