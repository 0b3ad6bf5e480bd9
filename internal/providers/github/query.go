// Package github implements the provider.Adapter (C3) for GitHub's four
// search kinds (code, commits, issues, repositories) against GitHub's REST
// search API.
package github

import "github.com/karlicoss/axol/internal/query"

// Prefix is the stable short provider name used to form feed names.
const Prefix = "github"

// Kind is one of GitHub's four search surfaces.
type Kind string

const (
	KindRepositories Kind = "repositories"
	KindIssues       Kind = "issues"
	KindCommits      Kind = "commits"
	KindCode         Kind = "code"
)

var allKinds = []Kind{KindRepositories, KindIssues, KindCommits, KindCode}

// Query is the user-level query object for GitHub. Included/Excluded are
// mutually exclusive subsets of allKinds: Included selects only those
// kinds; Excluded selects all kinds except those named. Leaving both nil
// selects every kind.
type Query struct {
	Text     string
	QKind    query.Kind
	Included []Kind
	Excluded []Kind
}

func String(text string) Query { return Query{Text: text, QKind: query.KindString} }
func Exact(text string) Query  { return Query{Text: text, QKind: query.KindExact} }
func Raw(text string) Query    { return Query{Text: text, QKind: query.KindRaw} }

// WithIncluded restricts the fan-out to exactly these kinds.
func (q Query) WithIncluded(kinds ...Kind) Query {
	q.Included, q.Excluded = kinds, nil
	return q
}

// WithExcluded fans out over every kind except these.
func (q Query) WithExcluded(kinds ...Kind) Query {
	q.Excluded, q.Included = kinds, nil
	return q
}

func (q Query) selectedKinds() []Kind {
	if len(q.Included) > 0 {
		return q.Included
	}
	if len(q.Excluded) == 0 {
		return allKinds
	}
	excluded := make(map[Kind]struct{}, len(q.Excluded))
	for _, k := range q.Excluded {
		excluded[k] = struct{}{}
	}
	var out []Kind
	for _, k := range allKinds {
		if _, skip := excluded[k]; !skip {
			out = append(out, k)
		}
	}
	return out
}

// SearchQuery is the compiled atom: one GitHub kind paired with its quoted
// query text.
type SearchQuery struct {
	Text string
	Kind Kind
}

// Compile fans the query out once per selected kind, in allKinds order.
func (q Query) Compile() []SearchQuery {
	text := query.Quote(q.Text, q.QKind)
	kinds := q.selectedKinds()
	out := make([]SearchQuery, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, SearchQuery{Text: text, Kind: k})
	}
	return out
}
