// Package render defines the contract the external Markdown/Atom rendering
// stage satisfies: an out-of-scope external collaborator, specified only at
// its interface to the core. axol's core needs only to hand a renderer a
// feed's entities; it never inspects the rendered output.
package render

import "github.com/karlicoss/axol/internal/feed"

// Renderer turns one feed's accumulated results into a rendered document
// written to dir (e.g. "<dir>/<feed-name>.md"). Implementations decide
// their own per-entity template; axol's core is agnostic to the format.
type Renderer interface {
	Render(feedName string, results []feed.AnyResult, dir string) error
}

// Markdown is a minimal default Renderer: one Markdown file per feed, one
// bullet per entity, newest-crawled last (matching Read's canonical
// (crawl_timestamp, uid) order). It is deliberately plain — spec scopes the
// "real" renderer's template details out of the core's contract.
type Markdown struct{}

func (Markdown) Render(feedName string, results []feed.AnyResult, dir string) error {
	return writeMarkdown(feedName, results, dir)
}
