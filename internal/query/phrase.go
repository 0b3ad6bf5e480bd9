package query

import (
	"fmt"
	"strings"
)

// QuoteForSearch implements the quoting rule shared by Hacker News, Reddit
// and GitHub: KindString/KindExact wrap the text in double quotes, KindRaw
// passes it through verbatim. Every variant forbids a stray double quote
// already embedded in the text (it would break the provider's own query
// syntax); when forbidSingleQuoteRaw is set, KindRaw additionally forbids a
// bare single quote, since that is what trips up HN's Algolia backend when
// left unescaped.
func QuoteForSearch(text string, kind Kind, forbidSingleQuoteRaw bool) (string, error) {
	if strings.Contains(text, `"`) {
		return "", fmt.Errorf("query %q: embedded double quote is not allowed", text)
	}
	if kind == KindRaw {
		if forbidSingleQuoteRaw && strings.Contains(text, "'") {
			return "", fmt.Errorf("query %q: embedded single quote is not allowed", text)
		}
		return text, nil
	}
	return fmt.Sprintf("%q", text), nil
}

// Quote is the pure half of QuoteForSearch, used from Compile implementations
// where there is no error channel to report a malformed input on: quoting
// itself can never fail, only the per-provider character bans can, and those
// are enforced by the adapter's Search method (spec: "reject a SearchQuery
// that would be obviously malformed... by raising a validation error before
// any network call"), not at compile time. Compile is pure and finite; it
// never rejects a query.
func Quote(text string, kind Kind) string {
	if kind == KindRaw {
		return text
	}
	return fmt.Sprintf("%q", text)
}
