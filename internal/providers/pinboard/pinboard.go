package pinboard

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/karlicoss/axol/internal/core"
	"golang.org/x/time/rate"
)

const searchBase = "https://pinboard.in/search"
const tagBase = "https://pinboard.in/t:"

const pageStep = 20
const pageDelay = 5 * time.Second

// sanityThreshold is Pinboard's named per-provider sanity-check ratio:
// harvested count must be at least this fraction of the reported total
// when the total exceeds 10 and no limit was set.
const sanityThreshold = 0.8

var totalPattern = regexp.MustCompile(`(?i)Found(?: about)?\s+([\d,]+)\s+results`)
var totalAttrPattern = regexp.MustCompile(`bookmark_count">(\d*)</span>`)

// Bookmark is Pinboard's sole entity shape.
type Bookmark struct {
	Slug        string
	CreatedAt   time.Time
	Author      string
	Title       string
	URL         string
	Tags        []string
	Description string
}

// Entity wraps Bookmark so the provider.Adapter Entity type parameter stays
// stable if Pinboard ever grows a second shape.
type Entity struct {
	Bookmark Bookmark
}

// Adapter implements provider.Adapter[SearchQuery, Entity].
type Adapter struct {
	client  *http.Client
	limiter *rate.Limiter
}

func New(limiter *rate.Limiter) *Adapter {
	return &Adapter{client: &http.Client{Timeout: 30 * time.Second}, limiter: limiter}
}

func (a *Adapter) Prefix() string { return Prefix }

// Search paginates with step 20, sleeping pageDelay between pages, stopping
// as soon as a page returns zero items; tag queries hit the /t:<tag>
// listing instead of /search. The reported result count parsed from the
// first page backs the sanity check run once pagination completes.
func (a *Adapter) Search(ctx context.Context, sq SearchQuery, limit int) iter.Seq2[core.Pair, error] {
	return func(yield func(core.Pair, error) bool) {
		seen := make(map[string]struct{})
		yielded := 0
		harvested := 0
		reportedTotal := -1

		for offset := 0; ; offset += pageStep {
			if limit > 0 && yielded >= limit {
				goto done
			}
			if a.limiter != nil {
				if err := a.limiter.Wait(ctx); err != nil {
					yield(core.Pair{}, err)
					return
				}
			}
			if offset > 0 {
				if err := sleepCtx(ctx, pageDelay); err != nil {
					yield(core.Pair{}, err)
					return
				}
			}

			bookmarks, total, err := a.fetchPage(ctx, sq, offset)
			if err != nil {
				yield(core.Pair{}, fmt.Errorf("pinboard: kind %s: %w", sq.Kind, err))
				return
			}
			if offset == 0 {
				reportedTotal = total
			}
			if len(bookmarks) == 0 {
				goto done
			}

			for _, b := range bookmarks {
				if limit > 0 && yielded >= limit {
					goto done
				}
				if _, dup := seen[b.Slug]; dup {
					continue
				}
				seen[b.Slug] = struct{}{}

				uid, err := core.NewUid(b.Slug)
				if err != nil {
					yield(core.Pair{}, fmt.Errorf("pinboard: %w", err))
					return
				}
				raw, err := json.Marshal(b)
				if err != nil {
					yield(core.Pair{}, fmt.Errorf("pinboard: marshal %s: %w", b.Slug, err))
					return
				}
				if !yield(core.Pair{Uid: uid, Data: core.RawRecord(raw)}, nil) {
					return
				}
				yielded++
				harvested++
			}
		}

	done:
		if limit == 0 && reportedTotal > 10 {
			if float64(harvested) < float64(reportedTotal)*sanityThreshold {
				yield(core.Pair{}, fmt.Errorf(
					"pinboard: sanity check failed: harvested %d of reported %d (< %.0f%%)",
					harvested, reportedTotal, sanityThreshold*100))
			}
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (a *Adapter) fetchPage(ctx context.Context, sq SearchQuery, offset int) ([]Bookmark, int, error) {
	var reqURL string
	if sq.Kind == KindTag {
		reqURL = fmt.Sprintf("%s%s?page=%d", tagBase, url.PathEscape(sq.Text), offset/pageStep+1)
	} else {
		v := url.Values{}
		v.Set("query", sq.Text)
		reqURL = fmt.Sprintf("%s?%s&page=%d", searchBase, v.Encode(), offset/pageStep+1)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("status %d: %s", resp.StatusCode, body)
	}

	bookmarks, err := parseBookmarks(body)
	if err != nil {
		return nil, 0, err
	}
	return bookmarks, parseReportedTotal(body), nil
}

// parseReportedTotal extracts the "Found N results" / bookmark_count total
// Pinboard's search and tag pages report, used by the sanity check; 0 if
// neither form is present (e.g. a zero-result page).
func parseReportedTotal(body []byte) int {
	if m := totalPattern.FindSubmatch(body); len(m) == 2 {
		n, _ := strconv.Atoi(strings.ReplaceAll(string(m[1]), ",", ""))
		return n
	}
	if m := totalAttrPattern.FindSubmatch(body); len(m) == 2 && len(m[1]) > 0 {
		n, _ := strconv.Atoi(string(m[1]))
		return n
	}
	return 0
}

// parseBookmarks extracts bookmarks from either an embedded JSON payload
// (Pinboard's search pages carry one) or, failing that, the HTML bookmark
// list itself.
func parseBookmarks(body []byte) ([]Bookmark, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	if script := doc.Find("script#bookmarks-json").Text(); script != "" {
		var raw []bookmarkJSON
		if err := json.Unmarshal([]byte(script), &raw); err == nil {
			out := make([]Bookmark, 0, len(raw))
			for _, r := range raw {
				out = append(out, r.toBookmark())
			}
			return out, nil
		}
	}

	var out []Bookmark
	doc.Find(".bookmark").Each(func(_ int, s *goquery.Selection) {
		slug, _ := s.Attr("data-hash")
		if slug == "" {
			return
		}
		title := strings.TrimSpace(s.Find(".bookmark_title").Text())
		href, _ := s.Find(".bookmark_title").Attr("href")
		author := strings.TrimSpace(s.Find(".bookmark_author").Text())
		desc := strings.TrimSpace(s.Find(".bookmark_description").Text())
		dtAttr, _ := s.Find("time").Attr("datetime")
		dt, _ := time.Parse(time.RFC3339, dtAttr)

		var tags []string
		s.Find(".tag").Each(func(_ int, tagSel *goquery.Selection) {
			if t := strings.TrimSpace(tagSel.Text()); t != "" {
				tags = append(tags, t)
			}
		})

		out = append(out, Bookmark{
			Slug: slug, CreatedAt: dt, Author: author, Title: title,
			URL: href, Tags: tags, Description: desc,
		})
	})
	return out, nil
}

type bookmarkJSON struct {
	Hash        string    `json:"hash"`
	Time        time.Time `json:"time"`
	Author      string    `json:"author"`
	Description string    `json:"description"`
	Href        string    `json:"href"`
	Tags        string    `json:"tags"`
	Extended    string    `json:"extended"`
}

func (r bookmarkJSON) toBookmark() Bookmark {
	var tags []string
	if r.Tags != "" {
		tags = strings.Fields(r.Tags)
	}
	return Bookmark{
		Slug: r.Hash, CreatedAt: r.Time, Author: r.Author, Title: r.Description,
		URL: r.Href, Tags: tags, Description: r.Extended,
	}
}

// Parse maps one raw marshalled Bookmark back to Entity.
func (a *Adapter) Parse(data core.RawRecord) (Entity, error) {
	var b Bookmark
	if err := json.Unmarshal(data, &b); err != nil {
		return Entity{}, fmt.Errorf("pinboard: parse: %w", err)
	}
	return Entity{Bookmark: b}, nil
}
