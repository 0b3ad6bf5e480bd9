package lobsters

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

const searchURL = "https://lobste.rs/search"

// sanityThreshold is Lobsters' named per-provider sanity-check ratio (spec
// §4.3/SPEC_FULL §C.3): harvested count must be at least this fraction of
// the reported total when the total exceeds 10 and no limit was set.
const sanityThreshold = 0.7

var sortOrders = []string{"newest", "relevance", "score"}

const pageDelay = 2 * time.Second
const throttleDelay = 5 * time.Second
const maxThrottleRetries = 3
const maxPages = 20

// Story and Comment share axol's common entity fields; Lobsters carries no
// fields beyond these.
type Story struct {
	Dt        time.Time
	ID        string
	Title     string
	URL       string
	Author    string
	Permalink string
}

type Comment struct {
	Dt        time.Time
	ID        string
	Title     string
	URL       string
	Author    string
	Permalink string
}

// Entity is the Lobsters parsed sum type.
type Entity struct {
	Story   *Story
	Comment *Comment
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

// validate rejects a SearchQuery containing '/', which breaks Lobsters'
// own URL-path-based search routing.
func validate(sq SearchQuery) error {
	if strings.Contains(sq.Text, "/") {
		return fmt.Errorf("lobsters: query %q: embedded slash is not allowed", sq.Text)
	}
	return nil
}

type page struct {
	rows  []rowHTML
	total int
}

type rowHTML struct {
	id        string
	title     string
	url       string
	author    string
	permalink string
	dt        time.Time
	removed   bool
}

var totalPattern = regexp.MustCompile(`([\d,]+)\s+(?:stories|comments|results)`)

// Search paginates one kind's listing across sort orders {newest, relevance,
// score}, merging by uid, sleeping pageDelay between pages, retrying a
// throttle notice after throttleDelay, and skipping submitter-removed rows.
func (a *Adapter) Search(ctx context.Context, sq SearchQuery, limit int) iter.Seq2[core.Pair, error] {
	return func(yield func(core.Pair, error) bool) {
		if err := validate(sq); err != nil {
			yield(core.Pair{}, err)
			return
		}

		seen := make(map[string]struct{})
		yielded := 0
		harvested := 0
		reportedTotal := 0
		priorExhaustedTotal := -1

		for _, sort := range sortOrders {
			firstPageTotal := -1
			for pageNum := 1; pageNum <= maxPages; pageNum++ {
				if limit > 0 && yielded >= limit {
					goto done
				}
				if a.limiter != nil {
					if err := a.limiter.Wait(ctx); err != nil {
						yield(core.Pair{}, err)
						return
					}
				}
				if pageNum > 1 {
					if err := sleepCtx(ctx, pageDelay); err != nil {
						yield(core.Pair{}, err)
						return
					}
				}

				p, err := a.fetchPage(ctx, sq, sort, pageNum)
				if err != nil {
					if !yield(core.Pair{}, fmt.Errorf("lobsters: kind %s sort %s page %d: %w", sq.Kind, sort, pageNum, err)) {
						return
					}
					break
				}
				if pageNum == 1 {
					firstPageTotal = p.total
					reportedTotal = p.total
					if priorExhaustedTotal == p.total {
						break // spec: early-exit if total matches a prior already-exhausted sort's total
					}
				}
				if len(p.rows) == 0 {
					break
				}

				for _, row := range p.rows {
					if row.removed {
						continue
					}
					if _, dup := seen[row.id]; dup {
						continue
					}
					seen[row.id] = struct{}{}

					if limit > 0 && yielded >= limit {
						goto done
					}

					uid, err := core.NewUid(row.id)
					if err != nil {
						yield(core.Pair{}, fmt.Errorf("lobsters: %w", err))
						return
					}
					data := encodeRow(sq.Kind, row)
					if !yield(core.Pair{Uid: uid, Data: data}, nil) {
						return
					}
					yielded++
					harvested++
				}
			}
			if firstPageTotal >= 0 {
				priorExhaustedTotal = firstPageTotal
			}
		}

	done:
		if limit == 0 && reportedTotal > 10 {
			if float64(harvested) < float64(reportedTotal)*sanityThreshold {
				yield(core.Pair{}, fmt.Errorf(
					"lobsters: sanity check failed: harvested %d of reported %d (< %.0f%%)",
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

func (a *Adapter) fetchPage(ctx context.Context, sq SearchQuery, sort string, pageNum int) (*page, error) {
	for attempt := 0; attempt <= maxThrottleRetries; attempt++ {
		v := url.Values{}
		v.Set("q", sq.Text)
		v.Set("what", string(sq.Kind))
		v.Set("order", sort)
		v.Set("page", strconv.Itoa(pageNum))
		reqURL := searchURL + "?" + v.Encode()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}

		resp, err := a.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request: %w", err)
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}

		if strings.Contains(string(body), "Throttled, sleep") {
			if err := sleepCtx(ctx, throttleDelay); err != nil {
				return nil, err
			}
			continue
		}

		return parsePage(body)
	}
	return nil, fmt.Errorf("throttled past %d retries", maxThrottleRetries)
}

func parsePage(body []byte) (*page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	total := 0
	if m := totalPattern.FindStringSubmatch(doc.Find(".results-count").Text()); len(m) == 2 {
		total, _ = strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
	}

	var rows []rowHTML
	doc.Find(".story").Each(func(_ int, s *goquery.Selection) {
		id, _ := s.Attr("data-shortid")
		title := strings.TrimSpace(s.Find(".u-url, .link a").First().Text())
		href, _ := s.Find(".u-url, .link a").First().Attr("href")
		author := strings.TrimSpace(s.Find(".u-author").First().Text())
		permalink, _ := s.Find(".permalink").First().Attr("href")
		dtAttr, _ := s.Find("time").First().Attr("datetime")
		dt, _ := time.Parse(time.RFC3339, dtAttr)
		removed := strings.Contains(s.Text(), "Story removed by submitter")

		if id == "" {
			return
		}
		rows = append(rows, rowHTML{
			id: id, title: title, url: href, author: author,
			permalink: permalink, dt: dt, removed: removed,
		})
	})

	return &page{rows: rows, total: total}, nil
}

type rowJSON struct {
	Kind      Kind      `json:"kind"`
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Author    string    `json:"author"`
	Permalink string    `json:"permalink"`
	Dt        time.Time `json:"dt"`
}

func encodeRow(kind Kind, row rowHTML) core.RawRecord {
	r := rowJSON{
		Kind: kind, ID: row.id, Title: row.title, URL: row.url,
		Author: row.author, Permalink: row.permalink, Dt: row.dt,
	}
	data, _ := json.Marshal(r)
	return core.RawRecord(data)
}

// Parse maps one raw row to Entity, discriminated by the Kind recorded at
// scrape time.
func (a *Adapter) Parse(data core.RawRecord) (Entity, error) {
	var r rowJSON
	if err := json.Unmarshal(data, &r); err != nil {
		return Entity{}, fmt.Errorf("lobsters: parse: %w", err)
	}
	switch r.Kind {
	case KindComments:
		return Entity{Comment: &Comment{
			Dt: r.Dt, ID: r.ID, Title: r.Title, URL: r.URL, Author: r.Author, Permalink: r.Permalink,
		}}, nil
	default:
		return Entity{Story: &Story{
			Dt: r.Dt, ID: r.ID, Title: r.Title, URL: r.URL, Author: r.Author, Permalink: r.Permalink,
		}}, nil
	}
}
