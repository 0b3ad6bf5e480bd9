package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"time"

	"github.com/karlicoss/axol/internal/core"
	"golang.org/x/time/rate"
)

const searchURL = "https://www.reddit.com/search.json"

// sortOrders is the fixed fan-out Search issues the same query under to
// compensate for the listing API's per-request truncation.
var sortOrders = []string{"relevance", "hot", "top", "new", "comments"}

// Submission is a Reddit submission; this provider tracks no comment
// entity.
type Submission struct {
	ID        string
	CreatedAt time.Time
	Subreddit string
	Author    string
	Ups       int
	Downs     int
	Title     string
	URL       string
	Permalink string
	BodyMD    string
	BodyHTML  string
}

// Entity wraps the single Reddit entity shape; kept as a struct (not a bare
// Submission) so future provider growth doesn't change the provider.Adapter
// Entity type parameter.
type Entity struct {
	Submission Submission
}

// Credentials carries the OAuth application credentials an axol user config
// module supplies for Reddit; the core treats them as opaque.
type Credentials struct {
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	UserAgent    string
}

// Adapter implements provider.Adapter[SearchQuery, Entity].
type Adapter struct {
	client  *http.Client
	limiter *rate.Limiter
	creds   Credentials
}

func New(creds Credentials, limiter *rate.Limiter) *Adapter {
	return &Adapter{client: &http.Client{Timeout: 30 * time.Second}, limiter: limiter, creds: creds}
}

func (a *Adapter) Prefix() string { return Prefix }

type listingResponse struct {
	Data struct {
		Children []struct {
			Data submissionJSON `json:"data"`
		} `json:"children"`
		After string `json:"after"`
	} `json:"data"`
}

type submissionJSON struct {
	ID                  string  `json:"id"`
	Title               string  `json:"title"`
	Selftext            string  `json:"selftext"`
	SelftextHTML        string  `json:"selftext_html"`
	Author              string  `json:"author"`
	CreatedUTC          float64 `json:"created_utc"`
	Ups                 int     `json:"ups"`
	Downs               int     `json:"downs"`
	NumComments         int     `json:"num_comments"`
	Permalink           string  `json:"permalink"`
	URL                 string  `json:"url"`
	Subreddit           string  `json:"subreddit"`
}

// Search issues one request per sort order in §4.3's fixed order, asserts
// uid uniqueness within a single sort order, and unions results by uid
// across orders (first-seen order preserved).
func (a *Adapter) Search(ctx context.Context, sq SearchQuery, limit int) iter.Seq2[core.Pair, error] {
	return func(yield func(core.Pair, error) bool) {
		seen := make(map[string]struct{})
		yielded := 0

		for _, sort := range sortOrders {
			within := make(map[string]struct{})
			after := ""
			for {
				if limit > 0 && yielded >= limit {
					return
				}
				if a.limiter != nil {
					if err := a.limiter.Wait(ctx); err != nil {
						yield(core.Pair{}, err)
						return
					}
				}

				resp, err := a.fetchPage(ctx, sq.Text, sort, after)
				if err != nil {
					if !yield(core.Pair{}, fmt.Errorf("reddit: sort %s: %w", sort, err)) {
						return
					}
					break
				}
				if len(resp.Data.Children) == 0 {
					break
				}

				for _, child := range resp.Data.Children {
					s := child.Data
					if _, dup := within[s.ID]; dup {
						yield(core.Pair{}, fmt.Errorf("reddit: sort %s: duplicate uid %q within one sort order", sort, s.ID))
						return
					}
					within[s.ID] = struct{}{}

					if _, dup := seen[s.ID]; dup {
						continue
					}
					seen[s.ID] = struct{}{}

					if limit > 0 && yielded >= limit {
						return
					}

					uid, err := core.NewUid(s.ID)
					if err != nil {
						yield(core.Pair{}, fmt.Errorf("reddit: %w", err))
						return
					}
					raw, err := json.Marshal(s)
					if err != nil {
						yield(core.Pair{}, fmt.Errorf("reddit: marshal %s: %w", s.ID, err))
						return
					}
					if !yield(core.Pair{Uid: uid, Data: core.RawRecord(raw)}, nil) {
						return
					}
					yielded++
				}

				if resp.Data.After == "" {
					break
				}
				after = resp.Data.After
			}
		}
	}
}

func (a *Adapter) fetchPage(ctx context.Context, q, sort, after string) (*listingResponse, error) {
	v := url.Values{}
	v.Set("q", q)
	v.Set("sort", sort)
	v.Set("limit", "100")
	if after != "" {
		v.Set("after", after)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL+"?"+v.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if a.creds.UserAgent != "" {
		req.Header.Set("User-Agent", a.creds.UserAgent)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, body)
	}

	var out listingResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &out, nil
}

// Parse maps raw submission JSON to Entity.
func (a *Adapter) Parse(data core.RawRecord) (Entity, error) {
	var s submissionJSON
	if err := json.Unmarshal(data, &s); err != nil {
		return Entity{}, fmt.Errorf("reddit: parse: %w", err)
	}
	return Entity{Submission: Submission{
		ID:        s.ID,
		CreatedAt: time.Unix(int64(s.CreatedUTC), 0).UTC(),
		Subreddit: s.Subreddit,
		Author:    s.Author,
		Ups:       s.Ups,
		Downs:     s.Downs,
		Title:     s.Title,
		URL:       s.URL,
		Permalink: s.Permalink,
		BodyMD:    s.Selftext,
		BodyHTML:  s.SelftextHTML,
	}}, nil
}
