package hackernews

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/karlicoss/axol/internal/core"
	"golang.org/x/time/rate"
)

const searchURL = "https://hn.algolia.com/api/v1/search_by_date"

// Story is a Hacker News submission.
type Story struct {
	ID          string
	CreatedAt   time.Time
	Author      string
	Title       string
	URL         string
	Text        string
	Points      int
	NumComments int
}

// Comment is a Hacker News comment.
type Comment struct {
	ID        string
	CreatedAt time.Time
	Author    string
	Text      string
}

// Entity is the Hacker News parsed sum type: exactly one of Story/Comment is
// set, discriminated by presence of comment_text (→ Comment) versus
// objectID == str(story_id) (→ Story).
type Entity struct {
	Story   *Story
	Comment *Comment
}

// Adapter implements provider.Adapter[SearchQuery, Entity].
type Adapter struct {
	client  *http.Client
	limiter *rate.Limiter
}

// New constructs the Hacker News adapter.
func New(limiter *rate.Limiter) *Adapter {
	return &Adapter{client: &http.Client{Timeout: 30 * time.Second}, limiter: limiter}
}

func (a *Adapter) Prefix() string { return Prefix }

type algoliaHit struct {
	ObjectID    string `json:"objectID"`
	StoryID     *int   `json:"story_id"`
	CreatedAt   string `json:"created_at"`
	Author      string `json:"author"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	StoryText   string `json:"story_text"`
	CommentText string `json:"comment_text"`
	Points      int    `json:"points"`
	NumComments int    `json:"num_comments"`
}

type algoliaResponse struct {
	Hits     []algoliaHit `json:"hits"`
	NbPages  int          `json:"nbPages"`
	Page     int          `json:"page"`
	HitsPerP int          `json:"hitsPerPage"`
}

// validate rejects a SearchQuery containing a bare single quote, which
// breaks Algolia's own query parsing.
func validate(sq SearchQuery) error {
	if strings.Contains(sq.Text, "'") {
		return fmt.Errorf("hackernews: query %q: embedded single quote is not allowed", sq.Text)
	}
	return nil
}

// Search issues search_by_date requests page by page, newest first, until
// limit (if > 0) results have been yielded or pages are exhausted.
// Deduplicates within the call by objectID.
func (a *Adapter) Search(ctx context.Context, sq SearchQuery, limit int) iter.Seq2[core.Pair, error] {
	return func(yield func(core.Pair, error) bool) {
		if err := validate(sq); err != nil {
			yield(core.Pair{}, err)
			return
		}

		seen := make(map[string]struct{})
		yielded := 0
		for page := 0; ; page++ {
			if a.limiter != nil {
				if err := a.limiter.Wait(ctx); err != nil {
					yield(core.Pair{}, err)
					return
				}
			}

			resp, err := a.fetchPage(ctx, sq.Text, page)
			if err != nil {
				yield(core.Pair{}, err)
				return
			}
			if len(resp.Hits) == 0 {
				return
			}

			for _, hit := range resp.Hits {
				if limit > 0 && yielded >= limit {
					return
				}
				if _, dup := seen[hit.ObjectID]; dup {
					continue
				}
				seen[hit.ObjectID] = struct{}{}

				uid, err := core.NewUid(hit.ObjectID)
				if err != nil {
					yield(core.Pair{}, fmt.Errorf("hackernews: %w", err))
					return
				}
				raw, err := json.Marshal(hit)
				if err != nil {
					yield(core.Pair{}, fmt.Errorf("hackernews: marshal hit %s: %w", hit.ObjectID, err))
					return
				}
				if !yield(core.Pair{Uid: uid, Data: core.RawRecord(raw)}, nil) {
					return
				}
				yielded++
			}

			if page+1 >= resp.NbPages {
				return
			}
		}
	}
}

func (a *Adapter) fetchPage(ctx context.Context, text string, page int) (*algoliaResponse, error) {
	q := url.Values{}
	q.Set("query", text)
	q.Set("page", strconv.Itoa(page))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("hackernews: build request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("hackernews: request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("hackernews: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("hackernews: status %d: %s", resp.StatusCode, body)
	}

	var out algoliaResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("hackernews: decode response: %w", err)
	}
	return &out, nil
}

// Parse maps raw Algolia hit JSON to Entity, discriminating by the presence
// of comment_text (Comment) vs. objectID == str(story_id) (Story), per spec
// §3.
func (a *Adapter) Parse(data core.RawRecord) (Entity, error) {
	var hit algoliaHit
	if err := json.Unmarshal(data, &hit); err != nil {
		return Entity{}, fmt.Errorf("hackernews: parse: %w", err)
	}

	createdAt, err := time.Parse(time.RFC3339, hit.CreatedAt)
	if err != nil {
		return Entity{}, fmt.Errorf("hackernews: parse created_at %q: %w", hit.CreatedAt, err)
	}

	if hit.CommentText != "" {
		return Entity{Comment: &Comment{
			ID:        hit.ObjectID,
			CreatedAt: createdAt,
			Author:    hit.Author,
			Text:      hit.CommentText,
		}}, nil
	}

	isStory := hit.StoryID == nil || strconv.Itoa(*hit.StoryID) == hit.ObjectID
	if !isStory {
		return Entity{}, fmt.Errorf("hackernews: hit %s is neither a story nor a comment", hit.ObjectID)
	}
	return Entity{Story: &Story{
		ID:          hit.ObjectID,
		CreatedAt:   createdAt,
		Author:      hit.Author,
		Title:       hit.Title,
		URL:         hit.URL,
		Text:        hit.StoryText,
		Points:      hit.Points,
		NumComments: hit.NumComments,
	}}, nil
}
