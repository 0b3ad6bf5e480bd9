package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/karlicoss/axol/internal/core"
	"golang.org/x/time/rate"
)

const apiBase = "https://api.github.com/search/"

// perPage and maxPages bound the result window GitHub's search API exposes
// per (sort, order) pair (GitHub itself caps search results at 1000 items).
const perPage = 100
const maxPages = 10

// earlyExitWindow is the "≥50 items with zero new adds" threshold from spec
// §4.3 used to cut a (sort, order) pass short once it is clearly retreading
// ground an earlier pass already covered.
const earlyExitWindow = 50

type sortOrder struct {
	sort  string // "" means GitHub's default best-match ranking
	order string // "asc" or "desc"
}

// allowedSorts lists the sort fields GitHub's search API accepts for each
// kind, beyond the implicit best-match pass every kind starts with.
var allowedSorts = map[Kind][]string{
	KindRepositories: {"stars", "forks", "help-wanted-issues", "updated"},
	KindIssues:       {"comments", "reactions", "created", "updated"},
	KindCommits:      {"author-date", "committer-date"},
	KindCode:         {"indexed"},
}

func passesFor(k Kind) []sortOrder {
	passes := []sortOrder{{sort: "", order: "desc"}}
	for _, s := range allowedSorts[k] {
		passes = append(passes, sortOrder{sort: s, order: "asc"}, sortOrder{sort: s, order: "desc"})
	}
	return passes
}

// Code, Commit, Issue, Repository are GitHub's four entity shapes, each
// carrying the common fields every axol entity tracks: created_at?,
// html_url, user?, repo.
type Code struct {
	Path      string
	Sha       string
	HTMLURL   string
	Repo      string
	User      string
}

type Commit struct {
	Sha       string
	Message   string
	CreatedAt time.Time
	HTMLURL   string
	Repo      string
	User      string
}

type Issue struct {
	Number    int
	Title     string
	CreatedAt time.Time
	HTMLURL   string
	Repo      string
	User      string
	IsPR      bool
}

type Repository struct {
	Owner     string
	Name      string
	CreatedAt time.Time
	HTMLURL   string
	Stars     int
}

// Entity is GitHub's parsed sum type; exactly one field is set, matching the
// Kind the SearchQuery that produced it carried.
type Entity struct {
	Code       *Code
	Commit     *Commit
	Issue      *Issue
	Repository *Repository
}

// Adapter implements provider.Adapter[SearchQuery, Entity].
type Adapter struct {
	client  *http.Client
	limiter *rate.Limiter
	token   string
}

// New constructs the adapter; token is the GitHub personal access token read
// from the user configuration's credential source, treated as opaque by
// the core.
func New(token string, limiter *rate.Limiter) *Adapter {
	return &Adapter{client: &http.Client{Timeout: 30 * time.Second}, limiter: limiter, token: token}
}

func (a *Adapter) Prefix() string { return Prefix }

type searchEnvelope struct {
	TotalCount int               `json:"total_count"`
	Items      []json.RawMessage `json:"items"`
}

// Search iterates passesFor(sq.Kind) in order, merging hits by uid across
// passes.
func (a *Adapter) Search(ctx context.Context, sq SearchQuery, limit int) iter.Seq2[core.Pair, error] {
	return func(yield func(core.Pair, error) bool) {
		seen := make(map[string]struct{})
		yielded := 0

		for _, pass := range passesFor(sq.Kind) {
			sinceLastAdd := 0
			for page := 1; page <= maxPages; page++ {
				if limit > 0 && yielded >= limit {
					return
				}
				if a.limiter != nil {
					if err := a.limiter.Wait(ctx); err != nil {
						yield(core.Pair{}, err)
						return
					}
				}

				env, err := a.fetchPage(ctx, sq, pass, page)
				if err != nil {
					if !yield(core.Pair{}, fmt.Errorf("github: kind %s sort %s order %s: %w", sq.Kind, pass.sort, pass.order, err)) {
						return
					}
					break
				}
				if len(env.Items) == 0 {
					break
				}

				for _, raw := range env.Items {
					if limit > 0 && yielded >= limit {
						return
					}
					uidStr, skip, err := uidFor(sq.Kind, raw)
					if err != nil {
						yield(core.Pair{}, fmt.Errorf("github: %w", err))
						return
					}
					if skip {
						continue // dupes within code/commits across forks, dropped silently per spec
					}
					if _, dup := seen[uidStr]; dup {
						sinceLastAdd++
						continue
					}
					seen[uidStr] = struct{}{}
					sinceLastAdd = 0

					uid, err := core.NewUid(uidStr)
					if err != nil {
						yield(core.Pair{}, fmt.Errorf("github: %w", err))
						return
					}
					if !yield(core.Pair{Uid: uid, Data: core.RawRecord(raw)}, nil) {
						return
					}
					yielded++
				}

				if sinceLastAdd >= earlyExitWindow {
					break
				}
				if len(env.Items) < perPage {
					break
				}
			}
		}
	}
}

func (a *Adapter) fetchPage(ctx context.Context, sq SearchQuery, pass sortOrder, page int) (*searchEnvelope, error) {
	v := url.Values{}
	v.Set("q", sq.Text)
	v.Set("per_page", strconv.Itoa(perPage))
	v.Set("page", strconv.Itoa(page))
	if pass.sort != "" {
		v.Set("sort", pass.sort)
		v.Set("order", pass.order)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiBase+string(sq.Kind)+"?"+v.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
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

	var out searchEnvelope
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &out, nil
}

// uidFor forms the provider-assigned Uid for one raw search hit, per spec
// §4.3's per-kind rules. skip marks a hit to drop silently; no kind sets it
// today: an identical blob matched across repos shares its code_<sha> uid,
// and a commit visible through a fork shares its commit_<sha> uid, so
// Search's seen-set drops those duplicates.
func uidFor(kind Kind, raw json.RawMessage) (uidStr string, skip bool, err error) {
	switch kind {
	case KindCode:
		var item struct {
			Sha  string `json:"sha"`
			Path string `json:"path"`
		}
		if err := json.Unmarshal(raw, &item); err != nil {
			return "", false, fmt.Errorf("code: %w", err)
		}
		return "code_" + item.Sha, false, nil
	case KindRepositories:
		var item struct {
			FullName string `json:"full_name"`
		}
		if err := json.Unmarshal(raw, &item); err != nil {
			return "", false, fmt.Errorf("repository: %w", err)
		}
		owner, name, ok := splitFullName(item.FullName)
		if !ok {
			return "", false, fmt.Errorf("repository: malformed full_name %q", item.FullName)
		}
		return "repo_" + owner + "_" + name, false, nil
	case KindIssues:
		var item struct {
			Number int `json:"number"`
		}
		if err := json.Unmarshal(raw, &item); err != nil {
			return "", false, fmt.Errorf("issue: %w", err)
		}
		return "issue_" + strconv.Itoa(item.Number), false, nil
	case KindCommits:
		var item struct {
			Sha string `json:"sha"`
		}
		if err := json.Unmarshal(raw, &item); err != nil {
			return "", false, fmt.Errorf("commit: %w", err)
		}
		return "commit_" + item.Sha, false, nil
	default:
		return "", false, fmt.Errorf("unknown kind %q", kind)
	}
}

func splitFullName(fullName string) (owner, name string, ok bool) {
	for i := 0; i < len(fullName); i++ {
		if fullName[i] == '/' {
			return fullName[:i], fullName[i+1:], true
		}
	}
	return "", "", false
}

// Parse maps one raw search hit to Entity. Parse gets no uid or Kind, so the
// kind is inferred from which JSON fields the hit carries: full_name+owner
// is a repository, a commit object is a commit, number+title is an issue,
// path+sha is code.
func (a *Adapter) Parse(data core.RawRecord) (Entity, error) {
	var probe struct {
		Sha       string `json:"sha"`
		Number    int    `json:"number"`
		FullName  string `json:"full_name"`
		Path      string `json:"path"`
		Title     string `json:"title"`
		Commit    *struct {
			Message string `json:"message"`
			Author  struct {
				Date time.Time `json:"date"`
			} `json:"author"`
		} `json:"commit"`
		HTMLURL     string `json:"html_url"`
		CreatedAt   *time.Time `json:"created_at"`
		PullRequest json.RawMessage `json:"pull_request"`
		User        *struct {
			Login string `json:"login"`
		} `json:"user"`
		Owner *struct {
			Login string `json:"login"`
		} `json:"owner"`
		Repository *struct {
			FullName string `json:"full_name"`
		} `json:"repository"`
		StargazersCount int `json:"stargazers_count"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return Entity{}, fmt.Errorf("github: parse: %w", err)
	}

	switch {
	case probe.FullName != "" && probe.Owner != nil:
		return Entity{Repository: &Repository{
			Owner:     probe.Owner.Login,
			Name:      nameFromFullName(probe.FullName),
			CreatedAt: timeOrZero(probe.CreatedAt),
			HTMLURL:   probe.HTMLURL,
			Stars:     probe.StargazersCount,
		}}, nil
	case probe.Commit != nil:
		repo := ""
		if probe.Repository != nil {
			repo = probe.Repository.FullName
		}
		return Entity{Commit: &Commit{
			Sha:       probe.Sha,
			Message:   probe.Commit.Message,
			CreatedAt: probe.Commit.Author.Date,
			HTMLURL:   probe.HTMLURL,
			Repo:      repo,
			User:      userLogin(probe.User),
		}}, nil
	case probe.Number != 0 && probe.Title != "":
		repo := ""
		if probe.Repository != nil {
			repo = probe.Repository.FullName
		}
		return Entity{Issue: &Issue{
			Number:    probe.Number,
			Title:     probe.Title,
			CreatedAt: timeOrZero(probe.CreatedAt),
			HTMLURL:   probe.HTMLURL,
			Repo:      repo,
			User:      userLogin(probe.User),
			IsPR:      len(probe.PullRequest) > 0,
		}}, nil
	case probe.Path != "" && probe.Sha != "":
		repo := ""
		if probe.Repository != nil {
			repo = probe.Repository.FullName
		}
		return Entity{Code: &Code{
			Path:    probe.Path,
			Sha:     probe.Sha,
			HTMLURL: probe.HTMLURL,
			Repo:    repo,
			User:    userLogin(probe.User),
		}}, nil
	default:
		return Entity{}, fmt.Errorf("github: cannot discriminate entity kind")
	}
}

func nameFromFullName(fullName string) string {
	_, name, _ := splitFullName(fullName)
	return name
}

func userLogin(u *struct {
	Login string `json:"login"`
}) string {
	if u == nil {
		return ""
	}
	return u.Login
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
