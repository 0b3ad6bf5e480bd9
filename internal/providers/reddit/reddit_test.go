package reddit

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/karlicoss/axol/internal/core"
)

func TestQueryCompile(t *testing.T) {
	got := String("golang generics").Compile()
	if len(got) != 1 || got[0].Text != `"golang generics"` {
		t.Fatalf("Compile = %v", got)
	}
}

func TestParseSubmission(t *testing.T) {
	data := core.RawRecord(`{
		"id": "u1t237",
		"title": "Golden fixture submission",
		"selftext": "body",
		"author": "someuser",
		"created_utc": 1636545600,
		"ups": 120,
		"downs": 0,
		"permalink": "/r/golang/comments/u1t237/golden_fixture_submission/",
		"url": "https://reddit.com/r/golang/comments/u1t237",
		"subreddit": "golang"
	}`)
	a := New(Credentials{}, nil)
	e, err := a.Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := Entity{Submission: Submission{
		ID:        "u1t237",
		CreatedAt: time.Date(2021, 11, 10, 12, 0, 0, 0, time.UTC),
		Subreddit: "golang",
		Author:    "someuser",
		Ups:       120,
		Downs:     0,
		Title:     "Golden fixture submission",
		URL:       "https://reddit.com/r/golang/comments/u1t237",
		Permalink: "/r/golang/comments/u1t237/golden_fixture_submission/",
		BodyMD:    "body",
	}}
	if diff := cmp.Diff(want, e); diff != "" {
		t.Fatalf("Parse mismatch (-want +got):\n%s", diff)
	}
}
