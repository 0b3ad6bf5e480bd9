package hackernews

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/karlicoss/axol/internal/core"
)

func TestQueryCompile(t *testing.T) {
	cases := []struct {
		q    Query
		want string
	}{
		{String("rust async"), `"rust async"`},
		{Exact("rust async"), `"rust async"`},
		{Raw("rust AND async"), "rust AND async"},
	}
	for _, c := range cases {
		got := c.q.Compile()
		if len(got) != 1 || got[0].Text != c.want {
			t.Fatalf("Compile(%+v) = %v, want [%q]", c.q, got, c.want)
		}
	}
}

func TestSearchRejectsSingleQuote(t *testing.T) {
	a := New(nil)
	for pair, err := range a.Search(nil, SearchQuery{Text: "it's"}, 0) {
		if err == nil {
			t.Fatalf("expected validation error, got pair %+v", pair)
		}
		return
	}
	t.Fatal("expected at least one yield carrying the validation error")
}

func TestParseStory(t *testing.T) {
	data := core.RawRecord(`{
		"objectID": "29223181",
		"story_id": 29223181,
		"created_at": "2021-11-10T12:00:00.000Z",
		"author": "dang",
		"title": "A golden fixture story",
		"url": "https://example.com/story",
		"points": 142,
		"num_comments": 37
	}`)
	a := New(nil)
	e, err := a.Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := Entity{Story: &Story{
		ID:          "29223181",
		CreatedAt:   time.Date(2021, 11, 10, 12, 0, 0, 0, time.UTC),
		Author:      "dang",
		Title:       "A golden fixture story",
		URL:         "https://example.com/story",
		Points:      142,
		NumComments: 37,
	}}
	if diff := cmp.Diff(want, e); diff != "" {
		t.Fatalf("Parse mismatch (-want +got):\n%s", diff)
	}
}

func TestParseComment(t *testing.T) {
	data := core.RawRecord(`{
		"objectID": "29223500",
		"story_id": 29223181,
		"created_at": "2021-11-10T13:00:00.000Z",
		"author": "pg",
		"comment_text": "Interesting point."
	}`)
	a := New(nil)
	e, err := a.Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := Entity{Comment: &Comment{
		ID:        "29223500",
		CreatedAt: time.Date(2021, 11, 10, 13, 0, 0, 0, time.UTC),
		Author:    "pg",
		Text:      "Interesting point.",
	}}
	if diff := cmp.Diff(want, e); diff != "" {
		t.Fatalf("Parse mismatch (-want +got):\n%s", diff)
	}
}
