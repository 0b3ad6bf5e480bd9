package lobsters

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/karlicoss/axol/internal/core"
)

func TestQueryCompileFansOutBothKinds(t *testing.T) {
	got := String("unikernels").Compile()
	if len(got) != 2 || got[0].Kind != KindStories || got[1].Kind != KindComments {
		t.Fatalf("Compile = %+v", got)
	}
}

func TestQueryCompilePinned(t *testing.T) {
	got := String("unikernels").Pinned(KindComments).Compile()
	if len(got) != 1 || got[0].Kind != KindComments {
		t.Fatalf("Compile(pinned) = %+v", got)
	}
}

func TestParseStory(t *testing.T) {
	data := core.RawRecord(`{
		"kind": "stories",
		"id": "mutdyp",
		"title": "A golden fixture story",
		"url": "https://example.com/story",
		"author": "jcs",
		"permalink": "https://lobste.rs/s/mutdyp",
		"dt": "2021-11-10T12:00:00Z"
	}`)
	a := New(nil)
	e, err := a.Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := Entity{Story: &Story{
		Dt:        time.Date(2021, 11, 10, 12, 0, 0, 0, time.UTC),
		ID:        "mutdyp",
		Title:     "A golden fixture story",
		URL:       "https://example.com/story",
		Author:    "jcs",
		Permalink: "https://lobste.rs/s/mutdyp",
	}}
	if diff := cmp.Diff(want, e); diff != "" {
		t.Fatalf("Parse mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateRejectsSlash(t *testing.T) {
	if err := validate(SearchQuery{Text: "a/b"}); err == nil {
		t.Fatal("expected validation error for embedded slash")
	}
}
