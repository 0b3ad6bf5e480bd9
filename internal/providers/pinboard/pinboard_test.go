package pinboard

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/karlicoss/axol/internal/core"
)

func TestQueryCompileSingleWordExactOnlyRegular(t *testing.T) {
	got := Exact("golang").Compile()
	if len(got) != 1 || got[0].Kind != KindRegular {
		t.Fatalf("Compile(single word) = %+v", got)
	}
}

func TestQueryCompileWhitespaceEmitsTagVariants(t *testing.T) {
	got := String("go generics").Compile()
	if len(got) != 4 {
		t.Fatalf("Compile(whitespace) = %+v, want 4 (1 regular + 3 tag variants)", got)
	}
	if got[0].Kind != KindRegular {
		t.Fatalf("first entry should be regular: %+v", got[0])
	}
	variants := map[string]bool{}
	for _, sq := range got[1:] {
		if sq.Kind != KindTag {
			t.Fatalf("expected tag kind, got %+v", sq)
		}
		variants[sq.Text] = true
	}
	for _, want := range []string{"gogenerics", "go_generics", "go-generics"} {
		if !variants[want] {
			t.Fatalf("missing tag variant %q in %v", want, variants)
		}
	}
}

// Raw always emits tag queries regardless of whitespace, but a single-word
// text's three variants (joined/underscore/hyphen) are identical and
// collapse to one distinct tag query under the query compiler's dedup rule.
func TestQueryCompileRawAlwaysEmitsTagVariants(t *testing.T) {
	got := Raw("golang").Compile()
	if len(got) != 2 {
		t.Fatalf("Compile(raw single word) = %+v, want 2 (1 regular + 1 deduped tag variant)", got)
	}
	if got[0].Kind != KindRegular || got[1].Kind != KindTag || got[1].Text != "golang" {
		t.Fatalf("Compile(raw single word) = %+v", got)
	}

	got2 := Raw("go generics").Compile()
	if len(got2) != 4 {
		t.Fatalf("Compile(raw multi word) = %+v, want 4", got2)
	}
}

func TestParseBookmark(t *testing.T) {
	data := core.RawRecord(`{
		"Slug": "08d0a5f0eacd",
		"CreatedAt": "2021-11-10T12:00:00Z",
		"Author": "karlicoss",
		"Title": "A golden fixture bookmark",
		"URL": "https://example.com/bookmark",
		"Tags": ["golang", "fixture"],
		"Description": "notes"
	}`)
	a := New(nil)
	e, err := a.Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := Entity{Bookmark: Bookmark{
		Slug:        "08d0a5f0eacd",
		CreatedAt:   time.Date(2021, 11, 10, 12, 0, 0, 0, time.UTC),
		Author:      "karlicoss",
		Title:       "A golden fixture bookmark",
		URL:         "https://example.com/bookmark",
		Tags:        []string{"golang", "fixture"},
		Description: "notes",
	}}
	if diff := cmp.Diff(want, e); diff != "" {
		t.Fatalf("Parse mismatch (-want +got):\n%s", diff)
	}
}
