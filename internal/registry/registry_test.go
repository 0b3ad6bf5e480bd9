package registry

import "testing"

type named struct{ name string }

func names(ts []named) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.name
	}
	return out
}

func TestGetFeedsInclude(t *testing.T) {
	all := []named{{"hackernews_go"}, {"reddit_go"}, {"hackernews_rust"}}
	got, err := GetFeeds(all, func(n named) string { return n.name }, "hackernews", "")
	if err != nil {
		t.Fatalf("GetFeeds: %v", err)
	}
	if got := names(got); len(got) != 2 {
		t.Fatalf("got %v", got)
	}
}

func TestGetFeedsExclude(t *testing.T) {
	all := []named{{"hackernews_go"}, {"reddit_go"}}
	got, err := GetFeeds(all, func(n named) string { return n.name }, "", "hackernews")
	if err != nil {
		t.Fatalf("GetFeeds: %v", err)
	}
	if len(got) != 1 || got[0].name != "reddit_go" {
		t.Fatalf("got %+v", got)
	}
}

func TestGetFeedsMutuallyExclusive(t *testing.T) {
	all := []named{{"a"}}
	if _, err := GetFeeds(all, func(n named) string { return n.name }, "a", "b"); err == nil {
		t.Fatal("expected error for mutually exclusive include/exclude")
	}
}

func TestGetFeedsEmptyResultIsError(t *testing.T) {
	all := []named{{"reddit_go"}}
	if _, err := GetFeeds(all, func(n named) string { return n.name }, "hackernews", ""); err == nil {
		t.Fatal("expected error for empty match set")
	}
}
