package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/karlicoss/axol/internal/feed"
)

func writeMarkdown(feedName string, results []feed.AnyResult, dir string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", feedName)
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(&b, "- **%s**: error: %s\n", r.Uid, r.Err)
			continue
		}
		fmt.Fprintf(&b, "- **%s** (%s): %v\n", r.Uid, r.Ts, r.Entity)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("render: mkdir %s: %w", dir, err)
	}
	path := filepath.Join(dir, feedName+".md")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("render: write %s: %w", path, err)
	}
	return nil
}
