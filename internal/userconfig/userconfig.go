// Package userconfig defines the user configuration contract: a module
// exposing a storage directory and an ordered list of declared feeds. Go
// has no runtime "import a user module by path" primitive, so the contract
// here is a Go interface implemented by a real compiled-in package rather
// than a dynamically loaded script.
package userconfig

import "github.com/karlicoss/axol/internal/feed"

// Provider is implemented by a user's configuration package. StorageDir is
// the directory each feed's "<feed_name>.sqlite" file lives under; Feeds
// returns every declared feed in the order crawl/feed/prune should process
// them.
type Provider interface {
	StorageDir() string
	Feeds() []feed.Any
}

// Static is a Provider built from a fixed slice, the shape a user
// configuration package returns; examplefeeds.New builds one at startup.
type Static struct {
	Dir      string
	FeedList []feed.Any
}

func (s Static) StorageDir() string { return s.Dir }
func (s Static) Feeds() []feed.Any  { return s.FeedList }
