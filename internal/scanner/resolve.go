package scanner

import (
	"path/filepath"
	"strings"

	"media-indexer/internal/library"
)

// Metadata is what a resolver can contribute to a video record.
type Metadata struct {
	Title       string
	Description string
	ReleaseDate string
	Director    string
	Link        string
	Studio      string
	Actors      []library.ActorRef
	Tags        []string
}

// Resolver derives editable metadata for a freshly scanned file. The
// interface is the seam for future scraper-backed resolvers.
type Resolver interface {
	Resolve(path string) Metadata
}

// FilenameResolver is the default resolver: the title is the file name
// without its last extension, everything else stays empty.
type FilenameResolver struct{}

func (FilenameResolver) Resolve(path string) Metadata {
	base := filepath.Base(path)
	return Metadata{Title: strings.TrimSuffix(base, filepath.Ext(base))}
}
