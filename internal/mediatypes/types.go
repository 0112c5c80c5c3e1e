package mediatypes

import (
	"path/filepath"
	"regexp"
	"strings"
)

// SortField specifies which video column to sort listings by.
type SortField string

// SortOrder specifies the direction of sorting.
type SortOrder string

const (
	// SortByFileName sorts results by file name.
	SortByFileName SortField = "file_name"
	// SortByFileSize sorts results by file size.
	SortByFileSize SortField = "file_size"
	// SortByCreatedAt sorts results by record creation time.
	SortByCreatedAt SortField = "created_at"
	// SortByUpdatedAt sorts results by record update time.
	SortByUpdatedAt SortField = "updated_at"
	// SortByDuration sorts results by video duration.
	SortByDuration SortField = "duration_ms"
	// SortByFPS sorts results by frame rate.
	SortByFPS SortField = "fps"
	// SortByReleaseDate sorts results by release date.
	SortByReleaseDate SortField = "release_date"
	// SortByBirthtime sorts results by file creation time.
	SortByBirthtime SortField = "file_birthtime"

	// SortAsc sorts in ascending order.
	SortAsc SortOrder = "ASC"
	// SortDesc sorts in descending order.
	SortDesc SortOrder = "DESC"
)

// ValidSortField reports whether f is one of the sortable video columns.
// Sort fields reach the store as raw SQL identifiers, so they must be
// checked against this set rather than trusted.
func ValidSortField(f SortField) bool {
	switch f {
	case SortByFileName, SortByFileSize, SortByCreatedAt, SortByUpdatedAt,
		SortByDuration, SortByFPS, SortByReleaseDate, SortByBirthtime:
		return true
	}
	return false
}

// DefaultVideoExtensions is the stock scan allow-list used when no
// extensions are configured.
var DefaultVideoExtensions = []string{
	"m4v", "mp4", "mov", "avi", "mpg", "mpeg", "rmvb", "rm",
	"flv", "asf", "mkv", "webm", "f4v",
}

// ExtensionSet is a case-sensitive allow-list of file extensions
// (without the leading dot).
type ExtensionSet map[string]bool

// NewExtensionSet builds an ExtensionSet from extension names. Leading
// dots are stripped so both "mp4" and ".mp4" are accepted as input.
func NewExtensionSet(exts ...string) ExtensionSet {
	s := make(ExtensionSet, len(exts))
	for _, e := range exts {
		e = strings.TrimPrefix(e, ".")
		if e == "" {
			continue
		}
		s[e] = true
	}
	return s
}

// Match reports whether the file name carries an allowed extension.
// The comparison is case-sensitive: "clip.MP4" does not match "mp4".
// A hidden file whose only dot is the leading one (".mp4") has no
// extension at all.
func (s ExtensionSet) Match(name string) bool {
	ext := filepath.Ext(name)
	if ext == "" || ext == name {
		return false
	}
	return s[strings.TrimPrefix(ext, ".")]
}

// posterPattern recognizes sidecar cover art next to a video file.
var posterPattern = regexp.MustCompile(`(?i)^(poster|cover|folder|board)\.[^.]+$`)

// posterDecodable lists the image extensions the cover pipeline can decode.
var posterDecodable = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

// IsPosterImage reports whether the file name looks like sidecar cover
// art in a format the cover pipeline can decode.
func IsPosterImage(name string) bool {
	if !posterPattern.MatchString(name) {
		return false
	}
	return posterDecodable[strings.ToLower(filepath.Ext(name))]
}
