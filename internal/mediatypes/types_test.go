package mediatypes

import (
	"testing"
)

func TestExtensionSetMatch(t *testing.T) {
	t.Parallel()

	allow := NewExtensionSet("mp4", ".mkv", "webm")

	tests := []struct {
		name string
		file string
		want bool
	}{
		{name: "plain mp4", file: "clip.mp4", want: true},
		{name: "dotted input normalized", file: "clip.mkv", want: true},
		{name: "not in list", file: "clip.avi", want: false},
		{name: "case sensitive", file: "clip.MP4", want: false},
		{name: "no extension", file: "clip", want: false},
		{name: "hidden file without extension", file: ".mp4", want: false},
		{name: "multi dot name", file: "some.show.s01e01.mp4", want: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := allow.Match(tt.file); got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.file, got, tt.want)
			}
		})
	}
}

func TestNewExtensionSetSkipsEmpty(t *testing.T) {
	t.Parallel()

	s := NewExtensionSet("", ".", "mp4")
	if len(s) != 1 {
		t.Errorf("expected 1 entry, got %d", len(s))
	}
}

func TestDefaultVideoExtensions(t *testing.T) {
	t.Parallel()

	allow := NewExtensionSet(DefaultVideoExtensions...)
	for _, f := range []string{"a.mp4", "b.mkv", "c.webm", "d.rmvb"} {
		if !allow.Match(f) {
			t.Errorf("default allow-list should match %q", f)
		}
	}
	if allow.Match("a.jpg") {
		t.Error("default allow-list should not match images")
	}
}

func TestIsPosterImage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		file string
		want bool
	}{
		{name: "poster jpg", file: "poster.jpg", want: true},
		{name: "cover webp", file: "cover.webp", want: true},
		{name: "folder png", file: "folder.png", want: true},
		{name: "board jpeg", file: "board.jpeg", want: true},
		{name: "case insensitive stem", file: "Poster.JPG", want: true},
		{name: "undecodable format", file: "poster.svg", want: false},
		{name: "regular image", file: "screenshot.jpg", want: false},
		{name: "prefix only", file: "poster", want: false},
		{name: "nested stem", file: "my-poster.jpg", want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsPosterImage(tt.file); got != tt.want {
				t.Errorf("IsPosterImage(%q) = %v, want %v", tt.file, got, tt.want)
			}
		})
	}
}

func TestValidSortField(t *testing.T) {
	t.Parallel()

	for _, f := range []SortField{SortByFileName, SortByFileSize, SortByCreatedAt,
		SortByUpdatedAt, SortByDuration, SortByFPS, SortByReleaseDate, SortByBirthtime} {
		if !ValidSortField(f) {
			t.Errorf("ValidSortField(%q) = false, want true", f)
		}
	}
	if ValidSortField("file_name; DROP TABLE video") {
		t.Error("arbitrary input must not validate as a sort field")
	}
}
