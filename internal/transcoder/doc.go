// Package transcoder wraps the ffmpeg and ffprobe binaries behind a
// small gateway.
//
// It supports:
//   - Media metadata probing (duration, dimensions, codecs, bit rate)
//   - Cover frame extraction and poster sidecar ingestion
//   - Sprite sheet rendering with a synthesized WebVTT cue file
//   - Highlight preview clips concatenated from evenly spaced segments
//
// Every operation is one external process invocation (or a fixed small
// number of them) under a per-call timeout. The binaries must be
// installed; paths are configurable and default to PATH lookup.
package transcoder
