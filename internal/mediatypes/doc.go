// Package mediatypes provides shared type definitions and utilities for
// video file handling across the media indexer.
//
// This package exists as a dependency-free foundation that can be imported
// by other packages without creating import cycles. It contains primitive
// types, constants, and pure utility functions with no external dependencies
// beyond the standard library.
//
// # Extension Matching
//
// Scanning filters candidate files against a configured allow-list of video
// extensions. The match is case-sensitive and the list entries carry no
// leading dot:
//
//	allow := mediatypes.NewExtensionSet("mp4", "mkv")
//	if allow.Match("clip.mp4") {
//	    // candidate
//	}
//
// DefaultVideoExtensions holds the stock allow-list used when none is
// configured.
//
// # Poster Images
//
// Use IsPosterImage to recognize sidecar cover art (poster.jpg, cover.webp,
// folder.png, board.jpeg) that takes precedence over an extracted frame.
//
// # Sorting
//
// The package provides SortField and SortOrder types for consistent sorting
// of video listings across the application.
package mediatypes
