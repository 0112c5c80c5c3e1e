package library

import (
	"context"

	"media-indexer/internal/store"
)

// Stats is a point-in-time census of the library.
type Stats struct {
	LiveVideos    int `json:"liveVideos"`
	HiddenVideos  int `json:"hiddenVideos"`
	DeletedVideos int `json:"deletedVideos"`
	Actors        int `json:"actors"`
	Studios       int `json:"studios"`
	Tags          int `json:"tags"`
}

// GatherStats counts videos by state and the dimension tables. Live
// excludes hidden videos, matching the default listing behavior.
func GatherStats(ctx context.Context, db *store.DB) (Stats, error) {
	var stats Stats

	counts := []struct {
		dest  *int
		query *store.Query[Video]
	}{
		{&stats.LiveVideos, store.NewQuery[Video](db, TableVideo).Eq("is_deleted", 0).Eq("hidden", 0)},
		{&stats.HiddenVideos, store.NewQuery[Video](db, TableVideo).Eq("is_deleted", 0).Eq("hidden", 1)},
		{&stats.DeletedVideos, store.NewQuery[Video](db, TableVideo).Eq("is_deleted", 1)},
	}
	for _, c := range counts {
		n, err := c.query.Count(ctx)
		if err != nil {
			return Stats{}, err
		}
		*c.dest = int(n)
	}

	actors, err := store.NewQuery[Actor](db, TableActor).Count(ctx)
	if err != nil {
		return Stats{}, err
	}
	stats.Actors = int(actors)

	studios, err := store.NewQuery[Studio](db, TableStudio).Count(ctx)
	if err != nil {
		return Stats{}, err
	}
	stats.Studios = int(studios)

	tags, err := store.NewQuery[Tag](db, TableTag).Count(ctx)
	if err != nil {
		return Stats{}, err
	}
	stats.Tags = int(tags)

	return stats, nil
}
