package library

import (
	"context"
	"fmt"

	"media-indexer/internal/store"
)

// upsertStudio resolves a studio name to its id, creating the row on
// first sight. Name matching is exact and case-sensitive. An empty name
// resolves to an empty id.
func upsertStudio(ctx context.Context, s store.Session, name string) (string, error) {
	if name == "" {
		return "", nil
	}
	existing, err := store.NewQuery[Studio](s, TableStudio).Eq("name", name).First(ctx)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return existing.ID, nil
	}
	id, err := store.NewMapper[Studio](s, TableStudio).Insert(ctx, Studio{Name: name})
	if err != nil {
		return "", fmt.Errorf("failed to create studio %q: %w", name, err)
	}
	return id, nil
}

// replaceActors rewrites the actor association rows for a video:
// delete-all-then-insert, never an incremental diff. Dimension rows are
// created lazily for unseen names and never deleted.
func replaceActors(ctx context.Context, s store.Session, videoID string, actors []ActorRef) error {
	if err := store.NewQuery[VideoActor](s, TableVideoActor).
		Eq("video_id", videoID).Delete(ctx); err != nil {
		return err
	}
	if len(actors) == 0 {
		return nil
	}

	names := make([]any, len(actors))
	for i, a := range actors {
		names[i] = a.Name
	}
	existing, err := store.NewQuery[Actor](s, TableActor).In("name", names).List(ctx)
	if err != nil {
		return err
	}
	byName := make(map[string]string, len(existing))
	for _, a := range existing {
		byName[a.Name] = a.ID
	}

	actorMapper := store.NewMapper[Actor](s, TableActor)
	linkMapper := store.NewMapper[VideoActor](s, TableVideoActor)
	for i, ref := range actors {
		actorID, ok := byName[ref.Name]
		if !ok {
			actorID, err = actorMapper.Insert(ctx, Actor{
				Name:         ref.Name,
				OriginalName: ref.Name,
				Gender:       "other",
			})
			if err != nil {
				return fmt.Errorf("failed to create actor %q: %w", ref.Name, err)
			}
			byName[ref.Name] = actorID
		}
		if _, err := linkMapper.Insert(ctx, VideoActor{
			VideoID:    videoID,
			ActorID:    actorID,
			RoleName:   ref.Role,
			OrderIndex: int64(i),
		}); err != nil {
			return err
		}
	}
	return nil
}

// replaceTags rewrites the tag association rows for a video,
// delete-all-then-insert.
func replaceTags(ctx context.Context, s store.Session, videoID string, tags []string) error {
	if err := store.NewQuery[VideoTag](s, TableVideoTag).
		Eq("video_id", videoID).Delete(ctx); err != nil {
		return err
	}
	if len(tags) == 0 {
		return nil
	}

	names := make([]any, len(tags))
	for i, name := range tags {
		names[i] = name
	}
	existing, err := store.NewQuery[Tag](s, TableTag).In("name", names).List(ctx)
	if err != nil {
		return err
	}
	byName := make(map[string]string, len(existing))
	for _, t := range existing {
		byName[t.Name] = t.ID
	}

	tagMapper := store.NewMapper[Tag](s, TableTag)
	linkMapper := store.NewMapper[VideoTag](s, TableVideoTag)
	for _, name := range tags {
		tagID, ok := byName[name]
		if !ok {
			tagID, err = tagMapper.Insert(ctx, Tag{Name: name})
			if err != nil {
				return fmt.Errorf("failed to create tag %q: %w", name, err)
			}
			byName[name] = tagID
		}
		if _, err := linkMapper.Insert(ctx, VideoTag{VideoID: videoID, TagID: tagID}); err != nil {
			return err
		}
	}
	return nil
}

// replaceStudioLink rewrites the studio association row for a video.
func replaceStudioLink(ctx context.Context, s store.Session, videoID, studioID string) error {
	if err := store.NewQuery[VideoStudio](s, TableVideoStudio).
		Eq("video_id", videoID).Delete(ctx); err != nil {
		return err
	}
	if studioID == "" {
		return nil
	}
	_, err := store.NewMapper[VideoStudio](s, TableVideoStudio).Insert(ctx, VideoStudio{
		VideoID:  videoID,
		StudioID: studioID,
		RoleType: "production",
	})
	return err
}

// Actors reads the actor dimension.
type Actors struct {
	db *store.DB
}

// NewActors creates the actor repository.
func NewActors(db *store.DB) *Actors {
	return &Actors{db: db}
}

// List returns all actors ordered by name.
func (r *Actors) List(ctx context.Context) ([]Actor, error) {
	return store.NewQuery[Actor](r.db, TableActor).OrderAsc("name").List(ctx)
}

// ForVideo returns the actors linked to a video in billing order.
func (r *Actors) ForVideo(ctx context.Context, videoID string) ([]ActorRef, error) {
	links, err := store.NewQuery[VideoActor](r.db, TableVideoActor).
		Eq("video_id", videoID).OrderAsc("order_index").List(ctx)
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return nil, nil
	}
	ids := make([]any, len(links))
	for i, l := range links {
		ids[i] = l.ActorID
	}
	actors, err := store.NewQuery[Actor](r.db, TableActor).In("id", ids).List(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]string, len(actors))
	for _, a := range actors {
		byID[a.ID] = a.Name
	}
	refs := make([]ActorRef, 0, len(links))
	for _, l := range links {
		refs = append(refs, ActorRef{Name: byID[l.ActorID], Role: l.RoleName})
	}
	return refs, nil
}

// Studios reads the studio dimension.
type Studios struct {
	db *store.DB
}

// NewStudios creates the studio repository.
func NewStudios(db *store.DB) *Studios {
	return &Studios{db: db}
}

// List returns all studios ordered by name.
func (r *Studios) List(ctx context.Context) ([]Studio, error) {
	return store.NewQuery[Studio](r.db, TableStudio).OrderAsc("name").List(ctx)
}

// GetByID returns the studio, or nil when absent.
func (r *Studios) GetByID(ctx context.Context, id string) (*Studio, error) {
	if id == "" {
		return nil, nil
	}
	return store.NewQuery[Studio](r.db, TableStudio).Eq("id", id).One(ctx)
}

// Tags reads the tag dimension.
type Tags struct {
	db *store.DB
}

// NewTags creates the tag repository.
func NewTags(db *store.DB) *Tags {
	return &Tags{db: db}
}

// List returns all tags ordered by name.
func (r *Tags) List(ctx context.Context) ([]Tag, error) {
	return store.NewQuery[Tag](r.db, TableTag).OrderAsc("name").List(ctx)
}

// ForVideo returns the tag names linked to a video.
func (r *Tags) ForVideo(ctx context.Context, videoID string) ([]string, error) {
	links, err := store.NewQuery[VideoTag](r.db, TableVideoTag).
		Eq("video_id", videoID).List(ctx)
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return nil, nil
	}
	ids := make([]any, len(links))
	for i, l := range links {
		ids[i] = l.TagID
	}
	tags, err := store.NewQuery[Tag](r.db, TableTag).In("id", ids).OrderAsc("name").List(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
	}
	return names, nil
}
