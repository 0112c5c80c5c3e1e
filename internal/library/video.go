package library

import (
	"context"
	"fmt"
	"time"

	"media-indexer/internal/mediatypes"
	"media-indexer/internal/store"
)

// PageQuery carries the list filters for the video page endpoint.
type PageQuery struct {
	PageNum   int
	PageSize  int
	SortBy    string
	SortOrder string
	Search    string
	// IncludeHidden keeps hidden rows in the result. Soft-deleted rows
	// are always excluded.
	IncludeHidden bool
}

// Videos is the repository for the video table and its associations.
type Videos struct {
	db *store.DB
}

// NewVideos creates the video repository.
func NewVideos(db *store.DB) *Videos {
	return &Videos{db: db}
}

// ExistsByID reports whether a live (not soft-deleted) row exists.
func (r *Videos) ExistsByID(ctx context.Context, id string) (bool, error) {
	n, err := store.NewQuery[Video](r.db, TableVideo).
		Eq("id", id).Eq("is_deleted", 0).Count(ctx)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetByID returns the video, or nil when absent or soft-deleted.
func (r *Videos) GetByID(ctx context.Context, id string) (*Video, error) {
	return store.NewQuery[Video](r.db, TableVideo).
		Eq("id", id).Eq("is_deleted", 0).One(ctx)
}

// GetAnyByID returns the video regardless of deletion state. Used by
// the scanner to resurrect a row when a previously removed file comes
// back at the same path.
func (r *Videos) GetAnyByID(ctx context.Context, id string) (*Video, error) {
	return store.NewQuery[Video](r.db, TableVideo).Eq("id", id).One(ctx)
}

// GetByPath returns the live video at an absolute path, or nil.
func (r *Videos) GetByPath(ctx context.Context, path string) (*Video, error) {
	return store.NewQuery[Video](r.db, TableVideo).
		Eq("file_path", path).Eq("is_deleted", 0).One(ctx)
}

// Save inserts a video row under a caller-supplied id together with its
// studio, actor, and tag associations, all in one transaction. The id
// is the path hash, so saving the same path twice is a conflict the
// caller must resolve first.
func (r *Videos) Save(ctx context.Context, id string, form VideoForm) error {
	now := time.Now().UnixMilli()
	return r.db.WithTx(ctx, func(s store.Session) error {
		studioID, err := upsertStudio(ctx, s, form.Studio)
		if err != nil {
			return err
		}
		rec := recordFromForm(id, form)
		rec.StudioID = studioID
		rec.CreatedAt = now
		rec.UpdatedAt = now
		if err := store.NewMapper[Video](s, TableVideo).InsertSelf(ctx, rec); err != nil {
			return fmt.Errorf("failed to insert video %s: %w", id, err)
		}
		if err := replaceStudioLink(ctx, s, id, studioID); err != nil {
			return err
		}
		if err := replaceActors(ctx, s, id, form.Actors); err != nil {
			return err
		}
		return replaceTags(ctx, s, id, form.Tags)
	})
}

// Update overwrites every form-carried column of an existing video and
// rewrites all three association sets, in one transaction.
func (r *Videos) Update(ctx context.Context, id string, form VideoForm) error {
	return r.db.WithTx(ctx, func(s store.Session) error {
		studioID, err := upsertStudio(ctx, s, form.Studio)
		if err != nil {
			return err
		}
		rec := recordFromForm(id, form)
		ch := store.NewChanges().
			Set("file_name", rec.FileName).
			Set("file_path", rec.FilePath).
			Set("file_size", rec.FileSize).
			Set("file_birthtime", rec.FileBirthtime).
			Set("duration_ms", rec.DurationMS).
			Set("width", rec.Width).
			Set("height", rec.Height).
			Set("fps", rec.FPS).
			Set("bit_rate", rec.BitRate).
			Set("video_codec", rec.VideoCodec).
			Set("audio_codec", rec.AudioCodec).
			Set("container_format", rec.ContainerFormat).
			Set("cover_path", rec.CoverPath).
			Set("sprite_path", rec.SpritePath).
			Set("vtt_path", rec.VttPath).
			Set("screenshot_path", rec.ScreenshotPath).
			Set("title", rec.Title).
			Set("description", rec.Description).
			Set("release_date", rec.ReleaseDate).
			Set("director", rec.Director).
			Set("link", rec.Link).
			Set("hidden", rec.Hidden).
			Set("studio_id", studioID).
			Set("is_deleted", 0).
			Set("updated_at", time.Now().UnixMilli())
		if err := store.NewMapper[Video](s, TableVideo).UpdateByID(ctx, id, ch); err != nil {
			return fmt.Errorf("failed to update video %s: %w", id, err)
		}
		if err := replaceStudioLink(ctx, s, id, studioID); err != nil {
			return err
		}
		if err := replaceActors(ctx, s, id, form.Actors); err != nil {
			return err
		}
		return replaceTags(ctx, s, id, form.Tags)
	})
}

// Apply performs a partial edit. Only the set pointer fields change;
// a non-nil Actors or Tags slice rewrites that association set, and a
// non-nil Studio re-resolves the studio link.
func (r *Videos) Apply(ctx context.Context, id string, edit VideoEdit) error {
	return r.db.WithTx(ctx, func(s store.Session) error {
		ch := edit.changes()
		if edit.Studio != nil {
			studioID, err := upsertStudio(ctx, s, *edit.Studio)
			if err != nil {
				return err
			}
			ch.Set("studio_id", studioID)
			if err := replaceStudioLink(ctx, s, id, studioID); err != nil {
				return err
			}
		}
		if !ch.Empty() {
			ch.Set("updated_at", time.Now().UnixMilli())
			if err := store.NewMapper[Video](s, TableVideo).UpdateByID(ctx, id, ch); err != nil {
				return fmt.Errorf("failed to edit video %s: %w", id, err)
			}
		}
		if edit.Actors != nil {
			if err := replaceActors(ctx, s, id, edit.Actors); err != nil {
				return err
			}
		}
		if edit.Tags != nil {
			if err := replaceTags(ctx, s, id, edit.Tags); err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateStatus moves a video through the scan pipeline. The message is
// only stored for the error state and cleared otherwise.
func (r *Videos) UpdateStatus(ctx context.Context, id string, status ScanStatus, message string) error {
	if status != ScanStatusError {
		message = ""
	}
	ch := store.NewChanges().
		Set("scan_status", string(status)).
		Set("error_message", message).
		Set("updated_at", time.Now().UnixMilli())
	return store.NewMapper[Video](r.db, TableVideo).UpdateByID(ctx, id, ch)
}

// UpdateAssets records generated asset paths. Empty strings are skipped
// so a partial generation pass never erases an earlier asset.
func (r *Videos) UpdateAssets(ctx context.Context, id, cover, sprite, vtt, screenshot string) error {
	ch := store.NewChanges()
	if cover != "" {
		ch.Set("cover_path", cover)
	}
	if sprite != "" {
		ch.Set("sprite_path", sprite)
	}
	if vtt != "" {
		ch.Set("vtt_path", vtt)
	}
	if screenshot != "" {
		ch.Set("screenshot_path", screenshot)
	}
	if ch.Empty() {
		return nil
	}
	ch.Set("updated_at", time.Now().UnixMilli())
	return store.NewMapper[Video](r.db, TableVideo).UpdateByID(ctx, id, ch)
}

// MarkPlayed bumps the play counter and stamps the play time.
func (r *Videos) MarkPlayed(ctx context.Context, id string) error {
	now := time.Now().UnixMilli()
	_, err := r.db.Exec(ctx,
		"UPDATE `video` SET `play_count` = `play_count` + 1, `last_played_at` = ?, `updated_at` = ? WHERE `id` = ?",
		now, now, id)
	return err
}

// Page returns one page of live videos with the requested sort and an
// optional substring match on the title. An unknown sort field falls
// back to created_at descending.
func (r *Videos) Page(ctx context.Context, pq PageQuery) (*store.Page[Video], error) {
	q := store.NewQuery[Video](r.db, TableVideo).Eq("is_deleted", 0)
	if !pq.IncludeHidden {
		q.Eq("hidden", 0)
	}
	if pq.Search != "" {
		q.Like("title", pq.Search)
	}
	sortBy := mediatypes.SortField(pq.SortBy)
	if !mediatypes.ValidSortField(sortBy) {
		sortBy = mediatypes.SortByCreatedAt
	}
	if mediatypes.SortOrder(pq.SortOrder) == mediatypes.SortAsc {
		q.OrderAsc(string(sortBy))
	} else {
		q.OrderDesc(string(sortBy))
	}
	return q.Page(ctx, pq.PageNum, pq.PageSize)
}

// List returns all live videos ordered by creation time, newest first.
func (r *Videos) List(ctx context.Context) ([]Video, error) {
	return store.NewQuery[Video](r.db, TableVideo).
		Eq("is_deleted", 0).OrderDesc("created_at").List(ctx)
}

// ListAll returns every row including soft-deleted ones, for the
// scanner's reconciliation pass.
func (r *Videos) ListAll(ctx context.Context) ([]Video, error) {
	return store.NewQuery[Video](r.db, TableVideo).List(ctx)
}

// EachLive streams live rows in batches to the callback.
func (r *Videos) EachLive(ctx context.Context, batchSize int, fn func([]Video) error) error {
	return store.NewQuery[Video](r.db, TableVideo).
		Eq("is_deleted", 0).OrderAsc("id").BatchList(ctx, batchSize, fn)
}

// SoftDelete hides a video without touching its row or associations.
func (r *Videos) SoftDelete(ctx context.Context, id string) error {
	ch := store.NewChanges().
		Set("is_deleted", 1).
		Set("updated_at", time.Now().UnixMilli())
	return store.NewMapper[Video](r.db, TableVideo).UpdateByID(ctx, id, ch)
}

// SoftDeleteByPath hides the video recorded at path, if any.
func (r *Videos) SoftDeleteByPath(ctx context.Context, path string) error {
	v, err := r.GetByPath(ctx, path)
	if err != nil || v == nil {
		return err
	}
	return r.SoftDelete(ctx, v.ID)
}

// Restore brings a soft-deleted video back.
func (r *Videos) Restore(ctx context.Context, id string) error {
	ch := store.NewChanges().
		Set("is_deleted", 0).
		Set("updated_at", time.Now().UnixMilli())
	return store.NewMapper[Video](r.db, TableVideo).UpdateByID(ctx, id, ch)
}

// PurgeDeleted hard-removes soft-deleted rows and their association
// rows, returning the removed videos so the caller can clean up any
// generated assets on disk.
func (r *Videos) PurgeDeleted(ctx context.Context) ([]Video, error) {
	doomed, err := store.NewQuery[Video](r.db, TableVideo).Eq("is_deleted", 1).List(ctx)
	if err != nil {
		return nil, err
	}
	if len(doomed) == 0 {
		return nil, nil
	}
	ids := make([]any, len(doomed))
	for i, v := range doomed {
		ids[i] = v.ID
	}
	err = r.db.WithTx(ctx, func(s store.Session) error {
		if err := store.NewQuery[VideoActor](s, TableVideoActor).In("video_id", ids).Delete(ctx); err != nil {
			return err
		}
		if err := store.NewQuery[VideoStudio](s, TableVideoStudio).In("video_id", ids).Delete(ctx); err != nil {
			return err
		}
		if err := store.NewQuery[VideoTag](s, TableVideoTag).In("video_id", ids).Delete(ctx); err != nil {
			return err
		}
		return store.NewQuery[Video](s, TableVideo).In("id", ids).Delete(ctx)
	})
	if err != nil {
		return nil, err
	}
	return doomed, nil
}

func recordFromForm(id string, form VideoForm) Video {
	return Video{
		ID:              id,
		FileName:        form.FileName,
		FilePath:        form.FilePath,
		FileSize:        form.FileSize,
		FileBirthtime:   form.FileBirthtime,
		DurationMS:      form.DurationMS,
		Width:           form.Width,
		Height:          form.Height,
		FPS:             form.FPS,
		BitRate:         form.BitRate,
		VideoCodec:      form.VideoCodec,
		AudioCodec:      form.AudioCodec,
		ContainerFormat: form.ContainerFormat,
		CoverPath:       form.CoverPath,
		SpritePath:      form.SpritePath,
		VttPath:         form.VttPath,
		ScreenshotPath:  form.ScreenshotPath,
		Title:           form.Title,
		Description:     form.Description,
		ReleaseDate:     form.ReleaseDate,
		Director:        form.Director,
		Link:            form.Link,
		Hidden:          form.Hidden,
		ScanStatus:      string(ScanStatusPending),
	}
}
