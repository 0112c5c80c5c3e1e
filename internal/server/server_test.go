package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"media-indexer/internal/identity"
	"media-indexer/internal/library"
	"media-indexer/internal/server"
	"media-indexer/internal/store"
	"media-indexer/internal/tasks"
)

type fixture struct {
	srv     *server.Server
	handler http.Handler
	videos  *library.Videos
	manager *tasks.Manager
	scans   chan struct{}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := store.Open(context.Background(), t.TempDir(), "test.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, library.Migrate(context.Background(), db))

	f := &fixture{
		videos:  library.NewVideos(db),
		manager: tasks.NewManager(),
		scans:   make(chan struct{}, 10),
	}
	jobs := map[string]server.Job{
		"scan": func(ctx context.Context, report tasks.Progress) error {
			report(1, 1, "done")
			f.scans <- struct{}{}
			return nil
		},
		"broken": func(ctx context.Context, report tasks.Progress) error {
			return fmt.Errorf("boom")
		},
	}

	f.srv = server.New(context.Background(), db,
		f.videos, library.NewActors(db), library.NewStudios(db), library.NewTags(db),
		f.manager, jobs)
	f.handler = f.srv.Router(true)
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) seedVideo(t *testing.T, path, title string) string {
	t.Helper()
	id := identity.Identify(path)
	err := f.videos.Save(context.Background(), id, library.VideoForm{
		FileName: title + ".mp4",
		FilePath: path,
		FileSize: 1024,
		Title:    title,
		Studio:   "Acme Films",
		Actors:   []library.ActorRef{{Name: "Jo Chen", Role: "lead"}},
		Tags:     []string{"action", "drama"},
	})
	require.NoError(t, err)
	return id
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestListVideos(t *testing.T) {
	f := newFixture(t)
	f.seedVideo(t, "/media/a.mp4", "Alpha")
	f.seedVideo(t, "/media/b.mp4", "Beta")

	rec := f.do(t, http.MethodGet, "/api/videos", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	page := decode[store.Page[library.Video]](t, rec)
	assert.EqualValues(t, 2, page.Total)
	assert.Len(t, page.Records, 2)
}

func TestListVideosSearch(t *testing.T) {
	f := newFixture(t)
	f.seedVideo(t, "/media/a.mp4", "Winter Journey")
	f.seedVideo(t, "/media/b.mp4", "Summer Break")

	rec := f.do(t, http.MethodGet, "/api/videos?search=Winter", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	page := decode[store.Page[library.Video]](t, rec)
	require.Len(t, page.Records, 1)
	assert.Equal(t, "Winter Journey", page.Records[0].Title)
}

func TestGetVideoDetail(t *testing.T) {
	f := newFixture(t)
	id := f.seedVideo(t, "/media/a.mp4", "Alpha")

	rec := f.do(t, http.MethodGet, "/api/videos/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var detail struct {
		library.Video
		Studio string             `json:"studio"`
		Actors []library.ActorRef `json:"actors"`
		Tags   []string           `json:"tags"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&detail))
	assert.Equal(t, "Alpha", detail.Title)
	assert.Equal(t, "Acme Films", detail.Studio)
	require.Len(t, detail.Actors, 1)
	assert.Equal(t, "Jo Chen", detail.Actors[0].Name)
	assert.Equal(t, []string{"action", "drama"}, detail.Tags)
}

func TestGetVideoNotFound(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/videos/nope", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	body := decode[map[string]string](t, rec)
	assert.Contains(t, body["error"], "not found")
}

func TestEditVideo(t *testing.T) {
	f := newFixture(t)
	id := f.seedVideo(t, "/media/a.mp4", "Alpha")

	rec := f.do(t, http.MethodPut, "/api/videos/"+id, map[string]any{
		"title": "Renamed",
		"tags":  []string{"thriller"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var detail struct {
		Title string   `json:"title"`
		Tags  []string `json:"tags"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&detail))
	assert.Equal(t, "Renamed", detail.Title)
	assert.Equal(t, []string{"thriller"}, detail.Tags)
}

func TestEditVideoBadBody(t *testing.T) {
	f := newFixture(t)
	id := f.seedVideo(t, "/media/a.mp4", "Alpha")

	req := httptest.NewRequest(http.MethodPut, "/api/videos/"+id, bytes.NewBufferString("{nope"))
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEditVideoUnknown(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPut, "/api/videos/nope", map[string]any{"title": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteVideoSoftDeletes(t *testing.T) {
	f := newFixture(t)
	id := f.seedVideo(t, "/media/a.mp4", "Alpha")

	rec := f.do(t, http.MethodDelete, "/api/videos/"+id, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/videos/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	raw, err := f.videos.GetAnyByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, raw)
	assert.EqualValues(t, 1, raw.IsDeleted)
}

func TestGetCuesWithoutCueFile(t *testing.T) {
	f := newFixture(t)
	id := f.seedVideo(t, "/media/a.mp4", "Alpha")

	rec := f.do(t, http.MethodGet, "/api/videos/"+id+"/cues", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMarkPlayed(t *testing.T) {
	f := newFixture(t)
	id := f.seedVideo(t, "/media/a.mp4", "Alpha")

	for i := 0; i < 3; i++ {
		rec := f.do(t, http.MethodPost, "/api/videos/"+id+"/played", nil)
		require.Equal(t, http.StatusNoContent, rec.Code)
	}

	v, err := f.videos.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.EqualValues(t, 3, v.PlayCount)
}

func TestListDimensions(t *testing.T) {
	f := newFixture(t)
	f.seedVideo(t, "/media/a.mp4", "Alpha")

	rec := f.do(t, http.MethodGet, "/api/actors", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	actors := decode[[]library.Actor](t, rec)
	require.Len(t, actors, 1)
	assert.Equal(t, "Jo Chen", actors[0].Name)

	rec = f.do(t, http.MethodGet, "/api/studios", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	studios := decode[[]library.Studio](t, rec)
	require.Len(t, studios, 1)
	assert.Equal(t, "Acme Films", studios[0].Name)

	rec = f.do(t, http.MethodGet, "/api/tags", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tags := decode[[]library.Tag](t, rec)
	assert.Len(t, tags, 2)
}

func TestSubmitTask(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/tasks/scan", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.NotEmpty(t, body["id"])
	assert.Equal(t, "scan", body["kind"])

	select {
	case <-f.scans:
	case <-time.After(5 * time.Second):
		t.Fatal("scan job never ran")
	}
}

func TestSubmitTaskUnknownKind(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/tasks/defragment", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitTaskConflictWhileRunning(t *testing.T) {
	f := newFixture(t)
	release := make(chan struct{})
	started := make(chan struct{})
	f.manager.Submit("scan", func(report tasks.Progress) error {
		close(started)
		<-release
		return nil
	})
	<-started

	rec := f.do(t, http.MethodPost, "/api/tasks/scan", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	close(release)
}

func TestListAndClearTasks(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/tasks/scan", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	select {
	case <-f.scans:
	case <-time.After(5 * time.Second):
		t.Fatal("scan job never ran")
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		list := f.manager.Tasks()
		if len(list) == 1 && list[0].Status.Terminal() {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("task never reached a terminal state")
		}
		time.Sleep(5 * time.Millisecond)
	}

	rec = f.do(t, http.MethodGet, "/api/tasks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]tasks.Task](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "scan", list[0].Name)

	rec = f.do(t, http.MethodDelete, "/api/tasks", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/tasks", nil)
	list = decode[[]tasks.Task](t, rec)
	assert.Empty(t, list)
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	f.seedVideo(t, "/media/a.mp4", "Alpha")

	rec := f.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	health := decode[server.HealthResponse](t, rec)
	assert.Equal(t, "healthy", health.Status)
	require.NotNil(t, health.Library)
	assert.Equal(t, 1, health.Library.LiveVideos)
	assert.Equal(t, 1, health.Library.Actors)
	assert.Equal(t, 1, health.Library.Studios)
	assert.Equal(t, 2, health.Library.Tags)
}
