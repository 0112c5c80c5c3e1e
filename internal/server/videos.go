package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"media-indexer/internal/library"
	"media-indexer/internal/logging"
	"media-indexer/internal/transcoder"
)

// videoDetail is a video record joined with its dimension names.
type videoDetail struct {
	library.Video
	Studio string             `json:"studio"`
	Actors []library.ActorRef `json:"actors"`
	Tags   []string           `json:"tags"`
}

func (s *Server) listVideos(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pq := library.PageQuery{
		PageNum:       intParam(q.Get("page"), 1),
		PageSize:      intParam(q.Get("size"), 20),
		SortBy:        q.Get("sort"),
		SortOrder:     q.Get("order"),
		Search:        q.Get("search"),
		IncludeHidden: q.Get("hidden") == "true",
	}

	page, err := s.videos.Page(r.Context(), pq)
	if err != nil {
		logging.Error("failed to page videos: %v", err)
		writeJSONError(w, "failed to list videos", http.StatusInternalServerError)
		return
	}
	writeJSON(w, page)
}

func (s *Server) getVideo(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	v, err := s.videos.GetByID(r.Context(), id)
	if err != nil {
		logging.Error("failed to load video %s: %v", id, err)
		writeJSONError(w, "failed to load video", http.StatusInternalServerError)
		return
	}
	if v == nil {
		writeJSONError(w, "video not found", http.StatusNotFound)
		return
	}

	detail := videoDetail{Video: *v}
	if studio, err := s.studios.GetByID(r.Context(), v.StudioID); err == nil && studio != nil {
		detail.Studio = studio.Name
	}
	if actors, err := s.actors.ForVideo(r.Context(), id); err == nil {
		detail.Actors = actors
	}
	if tags, err := s.tags.ForVideo(r.Context(), id); err == nil {
		detail.Tags = tags
	}
	writeJSON(w, detail)
}

func (s *Server) editVideo(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	exists, err := s.videos.ExistsByID(r.Context(), id)
	if err != nil {
		logging.Error("failed to check video %s: %v", id, err)
		writeJSONError(w, "failed to edit video", http.StatusInternalServerError)
		return
	}
	if !exists {
		writeJSONError(w, "video not found", http.StatusNotFound)
		return
	}

	var edit library.VideoEdit
	if err := json.NewDecoder(r.Body).Decode(&edit); err != nil {
		writeJSONError(w, "malformed edit body", http.StatusBadRequest)
		return
	}

	if err := s.videos.Apply(r.Context(), id, edit); err != nil {
		logging.Error("failed to apply edit to %s: %v", id, err)
		writeJSONError(w, "failed to edit video", http.StatusInternalServerError)
		return
	}
	s.getVideo(w, r)
}

func (s *Server) deleteVideo(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	exists, err := s.videos.ExistsByID(r.Context(), id)
	if err != nil {
		logging.Error("failed to check video %s: %v", id, err)
		writeJSONError(w, "failed to delete video", http.StatusInternalServerError)
		return
	}
	if !exists {
		writeJSONError(w, "video not found", http.StatusNotFound)
		return
	}
	if err := s.videos.SoftDelete(r.Context(), id); err != nil {
		logging.Error("failed to soft-delete %s: %v", id, err)
		writeJSONError(w, "failed to delete video", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getCues(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	v, err := s.videos.GetByID(r.Context(), id)
	if err != nil {
		logging.Error("failed to load video %s: %v", id, err)
		writeJSONError(w, "failed to load video", http.StatusInternalServerError)
		return
	}
	if v == nil {
		writeJSONError(w, "video not found", http.StatusNotFound)
		return
	}
	if v.VttPath == "" {
		writeJSONError(w, "video has no cue file", http.StatusNotFound)
		return
	}

	cues, err := transcoder.ParseCue(v.VttPath)
	if err != nil {
		logging.Error("failed to parse cue file %s: %v", v.VttPath, err)
		writeJSONError(w, "failed to read cue file", http.StatusInternalServerError)
		return
	}
	writeJSON(w, cues)
}

func (s *Server) markPlayed(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	exists, err := s.videos.ExistsByID(r.Context(), id)
	if err != nil {
		logging.Error("failed to check video %s: %v", id, err)
		writeJSONError(w, "failed to mark played", http.StatusInternalServerError)
		return
	}
	if !exists {
		writeJSONError(w, "video not found", http.StatusNotFound)
		return
	}
	if err := s.videos.MarkPlayed(r.Context(), id); err != nil {
		logging.Error("failed to mark %s played: %v", id, err)
		writeJSONError(w, "failed to mark played", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listActors(w http.ResponseWriter, r *http.Request) {
	actors, err := s.actors.List(r.Context())
	if err != nil {
		logging.Error("failed to list actors: %v", err)
		writeJSONError(w, "failed to list actors", http.StatusInternalServerError)
		return
	}
	writeJSON(w, actors)
}

func (s *Server) listStudios(w http.ResponseWriter, r *http.Request) {
	studios, err := s.studios.List(r.Context())
	if err != nil {
		logging.Error("failed to list studios: %v", err)
		writeJSONError(w, "failed to list studios", http.StatusInternalServerError)
		return
	}
	writeJSON(w, studios)
}

func (s *Server) listTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.tags.List(r.Context())
	if err != nil {
		logging.Error("failed to list tags: %v", err)
		writeJSONError(w, "failed to list tags", http.StatusInternalServerError)
		return
	}
	writeJSON(w, tags)
}

func intParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
