package server

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"media-indexer/internal/tasks"
)

func (s *Server) listTasks(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.manager.Tasks())
}

func (s *Server) clearTasks(w http.ResponseWriter, _ *http.Request) {
	s.manager.ClearCompleted()
	w.WriteHeader(http.StatusNoContent)
}

// submitTask starts a named background job. An unknown kind is a 400;
// a second submission of a kind that is still pending or running is a
// 409 rather than a silent duplicate.
func (s *Server) submitTask(w http.ResponseWriter, r *http.Request) {
	kind := mux.Vars(r)["kind"]
	job, ok := s.jobs[kind]
	if !ok {
		writeJSONError(w, fmt.Sprintf("unknown task kind %q", kind), http.StatusBadRequest)
		return
	}

	for _, t := range s.manager.Tasks() {
		if t.Name == kind && !t.Status.Terminal() {
			writeJSONError(w, fmt.Sprintf("task %q is already %s", kind, t.Status), http.StatusConflict)
			return
		}
	}

	id := s.manager.Submit(kind, func(report tasks.Progress) error {
		return job(s.baseCtx, report)
	})

	writeJSONStatus(w, map[string]string{"id": id, "kind": kind}, http.StatusAccepted)
}
