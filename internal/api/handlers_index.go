package api

import (
	"net/http"
	"time"

	"github.com/dgallion1/lawdesk/internal/pipeline"
)

type indexStatus struct {
	Generation uint64                `json:"generation"`
	Chunks     int                   `json:"chunks"`
	Files      int                   `json:"files"`
	BuiltAt    time.Time             `json:"built_at"`
	LastReload *pipeline.JobSnapshot `json:"last_reload,omitempty"`
}

func (s *Server) handleIndexStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.deps.Index.Load()
	st := indexStatus{
		Generation: snap.Generation(),
		Chunks:     snap.Len(),
		Files:      len(snap.Files()),
		BuiltAt:    snap.BuiltAt(),
	}
	if recent := s.deps.Reloader.Jobs().Recent(); len(recent) > 0 {
		st.LastReload = &recent[0]
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Index.Load().ValidateAll())
}

func (s *Server) handleUntitled(w http.ResponseWriter, r *http.Request) {
	snap := s.deps.Index.Load()
	writeJSON(w, http.StatusOK, map[string]any{
		"untitled":   snap.UntitledStats(),
		"duplicates": snap.DuplicateTitles(),
	})
}

func (s *Server) handleReloadJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"jobs": s.deps.Reloader.Jobs().Recent()})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	res, job := s.deps.Admin.Reload(r.Context(), Identity(r.Context()))
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  res.Status,
		"message": res.Message,
		"job":     job,
	})
}
