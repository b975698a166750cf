package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/dgallion1/lawdesk/internal/qa"
)

type askRequest struct {
	Question string   `json:"question"`
	Category string   `json:"category"`
	Files    []string `json:"files,omitempty"`
	Titles   []string `json:"titles,omitempty"`
}

func (s *Server) readAsk(w http.ResponseWriter, r *http.Request) (askRequest, bool) {
	var req askRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return req, false
	}
	req.Question = strings.TrimSpace(req.Question)
	req.Category = strings.TrimSpace(req.Category)
	if req.Question == "" {
		jsonError(w, "question is required", http.StatusBadRequest)
		return req, false
	}
	return req, true
}

// handleAsk runs both stages and returns the final event.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	req, ok := s.readAsk(w, r)
	if !ok {
		return
	}
	final := s.deps.QA.AskWithStages(r.Context(), req.Question, req.Category, nil)
	writeJSON(w, http.StatusOK, final)
}

// handleAskStream sends each stage as a server-sent event.
func (s *Server) handleAskStream(w http.ResponseWriter, r *http.Request) {
	req, ok := s.readAsk(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		jsonError(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	s.deps.QA.AskWithStages(r.Context(), req.Question, req.Category, func(e qa.Event) {
		if r.Context().Err() != nil {
			return
		}
		data, err := json.Marshal(e)
		if err != nil {
			s.log.Error("encode stage event", "error", err)
			return
		}
		fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", e.AskID, e.Stage, data)
		flusher.Flush()
	})
}

func (s *Server) handleStage1(w http.ResponseWriter, r *http.Request) {
	req, ok := s.readAsk(w, r)
	if !ok {
		return
	}
	titles := s.deps.QA.Recommend(r.Context(), req.Question, req.Category, req.Files)
	writeJSON(w, http.StatusOK, map[string]any{"recommended_articles": titles})
}

func (s *Server) handleStage2(w http.ResponseWriter, r *http.Request) {
	req, ok := s.readAsk(w, r)
	if !ok {
		return
	}
	if len(req.Titles) == 0 {
		jsonError(w, "titles are required", http.StatusBadRequest)
		return
	}
	answer := s.deps.QA.Answer(r.Context(), req.Question, req.Titles, req.Category)
	writeJSON(w, http.StatusOK, map[string]any{
		"recommended_articles": req.Titles,
		"final_answer":         answer,
	})
}
