package api

import (
	"errors"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/lawdesk/internal/admin"
	"github.com/dgallion1/lawdesk/internal/library"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.deps.Library.Categories()
	if err != nil {
		jsonError(w, "failed to list categories: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": cats})
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeResult(w, s.deps.Admin.AddCategory(Identity(r.Context()), req.Name))
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	files, err := s.deps.Library.ListFiles(category)
	switch {
	case errors.Is(err, library.ErrInvalidName):
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		jsonError(w, "failed to list files: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"category": category, "files": files})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	identity := Identity(r.Context())
	if !s.deps.Admin.IsAdmin(identity) {
		// Answer before reading a possibly large body.
		writeResult(w, s.deps.Admin.Upload(r.Context(), identity, "", "", nil))
		return
	}

	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeResult(w, s.deps.Admin.Upload(r.Context(), identity, chi.URLParam(r, "category"), "", nil))
		return
	}
	defer file.Close()

	writeResult(w, s.deps.Admin.Upload(r.Context(), identity, chi.URLParam(r, "category"), header.Filename, file))
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	res := s.deps.Admin.Delete(r.Context(), Identity(r.Context()), chi.URLParam(r, "category"), chi.URLParam(r, "name"))
	writeResult(w, res)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	f, err := s.deps.Library.Open(chi.URLParam(r, "category"), name)
	switch {
	case errors.Is(err, library.ErrNotFound):
		jsonError(w, "파일이 존재하지 않습니다: "+name, http.StatusNotFound)
		return
	case errors.Is(err, library.ErrInvalidName):
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		jsonError(w, "failed to open file: "+err.Error(), http.StatusInternalServerError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		jsonError(w, "failed to stat file: "+err.Error(), http.StatusInternalServerError)
		return
	}
	// FormatMediaType switches to the RFC 2231 filename* form for Hangul names.
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	http.ServeContent(w, r, name, info.ModTime(), f)
}

// writeResult reports an admin outcome. Declined and failed operations use the
// same JSON shape as successes.
func writeResult(w http.ResponseWriter, res admin.Result) {
	writeJSON(w, http.StatusOK, res)
}
