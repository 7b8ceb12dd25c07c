// Package server exposes a single editing session over HTTP.
//
// The API is a thin JSON surface over [editor.Editor]: every mutating
// endpoint funnels through the editor's guarded operations, so the wire
// surface inherits the same selection semantics and whole-model atomicity
// the library gives in-process callers. A snapshot store, when configured,
// adds named save/restore on top of the plain export/import documents.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/orgtower/orgtower/pkg/chart"
	"github.com/orgtower/orgtower/pkg/chart/layout"
	"github.com/orgtower/orgtower/pkg/editor"
	"github.com/orgtower/orgtower/pkg/org"
	"github.com/orgtower/orgtower/pkg/store"
)

// maxImportBytes caps the size of uploaded documents.
const maxImportBytes = 8 << 20

// Server serves one editing session.
type Server struct {
	editor    *editor.Editor
	snapshots store.Snapshots // nil disables the snapshot endpoints
	logger    *log.Logger
}

// New creates a server around an existing session. Pass a nil snapshots
// store to run without the snapshot endpoints.
func New(ed *editor.Editor, snapshots store.Snapshots, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Server{editor: ed, snapshots: snapshots, logger: logger}
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/board", s.handleBoard)
		r.Post("/select", s.handleSelect)
		r.Delete("/select", s.handleClearSelection)

		r.Post("/units", s.handleAddUnit)
		r.Post("/members", s.handleAddMember)
		r.Delete("/selection", s.handleDeleteSelected)
		r.Patch("/selection", s.handleEditField)

		r.Get("/search", s.handleSearch)
		r.Post("/relayout", s.handleRelayout)

		r.Get("/export", s.handleExport)
		r.Post("/import", s.handleImport)

		if s.snapshots != nil {
			r.Route("/snapshots", func(r chi.Router) {
				r.Get("/", s.handleListSnapshots)
				r.Put("/{name}", s.handleSaveSnapshot)
				r.Get("/{name}", s.handleGetSnapshot)
				r.Post("/{name}/restore", s.handleRestoreSnapshot)
				r.Delete("/{name}", s.handleDeleteSnapshot)
			})
		}
	})

	return r
}

// requestLogger logs each request with its duration and status.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

// boardResponse is the full client-visible session state.
type boardResponse struct {
	Chart     json.RawMessage `json:"chart"`
	Selection string          `json:"selection"`
	Direction string          `json:"direction"`
}

func (s *Server) board() (boardResponse, error) {
	c := s.editor.Chart()
	data, err := chart.Marshal(c)
	if err != nil {
		return boardResponse{}, err
	}
	return boardResponse{
		Chart:     data,
		Selection: s.editor.Selection(),
		Direction: string(s.editor.Direction()),
	}, nil
}

func (s *Server) writeBoard(w http.ResponseWriter) {
	b, err := s.board()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, b)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("write response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleBoard(w http.ResponseWriter, _ *http.Request) {
	s.writeBoard(w)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if !s.editor.Select(req.ID) {
		// The selection is already cleared; report the miss.
		s.writeError(w, http.StatusNotFound, fmt.Errorf("entity %q not found", req.ID))
		return
	}
	s.writeBoard(w)
}

func (s *Server) handleClearSelection(w http.ResponseWriter, _ *http.Request) {
	s.editor.ClearSelection()
	s.writeBoard(w)
}

// mutate runs one guarded editor operation and translates its outcome: a
// guard no-op becomes 409, a layout failure 500, success the new board.
func (s *Server) mutate(w http.ResponseWriter, op func() (bool, error), guard string) {
	changed, err := op()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if !changed {
		s.writeError(w, http.StatusConflict, errors.New(guard))
		return
	}
	s.writeBoard(w)
}

func (s *Server) handleAddUnit(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, func() (bool, error) {
		return s.editor.AddUnit(r.Context())
	}, "no unit selected")
}

func (s *Server) handleAddMember(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, func() (bool, error) {
		return s.editor.AddMember(r.Context())
	}, "no unit selected")
}

func (s *Server) handleDeleteSelected(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, func() (bool, error) {
		return s.editor.DeleteSelected(r.Context())
	}, "nothing deletable selected")
}

func (s *Server) handleEditField(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	s.mutate(w, func() (bool, error) {
		return s.editor.EditField(r.Context(), req.Field, req.Value)
	}, "field not editable on the selected entity")
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	c := s.editor.Search(r.URL.Query().Get("q"))
	s.writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleRelayout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Direction string `json:"direction"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if err := s.editor.Relayout(r.Context(), layout.Direction(req.Direction)); err != nil {
		if errors.Is(err, layout.ErrInvalidDirection) {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeBoard(w)
}

func (s *Server) handleExport(w http.ResponseWriter, _ *http.Request) {
	doc, err := s.editor.Export()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", org.DefaultFilename))
	_, _ = w.Write(doc)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	doc, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("read request: %w", err))
		return
	}
	if err := s.editor.Load(r.Context(), doc); err != nil {
		// A rejected document leaves the prior session intact.
		if errors.Is(err, org.ErrParse) || errors.Is(err, org.ErrShape) {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeBoard(w)
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	names, err := s.snapshots.List(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"snapshots": names})
}

func (s *Server) handleSaveSnapshot(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	doc, err := s.editor.Export()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if err := s.snapshots.Save(r.Context(), name, doc); err != nil {
		if errors.Is(err, store.ErrInvalidName) {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.logger.Info("saved snapshot", "name", name)
	s.writeJSON(w, http.StatusOK, map[string]string{"name": name})
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	doc, err := s.snapshots.Load(r.Context(), name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, err)
			return
		}
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(doc)
}

func (s *Server) handleRestoreSnapshot(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	doc, err := s.snapshots.Load(r.Context(), name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, err)
			return
		}
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if err := s.editor.Load(r.Context(), doc); err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	s.logger.Info("restored snapshot", "name", name)
	s.writeBoard(w)
}

func (s *Server) handleDeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.snapshots.Delete(r.Context(), name); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
