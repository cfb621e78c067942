// Package web exposes the core to presentation clients over HTTP and a
// quiz WebSocket.
package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/mindprep/mindprep/internal/attendance"
	"github.com/mindprep/mindprep/internal/credential"
	"github.com/mindprep/mindprep/internal/export"
	"github.com/mindprep/mindprep/internal/gemini"
	"github.com/mindprep/mindprep/internal/notes"
	"github.com/mindprep/mindprep/internal/quiz"
	"github.com/mindprep/mindprep/internal/quota"
	"github.com/mindprep/mindprep/internal/topics"
)

// QuestionGenerator is the slice of the gemini client the server needs.
type QuestionGenerator interface {
	GenerateQuestions(ctx context.Context, topic string, count int) ([]quiz.Question, error)
}

// Server wires the core components behind HTTP handlers.
type Server struct {
	tree       *topics.Tree
	controller *quiz.Controller
	generator  QuestionGenerator
	ledger     *quota.Ledger
	book       *notes.Book
	calendar   *attendance.Calendar
	vault      *credential.Vault
	batchSize  int
}

// Config holds the Server dependencies.
type Config struct {
	Tree       *topics.Tree
	Controller *quiz.Controller
	Generator  QuestionGenerator
	Ledger     *quota.Ledger
	Notes      *notes.Book
	Calendar   *attendance.Calendar
	Vault      *credential.Vault
	BatchSize  int
}

// NewServer creates a Server.
func NewServer(cfg Config) *Server {
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = gemini.DefaultBatchSize
	}
	return &Server{
		tree:       cfg.Tree,
		controller: cfg.Controller,
		generator:  cfg.Generator,
		ledger:     cfg.Ledger,
		book:       cfg.Notes,
		calendar:   cfg.Calendar,
		vault:      cfg.Vault,
		batchSize:  batch,
	}
}

// Routes builds the HTTP router.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)

	mux.HandleFunc("GET /api/topics", s.handleTopics)
	mux.HandleFunc("GET /api/attempts", s.handleAttempts)
	mux.HandleFunc("GET /api/attempts/export", s.handleAttemptsExport)
	mux.HandleFunc("GET /api/quota", s.handleQuota)

	mux.HandleFunc("GET /api/notes", s.handleNotesList)
	mux.HandleFunc("POST /api/notes", s.handleNotesAdd)
	mux.HandleFunc("DELETE /api/notes/{id}", s.handleNotesDelete)

	mux.HandleFunc("GET /api/attendance", s.handleAttendanceMonth)
	mux.HandleFunc("POST /api/attendance/toggle", s.handleAttendanceToggle)

	mux.HandleFunc("PUT /api/credential", s.handleCredentialPut)
	mux.HandleFunc("DELETE /api/credential", s.handleCredentialDelete)

	mux.HandleFunc("GET /ws/quiz", s.handleQuizSocket)

	return mux
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	// The store is exercised through the ledger; a failing read means
	// persistence is down.
	if _, err := s.ledger.Count(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleTopics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"branches": s.tree.Branches()})
}

func (s *Server) handleAttempts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"attempts": s.controller.Attempts()})
}

func (s *Server) handleAttemptsExport(w http.ResponseWriter, _ *http.Request) {
	// Render fully before any header goes out, so a workbook error can
	// still become an error status instead of a truncated 200.
	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, s.controller.Attempts()); err != nil {
		slog.Error("attempt export failed", "error", err)
		writeError(w, http.StatusInternalServerError, "rendering export failed")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="quiz-attempts.xlsx"`)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("writing export response", "error", err)
	}
}

func (s *Server) handleQuota(w http.ResponseWriter, r *http.Request) {
	remaining, err := s.ledger.Remaining(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "reading quota failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{
		"limit":     s.ledger.Limit(),
		"remaining": remaining,
	})
}

func (s *Server) handleNotesList(w http.ResponseWriter, r *http.Request) {
	list, err := s.book.List(r.Context(), r.URL.Query().Get("branch"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "reading notes failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notes": list})
}

func (s *Server) handleNotesAdd(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text   string `json:"text"`
		Branch string `json:"branch"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	note, err := s.book.Add(r.Context(), req.Text, req.Branch)
	if err != nil {
		if errors.Is(err, notes.ErrEmptyText) {
			writeError(w, http.StatusBadRequest, "note text is empty")
			return
		}
		writeError(w, http.StatusInternalServerError, "saving note failed")
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

func (s *Server) handleNotesDelete(w http.ResponseWriter, r *http.Request) {
	err := s.book.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, notes.ErrNotFound) {
			writeError(w, http.StatusNotFound, "note not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "deleting note failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAttendanceMonth(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	year, month := now.Year(), now.Month()
	if y := r.URL.Query().Get("year"); y != "" {
		if n, err := strconv.Atoi(y); err == nil {
			year = n
		}
	}
	if m := r.URL.Query().Get("month"); m != "" {
		if n, err := strconv.Atoi(m); err == nil && n >= 1 && n <= 12 {
			month = time.Month(n)
		}
	}

	days, err := s.calendar.Month(r.Context(), year, month)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "reading attendance failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"year":  year,
		"month": int(month),
		"days":  days,
	})
}

func (s *Server) handleAttendanceToggle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date string `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	present, err := s.calendar.Toggle(r.Context(), req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"date": req.Date, "present": present})
}

func (s *Server) handleCredentialPut(w http.ResponseWriter, r *http.Request) {
	var req struct {
		APIKey string `json:"apiKey"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.vault.SetAPIKey(r.Context(), req.APIKey); err != nil {
		if errors.Is(err, credential.ErrEmptyKey) {
			writeError(w, http.StatusBadRequest, "API key is empty")
			return
		}
		writeError(w, http.StatusInternalServerError, "saving API key failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

func (s *Server) handleCredentialDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.vault.Clear(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "clearing API key failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
