// Package api exposes the quiz service over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/probquiz/probquiz/internal/quiz"
)

// Handler serves the quiz API.
type Handler struct {
	svc *quiz.Service
}

// NewHandler creates a Handler over the given service.
func NewHandler(svc *quiz.Service) *Handler {
	return &Handler{svc: svc}
}

// Router builds the full HTTP router: middleware, CORS and routes.
// allowedOrigins is the CORS allow-list; empty means same-origin only.
func Router(h *Handler, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(90 * time.Second))

	if len(allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", h.Health)
	r.Route("/api/quiz", func(r chi.Router) {
		r.Post("/generate", h.Generate)
		r.Post("/check", h.Check)
	})

	return r
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Generate handles POST /api/quiz/generate.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req quiz.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed JSON body")
		return
	}
	if len(req.Sections) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "at least one section is required")
		return
	}
	for _, s := range req.Sections {
		if s.ID == "" {
			writeError(w, http.StatusBadRequest, "bad_request", "every section needs an id")
			return
		}
	}

	res, err := h.svc.Generate(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// Check handles POST /api/quiz/check.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	var req quiz.CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed JSON body")
		return
	}
	if req.BatchID == "" || req.QuestionID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "batch_id and question_id are required")
		return
	}

	res, err := h.svc.Check(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// writeServiceError maps service sentinels to the wire taxonomy.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, quiz.ErrNotFound):
		writeError(w, http.StatusNotFound, "question_not_found", "unknown or expired batch or question")
	case errors.Is(err, quiz.ErrUpstream):
		writeError(w, http.StatusBadGateway, "upstream_unavailable", "the completion provider is unavailable")
	case errors.Is(err, quiz.ErrInvalidOutput):
		writeError(w, http.StatusBadGateway, "invalid_model_output", "the model produced no usable questions")
	default:
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"error":   code,
		"message": message,
	})
}
