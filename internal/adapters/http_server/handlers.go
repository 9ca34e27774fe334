package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"landlord_reviews/internal/adapters/observability"
	"landlord_reviews/internal/app"
	"landlord_reviews/internal/domain"
)

const (
	internalErrorMessage = "There is something wrong with the server! Please try again later!"
	maxBodyBytes         = 1 << 20
)

type Handlers struct {
	Reviews *app.ReviewService
	Store   domain.Pinger // optional; backs /readyz
}

type message struct {
	Message string `json:"message"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/readyz", h.ready)
	s.mux.Route("/api", func(r chi.Router) {
		r.Post("/reviews", h.createReview)
		r.Get("/reviews", h.getReviews)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// fail maps err onto the response: validation problems are echoed to the
// caller, everything else is logged and answered with a generic 500.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, message{Message: ve.Error()})
		return
	}
	log.Error().Err(err).
		Str("route", routeOf(r)).
		Str("method", r.Method).
		Str("request_id", chimw.GetReqID(r.Context())).
		Msg("request failed")
	writeJSON(w, http.StatusInternalServerError, message{Message: internalErrorMessage})
}

func (h *Handlers) createReview(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&raw)
	if err != nil && !errors.Is(err, io.EOF) {
		fail(w, r, &domain.ValidationError{Message: "Invalid JSON body"})
		return
	}
	// an empty body or a non-object (array, scalar, null) has no fields,
	// so every field is reported missing
	var req app.SubmitReview
	if len(raw) > 0 && raw[0] == '{' {
		if err := json.Unmarshal(raw, &req); err != nil {
			fail(w, r, &domain.ValidationError{Message: "Invalid JSON body"})
			return
		}
	}

	rv, err := h.Reviews.Submit(r.Context(), req)
	if err != nil {
		fail(w, r, err)
		return
	}
	observability.ReviewsSubmitted.Inc()
	writeJSON(w, http.StatusCreated, rv)
}

func (h *Handlers) getReviews(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := h.Reviews.Near(r.Context(), app.NearQuery{Lat: q.Get("lat"), Lng: q.Get("lng")})
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) ready(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		writeJSON(w, http.StatusOK, message{Message: "ok"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("readiness check failed")
		writeJSON(w, http.StatusServiceUnavailable, message{Message: "review store unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, message{Message: "ok"})
}
