// Package handlers provides HTTP handlers for style analysis runs.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/stylescope/internal/domain"
	"github.com/aristath/stylescope/internal/modules/analysis"
)

// Handler handles analysis HTTP requests
type Handler struct {
	service *analysis.Service
	log     zerolog.Logger
}

// NewHandler creates a new analysis handler
func NewHandler(service *analysis.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "analysis").Logger(),
	}
}

// runRequest is the wire form of an analysis request. All fields are
// optional as a group: an empty body runs the configured default universe.
type runRequest struct {
	Factors []struct {
		Name   string `json:"name"`
		Ticker string `json:"ticker"`
	} `json:"factors"`
	Instruments []string `json:"instruments"`
	StartDate   string   `json:"start_date"` // YYYY-MM-DD
	EndDate     string   `json:"end_date"`   // YYYY-MM-DD
	Frequency   string   `json:"frequency"`  // daily | monthly
}

// HandleRun handles POST /api/analysis/run
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseRunRequest(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.Run(req)
	if err != nil {
		h.writeError(w, runErrorStatus(err), "Analysis failed: "+err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// HandleGet handles GET /api/analysis/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	result, ok := h.service.Get(id)
	if !ok {
		h.writeError(w, http.StatusNotFound, "No run with ID "+id)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// HandleLatest handles GET /api/analysis/latest
func (h *Handler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	result, ok := h.service.Latest()
	if !ok {
		h.writeError(w, http.StatusNotFound, "No analysis has run yet")
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// HandleLatestText handles GET /api/analysis/latest/text
func (h *Handler) HandleLatestText(w http.ResponseWriter, r *http.Request) {
	result, ok := h.service.Latest()
	if !ok {
		h.writeError(w, http.StatusNotFound, "No analysis has run yet")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, analysis.RenderText(result)); err != nil {
		h.log.Error().Err(err).Msg("Failed to write text report")
	}
}

// parseRunRequest decodes the request body, falling back to the configured
// default request when the body is empty.
func (h *Handler) parseRunRequest(r *http.Request) (analysis.Request, error) {
	var wire runRequest
	if err := json.NewDecoder(r.Body).Decode(&wire); err != nil {
		if errors.Is(err, io.EOF) {
			req, ok := h.service.DefaultRequest()
			if !ok {
				return analysis.Request{}, errors.New("empty request body and no default universe configured")
			}
			return req, nil
		}
		return analysis.Request{}, errors.New("invalid request body: " + err.Error())
	}

	freq, err := domain.ParseFrequency(wire.Frequency)
	if err != nil {
		return analysis.Request{}, err
	}
	start, err := time.Parse("2006-01-02", wire.StartDate)
	if err != nil {
		return analysis.Request{}, errors.New("invalid start_date: " + wire.StartDate)
	}
	end, err := time.Parse("2006-01-02", wire.EndDate)
	if err != nil {
		return analysis.Request{}, errors.New("invalid end_date: " + wire.EndDate)
	}

	req := analysis.Request{
		Instruments: wire.Instruments,
		Start:       start,
		End:         end,
		Frequency:   freq,
	}
	for _, f := range wire.Factors {
		req.Factors = append(req.Factors, domain.Factor{Name: f.Name, Ticker: f.Ticker})
	}
	return req, nil
}

// runErrorStatus maps run failures to HTTP statuses: upstream data problems
// are gateway errors, everything else is a server error.
func runErrorStatus(err error) int {
	var pre *domain.PriceRetrievalError
	if errors.As(err, &pre) {
		return http.StatusBadGateway
	}
	if errors.Is(err, domain.ErrInsufficientData) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
