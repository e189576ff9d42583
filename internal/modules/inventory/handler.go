package inventory

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/georgemunganga/printa-fulfillment/internal/apperr"
	"github.com/georgemunganga/printa-fulfillment/internal/modules/ledger"
	"github.com/go-chi/chi/v5"
)

// Handler exposes inventory HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/inventory", func(r chi.Router) {
		r.Get("/report", h.report) // ?as_of=YYYY-MM-DD
		r.Post("/adjustments", h.adjust)
		r.Get("/{item}", h.level)
	})
}

func (h *Handler) level(w http.ResponseWriter, r *http.Request) {
	item, err := url.PathUnescape(chi.URLParam(r, "item"))
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	asOf, err := ledger.AsOfParam(r)
	if err != nil {
		respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	level, err := h.service.Level(r.Context(), item, asOf)
	if err != nil {
		respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, level)
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	asOf, err := ledger.AsOfParam(r)
	if err != nil {
		respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	report, err := h.service.Report(r.Context(), asOf)
	if err != nil {
		respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, report)
}

func (h *Handler) adjust(w http.ResponseWriter, r *http.Request) {
	var req AdjustmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	tx, err := h.service.Adjust(r.Context(), req)
	if err != nil {
		respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusCreated, tx)
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
