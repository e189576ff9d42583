package pricing

import (
	"encoding/json"
	"net/http"

	"github.com/georgemunganga/printa-fulfillment/internal/apperr"
	"github.com/georgemunganga/printa-fulfillment/internal/modules/ledger"
	"github.com/go-chi/chi/v5"
)

// Handler exposes dry-run quoting. Nothing is committed.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/quotes", func(r chi.Router) {
		r.Post("/", h.quote) // ?view=public
		r.Get("/policy", h.getPolicy)
	})
}

func (h *Handler) quote(w http.ResponseWriter, r *http.Request) {
	var in QuoteInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	date, err := ledger.ParseDate(in.Date)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid date: expected YYYY-MM-DD"})
		return
	}
	q, err := h.service.Quote(r.Context(), Request{Item: in.Item, Quantity: in.Quantity, Date: date})
	if err != nil {
		respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	if r.URL.Query().Get("view") == "public" {
		respond(w, http.StatusOK, q.Public())
		return
	}
	respond(w, http.StatusOK, q)
}

func (h *Handler) getPolicy(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, h.service.Policy())
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
