package ledger

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/georgemunganga/printa-fulfillment/internal/apperr"
	"github.com/go-chi/chi/v5"
)

// Handler exposes read-only ledger endpoints. Writes go through the request
// processor and inventory adjustments.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/ledger", func(r chi.Router) {
		r.Get("/snapshot", h.snapshot)
		r.Get("/history/{item}", h.history)
		r.Get("/transactions", h.transactions)
	})
}

func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) {
	asOf, err := AsOfParam(r)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	snap, err := h.service.Snapshot(r.Context(), asOf)
	if err != nil {
		respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, snap)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	item, err := url.PathUnescape(chi.URLParam(r, "item"))
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	txs, err := h.service.History(r.Context(), item)
	if err != nil {
		respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, txs)
}

func (h *Handler) transactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.service.Transactions(r.Context())
	if err != nil {
		respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, txs)
}

// AsOfParam reads ?as_of=YYYY-MM-DD, defaulting to today.
func AsOfParam(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("as_of")
	if raw == "" {
		return Day(time.Now()), nil
	}
	asOf, err := ParseDate(raw)
	if err != nil {
		return time.Time{}, apperr.InvalidRequest("invalid as_of %q: expected YYYY-MM-DD", raw)
	}
	return asOf, nil
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
