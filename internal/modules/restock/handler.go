package restock

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/georgemunganga/printa-fulfillment/internal/apperr"
	"github.com/georgemunganga/printa-fulfillment/internal/modules/catalog"
	"github.com/georgemunganga/printa-fulfillment/internal/modules/ledger"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// Handler exposes supplier order endpoints.
type Handler struct {
	service  Service
	catalog  catalog.Service
	validate *validator.Validate
}

func NewHandler(service Service, catalogSvc catalog.Service) *Handler {
	return &Handler{service: service, catalog: catalogSvc, validate: validator.New()}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/restock", func(r chi.Router) {
		// ?item=&as_of=
		r.Get("/orders", h.listOrders)
		r.Post("/evaluate", h.evaluate)
		// ?quantity=&date=
		r.Get("/lead-time/{item}", h.leadTime)
	})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	asOf, err := ledger.AsOfParam(r)
	if err != nil {
		respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	orders, err := h.service.Orders(r.Context(), r.URL.Query().Get("item"), asOf)
	if err != nil {
		respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	if orders == nil {
		orders = []*SupplierOrder{}
	}
	respond(w, http.StatusOK, orders)
}

func (h *Handler) evaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	date, err := ledger.ParseDate(req.Date)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	order, err := h.service.Evaluate(r.Context(), req.Item, date)
	if err != nil {
		respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	if order == nil {
		respond(w, http.StatusOK, map[string]any{"ordered": false})
		return
	}
	respond(w, http.StatusCreated, order)
}

func (h *Handler) leadTime(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "item"))
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	item, err := h.catalog.Get(r.Context(), name)
	if err != nil {
		respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	qty := item.ReorderQuantity
	if raw := r.URL.Query().Get("quantity"); raw != "" {
		if qty, err = strconv.Atoi(raw); err != nil || qty <= 0 {
			respond(w, http.StatusBadRequest, map[string]string{"error": "quantity must be a positive integer"})
			return
		}
	}
	date := r.URL.Query().Get("date")
	orderDate, err := ledger.ParseDate(date)
	if date == "" || err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "date is required as YYYY-MM-DD"})
		return
	}
	respond(w, http.StatusOK, map[string]any{
		"item":          item.Name,
		"quantity":      qty,
		"order_date":    orderDate.Format(ledger.DateLayout),
		"lead_days":     h.service.LeadTime(item, qty),
		"delivery_date": h.service.DeliveryDate(item, qty, orderDate).Format(ledger.DateLayout),
	})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
