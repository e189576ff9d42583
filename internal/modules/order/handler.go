package order

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/georgemunganga/printa-fulfillment/internal/apperr"
	"github.com/georgemunganga/printa-fulfillment/internal/modules/pricing"
	"github.com/go-chi/chi/v5"
)

// maxBatch bounds a single batch submission.
const maxBatch = 1000

// Handler exposes request processing over HTTP. ?view=public returns
// disclosures instead of full result records.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/requests", func(r chi.Router) {
		r.Post("/", h.process)
		r.Post("/batch", h.processBatch)
		r.Get("/", h.list) // ?item=&state=&status=&limit=
		r.Get("/{id}", h.get)
	})
}

func (h *Handler) process(w http.ResponseWriter, r *http.Request) {
	var req QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	res, err := h.service.Process(r.Context(), req)
	if err != nil {
		respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	code := http.StatusCreated
	if res.State == StateRejected {
		code = http.StatusUnprocessableEntity
	}
	respond(w, code, view(r, res))
}

func (h *Handler) processBatch(w http.ResponseWriter, r *http.Request) {
	var reqs []QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if len(reqs) == 0 || len(reqs) > maxBatch {
		respond(w, http.StatusBadRequest, map[string]string{"error": "batch must hold between 1 and 1000 requests"})
		return
	}
	results, err := h.service.ProcessBatch(r.Context(), reqs)
	if err != nil {
		respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, viewAll(r, results))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := ListFilter{
		Item:   q.Get("item"),
		State:  State(q.Get("state")),
		Status: pricing.Status(q.Get("status")),
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			respond(w, http.StatusBadRequest, map[string]string{"error": "limit must be a non-negative integer"})
			return
		}
		f.Limit = limit
	}
	results, err := h.service.List(r.Context(), f)
	if err != nil {
		respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, viewAll(r, results))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, view(r, res))
}

func public(r *http.Request) bool { return r.URL.Query().Get("view") == "public" }

func view(r *http.Request, res *Result) any {
	if public(r) {
		return res.Disclosure()
	}
	return res
}

func viewAll(r *http.Request, results []*Result) any {
	if public(r) {
		out := make([]Disclosure, len(results))
		for i, res := range results {
			out[i] = res.Disclosure()
		}
		return out
	}
	if results == nil {
		return []*Result{}
	}
	return results
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
