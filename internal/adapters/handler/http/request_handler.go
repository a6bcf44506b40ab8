package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jeplugins/request-board/internal/core/domain"
	"github.com/jeplugins/request-board/internal/core/ports"
)

type RequestHandler struct {
	service ports.RequestService
}

func NewRequestHandler(service ports.RequestService) *RequestHandler {
	return &RequestHandler{
		service: service,
	}
}

type submitRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Email       string `json:"email"`
	VoterToken  string `json:"voter_token"`
}

// ListRequests godoc
// @Summary      Lists feature requests
// @Description  Returns requests ordered by vote count (default) or creation date, annotated with the caller's own vote state.
// @Tags         requests
// @Param        status  query  string  false  "Filter by status, 'all' disables"
// @Param        sort    query  string  false  "votes or date"
// @Success      200
// @Router       /api/requests [get]
func (h *RequestHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	input := ports.ListInput{
		Status: r.URL.Query().Get("status"),
		Sort:   ports.SortOrder(r.URL.Query().Get("sort")),
		Voter:  ResolveVoter(r, ""),
	}

	views, err := h.service.List(r.Context(), input)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, views)
}

// SubmitRequest godoc
// @Summary      Submits a new feature request
// @Description  Creates a request with status pending and the submitter's vote already recorded.
// @Tags         requests
// @Accept       json
// @Success      201
// @Failure      400
// @Failure      429
// @Router       /api/requests [post]
func (h *RequestHandler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	input := ports.SubmitInput{
		Title:       req.Title,
		Description: req.Description,
		Email:       req.Email,
		Voter:       ResolveVoter(r, req.VoterToken),
	}

	view, err := h.service.Submit(r.Context(), input)
	if err != nil {
		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) {
			http.Error(w, validationErr.Error(), http.StatusBadRequest)
			return
		}
		var rateLimitErr *domain.RateLimitError
		if errors.As(err, &rateLimitErr) {
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(rateLimitErr.RetryAfter.Seconds())+1))
			http.Error(w, "please wait a few minutes before submitting another request", http.StatusTooManyRequests)
			return
		}

		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, view)
}

func (h *RequestHandler) GetRequest(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid request id", http.StatusBadRequest)
		return
	}

	view, err := h.service.Get(r.Context(), id, ResolveVoter(r, ""))
	if err != nil {
		if errors.Is(err, domain.ErrRequestNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}

		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus is the administrative status capability; the router only
// exposes it behind the admin token middleware. Voting never reaches it.
func (h *RequestHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid request id", http.StatusBadRequest)
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.UpdateStatus(r.Context(), id, domain.Status(req.Status)); err != nil {
		if errors.Is(err, domain.ErrInvalidStatus) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if errors.Is(err, domain.ErrRequestNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}

		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}
