package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jeplugins/request-board/internal/core/domain"
	"github.com/jeplugins/request-board/internal/core/ports"
)

type VoteHandler struct {
	service ports.VoteService
}

func NewVoteHandler(service ports.VoteService) *VoteHandler {
	return &VoteHandler{
		service: service,
	}
}

type voteRequest struct {
	VoterToken string `json:"voter_token"`
}

type voteResponse struct {
	Action    ports.ToggleAction `json:"action"`
	VoteCount int                `json:"voteCount"`
	HasVoted  bool               `json:"hasVoted"`
}

// ToggleVote godoc
// @Summary      Toggles the caller's vote on a request
// @Description  Adds a vote when the caller has none recorded, removes it otherwise. The server decides from the resolved identity; the client keeps no vote state.
// @Tags         votes
// @Accept       json
// @Success      200
// @Failure      404
// @Router       /api/requests/{id}/vote [post]
func (h *VoteHandler) ToggleVote(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid request id", http.StatusBadRequest)
		return
	}

	// An empty body is fine: clients without a persisted token vote on IP
	// identity alone.
	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.service.Toggle(r.Context(), id, ResolveVoter(r, req.VoterToken))
	if err != nil {
		if errors.Is(err, domain.ErrRequestNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}

		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, voteResponse{
		Action:    result.Action,
		VoteCount: result.VoteCount,
		HasVoted:  result.Action == ports.ActionVoted,
	})
}
