package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/jeplugins/request-board/internal/core/domain"
)

type ToggleAction string

const (
	ActionVoted   ToggleAction = "voted"
	ActionUnvoted ToggleAction = "unvoted"
)

type ToggleResult struct {
	Action    ToggleAction
	VoteCount int
}

// VoteService is the vote ledger. It owns the voter identity matching rule;
// every has-voted answer in the system must come from here.
type VoteService interface {
	// HasVoted reports whether voter already has a vote recorded on req.
	// Pure query over the loaded request, no side effects.
	HasVoted(req *domain.FeatureRequest, voter domain.VoterRecord) bool

	// Toggle removes the first record matching voter, or appends a new one
	// when none matches. Atomic per request.
	Toggle(ctx context.Context, id uuid.UUID, voter domain.VoterRecord) (*ToggleResult, error)

	// RecordInitialVote seeds a request being created with the submitter's
	// vote. Calling it on an already-persisted request is a caller error.
	RecordInitialVote(req *domain.FeatureRequest, voter domain.VoterRecord)
}
