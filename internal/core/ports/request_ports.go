package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jeplugins/request-board/internal/core/domain"
)

type SortOrder string

const (
	SortByVotes SortOrder = "votes"
	SortByDate  SortOrder = "date"
)

type ListFilter struct {
	Status string // "" matches every status
	Sort   SortOrder
	Limit  int
}

// RequestRepository is the content-store boundary for feature requests.
type RequestRepository interface {
	Create(ctx context.Context, req *domain.FeatureRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.FeatureRequest, error)
	List(ctx context.Context, filter ListFilter) ([]*domain.FeatureRequest, error)

	// Mutate applies fn to the stored request while holding an exclusive
	// per-request lock, then persists Voters and VoteCount as a single unit.
	// The returned request reflects the persisted state.
	Mutate(ctx context.Context, id uuid.UUID, fn func(*domain.FeatureRequest) error) (*domain.FeatureRequest, error)

	// SetStatus is the administrative status capability; it never touches
	// voters or the vote count.
	SetStatus(ctx context.Context, id uuid.UUID, status domain.Status) error

	// LastSubmissionByIP returns the creation time of the most recent request
	// submitted from ip after since, or nil when there is none.
	LastSubmissionByIP(ctx context.Context, ip string, since time.Time) (*time.Time, error)
}

type SubmitInput struct {
	Title       string
	Description string
	Email       string
	Voter       domain.VoterRecord
}

type ListInput struct {
	Status string // "" or "all" disables the filter
	Sort   SortOrder
	Voter  domain.VoterRecord
}

// RequestView is a request as presented to the caller, annotated with the
// caller's own vote state.
type RequestView struct {
	ID          uuid.UUID     `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	VoteCount   int           `json:"voteCount"`
	Status      domain.Status `json:"status"`
	CreatedAt   time.Time     `json:"createdAt"`
	HasVoted    bool          `json:"hasVoted"`
}

type RequestService interface {
	Submit(ctx context.Context, input SubmitInput) (*RequestView, error)
	List(ctx context.Context, input ListInput) ([]RequestView, error)
	Get(ctx context.Context, id uuid.UUID, voter domain.VoterRecord) (*RequestView, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.Status) error
}
