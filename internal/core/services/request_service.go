package services

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jeplugins/request-board/internal/core/domain"
	"github.com/jeplugins/request-board/internal/core/ports"
)

const (
	minTitleLength = 5
	rateWindow     = 5 * time.Minute
	listLimit      = 50
)

type requestService struct {
	repo  ports.RequestRepository
	votes ports.VoteService
	now   func() time.Time
}

func NewRequestService(repo ports.RequestRepository, votes ports.VoteService) ports.RequestService {
	return &requestService{
		repo:  repo,
		votes: votes,
		now:   time.Now,
	}
}

func (s *requestService) Submit(ctx context.Context, input ports.SubmitInput) (*ports.RequestView, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, &domain.ValidationError{Field: "title", Reason: "required"}
	}
	if utf8.RuneCountInString(title) < minTitleLength {
		return nil, &domain.ValidationError{Field: "title", Reason: fmt.Sprintf("must be at least %d characters", minTitleLength)}
	}

	email := strings.TrimSpace(input.Email)
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, &domain.ValidationError{Field: "email", Reason: "malformed address"}
		}
	}

	now := s.now()

	// Best-effort rate limiting: the check and the create below are not one
	// transaction, so two submissions racing within the window can both pass.
	if input.Voter.IP != "" {
		last, err := s.repo.LastSubmissionByIP(ctx, input.Voter.IP, now.Add(-rateWindow))
		if err != nil {
			return nil, fmt.Errorf("rate limit check: %w", err)
		}
		if last != nil {
			return nil, &domain.RateLimitError{RetryAfter: rateWindow - now.Sub(*last)}
		}
	}

	req := &domain.FeatureRequest{
		ID:             uuid.New(),
		Title:          title,
		Description:    strings.TrimSpace(input.Description),
		SubmitterEmail: email,
		SubmitterIP:    input.Voter.IP,
		Status:         domain.StatusPending,
		CreatedAt:      now,
	}
	s.votes.RecordInitialVote(req, input.Voter)

	if err := s.repo.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	view := s.view(req, input.Voter)
	return &view, nil
}

func (s *requestService) List(ctx context.Context, input ports.ListInput) ([]ports.RequestView, error) {
	status := input.Status
	if status == "all" {
		status = ""
	}
	sort := input.Sort
	if sort == "" {
		sort = ports.SortByVotes
	}

	reqs, err := s.repo.List(ctx, ports.ListFilter{Status: status, Sort: sort, Limit: listLimit})
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}

	views := make([]ports.RequestView, 0, len(reqs))
	for _, req := range reqs {
		views = append(views, s.view(req, input.Voter))
	}
	return views, nil
}

func (s *requestService) Get(ctx context.Context, id uuid.UUID, voter domain.VoterRecord) (*ports.RequestView, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	view := s.view(req, voter)
	return &view, nil
}

func (s *requestService) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.Status) error {
	if !status.Valid() {
		return domain.ErrInvalidStatus
	}
	return s.repo.SetStatus(ctx, id, status)
}

// view assembles the caller-facing shape. HasVoted always comes from the
// vote ledger so the identity rule lives in exactly one place.
func (s *requestService) view(req *domain.FeatureRequest, voter domain.VoterRecord) ports.RequestView {
	return ports.RequestView{
		ID:          req.ID,
		Title:       req.Title,
		Description: req.Description,
		VoteCount:   req.VoteCount,
		Status:      req.Status,
		CreatedAt:   req.CreatedAt,
		HasVoted:    s.votes.HasVoted(req, voter),
	}
}
