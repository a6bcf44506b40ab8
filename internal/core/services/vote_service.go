package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/jeplugins/request-board/internal/core/domain"
	"github.com/jeplugins/request-board/internal/core/ports"
)

type voteService struct {
	repo ports.RequestRepository
}

func NewVoteService(repo ports.RequestRepository) ports.VoteService {
	return &voteService{
		repo: repo,
	}
}

func (s *voteService) HasVoted(req *domain.FeatureRequest, voter domain.VoterRecord) bool {
	return req.FindVoter(voter) >= 0
}

func (s *voteService) Toggle(ctx context.Context, id uuid.UUID, voter domain.VoterRecord) (*ports.ToggleResult, error) {
	var result ports.ToggleResult

	_, err := s.repo.Mutate(ctx, id, func(req *domain.FeatureRequest) error {
		if i := req.FindVoter(voter); i >= 0 {
			// Unvote removes only the first matching record; later records
			// that also match stay untouched.
			req.Voters = append(req.Voters[:i], req.Voters[i+1:]...)
			result.Action = ports.ActionUnvoted
		} else {
			req.Voters = append(req.Voters, voter)
			result.Action = ports.ActionVoted
		}
		req.VoteCount = len(req.Voters)
		result.VoteCount = req.VoteCount
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (s *voteService) RecordInitialVote(req *domain.FeatureRequest, voter domain.VoterRecord) {
	req.Voters = []domain.VoterRecord{voter}
	req.VoteCount = 1
}
