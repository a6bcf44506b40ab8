package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeplugins/request-board/internal/adapters/repository/memory"
	"github.com/jeplugins/request-board/internal/core/domain"
	"github.com/jeplugins/request-board/internal/core/ports"
)

func seedRequest(t *testing.T, repo ports.RequestRepository, voters ...domain.VoterRecord) uuid.UUID {
	t.Helper()

	req := &domain.FeatureRequest{
		ID:        uuid.New(),
		Title:     "Dark Mode",
		Status:    domain.StatusPending,
		Voters:    voters,
		VoteCount: len(voters),
		CreatedAt: time.Now(),
	}
	require.NoError(t, repo.Create(context.Background(), req))
	return req.ID
}

func TestToggleAddsVote(t *testing.T) {
	repo := memory.NewRequestRepository()
	svc := NewVoteService(repo)
	id := seedRequest(t, repo)

	result, err := svc.Toggle(context.Background(), id, domain.VoterRecord{IP: "9.9.9.9", Token: "abc"})
	require.NoError(t, err)

	assert.Equal(t, ports.ActionVoted, result.Action)
	assert.Equal(t, 1, result.VoteCount)

	req, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, []domain.VoterRecord{{IP: "9.9.9.9", Token: "abc"}}, req.Voters)
	assert.Equal(t, 1, req.VoteCount)
}

func TestToggleRemovesVoteOnIPMatch(t *testing.T) {
	repo := memory.NewRequestRepository()
	svc := NewVoteService(repo)
	id := seedRequest(t, repo, domain.VoterRecord{IP: "1.2.3.4"})

	// Different token, same IP: still the same voter.
	result, err := svc.Toggle(context.Background(), id, domain.VoterRecord{IP: "1.2.3.4", Token: "xyz"})
	require.NoError(t, err)

	assert.Equal(t, ports.ActionUnvoted, result.Action)
	assert.Equal(t, 0, result.VoteCount)

	req, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Empty(t, req.Voters)
	assert.Equal(t, 0, req.VoteCount)
}

func TestToggleRemovesOnlyFirstMatch(t *testing.T) {
	repo := memory.NewRequestRepository()
	svc := NewVoteService(repo)
	id := seedRequest(t, repo,
		domain.VoterRecord{IP: "1.2.3.4"},
		domain.VoterRecord{Token: "tok-1"},
	)

	// Matches both stored records; only the first goes away.
	result, err := svc.Toggle(context.Background(), id, domain.VoterRecord{IP: "1.2.3.4", Token: "tok-1"})
	require.NoError(t, err)

	assert.Equal(t, ports.ActionUnvoted, result.Action)
	assert.Equal(t, 1, result.VoteCount)

	req, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, []domain.VoterRecord{{Token: "tok-1"}}, req.Voters)
}

func TestToggleTwiceRestoresOriginalState(t *testing.T) {
	repo := memory.NewRequestRepository()
	svc := NewVoteService(repo)
	id := seedRequest(t, repo, domain.VoterRecord{IP: "5.5.5.5", Token: "seed"})

	voter := domain.VoterRecord{IP: "9.9.9.9", Token: "abc"}

	first, err := svc.Toggle(context.Background(), id, voter)
	require.NoError(t, err)
	assert.Equal(t, ports.ActionVoted, first.Action)
	assert.Equal(t, 2, first.VoteCount)

	second, err := svc.Toggle(context.Background(), id, voter)
	require.NoError(t, err)
	assert.Equal(t, ports.ActionUnvoted, second.Action)
	assert.Equal(t, 1, second.VoteCount)

	req, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, []domain.VoterRecord{{IP: "5.5.5.5", Token: "seed"}}, req.Voters)
}

func TestToggleUnknownRequest(t *testing.T) {
	repo := memory.NewRequestRepository()
	svc := NewVoteService(repo)

	_, err := svc.Toggle(context.Background(), uuid.New(), domain.VoterRecord{IP: "1.2.3.4"})
	assert.ErrorIs(t, err, domain.ErrRequestNotFound)
}

func TestHasVotedUsesFirstMatchRule(t *testing.T) {
	repo := memory.NewRequestRepository()
	svc := NewVoteService(repo)

	req := &domain.FeatureRequest{
		Voters: []domain.VoterRecord{
			{IP: "1.2.3.4"},
			{Token: "tok-1"},
		},
	}

	assert.True(t, svc.HasVoted(req, domain.VoterRecord{IP: "1.2.3.4", Token: "tok-1"}))
	assert.True(t, svc.HasVoted(req, domain.VoterRecord{Token: "tok-1"}))
	assert.True(t, svc.HasVoted(req, domain.VoterRecord{IP: "1.2.3.4"}))
	assert.False(t, svc.HasVoted(req, domain.VoterRecord{IP: "9.9.9.9", Token: "tok-9"}))
	assert.False(t, svc.HasVoted(req, domain.VoterRecord{}))
}

func TestRecordInitialVote(t *testing.T) {
	svc := NewVoteService(memory.NewRequestRepository())

	req := &domain.FeatureRequest{}
	svc.RecordInitialVote(req, domain.VoterRecord{IP: "1.2.3.4", Token: "tok-1"})

	assert.Equal(t, []domain.VoterRecord{{IP: "1.2.3.4", Token: "tok-1"}}, req.Voters)
	assert.Equal(t, 1, req.VoteCount)
}

func TestConcurrentTogglesDistinctIdentities(t *testing.T) {
	repo := memory.NewRequestRepository()
	svc := NewVoteService(repo)
	id := seedRequest(t, repo)

	const voters = 25

	var wg sync.WaitGroup
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			voter := domain.VoterRecord{IP: fmt.Sprintf("10.0.0.%d", n+1), Token: uuid.NewString()}
			_, err := svc.Toggle(context.Background(), id, voter)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	req, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, voters, req.VoteCount, "no vote from a distinct identity may be lost")
	assert.Len(t, req.Voters, req.VoteCount)
}

func TestConcurrentTogglesSameIdentity(t *testing.T) {
	repo := memory.NewRequestRepository()
	svc := NewVoteService(repo)
	id := seedRequest(t, repo)

	voter := domain.VoterRecord{IP: "1.2.3.4", Token: "tok-1"}

	const toggles = 10 // even: votes and unvotes must cancel out

	var wg sync.WaitGroup
	for i := 0; i < toggles; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Toggle(context.Background(), id, voter)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	req, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Len(t, req.Voters, req.VoteCount, "count may never diverge from the list")
	assert.Equal(t, 0, req.VoteCount)
}
