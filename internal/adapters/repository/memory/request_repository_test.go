package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeplugins/request-board/internal/core/domain"
	"github.com/jeplugins/request-board/internal/core/ports"
)

func newRequest(title string, votes int, createdAt time.Time) *domain.FeatureRequest {
	voters := make([]domain.VoterRecord, votes)
	for i := range voters {
		voters[i] = domain.VoterRecord{Token: uuid.NewString()}
	}
	return &domain.FeatureRequest{
		ID:        uuid.New(),
		Title:     title,
		Status:    domain.StatusPending,
		Voters:    voters,
		VoteCount: votes,
		CreatedAt: createdAt,
	}
}

func TestCreateAndGet(t *testing.T) {
	repo := NewRequestRepository()
	req := newRequest("Dark Mode", 1, time.Now())

	require.NoError(t, repo.Create(context.Background(), req))

	got, err := repo.GetByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, req.Title, got.Title)
	assert.Equal(t, req.Voters, got.Voters)

	// The stored copy is isolated from later caller mutation.
	got.Voters[0].Token = "mutated"
	again, err := repo.GetByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", again.Voters[0].Token)
}

func TestGetUnknownID(t *testing.T) {
	repo := NewRequestRepository()

	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrRequestNotFound)
}

func TestListSortsAndLimits(t *testing.T) {
	repo := NewRequestRepository()
	now := time.Now()

	require.NoError(t, repo.Create(context.Background(), newRequest("Old popular", 5, now.Add(-2*time.Hour))))
	require.NoError(t, repo.Create(context.Background(), newRequest("New quiet", 1, now)))
	require.NoError(t, repo.Create(context.Background(), newRequest("Mid", 3, now.Add(-time.Hour))))

	byVotes, err := repo.List(context.Background(), ports.ListFilter{Sort: ports.SortByVotes})
	require.NoError(t, err)
	require.Len(t, byVotes, 3)
	assert.Equal(t, "Old popular", byVotes[0].Title)
	assert.Equal(t, "Mid", byVotes[1].Title)

	byDate, err := repo.List(context.Background(), ports.ListFilter{Sort: ports.SortByDate})
	require.NoError(t, err)
	assert.Equal(t, "New quiet", byDate[0].Title)

	limited, err := repo.List(context.Background(), ports.ListFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestListFiltersByStatus(t *testing.T) {
	repo := NewRequestRepository()

	planned := newRequest("Planned", 1, time.Now())
	planned.Status = domain.StatusPlanned
	require.NoError(t, repo.Create(context.Background(), planned))
	require.NoError(t, repo.Create(context.Background(), newRequest("Pending", 1, time.Now())))

	reqs, err := repo.List(context.Background(), ports.ListFilter{Status: "planned"})
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, "Planned", reqs[0].Title)
}

func TestMutatePersistsVotersAndCountTogether(t *testing.T) {
	repo := NewRequestRepository()
	req := newRequest("Dark Mode", 0, time.Now())
	require.NoError(t, repo.Create(context.Background(), req))

	got, err := repo.Mutate(context.Background(), req.ID, func(r *domain.FeatureRequest) error {
		r.Voters = append(r.Voters, domain.VoterRecord{IP: "1.2.3.4"})
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, got.VoteCount)

	stored, err := repo.GetByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Voters, stored.VoteCount)
}

func TestMutateConcurrentAppends(t *testing.T) {
	repo := NewRequestRepository()
	req := newRequest("Dark Mode", 0, time.Now())
	require.NoError(t, repo.Create(context.Background(), req))

	const writers = 50

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Mutate(context.Background(), req.ID, func(r *domain.FeatureRequest) error {
				r.Voters = append(r.Voters, domain.VoterRecord{Token: uuid.NewString()})
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := repo.GetByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, writers, stored.VoteCount)
	assert.Len(t, stored.Voters, writers)
}

func TestSetStatus(t *testing.T) {
	repo := NewRequestRepository()
	req := newRequest("Dark Mode", 2, time.Now())
	require.NoError(t, repo.Create(context.Background(), req))

	require.NoError(t, repo.SetStatus(context.Background(), req.ID, domain.StatusCompleted))

	stored, err := repo.GetByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, stored.Status)
	assert.Equal(t, 2, stored.VoteCount, "status changes never touch votes")

	assert.ErrorIs(t, repo.SetStatus(context.Background(), uuid.New(), domain.StatusPlanned), domain.ErrRequestNotFound)
}

func TestLastSubmissionByIP(t *testing.T) {
	repo := NewRequestRepository()
	now := time.Now()

	old := newRequest("Old", 1, now.Add(-10*time.Minute))
	old.SubmitterIP = "5.5.5.5"
	require.NoError(t, repo.Create(context.Background(), old))

	recent := newRequest("Recent", 1, now.Add(-time.Minute))
	recent.SubmitterIP = "5.5.5.5"
	require.NoError(t, repo.Create(context.Background(), recent))

	last, err := repo.LastSubmissionByIP(context.Background(), "5.5.5.5", now.Add(-5*time.Minute))
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.True(t, last.Equal(recent.CreatedAt))

	none, err := repo.LastSubmissionByIP(context.Background(), "6.6.6.6", now.Add(-5*time.Minute))
	require.NoError(t, err)
	assert.Nil(t, none)
}
