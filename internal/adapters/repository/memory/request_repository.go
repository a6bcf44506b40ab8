// Package memory is an in-process RequestRepository used when no database is
// configured and by unit tests. Per-request mutexes give Mutate the same
// serialization the postgres adapter gets from row locks.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jeplugins/request-board/internal/core/domain"
	"github.com/jeplugins/request-board/internal/core/ports"
)

type entry struct {
	mu  sync.Mutex
	req domain.FeatureRequest
}

type requestRepository struct {
	mu   sync.RWMutex
	byID map[uuid.UUID]*entry
}

func NewRequestRepository() ports.RequestRepository {
	return &requestRepository{
		byID: make(map[uuid.UUID]*entry),
	}
}

func (r *requestRepository) Create(_ context.Context, req *domain.FeatureRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[req.ID] = &entry{req: clone(req)}
	return nil
}

func (r *requestRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.FeatureRequest, error) {
	e, err := r.entry(id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	req := clone(&e.req)
	return &req, nil
}

func (r *requestRepository) List(_ context.Context, filter ports.ListFilter) ([]*domain.FeatureRequest, error) {
	r.mu.RLock()
	reqs := make([]*domain.FeatureRequest, 0, len(r.byID))
	for _, e := range r.byID {
		e.mu.Lock()
		req := clone(&e.req)
		e.mu.Unlock()
		if filter.Status != "" && string(req.Status) != filter.Status {
			continue
		}
		reqs = append(reqs, &req)
	}
	r.mu.RUnlock()

	sort.Slice(reqs, func(i, j int) bool {
		if filter.Sort == ports.SortByDate {
			return reqs[i].CreatedAt.After(reqs[j].CreatedAt)
		}
		if reqs[i].VoteCount != reqs[j].VoteCount {
			return reqs[i].VoteCount > reqs[j].VoteCount
		}
		return reqs[i].CreatedAt.After(reqs[j].CreatedAt)
	})

	if filter.Limit > 0 && len(reqs) > filter.Limit {
		reqs = reqs[:filter.Limit]
	}
	return reqs, nil
}

func (r *requestRepository) Mutate(_ context.Context, id uuid.UUID, fn func(*domain.FeatureRequest) error) (*domain.FeatureRequest, error) {
	e, err := r.entry(id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	req := clone(&e.req)
	if err := fn(&req); err != nil {
		return nil, err
	}
	req.VoteCount = len(req.Voters)
	e.req = clone(&req)

	out := clone(&req)
	return &out, nil
}

func (r *requestRepository) SetStatus(_ context.Context, id uuid.UUID, status domain.Status) error {
	e, err := r.entry(id)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.req.Status = status
	return nil
}

func (r *requestRepository) LastSubmissionByIP(_ context.Context, ip string, since time.Time) (*time.Time, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var last *time.Time
	for _, e := range r.byID {
		e.mu.Lock()
		createdAt := e.req.CreatedAt
		submitterIP := e.req.SubmitterIP
		e.mu.Unlock()

		if submitterIP != ip || !createdAt.After(since) {
			continue
		}
		if last == nil || createdAt.After(*last) {
			t := createdAt
			last = &t
		}
	}
	return last, nil
}

func (r *requestRepository) entry(id uuid.UUID) (*entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrRequestNotFound
	}
	return e, nil
}

func clone(req *domain.FeatureRequest) domain.FeatureRequest {
	out := *req
	out.Voters = make([]domain.VoterRecord, len(req.Voters))
	copy(out.Voters, req.Voters)
	return out
}
