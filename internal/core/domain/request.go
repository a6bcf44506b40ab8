package domain

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusPlanned    Status = "planned"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusRejected   Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPlanned, StatusInProgress, StatusCompleted, StatusRejected:
		return true
	}
	return false
}

// VoterRecord attributes one vote to an anonymous visitor. Both fields are
// stored verbatim as resolved from the request; either may be empty.
type VoterRecord struct {
	IP    string `json:"ip"`
	Token string `json:"token"`
}

// SameVoter reports whether two records belong to the same visitor: the IPs
// are equal and non-empty, or the tokens are equal and non-empty. The rule is
// deliberately heuristic and not transitive.
func (v VoterRecord) SameVoter(other VoterRecord) bool {
	if v.IP != "" && other.IP != "" && v.IP == other.IP {
		return true
	}
	if v.Token != "" && other.Token != "" && v.Token == other.Token {
		return true
	}
	return false
}

type FeatureRequest struct {
	ID             uuid.UUID     `json:"id"`
	Title          string        `json:"title"`
	Description    string        `json:"description,omitempty"`
	SubmitterEmail string        `json:"-"`
	SubmitterIP    string        `json:"-"`
	Status         Status        `json:"status"`
	VoteCount      int           `json:"voteCount"`
	Voters         []VoterRecord `json:"-"`
	CreatedAt      time.Time     `json:"createdAt"`
}

// FindVoter returns the index of the first stored record matching voter in
// insertion order, or -1 when no record matches.
func (r *FeatureRequest) FindVoter(voter VoterRecord) int {
	for i, stored := range r.Voters {
		if stored.SameVoter(voter) {
			return i
		}
	}
	return -1
}
