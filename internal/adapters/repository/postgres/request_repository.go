package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jeplugins/request-board/internal/core/domain"
	"github.com/jeplugins/request-board/internal/core/ports"
)

type requestRepository struct {
	db *sql.DB
}

func NewRequestRepository(db *sql.DB) ports.RequestRepository {
	return &requestRepository{
		db: db,
	}
}

func (r *requestRepository) Create(ctx context.Context, req *domain.FeatureRequest) error {
	voters, err := json.Marshal(req.Voters)
	if err != nil {
		return fmt.Errorf("failed to encode voters: %w", err)
	}

	query := `
		INSERT INTO feature_requests
			(id, title, description, submitter_email, submitter_ip, status, vote_count, voters, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = r.db.ExecContext(ctx, query,
		req.ID, req.Title, req.Description, req.SubmitterEmail, req.SubmitterIP,
		req.Status, req.VoteCount, voters, req.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert request: %w", err)
	}
	return nil
}

func (r *requestRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.FeatureRequest, error) {
	query := selectColumns + ` FROM feature_requests WHERE id = $1`
	req, err := scanRequest(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return req, nil
}

func (r *requestRepository) List(ctx context.Context, filter ports.ListFilter) ([]*domain.FeatureRequest, error) {
	query := selectColumns + ` FROM feature_requests`
	args := []any{}

	if filter.Status != "" {
		query += ` WHERE status = $1`
		args = append(args, filter.Status)
	}

	if filter.Sort == ports.SortByDate {
		query += ` ORDER BY created_at DESC`
	} else {
		query += ` ORDER BY vote_count DESC, created_at DESC`
	}

	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, len(args)+1)
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	var reqs []*domain.FeatureRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		reqs = append(reqs, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating requests: %w", err)
	}
	return reqs, nil
}

// Mutate serializes concurrent voter-list updates on the same request with a
// row lock, so the list and the cached count always change together.
func (r *requestRepository) Mutate(ctx context.Context, id uuid.UUID, fn func(*domain.FeatureRequest) error) (*domain.FeatureRequest, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := selectColumns + ` FROM feature_requests WHERE id = $1 FOR UPDATE`
	req, err := scanRequest(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to lock request: %w", err)
	}

	if err := fn(req); err != nil {
		return nil, err
	}
	req.VoteCount = len(req.Voters)

	voters, err := json.Marshal(req.Voters)
	if err != nil {
		return nil, fmt.Errorf("failed to encode voters: %w", err)
	}

	update := `UPDATE feature_requests SET voters = $1, vote_count = $2 WHERE id = $3`
	if _, err := tx.ExecContext(ctx, update, voters, req.VoteCount, id); err != nil {
		return nil, fmt.Errorf("failed to update voters: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return req, nil
}

func (r *requestRepository) SetStatus(ctx context.Context, id uuid.UUID, status domain.Status) error {
	res, err := r.db.ExecContext(ctx, `UPDATE feature_requests SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrRequestNotFound
	}
	return nil
}

func (r *requestRepository) LastSubmissionByIP(ctx context.Context, ip string, since time.Time) (*time.Time, error) {
	query := `
		SELECT created_at FROM feature_requests
		WHERE submitter_ip = $1 AND created_at > $2
		ORDER BY created_at DESC
		LIMIT 1
	`
	var createdAt time.Time
	err := r.db.QueryRowContext(ctx, query, ip, since).Scan(&createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to check recent submissions: %w", err)
	}
	return &createdAt, nil
}

const selectColumns = `
	SELECT id, title, description, submitter_email, submitter_ip, status, vote_count, voters, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*domain.FeatureRequest, error) {
	var req domain.FeatureRequest
	var voters []byte
	err := row.Scan(
		&req.ID, &req.Title, &req.Description, &req.SubmitterEmail, &req.SubmitterIP,
		&req.Status, &req.VoteCount, &voters, &req.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(voters, &req.Voters); err != nil {
		return nil, fmt.Errorf("failed to decode voters: %w", err)
	}
	return &req, nil
}
