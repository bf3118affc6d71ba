package verification

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Repository interface {
	CreateVerification(ctx context.Context, rec *Record) error
	GetVerification(ctx context.Context, userID string, id uuid.UUID) (*Record, error)
	ListVerifications(ctx context.Context, userID string, taskID *string) ([]Record, error)
	GetSummary(ctx context.Context, userID string) (*Summary, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) CreateVerification(ctx context.Context, rec *Record) error {
	query := `
		INSERT INTO task_verifications (
			id, user_id, task_id, task_title, task_description,
			image_path, ai_rating, ai_feedback, created_at
		) VALUES (
			:id, :user_id, :task_id, :task_title, :task_description,
			:image_path, :ai_rating, :ai_feedback, :created_at
		)`
	_, err := r.db.NamedExecContext(ctx, query, rec)
	return err
}

func (r *postgresRepository) GetVerification(ctx context.Context, userID string, id uuid.UUID) (*Record, error) {
	var rec Record
	err := r.db.GetContext(ctx, &rec,
		"SELECT * FROM task_verifications WHERE id = $1 AND user_id = $2",
		id, userID)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *postgresRepository) ListVerifications(ctx context.Context, userID string, taskID *string) ([]Record, error) {
	var records []Record
	if taskID != nil {
		err := r.db.SelectContext(ctx, &records,
			"SELECT * FROM task_verifications WHERE user_id = $1 AND task_id = $2 ORDER BY created_at DESC",
			userID, *taskID)
		return records, err
	}
	err := r.db.SelectContext(ctx, &records,
		"SELECT * FROM task_verifications WHERE user_id = $1 ORDER BY created_at DESC",
		userID)
	return records, err
}

func (r *postgresRepository) GetSummary(ctx context.Context, userID string) (*Summary, error) {
	var summary Summary
	err := r.db.GetContext(ctx, &summary,
		"SELECT COALESCE(AVG(ai_rating), 0) AS average_rating, COUNT(*) AS verified_count FROM task_verifications WHERE user_id = $1",
		userID)
	if err != nil {
		return nil, err
	}
	return &summary, nil
}
