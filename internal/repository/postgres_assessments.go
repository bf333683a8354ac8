package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/smanilla/mindtrack/internal/models"

	"go.uber.org/zap"
)

// PostgresAssessmentsRepository assessments table
type PostgresAssessmentsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresAssessmentsRepository(db *sql.DB, logger *zap.Logger) *PostgresAssessmentsRepository {
	return &PostgresAssessmentsRepository{db: db, logger: logger}
}

var _ AssessmentsRepository = (*PostgresAssessmentsRepository)(nil)

func (r *PostgresAssessmentsRepository) CreateAssessment(ctx context.Context, a *models.Assessment) error {
	if a == nil || a.ID == "" || a.UserID == "" {
		return fmt.Errorf("assessment_id and user_id are required")
	}

	answers, err := json.Marshal(a.Answers)
	if err != nil {
		return fmt.Errorf("failed to encode answers: %w", err)
	}

	query := `
		INSERT INTO assessments (
			assessment_id, user_id, answers, summary,
			descriptive_summary, advice_summary, crisis, created_at
		) VALUES ($1::uuid, $2::uuid, $3::jsonb, $4, $5, $6, $7, $8)
	`
	_, err = r.db.ExecContext(ctx, query,
		a.ID,
		a.UserID,
		string(answers),
		a.Summary,
		a.DescriptiveSummary,
		a.AdviceSummary,
		a.Crisis,
		a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create assessment: %w", err)
	}
	return nil
}

func (r *PostgresAssessmentsRepository) ListAssessmentsByUser(ctx context.Context, userID string, limit int) ([]*models.Assessment, error) {
	query := `
		SELECT
			assessment_id::text,
			user_id::text,
			COALESCE(answers, '[]'::jsonb) AS answers,
			summary,
			descriptive_summary,
			advice_summary,
			crisis,
			created_at
		FROM assessments
		WHERE user_id = $1::uuid
		ORDER BY created_at DESC
	`
	args := []any{userID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	defer rows.Close()

	out := []*models.Assessment{}
	for rows.Next() {
		var a models.Assessment
		var answersRaw []byte
		if err := rows.Scan(
			&a.ID,
			&a.UserID,
			&answersRaw,
			&a.Summary,
			&a.DescriptiveSummary,
			&a.AdviceSummary,
			&a.Crisis,
			&a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan assessment: %w", err)
		}
		if len(answersRaw) > 0 {
			if err := json.Unmarshal(answersRaw, &a.Answers); err != nil {
				r.logger.Warn("Failed to decode stored answers",
					zap.String("assessment_id", a.ID),
					zap.Error(err),
				)
			}
		}
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assessments: %w", err)
	}
	return out, nil
}
