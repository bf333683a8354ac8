package repository

import (
	"context"
	_ "embed"
	"errors"

	"github.com/smanilla/mindtrack/internal/models"
)

// ErrNotFound no row for the requested id
var ErrNotFound = errors.New("not found")

// Schema DDL applied at startup; every statement is idempotent.
//
//go:embed schema.sql
var Schema string

// AssessmentsRepository assessment records. Records are append-only.
type AssessmentsRepository interface {
	CreateAssessment(ctx context.Context, a *models.Assessment) error
	// ListAssessmentsByUser newest first; limit <= 0 returns every record.
	ListAssessmentsByUser(ctx context.Context, userID string, limit int) ([]*models.Assessment, error)
}

// UsersRepository user records with their ordered emergency contacts.
type UsersRepository interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
	UpsertUser(ctx context.Context, u *models.User) error
}
