package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/smanilla/mindtrack/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PostgresUsersRepository users + emergency_contacts tables
type PostgresUsersRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresUsersRepository(db *sql.DB, logger *zap.Logger) *PostgresUsersRepository {
	return &PostgresUsersRepository{db: db, logger: logger}
}

var _ UsersRepository = (*PostgresUsersRepository)(nil)

func (r *PostgresUsersRepository) GetUser(ctx context.Context, userID string) (*models.User, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id is required")
	}

	query := `
		SELECT
			user_id::text,
			name,
			email,
			role,
			COALESCE(doctor_id::text, '') AS doctor_id,
			COALESCE(phone, '') AS phone,
			created_at
		FROM users
		WHERE user_id = $1::uuid
	`
	var u models.User
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.Role,
		&u.DoctorID,
		&u.Phone,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	contacts, err := r.listContacts(ctx, userID)
	if err != nil {
		return nil, err
	}
	u.EmergencyContacts = contacts
	return &u, nil
}

func (r *PostgresUsersRepository) listContacts(ctx context.Context, userID string) ([]models.EmergencyContact, error) {
	query := `
		SELECT name, phone, COALESCE(email, '') AS email, relationship
		FROM emergency_contacts
		WHERE user_id = $1::uuid
		ORDER BY position
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list emergency contacts: %w", err)
	}
	defer rows.Close()

	var out []models.EmergencyContact
	for rows.Next() {
		var c models.EmergencyContact
		if err := rows.Scan(&c.Name, &c.Phone, &c.Email, &c.Relationship); err != nil {
			return nil, fmt.Errorf("failed to scan emergency contact: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpsertUser writes the user row and replaces its emergency contacts.
func (r *PostgresUsersRepository) UpsertUser(ctx context.Context, u *models.User) error {
	if u == nil || u.ID == "" {
		return fmt.Errorf("user_id is required")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO users (user_id, name, email, role, doctor_id, phone, created_at)
		VALUES ($1::uuid, $2, $3, $4, NULLIF($5, '')::uuid, NULLIF($6, ''), COALESCE($7::timestamptz, now()))
		ON CONFLICT (user_id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			role = EXCLUDED.role,
			doctor_id = EXCLUDED.doctor_id,
			phone = EXCLUDED.phone
	`, u.ID, u.Name, u.Email, u.Role, u.DoctorID, u.Phone, nullTime(u))
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM emergency_contacts WHERE user_id = $1::uuid`, u.ID); err != nil {
		return fmt.Errorf("failed to clear emergency contacts: %w", err)
	}
	for i, c := range u.EmergencyContacts {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO emergency_contacts (contact_id, user_id, position, name, phone, email, relationship)
			VALUES ($1::uuid, $2::uuid, $3, $4, $5, NULLIF($6, ''), $7)
		`, uuid.NewString(), u.ID, i, c.Name, c.Phone, c.Email, c.Relationship)
		if err != nil {
			return fmt.Errorf("failed to insert emergency contact %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit user: %w", err)
	}
	return nil
}

func nullTime(u *models.User) sql.NullTime {
	if u.CreatedAt.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: u.CreatedAt, Valid: true}
}
