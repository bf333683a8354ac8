package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/smanilla/mindtrack/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupMockAssessmentsDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresAssessmentsRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock, NewPostgresAssessmentsRepository(db, zap.NewNop())
}

func setupMockUsersDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresUsersRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock, NewPostgresUsersRepository(db, zap.NewNop())
}

func TestCreateAssessment_Success(t *testing.T) {
	db, mock, repo := setupMockAssessmentsDB(t)
	defer db.Close()

	a := &models.Assessment{
		ID:                 uuid.NewString(),
		UserID:             uuid.NewString(),
		Answers:            []string{"fine", "work"},
		Summary:            "d\n\na",
		DescriptiveSummary: "d",
		AdviceSummary:      "a",
		Crisis:             false,
		CreatedAt:          time.Now().UTC(),
	}

	mock.ExpectExec(`INSERT INTO assessments`).
		WithArgs(a.ID, a.UserID, `["fine","work"]`, "d\n\na", "d", "a", false, a.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.CreateAssessment(context.Background(), a))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAssessment_Error(t *testing.T) {
	db, mock, repo := setupMockAssessmentsDB(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO assessments`).WillReturnError(errors.New("disk full"))

	err := repo.CreateAssessment(context.Background(), &models.Assessment{ID: "a1", UserID: "u1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	assert.Error(t, repo.CreateAssessment(context.Background(), &models.Assessment{ID: "a1"}))
}

func TestListAssessmentsByUser(t *testing.T) {
	db, mock, repo := setupMockAssessmentsDB(t)
	defer db.Close()

	userID := uuid.NewString()
	newer := time.Date(2026, 3, 7, 9, 0, 0, 0, time.UTC)
	older := newer.Add(-24 * time.Hour)

	rows := sqlmock.NewRows([]string{
		"assessment_id", "user_id", "answers", "summary",
		"descriptive_summary", "advice_summary", "crisis", "created_at",
	}).
		AddRow("a2", userID, []byte(`["I want to die"]`), "s2", "d2", "v2", true, newer).
		AddRow("a1", userID, []byte(`["ok"]`), "s1", "d1", "v1", false, older)

	mock.ExpectQuery(`SELECT .+ FROM assessments\s+WHERE user_id = \$1::uuid\s+ORDER BY created_at DESC\s+LIMIT \$2`).
		WithArgs(userID, 100).
		WillReturnRows(rows)

	got, err := repo.ListAssessmentsByUser(context.Background(), userID, 100)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a2", got[0].ID)
	assert.True(t, got[0].Crisis)
	assert.Equal(t, []string{"I want to die"}, got[0].Answers)
	assert.Equal(t, "d1", got[1].DescriptiveSummary)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListAssessmentsByUser_NoLimit(t *testing.T) {
	db, mock, repo := setupMockAssessmentsDB(t)
	defer db.Close()

	mock.ExpectQuery(`ORDER BY created_at DESC\s*$`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{
			"assessment_id", "user_id", "answers", "summary",
			"descriptive_summary", "advice_summary", "crisis", "created_at",
		}))

	got, err := repo.ListAssessmentsByUser(context.Background(), "u1", 0)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUser_WithContacts(t *testing.T) {
	db, mock, repo := setupMockUsersDB(t)
	defer db.Close()

	userID := uuid.NewString()
	doctorID := uuid.NewString()
	created := time.Now().UTC()

	mock.ExpectQuery(`FROM users`).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "name", "email", "role", "doctor_id", "phone", "created_at"}).
			AddRow(userID, "Jane Doe", "jane@example.com", "patient", doctorID, "", created))
	mock.ExpectQuery(`FROM emergency_contacts`).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"name", "phone", "email", "relationship"}).
			AddRow("Sam", "+15551234567", "sam@example.com", "Brother").
			AddRow("Alex", "+15559876543", "", "Friend"))

	u, err := repo.GetUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", u.Name)
	assert.Equal(t, doctorID, u.DoctorID)
	require.Len(t, u.EmergencyContacts, 2)
	assert.Equal(t, "Sam", u.EmergencyContacts[0].Name)
	assert.Equal(t, "Friend", u.EmergencyContacts[1].Relationship)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUser_NotFound(t *testing.T) {
	db, mock, repo := setupMockUsersDB(t)
	defer db.Close()

	mock.ExpectQuery(`FROM users`).WithArgs("u404").WillReturnError(sql.ErrNoRows)

	u, err := repo.GetUser(context.Background(), "u404")
	assert.Nil(t, u)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertUser_ReplacesContacts(t *testing.T) {
	db, mock, repo := setupMockUsersDB(t)
	defer db.Close()

	u := &models.User{
		ID:    uuid.NewString(),
		Name:  "Jane Doe",
		Email: "jane@example.com",
		Role:  models.RolePatient,
		EmergencyContacts: []models.EmergencyContact{
			{Name: "Sam", Phone: "+15551234567", Relationship: "Brother"},
			{Name: "Alex", Phone: "+15559876543", Email: "alex@example.com", Relationship: "Friend"},
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(u.ID, "Jane Doe", "jane@example.com", "patient", "", "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM emergency_contacts`).
		WithArgs(u.ID).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`INSERT INTO emergency_contacts`).
		WithArgs(sqlmock.AnyArg(), u.ID, 0, "Sam", "+15551234567", "", "Brother").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO emergency_contacts`).
		WithArgs(sqlmock.AnyArg(), u.ID, 1, "Alex", "+15559876543", "alex@example.com", "Friend").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.UpsertUser(context.Background(), u))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertUser_RollsBackOnError(t *testing.T) {
	db, mock, repo := setupMockUsersDB(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO users`).WillReturnError(errors.New("constraint"))
	mock.ExpectRollback()

	err := repo.UpsertUser(context.Background(), &models.User{ID: uuid.NewString()})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
