package repository_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-academy/app/entity"
	"github.com/vibast-solutions/ms-go-academy/app/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
)

const (
	insertUserQuery             = `(?s)INSERT INTO users \(id, first_name, last_name, email, password_hash, role, .+ created_at, updated_at\)\s+VALUES \((\?, ){25}\?\)`
	findByEmailQuery            = `(?s)SELECT id, first_name, last_name, email, .+\s+FROM users WHERE email = \?`
	findByIDQuery               = `(?s)SELECT id, first_name, last_name, email, .+\s+FROM users WHERE id = \?`
	findByVerificationHashQuery = `(?s)SELECT id, .+\s+FROM users WHERE email_verification_token = \? AND email_verification_expires > \?`
	findByResetHashQuery        = `(?s)SELECT id, .+\s+FROM users WHERE password_reset_token = \? AND password_reset_expires > \?`
	rotateRefreshQuery          = `UPDATE users SET refresh_token_hash = \?, updated_at = \? WHERE id = \? AND refresh_token_hash = \?$`
	resetPasswordQuery          = `UPDATE users SET password_hash = \?, refresh_token_hash = \?, password_reset_token = \?, password_reset_expires = \?, updated_at = \? WHERE id = \? AND password_reset_token = \?$`
	clearRefreshTokenQuery      = `(?s)UPDATE users SET refresh_token_hash = NULL, updated_at = \? WHERE id = \?`
)

var userColumns = []string{
	"id", "first_name", "last_name", "email", "password_hash", "role", "is_verified", "is_onboarded",
	"email_verification_token", "email_verification_expires", "password_reset_token", "password_reset_expires",
	"refresh_token_hash", "field_of_study", "reason_for_joining", "bio", "website", "twitter_url", "facebook_url",
	"linkedin_url", "youtube_url", "github_url", "avatar_public_id", "avatar_url", "created_at", "updated_at",
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	return db, mock, func() { _ = db.Close() }
}

func userRow(id, email string, verified bool, verifyHash any, verifyExpires any, refreshHash any) []driver.Value {
	now := time.Now()
	return []driver.Value{
		id, "Alice", "Liddell", email, "hash", "student", verified, false,
		verifyHash, verifyExpires, nil, nil,
		refreshHash, "", "", "", "", "", "",
		"", "", "", "", "", now, now,
	}
}

func TestMySQLUserRepository_Create(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewMySQLUserRepository(db)
	user := &entity.User{
		FirstName:    "Alice",
		LastName:     "Liddell",
		Email:        "alice@example.com",
		PasswordHash: "hash",
		Role:         entity.RoleStudent,
		EmailVerification: &entity.PendingToken{
			Hash:      "verify-hash",
			ExpiresAt: time.Now().Add(15 * time.Minute),
		},
	}

	args := make([]driver.Value, 26)
	for i := range args {
		args[i] = sqlmock.AnyArg()
	}
	args[3] = "alice@example.com"
	args[5] = "student"
	args[8] = "verify-hash"
	args[12] = nil

	mock.ExpectExec(insertUserQuery).
		WithArgs(args...).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if user.ID == "" {
		t.Fatalf("expected generated id")
	}
	if user.CreatedAt.IsZero() || user.UpdatedAt.IsZero() {
		t.Fatalf("expected timestamps to be set")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMySQLUserRepository_CreateDuplicate(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewMySQLUserRepository(db)

	mock.ExpectExec(insertUserQuery).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'alice@example.com' for key 'users.email'"})

	err := repo.Create(context.Background(), &entity.User{Email: "alice@example.com"})
	if !errors.Is(err, repository.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMySQLUserRepository_FindByEmail(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewMySQLUserRepository(db)
	expires := time.Now().Add(time.Hour)

	mock.ExpectQuery(findByEmailQuery).
		WithArgs("alice@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(
			userRow("u-1", "alice@example.com", false, "verify-hash", expires, "refresh-hash")...,
		))

	user, err := repo.FindByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if user == nil || user.ID != "u-1" {
		t.Fatalf("expected user u-1, got %+v", user)
	}
	if user.Role != entity.RoleStudent {
		t.Fatalf("expected student role, got %s", user.Role)
	}
	if user.EmailVerification == nil || user.EmailVerification.Hash != "verify-hash" {
		t.Fatalf("expected pending verification, got %+v", user.EmailVerification)
	}
	if user.PasswordReset != nil {
		t.Fatalf("expected no pending reset, got %+v", user.PasswordReset)
	}
	if user.RefreshTokenHash != "refresh-hash" {
		t.Fatalf("expected refresh hash, got %q", user.RefreshTokenHash)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMySQLUserRepository_FindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewMySQLUserRepository(db)

	mock.ExpectQuery(findByIDQuery).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(userColumns))

	user, err := repo.FindByID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if user != nil {
		t.Fatalf("expected nil user, got %+v", user)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMySQLUserRepository_FindByTokenHashes(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewMySQLUserRepository(db)
	now := time.Now()

	mock.ExpectQuery(findByVerificationHashQuery).
		WithArgs("verify-hash", now).
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(
			userRow("u-1", "alice@example.com", false, "verify-hash", now.Add(time.Minute), nil)...,
		))
	mock.ExpectQuery(findByResetHashQuery).
		WithArgs("reset-hash", now).
		WillReturnRows(sqlmock.NewRows(userColumns))

	user, err := repo.FindByVerificationHash(context.Background(), "verify-hash", now)
	if err != nil || user == nil {
		t.Fatalf("expected user, got %+v %v", user, err)
	}

	user, err = repo.FindByResetHash(context.Background(), "reset-hash", now)
	if err != nil || user != nil {
		t.Fatalf("expected no user, got %+v %v", user, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMySQLUserRepository_UpdateCredentialsRotatesRefresh(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewMySQLUserRepository(db)
	next := "next-hash"

	mock.ExpectExec(rotateRefreshQuery).
		WithArgs("next-hash", sqlmock.AnyArg(), "u-1", "current-hash").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.UpdateCredentials(context.Background(), "u-1",
		entity.CredentialGuard{RefreshTokenHash: "current-hash"},
		entity.CredentialChange{RefreshTokenHash: &next})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if !ok {
		t.Fatalf("expected rotation to succeed")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMySQLUserRepository_UpdateCredentialsStaleRefresh(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewMySQLUserRepository(db)
	next := "next-hash"

	// A concurrent rotation already replaced the stored hash.
	mock.ExpectExec(rotateRefreshQuery).
		WithArgs("next-hash", sqlmock.AnyArg(), "u-1", "current-hash").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.UpdateCredentials(context.Background(), "u-1",
		entity.CredentialGuard{RefreshTokenHash: "current-hash"},
		entity.CredentialChange{RefreshTokenHash: &next})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if ok {
		t.Fatalf("expected stale refresh hash to be rejected")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMySQLUserRepository_UpdateCredentialsConsumesReset(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewMySQLUserRepository(db)
	hash := "new-password-hash"
	empty := ""

	mock.ExpectExec(resetPasswordQuery).
		WithArgs("new-password-hash", nil, nil, nil, sqlmock.AnyArg(), "u-1", "reset-hash").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.UpdateCredentials(context.Background(), "u-1",
		entity.CredentialGuard{ResetHash: "reset-hash"},
		entity.CredentialChange{PasswordHash: &hash, RefreshTokenHash: &empty, ClearPasswordReset: true})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if !ok {
		t.Fatalf("expected reset to succeed")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMySQLUserRepository_ClearRefreshToken(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewMySQLUserRepository(db)

	mock.ExpectExec(clearRefreshTokenQuery).
		WithArgs(sqlmock.AnyArg(), "u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.ClearRefreshToken(context.Background(), "u-1"); err != nil {
		t.Fatalf("clear failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMySQLUserRepository_UpdateProfile(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewMySQLUserRepository(db)
	onboarded := true
	field := "Physics"

	mock.ExpectExec(`(?s)UPDATE users SET is_onboarded = \?, field_of_study = \?, updated_at = \? WHERE id = \?`).
		WithArgs(true, "Physics", sqlmock.AnyArg(), "u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(findByIDQuery).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(
			userRow("u-1", "alice@example.com", true, nil, nil, nil)...,
		))

	user, err := repo.UpdateProfile(context.Background(), "u-1", entity.ProfileUpdate{
		IsOnboarded:  &onboarded,
		FieldOfStudy: &field,
	})
	if err != nil {
		t.Fatalf("update profile failed: %v", err)
	}
	if user == nil || user.ID != "u-1" {
		t.Fatalf("expected updated user, got %+v", user)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMySQLUserRepository_TransactionCommit(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewMySQLUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(findByEmailQuery).
		WithArgs("alice@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns))
	mock.ExpectExec(insertUserQuery).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.WithinTransaction(context.Background(), func(ctx context.Context) error {
		existing, err := repo.FindByEmail(ctx, "alice@example.com")
		if err != nil {
			return err
		}
		if existing != nil {
			return repository.ErrDuplicateEmail
		}
		return repo.Create(ctx, &entity.User{Email: "alice@example.com", Role: entity.RoleStudent})
	})
	if err != nil {
		t.Fatalf("transaction failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMySQLUserRepository_TransactionRollback(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewMySQLUserRepository(db)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectExec(insertUserQuery).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	err := repo.WithinTransaction(context.Background(), func(ctx context.Context) error {
		if err := repo.Create(ctx, &entity.User{Email: "alice@example.com"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
