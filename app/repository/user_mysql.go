package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/vibast-solutions/ms-go-academy/app/entity"
)

const mysqlDuplicateEntry = 1062

const userColumns = `id, first_name, last_name, email, password_hash, role, is_verified, is_onboarded,
		       email_verification_token, email_verification_expires, password_reset_token, password_reset_expires,
		       refresh_token_hash, field_of_study, reason_for_joining, bio, website, twitter_url, facebook_url,
		       linkedin_url, youtube_url, github_url, avatar_public_id, avatar_url, created_at, updated_at`

type sqlTxKey struct{}

type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type MySQLUserRepository struct {
	db *sql.DB
}

func NewMySQLUserRepository(db *sql.DB) *MySQLUserRepository {
	return &MySQLUserRepository{db: db}
}

func (r *MySQLUserRepository) conn(ctx context.Context) dbtx {
	if tx, ok := ctx.Value(sqlTxKey{}).(*sql.Tx); ok {
		return tx
	}
	return r.db
}

func (r *MySQLUserRepository) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(sqlTxKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err = fn(context.WithValue(ctx, sqlTxKey{}, tx)); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *MySQLUserRepository) Create(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	verifyHash, verifyExpires := pendingColumns(user.EmailVerification)
	resetHash, resetExpires := pendingColumns(user.PasswordReset)

	_, err := r.conn(ctx).ExecContext(ctx, query,
		user.ID,
		user.FirstName,
		user.LastName,
		user.Email,
		user.PasswordHash,
		string(user.Role),
		user.IsVerified,
		user.IsOnboarded,
		verifyHash,
		verifyExpires,
		resetHash,
		resetExpires,
		nullString(user.RefreshTokenHash),
		user.Profile.FieldOfStudy,
		user.Profile.ReasonForJoining,
		user.Profile.Bio,
		user.Profile.Website,
		user.Profile.TwitterURL,
		user.Profile.FacebookURL,
		user.Profile.LinkedInURL,
		user.Profile.YouTubeURL,
		user.Profile.GitHubURL,
		user.Profile.AvatarPublicID,
		user.Profile.AvatarURL,
		user.CreatedAt,
		user.UpdatedAt,
	)
	return translateMySQLError(err)
}

func (r *MySQLUserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users WHERE email = ?
	`
	return r.scanOne(r.conn(ctx).QueryRowContext(ctx, query, email))
}

func (r *MySQLUserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users WHERE id = ?
	`
	return r.scanOne(r.conn(ctx).QueryRowContext(ctx, query, id))
}

func (r *MySQLUserRepository) FindByVerificationHash(ctx context.Context, hash string, now time.Time) (*entity.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users WHERE email_verification_token = ? AND email_verification_expires > ?
	`
	return r.scanOne(r.conn(ctx).QueryRowContext(ctx, query, hash, now))
}

func (r *MySQLUserRepository) FindByResetHash(ctx context.Context, hash string, now time.Time) (*entity.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users WHERE password_reset_token = ? AND password_reset_expires > ?
	`
	return r.scanOne(r.conn(ctx).QueryRowContext(ctx, query, hash, now))
}

// UpdateCredentials relies on the client_found_rows DSN flag so a matched
// row counts as affected even when no value changed.
func (r *MySQLUserRepository) UpdateCredentials(ctx context.Context, id string, guard entity.CredentialGuard, change entity.CredentialChange) (bool, error) {
	sets, args := credentialAssignments(change)
	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now(), id)

	conds, condArgs := credentialConditions(guard)
	args = append(args, condArgs...)

	query := `UPDATE users SET ` + strings.Join(sets, ", ") + ` WHERE ` + strings.Join(append([]string{"id = ?"}, conds...), " AND ")
	result, err := r.conn(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return false, translateMySQLError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

func (r *MySQLUserRepository) UpdateProfile(ctx context.Context, id string, update entity.ProfileUpdate) (*entity.User, error) {
	sets, args := profileAssignments(update)
	if len(sets) > 0 {
		sets = append(sets, "updated_at = ?")
		args = append(args, time.Now(), id)

		query := `UPDATE users SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
		if _, err := r.conn(ctx).ExecContext(ctx, query, args...); err != nil {
			return nil, translateMySQLError(err)
		}
	}

	return r.FindByID(ctx, id)
}

func (r *MySQLUserRepository) ClearRefreshToken(ctx context.Context, id string) error {
	query := `UPDATE users SET refresh_token_hash = NULL, updated_at = ? WHERE id = ?`
	_, err := r.conn(ctx).ExecContext(ctx, query, time.Now(), id)
	return err
}

func (r *MySQLUserRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *MySQLUserRepository) scanOne(row *sql.Row) (*entity.User, error) {
	var (
		user          entity.User
		role          string
		verifyHash    sql.NullString
		verifyExpires sql.NullTime
		resetHash     sql.NullString
		resetExpires  sql.NullTime
		refreshHash   sql.NullString
	)

	err := row.Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.PasswordHash,
		&role,
		&user.IsVerified,
		&user.IsOnboarded,
		&verifyHash,
		&verifyExpires,
		&resetHash,
		&resetExpires,
		&refreshHash,
		&user.Profile.FieldOfStudy,
		&user.Profile.ReasonForJoining,
		&user.Profile.Bio,
		&user.Profile.Website,
		&user.Profile.TwitterURL,
		&user.Profile.FacebookURL,
		&user.Profile.LinkedInURL,
		&user.Profile.YouTubeURL,
		&user.Profile.GitHubURL,
		&user.Profile.AvatarPublicID,
		&user.Profile.AvatarURL,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	user.Role = entity.Role(role)
	user.EmailVerification = pendingFromColumns(verifyHash, verifyExpires)
	user.PasswordReset = pendingFromColumns(resetHash, resetExpires)
	user.RefreshTokenHash = refreshHash.String
	return &user, nil
}

func profileAssignments(update entity.ProfileUpdate) ([]string, []any) {
	var (
		sets []string
		args []any
	)
	add := func(column string, value *string) {
		if value != nil {
			sets = append(sets, column+" = ?")
			args = append(args, *value)
		}
	}

	add("first_name", update.FirstName)
	add("last_name", update.LastName)
	if update.Role != nil {
		sets = append(sets, "role = ?")
		args = append(args, string(*update.Role))
	}
	if update.IsOnboarded != nil {
		sets = append(sets, "is_onboarded = ?")
		args = append(args, *update.IsOnboarded)
	}
	add("field_of_study", update.FieldOfStudy)
	add("reason_for_joining", update.ReasonForJoining)
	add("bio", update.Bio)
	add("website", update.Website)
	add("twitter_url", update.TwitterURL)
	add("facebook_url", update.FacebookURL)
	add("linkedin_url", update.LinkedInURL)
	add("youtube_url", update.YouTubeURL)
	add("github_url", update.GitHubURL)
	add("avatar_public_id", update.AvatarPublicID)
	add("avatar_url", update.AvatarURL)

	return sets, args
}

func credentialAssignments(change entity.CredentialChange) ([]string, []any) {
	var (
		sets []string
		args []any
	)
	if change.PasswordHash != nil {
		sets = append(sets, "password_hash = ?")
		args = append(args, *change.PasswordHash)
	}
	if change.RefreshTokenHash != nil {
		sets = append(sets, "refresh_token_hash = ?")
		args = append(args, nullString(*change.RefreshTokenHash))
	}
	if change.IsVerified != nil {
		sets = append(sets, "is_verified = ?")
		args = append(args, *change.IsVerified)
	}
	if change.EmailVerification != nil || change.ClearEmailVerification {
		hash, expires := pendingColumns(change.EmailVerification)
		sets = append(sets, "email_verification_token = ?", "email_verification_expires = ?")
		args = append(args, hash, expires)
	}
	if change.PasswordReset != nil || change.ClearPasswordReset {
		hash, expires := pendingColumns(change.PasswordReset)
		sets = append(sets, "password_reset_token = ?", "password_reset_expires = ?")
		args = append(args, hash, expires)
	}
	return sets, args
}

func credentialConditions(guard entity.CredentialGuard) ([]string, []any) {
	var (
		conds []string
		args  []any
	)
	if guard.PasswordHash != "" {
		conds = append(conds, "password_hash = ?")
		args = append(args, guard.PasswordHash)
	}
	if guard.RefreshTokenHash != "" {
		conds = append(conds, "refresh_token_hash = ?")
		args = append(args, guard.RefreshTokenHash)
	}
	if guard.VerificationHash != "" {
		conds = append(conds, "email_verification_token = ?")
		args = append(args, guard.VerificationHash)
	}
	if guard.ResetHash != "" {
		conds = append(conds, "password_reset_token = ?")
		args = append(args, guard.ResetHash)
	}
	if guard.Unverified {
		conds = append(conds, "is_verified = FALSE")
	}
	return conds, args
}

func pendingColumns(token *entity.PendingToken) (sql.NullString, sql.NullTime) {
	if token == nil {
		return sql.NullString{}, sql.NullTime{}
	}
	return sql.NullString{String: token.Hash, Valid: true}, sql.NullTime{Time: token.ExpiresAt, Valid: true}
}

func pendingFromColumns(hash sql.NullString, expires sql.NullTime) *entity.PendingToken {
	if !hash.Valid || !expires.Valid {
		return nil
	}
	return &entity.PendingToken{Hash: hash.String, ExpiresAt: expires.Time}
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}

func translateMySQLError(err error) error {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
		return ErrDuplicateEmail
	}
	return err
}
