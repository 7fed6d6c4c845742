package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/glowdesk/glowdesk/pkg/authz"
)

var (
	// ErrUserNotFound means no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrTokenNotFound means no usable API token matches the lookup.
	ErrTokenNotFound = errors.New("token not found")
	// ErrInvalidCredentials means the email/password pair failed.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Store handles user, grant and API token persistence
type Store struct {
	db        *sql.DB
	generator *TokenGenerator
}

// NewStore creates a new auth store
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, generator: NewTokenGenerator()}
}

// CreateUser persists a new user with a bcrypt password hash.
func (s *Store) CreateUser(ctx context.Context, user *User, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	user.PasswordHash = string(hash)
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `
		INSERT INTO users (id, email, full_name, role, user_type, client_id, is_active, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = s.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.FullName,
		string(user.Role),
		string(user.UserType),
		nullString(user.ClientID),
		user.IsActive,
		user.PasswordHash,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

const userColumns = `id, email, full_name, role, user_type, client_id, is_active, password_hash, created_at, updated_at, last_login_at`

// GetUserByID retrieves a user by ID
func (s *Store) GetUserByID(ctx context.Context, id string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return s.scanUser(s.db.QueryRowContext(ctx, query, id))
}

// GetUserByEmail retrieves a user by email
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return s.scanUser(s.db.QueryRowContext(ctx, query, email))
}

func (s *Store) scanUser(row *sql.Row) (*User, error) {
	var user User
	var clientID sql.NullString
	var lastLogin sql.NullTime

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.FullName,
		&user.Role,
		&user.UserType,
		&clientID,
		&user.IsActive,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
		&lastLogin,
	)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if clientID.Valid {
		user.ClientID = clientID.String
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		user.LastLoginAt = &t
	}
	return &user, nil
}

// Authenticate verifies the email/password pair and stamps last_login_at.
// Inactive accounts fail with ErrInvalidCredentials so login responses do
// not leak account state.
func (s *Store) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if _, err := s.db.ExecContext(ctx, `UPDATE users SET last_login_at = $1 WHERE id = $2`, now, user.ID); err != nil {
		return nil, fmt.Errorf("failed to stamp last login: %w", err)
	}
	user.LastLoginAt = &now
	return user, nil
}

// DeactivateUser marks the account inactive. Existing sessions and API
// tokens stop resolving on the next principal load.
func (s *Store) DeactivateUser(ctx context.Context, userID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET is_active = FALSE, updated_at = $1 WHERE id = $2`,
		time.Now().UTC(), userID,
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deactivation: %w", err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetUserGrants replaces the user's module grants. Duplicate module entries
// in the input collapse to the last one before writing.
func (s *Store) SetUserGrants(ctx context.Context, userID string, grants []authz.Grant) error {
	grants = authz.DedupeGrants(grants)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_grants WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to clear grants: %w", err)
	}

	for _, g := range grants {
		actionsJSON, err := json.Marshal(g.Actions)
		if err != nil {
			return fmt.Errorf("failed to marshal actions: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO user_grants (user_id, module, actions, level) VALUES ($1, $2, $3, $4)`,
			userID, string(g.Module), string(actionsJSON), string(g.Level),
		)
		if err != nil {
			return fmt.Errorf("failed to insert grant: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit grants: %w", err)
	}
	return nil
}

// GrantsForUser loads the user's module grants.
func (s *Store) GrantsForUser(ctx context.Context, userID string) ([]authz.Grant, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT module, actions, level FROM user_grants WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query grants: %w", err)
	}
	defer rows.Close()

	var grants []authz.Grant
	for rows.Next() {
		var g authz.Grant
		var actionsJSON string
		if err := rows.Scan(&g.Module, &actionsJSON, &g.Level); err != nil {
			return nil, fmt.Errorf("failed to scan grant: %w", err)
		}
		if err := json.Unmarshal([]byte(actionsJSON), &g.Actions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal actions: %w", err)
		}
		grants = append(grants, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate grants: %w", err)
	}
	return grants, nil
}

// LoadPrincipal resolves the user and their grants into an authorization
// principal.
func (s *Store) LoadPrincipal(ctx context.Context, userID string) (*authz.Principal, error) {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	grants, err := s.GrantsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Principal(grants), nil
}

// CreateToken mints a new API token for the user. The plaintext token is
// returned once and never persisted.
func (s *Store) CreateToken(ctx context.Context, userID, name string, expiresAt *time.Time) (*APIToken, string, error) {
	token, tokenHash, tokenPrefix, err := s.generator.GenerateToken()
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	apiToken := &APIToken{
		ID:          uuid.NewString(),
		UserID:      userID,
		TokenHash:   tokenHash,
		TokenPrefix: tokenPrefix,
		Name:        name,
		ExpiresAt:   expiresAt,
		CreatedAt:   time.Now().UTC(),
	}

	query := `
		INSERT INTO api_tokens (id, user_id, token_hash, token_prefix, name, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = s.db.ExecContext(ctx, query,
		apiToken.ID,
		apiToken.UserID,
		apiToken.TokenHash,
		apiToken.TokenPrefix,
		apiToken.Name,
		apiToken.ExpiresAt,
		apiToken.CreatedAt,
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to store token: %w", err)
	}

	return apiToken, token, nil
}

// LookupToken validates a raw token and returns its record when usable.
// Usage is stamped on success.
func (s *Store) LookupToken(ctx context.Context, raw string) (*APIToken, error) {
	if err := s.generator.ValidateTokenFormat(raw); err != nil {
		return nil, ErrTokenNotFound
	}

	query := `
		SELECT id, user_id, token_hash, token_prefix, name, expires_at, last_used_at, created_at, revoked_at
		FROM api_tokens
		WHERE token_hash = $1
	`
	var t APIToken
	var expiresAt, lastUsedAt, revokedAt sql.NullTime

	err := s.db.QueryRowContext(ctx, query, s.generator.HashToken(raw)).Scan(
		&t.ID,
		&t.UserID,
		&t.TokenHash,
		&t.TokenPrefix,
		&t.Name,
		&expiresAt,
		&lastUsedAt,
		&t.CreatedAt,
		&revokedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up token: %w", err)
	}

	if expiresAt.Valid {
		v := expiresAt.Time
		t.ExpiresAt = &v
	}
	if lastUsedAt.Valid {
		v := lastUsedAt.Time
		t.LastUsedAt = &v
	}
	if revokedAt.Valid {
		v := revokedAt.Time
		t.RevokedAt = &v
	}

	now := time.Now().UTC()
	if !t.Usable(now) {
		return nil, ErrTokenNotFound
	}

	if _, err := s.db.ExecContext(ctx, `UPDATE api_tokens SET last_used_at = $1 WHERE id = $2`, now, t.ID); err != nil {
		return nil, fmt.Errorf("failed to stamp token usage: %w", err)
	}
	t.LastUsedAt = &now
	return &t, nil
}

// RevokeToken revokes one of the user's tokens.
func (s *Store) RevokeToken(ctx context.Context, tokenID, userID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE api_tokens SET revoked_at = $1 WHERE id = $2 AND user_id = $3 AND revoked_at IS NULL`,
		time.Now().UTC(), tokenID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check revocation: %w", err)
	}
	if affected == 0 {
		return ErrTokenNotFound
	}
	return nil
}

// ListUserTokens lists all of a user's tokens, newest first.
func (s *Store) ListUserTokens(ctx context.Context, userID string) ([]*APIToken, error) {
	query := `
		SELECT id, user_id, token_hash, token_prefix, name, expires_at, last_used_at, created_at, revoked_at
		FROM api_tokens
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}
	defer rows.Close()

	var tokens []*APIToken
	for rows.Next() {
		var t APIToken
		var expiresAt, lastUsedAt, revokedAt sql.NullTime
		if err := rows.Scan(
			&t.ID, &t.UserID, &t.TokenHash, &t.TokenPrefix, &t.Name,
			&expiresAt, &lastUsedAt, &t.CreatedAt, &revokedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan token: %w", err)
		}
		if expiresAt.Valid {
			v := expiresAt.Time
			t.ExpiresAt = &v
		}
		if lastUsedAt.Valid {
			v := lastUsedAt.Time
			t.LastUsedAt = &v
		}
		if revokedAt.Valid {
			v := revokedAt.Time
			t.RevokedAt = &v
		}
		tokens = append(tokens, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tokens: %w", err)
	}
	return tokens, nil
}

// CountActiveTokens counts tokens that are neither revoked nor expired.
// Feeds the api_tokens_active gauge.
func (s *Store) CountActiveTokens(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM api_tokens WHERE revoked_at IS NULL AND (expires_at IS NULL OR expires_at > $1)`,
		time.Now().UTC(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count tokens: %w", err)
	}
	return count, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
