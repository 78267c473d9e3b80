package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/travelcrm/travel-crm/internal/auth"
)

// TokenStore keeps refresh token records and the access token blacklist.
// Queries are written with '?' and rebound for the connection's driver.
type TokenStore struct {
	db *sqlx.DB
}

func NewTokenStore(db *sqlx.DB) *TokenStore {
	return &TokenStore{db: db}
}

var _ auth.TokenStore = (*TokenStore)(nil)

type refreshTokenRow struct {
	ID         int64          `db:"id"`
	UserID     int64          `db:"user_id"`
	TokenHash  string         `db:"token_hash"`
	ExpiresAt  time.Time      `db:"expires_at"`
	IsRevoked  bool           `db:"is_revoked"`
	RevokedAt  sql.NullTime   `db:"revoked_at"`
	DeviceInfo sql.NullString `db:"device_info"`
	IPAddress  sql.NullString `db:"ip_address"`
	CreatedAt  time.Time      `db:"created_at"`
}

func (row refreshTokenRow) toDomain() *auth.RefreshToken {
	t := &auth.RefreshToken{
		ID:         row.ID,
		UserID:     row.UserID,
		TokenHash:  row.TokenHash,
		ExpiresAt:  row.ExpiresAt,
		IsRevoked:  row.IsRevoked,
		DeviceInfo: row.DeviceInfo.String,
		IPAddress:  row.IPAddress.String,
		CreatedAt:  row.CreatedAt,
	}
	if row.RevokedAt.Valid {
		revokedAt := row.RevokedAt.Time
		t.RevokedAt = &revokedAt
	}
	return t
}

func (s *TokenStore) CreateRefreshToken(ctx context.Context, t *auth.RefreshToken) error {
	query := s.db.Rebind(`INSERT INTO refresh_tokens (user_id, token_hash, expires_at, is_revoked, device_info, ip_address, created_at)
		VALUES (?, ?, ?, FALSE, ?, ?, ?) RETURNING id`)

	createdAt := t.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	return s.db.QueryRowxContext(ctx, query,
		t.UserID, t.TokenHash, t.ExpiresAt,
		nullString(t.DeviceInfo), nullString(truncate(t.IPAddress, 45)), createdAt,
	).Scan(&t.ID)
}

func (s *TokenStore) FindRefreshToken(ctx context.Context, tokenHash string) (*auth.RefreshToken, error) {
	query := s.db.Rebind(`SELECT id, user_id, token_hash, expires_at, is_revoked, revoked_at, device_info, ip_address, created_at
		FROM refresh_tokens WHERE token_hash = ?`)

	var row refreshTokenRow
	if err := s.db.GetContext(ctx, &row, query, tokenHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrRefreshTokenNotFound
		}
		return nil, err
	}
	return row.toDomain(), nil
}

func (s *TokenStore) RevokeRefreshToken(ctx context.Context, tokenHash string, at time.Time) error {
	query := s.db.Rebind(`UPDATE refresh_tokens SET is_revoked = TRUE, revoked_at = ? WHERE token_hash = ? AND is_revoked = FALSE`)
	res, err := s.db.ExecContext(ctx, query, at, tokenHash)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return auth.ErrRefreshTokenRevoked
	}
	return nil
}

func (s *TokenStore) RevokeAllForUser(ctx context.Context, userID int64, at time.Time) (int64, error) {
	query := s.db.Rebind(`UPDATE refresh_tokens SET is_revoked = TRUE, revoked_at = ? WHERE user_id = ? AND is_revoked = FALSE`)
	res, err := s.db.ExecContext(ctx, query, at, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *TokenStore) Blacklist(ctx context.Context, entry auth.BlacklistEntry) error {
	query := s.db.Rebind(`INSERT INTO token_blacklist (token_jti, token_type, expires_at, blacklisted_at, reason)
		VALUES (?, ?, ?, ?, ?) ON CONFLICT (token_jti) DO NOTHING`)
	_, err := s.db.ExecContext(ctx, query, entry.JTI, string(entry.TokenType), entry.ExpiresAt, time.Now(), nullString(entry.Reason))
	return err
}

func (s *TokenStore) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	query := s.db.Rebind(`SELECT EXISTS (SELECT 1 FROM token_blacklist WHERE token_jti = ?)`)
	var exists bool
	if err := s.db.GetContext(ctx, &exists, query, jti); err != nil {
		return false, err
	}
	return exists, nil
}

// PurgeExpiredBlacklist drops blacklist rows whose tokens have expired on their own.
func (s *TokenStore) PurgeExpiredBlacklist(ctx context.Context, now time.Time) (int64, error) {
	query := s.db.Rebind(`DELETE FROM token_blacklist WHERE expires_at < ?`)
	res, err := s.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
