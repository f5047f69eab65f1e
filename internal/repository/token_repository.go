package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ErrRefreshInvalid covers unknown, revoked and expired refresh tokens.
var ErrRefreshInvalid = errors.New("invalid refresh token")

// TokenRepo stores refresh tokens by their SHA-256 hash; the raw value is
// never persisted.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

const insertRefresh = "INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)"

func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx, insertRefresh, userID, tokenHash, exp.UTC())
	return err
}

// ValidateRefresh returns the owner of a live token.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	var userID uint64
	err := r.DB.QueryRowContext(ctx,
		`SELECT user_id FROM refresh_tokens
		  WHERE token_hash=? AND revoked_at IS NULL AND expires_at > ?`,
		tokenHash, time.Now().UTC()).Scan(&userID)
	if err != nil {
		return 0, notFound(err, ErrRefreshInvalid)
	}
	return userID, nil
}

// RotateRefresh swaps oldHash for newHash atomically.  Only the first of two
// concurrent rotations of the same token succeeds; the other gets
// ErrRefreshInvalid.
func (r *TokenRepo) RotateRefresh(ctx context.Context, userID uint64, oldHash, newHash string, exp time.Time) error {
	return inTx(ctx, r.DB, func(tx *sql.Tx) error {
		n, err := revoke(ctx, tx, "token_hash=? AND user_id=?", oldHash, userID)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrRefreshInvalid
		}
		_, err = tx.ExecContext(ctx, insertRefresh, userID, newHash, exp.UTC())
		return err
	})
}

func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	_, err := revoke(ctx, r.DB, "token_hash=?", tokenHash)
	return err
}

// RevokeAllForUser logs the user out everywhere.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := revoke(ctx, r.DB, "user_id=?", userID)
	return err
}

func revoke(ctx context.Context, db execer, where string, args ...any) (int64, error) {
	res, err := db.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE revoked_at IS NULL AND "+where, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
