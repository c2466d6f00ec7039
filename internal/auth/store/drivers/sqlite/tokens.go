package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/sessiond/internal/auth/domain"
)

type tokensRepo struct {
	db dbtx
}

const tokenColumns = `id, user_id, device_id, device_name, audience, token_hash, token_type,
	expires_at, created_at, login_at, is_revoked, revoked_at, revoked_by`

func scanToken(row interface{ Scan(...any) error }) (domain.AuthToken, error) {
	var (
		t         domain.AuthToken
		tokenType string
		revokedAt sql.NullTime
		revokedBy sql.NullString
	)
	err := row.Scan(
		&t.ID, &t.UserID, &t.DeviceID, &t.DeviceName, &t.Audience, &t.TokenHash, &tokenType,
		&t.ExpiresAt, &t.CreatedAt, &t.LoginAt, &t.IsRevoked, &revokedAt, &revokedBy,
	)
	if err != nil {
		return domain.AuthToken{}, mapNotFound(err)
	}
	t.Type = domain.TokenType(tokenType)
	t.ExpiresAt = t.ExpiresAt.UTC()
	t.CreatedAt = t.CreatedAt.UTC()
	t.LoginAt = t.LoginAt.UTC()
	t.RevokedAt = mapNullTimePtr(revokedAt)
	t.RevokedBy = mapNullString(revokedBy)
	return t, nil
}

func (r *tokensRepo) CreateToken(ctx context.Context, t domain.AuthToken) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO auth_tokens (`+tokenColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, NULL, NULL)`,
		t.ID, t.UserID, t.DeviceID, t.DeviceName, t.Audience, t.TokenHash, string(t.Type),
		t.ExpiresAt.UTC(), t.CreatedAt.UTC(), t.LoginAt.UTC(),
	)
	return mapConstraint(err)
}

func (r *tokensRepo) GetTokenByHash(ctx context.Context, hash string) (domain.AuthToken, error) {
	return scanToken(r.db.QueryRowContext(ctx,
		`SELECT `+tokenColumns+` FROM auth_tokens WHERE token_hash = ?`, hash))
}

func (r *tokensRepo) ListActiveRefreshTokens(
	ctx context.Context,
	userID string,
	now time.Time,
) ([]domain.AuthToken, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+tokenColumns+` FROM auth_tokens
		WHERE user_id = ? AND token_type = 'refresh' AND is_revoked = 0 AND expires_at > ?
		ORDER BY login_at, id`,
		userID, now.UTC(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AuthToken
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *tokensRepo) CountActiveRefreshTokens(ctx context.Context, userID string, now time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM auth_tokens
		WHERE user_id = ? AND token_type = 'refresh' AND is_revoked = 0 AND expires_at > ?`,
		userID, now.UTC(),
	).Scan(&n)
	return n, err
}

func (r *tokensRepo) RevokeTokenIfValid(ctx context.Context, id, revokedBy string, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE auth_tokens SET is_revoked = 1, revoked_at = ?, revoked_by = ?
		WHERE id = ? AND is_revoked = 0 AND expires_at > ?`,
		now.UTC(), revokedBy, id, now.UTC(),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (r *tokensRepo) RevokeDeviceTokens(
	ctx context.Context,
	userID, deviceID, revokedBy string,
	now time.Time,
) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE auth_tokens SET is_revoked = 1, revoked_at = ?, revoked_by = ?
		WHERE user_id = ? AND device_id = ? AND token_type = 'refresh' AND is_revoked = 0 AND expires_at > ?`,
		now.UTC(), revokedBy, userID, deviceID, now.UTC(),
	)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil || n == 0 {
		return n, err
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE auth_tokens SET is_revoked = 1, revoked_at = ?, revoked_by = ?
		WHERE user_id = ? AND device_id = ? AND token_type = 'access' AND is_revoked = 0 AND expires_at > ?`,
		now.UTC(), revokedBy, userID, deviceID, now.UTC(),
	)
	return n, err
}

func (r *tokensRepo) RevokeAllUserTokens(ctx context.Context, userID, revokedBy string, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE auth_tokens SET is_revoked = 1, revoked_at = ?, revoked_by = ?
		WHERE user_id = ? AND is_revoked = 0 AND expires_at > ?`,
		now.UTC(), revokedBy, userID, now.UTC(),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *tokensRepo) DeleteExpiredTokens(ctx context.Context, cutoff time.Time, limit int) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM auth_tokens WHERE id IN (
			SELECT id FROM auth_tokens WHERE expires_at < ? LIMIT ?
		)`,
		cutoff.UTC(), limit,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
