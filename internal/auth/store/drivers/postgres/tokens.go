package postgres

import (
	"context"
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
		revokedBy *string
	)
	err := row.Scan(
		&t.ID, &t.UserID, &t.DeviceID, &t.DeviceName, &t.Audience, &t.TokenHash, &tokenType,
		&t.ExpiresAt, &t.CreatedAt, &t.LoginAt, &t.IsRevoked, &t.RevokedAt, &revokedBy,
	)
	if err != nil {
		return domain.AuthToken{}, mapNotFound(err)
	}
	t.Type = domain.TokenType(tokenType)
	t.ExpiresAt = t.ExpiresAt.UTC()
	t.CreatedAt = t.CreatedAt.UTC()
	t.LoginAt = t.LoginAt.UTC()
	if t.RevokedAt != nil {
		at := t.RevokedAt.UTC()
		t.RevokedAt = &at
	}
	if revokedBy != nil {
		t.RevokedBy = *revokedBy
	}
	return t, nil
}

func (r *tokensRepo) CreateToken(ctx context.Context, t domain.AuthToken) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO auth_tokens (`+tokenColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, FALSE, NULL, NULL)`,
		t.ID, t.UserID, t.DeviceID, t.DeviceName, t.Audience, t.TokenHash, string(t.Type),
		t.ExpiresAt, t.CreatedAt, t.LoginAt,
	)
	return mapConstraint(err)
}

func (r *tokensRepo) GetTokenByHash(ctx context.Context, hash string) (domain.AuthToken, error) {
	return scanToken(r.db.QueryRow(ctx,
		`SELECT `+tokenColumns+` FROM auth_tokens WHERE token_hash = $1`, hash))
}

func (r *tokensRepo) ListActiveRefreshTokens(
	ctx context.Context,
	userID string,
	now time.Time,
) ([]domain.AuthToken, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+tokenColumns+` FROM auth_tokens
		WHERE user_id = $1 AND token_type = 'refresh' AND NOT is_revoked AND expires_at > $2
		ORDER BY login_at, id`,
		userID, now,
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
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM auth_tokens
		WHERE user_id = $1 AND token_type = 'refresh' AND NOT is_revoked AND expires_at > $2`,
		userID, now,
	).Scan(&n)
	return n, err
}

func (r *tokensRepo) RevokeTokenIfValid(ctx context.Context, id, revokedBy string, now time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE auth_tokens SET is_revoked = TRUE, revoked_at = $1, revoked_by = $2
		WHERE id = $3 AND NOT is_revoked AND expires_at > $1`,
		now, revokedBy, id,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *tokensRepo) RevokeDeviceTokens(
	ctx context.Context,
	userID, deviceID, revokedBy string,
	now time.Time,
) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE auth_tokens SET is_revoked = TRUE, revoked_at = $1, revoked_by = $2
		WHERE user_id = $3 AND device_id = $4 AND token_type = 'refresh' AND NOT is_revoked AND expires_at > $1`,
		now, revokedBy, userID, deviceID,
	)
	if err != nil {
		return 0, err
	}
	n := tag.RowsAffected()
	if n == 0 {
		return 0, nil
	}

	_, err = r.db.Exec(ctx,
		`UPDATE auth_tokens SET is_revoked = TRUE, revoked_at = $1, revoked_by = $2
		WHERE user_id = $3 AND device_id = $4 AND token_type = 'access' AND NOT is_revoked AND expires_at > $1`,
		now, revokedBy, userID, deviceID,
	)
	return n, err
}

func (r *tokensRepo) RevokeAllUserTokens(ctx context.Context, userID, revokedBy string, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE auth_tokens SET is_revoked = TRUE, revoked_at = $1, revoked_by = $2
		WHERE user_id = $3 AND NOT is_revoked AND expires_at > $1`,
		now, revokedBy, userID,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *tokensRepo) DeleteExpiredTokens(ctx context.Context, cutoff time.Time, limit int) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM auth_tokens WHERE id IN (
			SELECT id FROM auth_tokens WHERE expires_at < $1 LIMIT $2
		)`,
		cutoff, limit,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
