package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/boost-backend/pkg/auth"
	"github.com/angelmondragon/boost-backend/pkg/config"
	"github.com/angelmondragon/boost-backend/pkg/redis"
)

type claimsStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	ClaimsKey(uid string) string
	IdentityEmailKey(email string) string
}

// Local verifies HS256 tokens minted by pkg/auth. Claims written after a
// token was minted are kept in redis and take precedence over the token.
type Local struct {
	cfg   config.JWTConfig
	store claimsStore
}

func NewLocal(cfg config.JWTConfig, store claimsStore) (*Local, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	if store == nil {
		return nil, fmt.Errorf("claims store is required")
	}
	return &Local{cfg: cfg, store: store}, nil
}

func (l *Local) Verify(ctx context.Context, credential string) (auth.Caller, error) {
	claims, err := auth.ParseAccessToken(l.cfg, credential)
	if err != nil {
		return auth.Caller{}, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	caller := claims.Caller()

	if caller.Email != "" {
		if err := l.store.Set(ctx, l.store.IdentityEmailKey(caller.Email), caller.UID, 0); err != nil {
			return auth.Caller{}, fmt.Errorf("record identity: %w", err)
		}
	}

	raw, err := l.store.Get(ctx, l.store.ClaimsKey(caller.UID))
	switch {
	case redis.IsNil(err):
		return caller, nil
	case err != nil:
		return auth.Caller{}, fmt.Errorf("load claims: %w", err)
	}

	var overlay auth.RoleClaims
	if err := json.Unmarshal([]byte(raw), &overlay); err != nil {
		return auth.Caller{}, fmt.Errorf("decode claims: %w", err)
	}
	return caller.WithClaims(overlay), nil
}

func (l *Local) LookupByEmail(ctx context.Context, email string) (*Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	uid, err := l.store.Get(ctx, l.store.IdentityEmailKey(email))
	if err != nil {
		if redis.IsNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lookup identity: %w", err)
	}
	return &Account{UID: uid, Email: email}, nil
}

func (l *Local) SetRoleClaims(ctx context.Context, uid string, claims auth.RoleClaims) error {
	return l.writeClaims(ctx, uid, claims)
}

// ClearClaims stores an empty grant rather than deleting the key so the
// roles embedded in already issued tokens stop applying.
func (l *Local) ClearClaims(ctx context.Context, uid string) error {
	return l.writeClaims(ctx, uid, auth.RoleClaims{})
}

func (l *Local) writeClaims(ctx context.Context, uid string, claims auth.RoleClaims) error {
	payload, err := json.Marshal(claims)
	if err != nil {
		return err
	}
	if err := l.store.Set(ctx, l.store.ClaimsKey(uid), string(payload), 0); err != nil {
		return fmt.Errorf("store claims: %w", err)
	}
	return nil
}
