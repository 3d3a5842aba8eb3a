package identity

import (
	"context"
	"fmt"
	"strings"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/angelmondragon/boost-backend/pkg/auth"
	"github.com/angelmondragon/boost-backend/pkg/config"
)

const (
	claimRole       = "role"
	claimMerchantID = "merchant_id"
	claimIsPrimary  = "is_primary"
	claimEmail      = "email"
)

type firebaseAuth interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
	GetUserByEmail(ctx context.Context, email string) (*fbauth.UserRecord, error)
	SetCustomUserClaims(ctx context.Context, uid string, customClaims map[string]interface{}) error
}

// Firebase verifies Firebase ID tokens and stores role grants as custom claims.
type Firebase struct {
	client firebaseAuth
}

// NewFirebase initialises a Firebase app from the configured credentials.
// Without explicit credentials the application default credentials are used.
func NewFirebase(ctx context.Context, cfg config.IdentityConfig, gcp config.GCPConfig) (*Firebase, error) {
	var opts []option.ClientOption
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	var appCfg *firebase.Config
	if gcp.ProjectID != "" {
		appCfg = &firebase.Config{ProjectID: gcp.ProjectID}
	}

	app, err := firebase.NewApp(ctx, appCfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("initializing firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("initializing firebase auth: %w", err)
	}
	return &Firebase{client: client}, nil
}

func (f *Firebase) Verify(ctx context.Context, credential string) (auth.Caller, error) {
	token, err := f.client.VerifyIDToken(ctx, credential)
	if err != nil {
		return auth.Caller{}, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	return callerFromClaims(token.UID, token.Claims), nil
}

func (f *Firebase) LookupByEmail(ctx context.Context, email string) (*Account, error) {
	record, err := f.client.GetUserByEmail(ctx, email)
	if err != nil {
		if fbauth.IsUserNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("firebase lookup by email: %w", err)
	}
	return &Account{UID: record.UID, Email: record.Email}, nil
}

func (f *Firebase) SetRoleClaims(ctx context.Context, uid string, claims auth.RoleClaims) error {
	custom := map[string]interface{}{claimRole: string(claims.Role)}
	if claims.MerchantID != nil {
		custom[claimMerchantID] = claims.MerchantID.String()
	}
	if claims.IsPrimary {
		custom[claimIsPrimary] = true
	}
	if err := f.client.SetCustomUserClaims(ctx, uid, custom); err != nil {
		return fmt.Errorf("firebase set claims: %w", err)
	}
	return nil
}

func (f *Firebase) ClearClaims(ctx context.Context, uid string) error {
	if err := f.client.SetCustomUserClaims(ctx, uid, map[string]interface{}{}); err != nil {
		return fmt.Errorf("firebase clear claims: %w", err)
	}
	return nil
}

func callerFromClaims(uid string, claims map[string]interface{}) auth.Caller {
	str := func(key string) string {
		if v, ok := claims[key].(string); ok {
			return v
		}
		return ""
	}
	primary, _ := claims[claimIsPrimary].(bool)
	return auth.NewCaller(uid, str(claimEmail), str(claimRole), str(claimMerchantID), primary)
}
