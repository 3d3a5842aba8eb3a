// Package tokens mints, resolves and consumes the redeemable handles of an offer.
package tokens

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/boost-backend/internal/access"
	"github.com/angelmondragon/boost-backend/pkg/auth"
	"github.com/angelmondragon/boost-backend/pkg/db/models"
	"github.com/angelmondragon/boost-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/boost-backend/pkg/errors"
	"github.com/angelmondragon/boost-backend/pkg/pagination"
	"github.com/angelmondragon/boost-backend/pkg/qr"
	"github.com/angelmondragon/boost-backend/pkg/security"
)

// ErrAlreadyConsumed is returned by MarkRedeemed when a single-use token was
// consumed by a concurrent redeem.
var ErrAlreadyConsumed = errors.New("token already consumed")

const shortCodeAttempts = 5

var listBounds = pagination.Bounds{Default: DefaultListLimit, Max: MaxListLimit}

type offerLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Offer, error)
}

// Service exposes the token lifecycle.
type Service struct {
	repo     *Repository
	offers   offerLookup
	renderer qr.Renderer
	baseURL  string
	now      func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService wires the token repository with offer lookups and QR rendering.
// baseURL prefixes the QR payload, which has the form {baseURL}/r/{tokenID}.
func NewService(repo *Repository, offers offerLookup, renderer qr.Renderer, baseURL string, opts ...Option) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("token repository required")
	}
	if offers == nil {
		return nil, fmt.Errorf("offer lookup required")
	}
	if renderer == nil {
		return nil, fmt.Errorf("qr renderer required")
	}
	s := &Service{
		repo:     repo,
		offers:   offers,
		renderer: renderer,
		baseURL:  strings.TrimRight(baseURL, "/"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// QRData builds the payload encoded in a token's QR image.
func (s *Service) QRData(tokenID uuid.UUID) string {
	return fmt.Sprintf("%s/r/%s", s.baseURL, tokenID)
}

// EnsureToken refreshes the offer's token or mints its first one. Either way
// the token comes back active, universal and expiring expiresInDays from now.
func (s *Service) EnsureToken(ctx context.Context, offerID uuid.UUID, expiresInDays int) (*models.RedemptionToken, error) {
	if expiresInDays <= 0 {
		expiresInDays = DefaultExpiresDays
	}
	if _, err := s.loadOffer(ctx, offerID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	expiresAt := now.AddDate(0, 0, expiresInDays)

	existing, err := s.repo.FindForOffer(ctx, offerID)
	switch {
	case err == nil:
		if err := s.repo.Refresh(ctx, existing.ID, expiresAt); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refresh token")
		}
		existing.Status = enums.TokenStatusActive
		existing.ExpiresAt = expiresAt
		existing.IsUniversal = true
		return existing, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offer token")
	}

	code, err := s.uniqueShortCode(ctx)
	if err != nil {
		return nil, err
	}
	id := uuid.New()
	token := &models.RedemptionToken{
		ID:          id,
		OfferID:     offerID,
		ShortCode:   code,
		QRData:      s.QRData(id),
		Status:      enums.TokenStatusActive,
		IsUniversal: true,
		ExpiresAt:   expiresAt,
		CreatedAt:   now,
	}
	if err := s.repo.Create(ctx, token); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create token")
	}
	return token, nil
}

func (s *Service) uniqueShortCode(ctx context.Context) (string, error) {
	for i := 0; i < shortCodeAttempts; i++ {
		code, err := security.GenerateShortCode()
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate short code")
		}
		taken, err := s.repo.ShortCodeExists(ctx, code)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check short code")
		}
		if !taken {
			return code, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeInternal, "could not allocate a unique short code")
}

// Resolve finds a token by full id or by short code. A 36 character input
// containing a hyphen is treated as an id only; anything else is matched as a
// case-insensitive short code.
func (s *Service) Resolve(ctx context.Context, input string) (*models.RedemptionToken, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Token not found")
	}

	var (
		token *models.RedemptionToken
		err   error
	)
	if IsTokenID(input) {
		id, parseErr := uuid.Parse(input)
		if parseErr != nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Token not found")
		}
		token, err = s.repo.FindByID(ctx, id)
	} else {
		token, err = s.repo.FindByShortCode(ctx, strings.ToUpper(input))
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Token not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load token")
	}
	return token, nil
}

// IsTokenID reports whether input has the shape of a full token id.
func IsTokenID(input string) bool {
	return len(input) == 36 && strings.Contains(input, "-")
}

// MarkRedeemed records a use of token inside tx. Universal tokens only track
// their last use. Legacy tokens are consumed, and ErrAlreadyConsumed is
// returned when another transaction consumed the token first.
func (s *Service) MarkRedeemed(ctx context.Context, tx *gorm.DB, token *models.RedemptionToken, location string, at time.Time) error {
	repo := s.repo.WithTx(tx)
	if token.IsUniversal {
		return repo.MarkUniversalUsed(ctx, token.ID, location, at)
	}
	ok, err := repo.MarkLegacyRedeemed(ctx, token.ID, location, at)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAlreadyConsumed
	}
	return nil
}

// Generate is the gated form of EnsureToken used by the admin API.
func (s *Service) Generate(ctx context.Context, caller auth.Caller, offerID uuid.UUID, input GenerateInput) (*GenerateResult, error) {
	offer, err := s.loadOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if err := access.RequireMerchantAdmin(caller, offer.MerchantID); err != nil {
		return nil, err
	}
	if input.ExpiresDays > MaxExpiresDays {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "expires_days must be between 1 and 365")
	}
	token, err := s.EnsureToken(ctx, offerID, input.ExpiresDays)
	if err != nil {
		return nil, err
	}
	return &GenerateResult{
		OfferID: offerID,
		Count:   1,
		Tokens:  []TokenDTO{FromModel(token)},
	}, nil
}

// List returns the offer's tokens, newest first.
func (s *Service) List(ctx context.Context, caller auth.Caller, offerID uuid.UUID, status *enums.TokenStatus, limit int) (*ListResult, error) {
	offer, err := s.loadOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if err := access.RequireMerchantAdmin(caller, offer.MerchantID); err != nil {
		return nil, err
	}
	limit = listBounds.Limit(limit)

	rows, err := s.repo.ListByOffer(ctx, offerID, status, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tokens")
	}
	out := make([]TokenDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return &ListResult{OfferID: offerID, Tokens: out}, nil
}

// QR renders the token's payload as a PNG.
func (s *Service) QR(ctx context.Context, caller auth.Caller, tokenID uuid.UUID) ([]byte, error) {
	token, err := s.repo.FindByID(ctx, tokenID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Token not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load token")
	}
	offer, err := s.loadOffer(ctx, token.OfferID)
	if err != nil {
		return nil, err
	}
	if err := access.RequireMerchantAdmin(caller, offer.MerchantID); err != nil {
		return nil, err
	}
	png, err := s.renderer.PNG(token.QRData)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render qr")
	}
	return png, nil
}

// ExpireStale marks active tokens past their expiry as expired.
func (s *Service) ExpireStale(ctx context.Context) (int64, error) {
	n, err := s.repo.ExpireStale(ctx, s.now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire stale tokens")
	}
	return n, nil
}

func (s *Service) loadOffer(ctx context.Context, offerID uuid.UUID) (*models.Offer, error) {
	offer, err := s.offers.FindByID(ctx, offerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Offer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offer")
	}
	return offer, nil
}
