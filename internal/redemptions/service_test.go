package redemptions

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/boost-backend/internal/caps"
	"github.com/angelmondragon/boost-backend/internal/ledger"
	"github.com/angelmondragon/boost-backend/internal/offers"
	"github.com/angelmondragon/boost-backend/internal/tokens"
	"github.com/angelmondragon/boost-backend/pkg/auth"
	"github.com/angelmondragon/boost-backend/pkg/db/dbtest"
	"github.com/angelmondragon/boost-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/boost-backend/pkg/db/types"
	"github.com/angelmondragon/boost-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/boost-backend/pkg/errors"
	"github.com/angelmondragon/boost-backend/pkg/logger"
	"github.com/angelmondragon/boost-backend/pkg/metrics"
	"github.com/angelmondragon/boost-backend/pkg/outbox"
)

var fixedNow = time.Date(2025, 3, 14, 15, 0, 0, 0, time.UTC)

type stubRenderer struct{}

func (stubRenderer) PNG(string) ([]byte, error) { return []byte("png"), nil }

type harness struct {
	conn     *gorm.DB
	svc      Service
	tokens   *tokens.Service
	reg      *prometheus.Registry
	merchant *models.Merchant
	staff    auth.Caller
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	client := dbtest.Client(t)
	conn := client.DB()
	clock := func() time.Time { return fixedNow }

	offerRepo := offers.NewRepository(conn)
	tokenSvc, err := tokens.NewService(tokens.NewRepository(conn), offerRepo, stubRenderer{}, "https://boost.test", tokens.WithClock(clock))
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
	svc, err := NewService(ServiceParams{
		Tx:      client,
		Repo:    NewRepository(conn),
		Tokens:  tokenSvc,
		Offers:  offerRepo,
		Caps:    caps.NewCounter(conn),
		Ledger:  ledger.NewRepository(conn),
		Outbox:  outbox.NewService(outbox.NewRepository(conn), logg, true),
		Metrics: metrics.NewRedemptionMetrics(reg),
		Logger:  logg,
		Now:     clock,
	})
	require.NoError(t, err)

	merchant := &models.Merchant{
		Name:         "Corner Cafe",
		ContactEmail: "cafe@example.com",
		Locations:    dbtypes.StringList{"Main St"},
		Status:       enums.MerchantStatusActive,
	}
	require.NoError(t, conn.Create(merchant).Error)

	return &harness{
		conn:     conn,
		svc:      svc,
		tokens:   tokenSvc,
		reg:      reg,
		merchant: merchant,
		staff:    auth.Caller{UID: "staff-1", Role: enums.RoleStaff, MerchantID: &merchant.ID},
	}
}

func (h *harness) offer(t *testing.T, capDaily int, status enums.OfferStatus) *models.Offer {
	t.Helper()
	offer := &models.Offer{
		MerchantID:         h.merchant.ID,
		Name:               "Free Coffee",
		DiscountText:       "One free drip coffee",
		CapDaily:           capDaily,
		ValuePerRedemption: decimal.RequireFromString("2.50"),
		Status:             status,
	}
	require.NoError(t, h.conn.Create(offer).Error)
	return offer
}

func (h *harness) universalToken(t *testing.T, offerID uuid.UUID) *models.RedemptionToken {
	t.Helper()
	token, err := h.tokens.EnsureToken(context.Background(), offerID, 30)
	require.NoError(t, err)
	return token
}

func (h *harness) legacyToken(t *testing.T, offerID uuid.UUID, code string, expiresAt time.Time) *models.RedemptionToken {
	t.Helper()
	token := &models.RedemptionToken{
		OfferID:     offerID,
		ShortCode:   code,
		QRData:      "https://boost.test/r/legacy",
		Status:      enums.TokenStatusActive,
		IsUniversal: false,
		ExpiresAt:   expiresAt,
	}
	require.NoError(t, h.conn.Create(token).Error)
	return token
}

func (h *harness) redeem(t *testing.T, token string) *Outcome {
	t.Helper()
	out, err := h.svc.Redeem(context.Background(), h.staff, RedeemInput{
		Token:    token,
		Location: "Main St",
		Method:   enums.RedemptionMethodScan,
	})
	require.NoError(t, err)
	return out
}

func (h *harness) outcomeCount(t *testing.T, result string) float64 {
	t.Helper()
	families, err := h.reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != "boost_redemption_outcomes_total" {
			continue
		}
		for _, m := range family.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "result" && label.GetValue() == result {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func count(t *testing.T, conn *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(model).Count(&n).Error)
	return n
}

func TestRedeemCommitsRedemptionLedgerAndEvent(t *testing.T) {
	h := newHarness(t)
	offer := h.offer(t, 5, enums.OfferStatusActive)
	token := h.universalToken(t, offer.ID)

	out := h.redeem(t, token.ShortCode)
	require.True(t, out.Success)
	assert.Equal(t, MsgSuccess, out.Message)
	assert.Equal(t, "Free Coffee", out.OfferName)
	assert.Equal(t, "One free drip coffee", out.DiscountText)
	require.NotNil(t, out.RedemptionID)

	var redemption models.Redemption
	require.NoError(t, h.conn.Where("id = ?", *out.RedemptionID).Take(&redemption).Error)
	assert.Equal(t, "staff-1", redemption.RedeemedBy)
	assert.True(t, redemption.Value.Equal(decimal.RequireFromString("2.5")))

	var entry models.LedgerEntry
	require.NoError(t, h.conn.Where("redemption_id = ?", redemption.ID).Take(&entry).Error)
	assert.True(t, entry.Amount.Equal(redemption.Value))
	assert.Equal(t, h.merchant.ID, entry.MerchantID)

	var event models.OutboxEvent
	require.NoError(t, h.conn.Where("aggregate_id = ?", redemption.ID).Take(&event).Error)
	assert.Equal(t, enums.EventRedemptionRecorded, event.EventType)

	var stored models.RedemptionToken
	require.NoError(t, h.conn.Where("id = ?", token.ID).Take(&stored).Error)
	assert.Equal(t, enums.TokenStatusActive, stored.Status)
	require.NotNil(t, stored.LastRedeemedByLocation)
	assert.Equal(t, "Main St", *stored.LastRedeemedByLocation)

	assert.Equal(t, float64(1), h.outcomeCount(t, "success"))
}

func TestRedeemUniversalTokenIsReusable(t *testing.T) {
	h := newHarness(t)
	offer := h.offer(t, 5, enums.OfferStatusActive)
	token := h.universalToken(t, offer.ID)

	for i := 0; i < 3; i++ {
		require.True(t, h.redeem(t, token.ID.String()).Success)
	}
	assert.Equal(t, int64(3), count(t, h.conn, &models.Redemption{}))
}

func TestRedeemStopsAtDailyCap(t *testing.T) {
	h := newHarness(t)
	offer := h.offer(t, 2, enums.OfferStatusActive)
	token := h.universalToken(t, offer.ID)

	require.True(t, h.redeem(t, token.ShortCode).Success)
	require.True(t, h.redeem(t, token.ShortCode).Success)

	out := h.redeem(t, token.ShortCode)
	assert.False(t, out.Success)
	assert.Equal(t, enums.RedemptionResultCapReached, out.Reason)
	assert.Equal(t, MsgCapReached, out.Message)
	assert.Equal(t, int64(2), count(t, h.conn, &models.Redemption{}))
	assert.Equal(t, int64(2), count(t, h.conn, &models.LedgerEntry{}))
	assert.Equal(t, float64(1), h.outcomeCount(t, "cap_reached"))
}

func TestRedeemCapReservationRollsBackWhenCounterFull(t *testing.T) {
	h := newHarness(t)
	offer := h.offer(t, 1, enums.OfferStatusActive)
	token := h.universalToken(t, offer.ID)
	require.NoError(t, h.conn.Create(&models.OfferDailyCounter{
		OfferID: offer.ID,
		Day:     caps.DayKey(fixedNow),
		Count:   1,
	}).Error)

	out := h.redeem(t, token.ShortCode)
	assert.Equal(t, enums.RedemptionResultCapReached, out.Reason)
	assert.Equal(t, int64(0), count(t, h.conn, &models.Redemption{}))
	assert.Equal(t, int64(0), count(t, h.conn, &models.LedgerEntry{}))
	assert.Equal(t, int64(0), count(t, h.conn, &models.OutboxEvent{}))
}

func TestRedeemLegacyTokenIsSingleUse(t *testing.T) {
	h := newHarness(t)
	offer := h.offer(t, 5, enums.OfferStatusActive)
	token := h.legacyToken(t, offer.ID, "ABC234", fixedNow.Add(24*time.Hour))

	require.True(t, h.redeem(t, "abc234").Success)

	out := h.redeem(t, "ABC234")
	assert.False(t, out.Success)
	assert.Equal(t, enums.RedemptionResultAlreadyRedeemed, out.Reason)
	assert.Equal(t, MsgAlreadyRedeemed, out.Message)

	var stored models.RedemptionToken
	require.NoError(t, h.conn.Where("id = ?", token.ID).Take(&stored).Error)
	assert.Equal(t, enums.TokenStatusRedeemed, stored.Status)
}

func TestRedeemChecksExpiryLive(t *testing.T) {
	h := newHarness(t)
	offer := h.offer(t, 5, enums.OfferStatusActive)
	h.legacyToken(t, offer.ID, "XYZ789", fixedNow.Add(-time.Second))

	out := h.redeem(t, "XYZ789")
	assert.Equal(t, enums.RedemptionResultExpired, out.Reason)
	assert.Equal(t, MsgExpired, out.Message)
}

func TestRedeemInactiveOffer(t *testing.T) {
	h := newHarness(t)
	offer := h.offer(t, 5, enums.OfferStatusActive)
	token := h.universalToken(t, offer.ID)
	require.NoError(t, h.conn.Model(offer).Update("status", enums.OfferStatusPaused).Error)

	out := h.redeem(t, token.ShortCode)
	assert.Equal(t, enums.RedemptionResultOfferInactive, out.Reason)
	assert.Equal(t, MsgOfferInactive, out.Message)
}

func TestRedeemHardFailures(t *testing.T) {
	h := newHarness(t)
	offer := h.offer(t, 5, enums.OfferStatusActive)
	token := h.universalToken(t, offer.ID)
	ctx := context.Background()

	_, err := h.svc.Redeem(ctx, h.staff, RedeemInput{Token: "NOPE22", Location: "Main St", Method: enums.RedemptionMethodManual})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	other := uuid.New()
	outsider := auth.Caller{UID: "staff-2", Role: enums.RoleStaff, MerchantID: &other}
	_, err = h.svc.Redeem(ctx, outsider, RedeemInput{Token: token.ShortCode, Location: "Main St", Method: enums.RedemptionMethodScan})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeForbidden))

	_, err = h.svc.Redeem(ctx, h.staff, RedeemInput{Token: token.ShortCode, Location: "  ", Method: enums.RedemptionMethodScan})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = h.svc.Redeem(ctx, h.staff, RedeemInput{Token: token.ShortCode, Location: "Main St", Method: "nfc"})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	assert.Equal(t, int64(0), count(t, h.conn, &models.Redemption{}))
	assert.Equal(t, float64(4), h.outcomeCount(t, "error"))
}

func TestListScopesToCallerMerchant(t *testing.T) {
	h := newHarness(t)
	offer := h.offer(t, 5, enums.OfferStatusActive)
	token := h.universalToken(t, offer.ID)
	require.True(t, h.redeem(t, token.ShortCode).Success)

	foreign := &models.Redemption{
		TokenID:    uuid.New(),
		OfferID:    uuid.New(),
		MerchantID: uuid.New(),
		Method:     enums.RedemptionMethodManual,
		Location:   "Elsewhere",
		Value:      decimal.RequireFromString("1.00"),
		RedeemedBy: "someone",
		Timestamp:  fixedNow,
	}
	require.NoError(t, h.conn.Create(foreign).Error)

	res, err := h.svc.List(context.Background(), h.staff, ListInput{})
	require.NoError(t, err)
	require.Len(t, res.Redemptions, 1)
	assert.Equal(t, offer.ID, res.Redemptions[0].OfferID)
	assert.Equal(t, 50, res.Limit)

	all, err := h.svc.List(context.Background(), auth.Caller{UID: "owner", Role: enums.RoleOwner}, ListInput{Limit: 500})
	require.NoError(t, err)
	assert.Len(t, all.Redemptions, 2)
	assert.Equal(t, 200, all.Limit)
}
