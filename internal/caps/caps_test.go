package caps

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/boost-backend/pkg/db/dbtest"
	"github.com/angelmondragon/boost-backend/pkg/db/models"
	"github.com/angelmondragon/boost-backend/pkg/enums"
)

func insertRedemption(t *testing.T, db *gorm.DB, offerID uuid.UUID, at time.Time) {
	t.Helper()
	require.NoError(t, db.Create(&models.Redemption{
		TokenID:    uuid.New(),
		OfferID:    offerID,
		MerchantID: uuid.New(),
		Method:     enums.RedemptionMethodScan,
		Location:   "Front",
		Value:      decimal.RequireFromString("2.00"),
		RedeemedBy: "staff",
		Timestamp:  at,
	}).Error)
}

func TestStartOfDayIsUTCMidnight(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	now := time.Date(2026, 3, 9, 22, 30, 0, 0, loc) // 03:30 UTC on the 10th
	got := StartOfDay(now)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), got)
	assert.Equal(t, "2026-03-10", DayKey(now))
}

func TestRemaining(t *testing.T) {
	assert.Equal(t, 1, Remaining(2, 1))
	assert.Equal(t, 0, Remaining(2, 2))
	assert.Equal(t, 0, Remaining(2, 5))
}

func TestCountTodayIgnoresYesterday(t *testing.T) {
	db := dbtest.Open(t)
	counter := NewCounter(db)
	now := time.Now().UTC()
	offerID := uuid.New()

	insertRedemption(t, db, offerID, StartOfDay(now).Add(-time.Second))
	insertRedemption(t, db, offerID, StartOfDay(now))
	insertRedemption(t, db, offerID, now)
	insertRedemption(t, db, uuid.New(), now)

	count, err := counter.CountToday(context.Background(), offerID, now)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestBatchCountTodayChunksAndDefaultsToZero(t *testing.T) {
	db := dbtest.Open(t)
	counter := NewCounter(db)
	now := time.Now().UTC()

	ids := make([]uuid.UUID, 0, 65)
	for i := 0; i < 65; i++ {
		ids = append(ids, uuid.New())
	}
	insertRedemption(t, db, ids[0], now)
	insertRedemption(t, db, ids[0], now)
	insertRedemption(t, db, ids[31], now)
	insertRedemption(t, db, ids[64], now)
	insertRedemption(t, db, ids[64], StartOfDay(now).Add(-time.Hour))

	counts, err := counter.BatchCountToday(context.Background(), ids, now)
	require.NoError(t, err)
	require.Len(t, counts, 65)
	assert.Equal(t, 2, counts[ids[0]])
	assert.Equal(t, 1, counts[ids[31]])
	assert.Equal(t, 1, counts[ids[64]])
	assert.Equal(t, 0, counts[ids[10]])
}

func TestChunkIDs(t *testing.T) {
	ids := make([]uuid.UUID, 61)
	chunks := chunkIDs(ids, 30)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 30)
	assert.Len(t, chunks[2], 1)
	assert.Nil(t, chunkIDs(nil, 30))
}

func TestReserveStopsAtCap(t *testing.T) {
	db := dbtest.Open(t)
	counter := NewCounter(db)
	ctx := context.Background()
	now := time.Now().UTC()
	offerID := uuid.New()

	insertRedemption(t, db, offerID, now)

	ok, err := counter.Reserve(ctx, offerID, 2, now)
	require.NoError(t, err)
	assert.True(t, ok, "second slot should be available")

	ok, err = counter.Reserve(ctx, offerID, 2, now)
	require.NoError(t, err)
	assert.False(t, ok, "cap of two must be enforced")

	committed, err := counter.Committed(ctx, offerID, now)
	require.NoError(t, err)
	assert.Equal(t, 2, committed)
}

func TestReserveRolledBackWithTransaction(t *testing.T) {
	db := dbtest.Open(t)
	counter := NewCounter(db)
	ctx := context.Background()
	now := time.Now().UTC()
	offerID := uuid.New()

	tx := db.Begin()
	ok, err := counter.WithTx(tx).Reserve(ctx, offerID, 1, now)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, tx.Rollback().Error)

	ok, err = counter.Reserve(ctx, offerID, 1, now)
	require.NoError(t, err)
	assert.True(t, ok, "rolled back reservation must not consume the cap")
}
