// Package caps computes per-offer daily redemption counts. Days are UTC
// calendar days starting at 00:00:00.
package caps

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/boost-backend/pkg/db/models"
)

// batchChunkSize bounds the IN clause of a single count query.
const batchChunkSize = 30

const dayLayout = "2006-01-02"

// Counter reads committed redemptions and maintains the per-offer daily counter.
type Counter struct {
	db *gorm.DB
}

func NewCounter(db *gorm.DB) *Counter {
	return &Counter{db: db}
}

// WithTx returns a counter bound to the provided transaction.
func (c *Counter) WithTx(tx *gorm.DB) *Counter {
	if tx == nil {
		return c
	}
	return &Counter{db: tx}
}

// StartOfDay returns 00:00:00 UTC of the day containing now.
func StartOfDay(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayKey formats the UTC day containing now as YYYY-MM-DD.
func DayKey(now time.Time) string {
	return now.UTC().Format(dayLayout)
}

// Remaining is the read-time projection of how many redemptions are left today.
func Remaining(capDaily, todayCount int) int {
	if left := capDaily - todayCount; left > 0 {
		return left
	}
	return 0
}

// CountToday counts redemptions of offerID since UTC midnight.
func (c *Counter) CountToday(ctx context.Context, offerID uuid.UUID, now time.Time) (int, error) {
	var count int64
	err := c.db.WithContext(ctx).
		Model(&models.Redemption{}).
		Where("offer_id = ? AND timestamp >= ?", offerID, StartOfDay(now)).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

type offerCount struct {
	OfferID uuid.UUID
	Total   int64
}

// BatchCountToday counts today's redemptions for every id in offerIDs using
// one grouped query per chunk. Ids without redemptions map to zero.
func (c *Counter) BatchCountToday(ctx context.Context, offerIDs []uuid.UUID, now time.Time) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int, len(offerIDs))
	for _, id := range offerIDs {
		counts[id] = 0
	}
	start := StartOfDay(now)

	for _, chunk := range chunkIDs(offerIDs, batchChunkSize) {
		var rows []offerCount
		err := c.db.WithContext(ctx).
			Model(&models.Redemption{}).
			Select("offer_id, COUNT(*) AS total").
			Where("offer_id IN ? AND timestamp >= ?", chunk, start).
			Group("offer_id").
			Scan(&rows).Error
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			counts[row.OfferID] = int(row.Total)
		}
	}
	return counts, nil
}

// Reserve atomically claims one slot of today's cap for offerID. It must run
// inside the transaction that records the redemption: the counter row is
// seeded from committed redemptions, then incremented only while below capDaily.
// It returns false when the cap is already reached.
func (c *Counter) Reserve(ctx context.Context, offerID uuid.UUID, capDaily int, now time.Time) (bool, error) {
	if capDaily <= 0 {
		return false, nil
	}
	day := DayKey(now)
	db := c.db.WithContext(ctx)

	existing, err := c.CountToday(ctx, offerID, now)
	if err != nil {
		return false, fmt.Errorf("count today: %w", err)
	}
	seed := models.OfferDailyCounter{OfferID: offerID, Day: day, Count: existing}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return false, fmt.Errorf("seed daily counter: %w", err)
	}

	res := db.Model(&models.OfferDailyCounter{}).
		Where("offer_id = ? AND day = ? AND count < ?", offerID, day, capDaily).
		UpdateColumn("count", gorm.Expr("count + 1"))
	if res.Error != nil {
		return false, fmt.Errorf("increment daily counter: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// Committed returns the counter value recorded for offerID today.
func (c *Counter) Committed(ctx context.Context, offerID uuid.UUID, now time.Time) (int, error) {
	var row models.OfferDailyCounter
	err := c.db.WithContext(ctx).
		Where("offer_id = ? AND day = ?", offerID, DayKey(now)).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return row.Count, nil
}

func chunkIDs(ids []uuid.UUID, size int) [][]uuid.UUID {
	if len(ids) == 0 {
		return nil
	}
	chunks := make([][]uuid.UUID, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
