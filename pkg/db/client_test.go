package db

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/boost-backend/pkg/db/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), GormConfig())
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	return conn
}

func TestWithTx_CommitsAndRollbacks(t *testing.T) {
	client := &Client{conn: newTestDB(t)}
	ctx := context.Background()
	if err := client.AutoMigrate(ctx); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	if err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&models.Merchant{Name: "committed", ContactEmail: "a@b.c", Status: "active"}).Error
	}); err != nil {
		t.Fatalf("WithTx commit failed: %v", err)
	}

	var count int64
	if err := client.DB().Model(&models.Merchant{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 record, got %d", count)
	}

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&models.Merchant{Name: "rolled", ContactEmail: "a@b.c", Status: "active"}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected WithTx to return an error")
	}
	if err := client.DB().Model(&models.Merchant{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed after rollback: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected rollback to leave 1 record, got %d", count)
	}
}

func TestWithTx_RollsBackOnPanic(t *testing.T) {
	client := &Client{conn: newTestDB(t)}
	ctx := context.Background()
	if err := client.AutoMigrate(ctx); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic to propagate")
			}
		}()
		_ = client.WithTx(ctx, func(tx *gorm.DB) error {
			if err := tx.Create(&models.Merchant{Name: "panicky", ContactEmail: "a@b.c", Status: "active"}).Error; err != nil {
				return err
			}
			panic("boom")
		})
	}()

	var count int64
	if err := client.DB().Model(&models.Merchant{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected panic to roll back, got %d rows", count)
	}
}

func TestPing(t *testing.T) {
	client := &Client{conn: newTestDB(t)}
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
}

func TestIsUniqueViolationSQLite(t *testing.T) {
	client := &Client{conn: newTestDB(t)}
	ctx := context.Background()
	if err := client.AutoMigrate(ctx); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	redemptionID := uuid.New()
	entry := func() *models.LedgerEntry {
		return &models.LedgerEntry{MerchantID: uuid.New(), RedemptionID: redemptionID, OfferID: uuid.New()}
	}
	if err := client.DB().Create(entry()).Error; err != nil {
		t.Fatalf("first insert: %v", err)
	}
	err := client.DB().Create(entry()).Error
	if !IsUniqueViolation(err, "") {
		t.Fatalf("expected unique violation, got %v", err)
	}
	if IsUniqueViolation(errors.New("other"), "") {
		t.Fatal("plain error is not a unique violation")
	}
}
