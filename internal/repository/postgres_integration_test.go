//go:build integration
// +build integration

package repository

import (
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/damsblt/only-you-coaching-app-sub005/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	cleanupModels := []interface{}{
		&models.PromoCodeUsage{},
		&models.PromoCode{},
		&models.Subscription{},
	}
	_ = db.Migrator().DropTable(cleanupModels...)

	if err := db.AutoMigrate(cleanupModels...); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Migrator().DropTable(cleanupModels...)
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func TestPostgresPromoCodeSearchUsesILike(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewPromoCodeRepository(db)

	for _, promo := range []*models.PromoCode{
		{Code: "ETE2026", DiscountType: models.DiscountTypePercentage, DiscountValue: models.NewDiscountValue(10), IsActive: true, Description: "Offre d'été"},
		{Code: "HIVER_50", DiscountType: models.DiscountTypePercentage, DiscountValue: models.NewDiscountValue(50), IsActive: true, Description: "Hiver"},
	} {
		if err := repo.Create(promo); err != nil {
			t.Fatalf("create promo failed: %v", err)
		}
	}

	items, total, err := repo.List(PromoCodeListFilter{Search: "OFFRE d'été", Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || len(items) != 1 || items[0].Code != "ETE2026" {
		t.Fatalf("unexpected search result total=%d items=%+v", total, items)
	}

	// 下划线按字面量匹配
	items, total, err = repo.List(PromoCodeListFilter{Search: "R_5", Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || items[0].Code != "HIVER_50" {
		t.Fatalf("unexpected escaped search result total=%d items=%+v", total, items)
	}
}

func TestPostgresIncrementCurrentUsesRespectsLimitConcurrently(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewPromoCodeRepository(db)

	limit := 5
	promo := &models.PromoCode{
		Code:          "RUSH5",
		DiscountType:  models.DiscountTypeFixedAmount,
		DiscountValue: models.NewDiscountValue(500),
		MaxUses:       &limit,
		IsActive:      true,
	}
	if err := repo.Create(promo); err != nil {
		t.Fatalf("create promo failed: %v", err)
	}

	var granted int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.IncrementCurrentUses(promo.ID)
			if err != nil {
				t.Errorf("increment failed: %v", err)
				return
			}
			if ok {
				atomic.AddInt32(&granted, 1)
			}
		}()
	}
	wg.Wait()

	if granted != int32(limit) {
		t.Fatalf("expected %d grants, got %d", limit, granted)
	}
	stored, err := repo.GetByID(promo.ID)
	if err != nil || stored == nil {
		t.Fatalf("reload promo failed: %v", err)
	}
	if stored.CurrentUses != limit {
		t.Fatalf("expected current_uses=%d, got %d", limit, stored.CurrentUses)
	}
}
