package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/damsblt/only-you-coaching-app-sub005/internal/models"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupPromoServiceTest(t *testing.T) (*PromoCodeService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:promo_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.PromoCode{}, &models.PromoCodeUsage{}, &models.Subscription{}, &models.Admin{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	svc := NewPromoCodeService(repository.NewPromoCodeRepository(db), repository.NewPromoCodeUsageRepository(db), 0)
	return svc, db
}

func seedPromoCode(t *testing.T, db *gorm.DB, promo models.PromoCode) *models.PromoCode {
	t.Helper()
	if promo.DiscountType == "" {
		promo.DiscountType = models.DiscountTypePercentage
	}
	if promo.MaxUsesPerUser == 0 {
		promo.MaxUsesPerUser = 1
	}
	if err := db.Create(&promo).Error; err != nil {
		t.Fatalf("create promo failed: %v", err)
	}
	return &promo
}

func intPtr(v int) *int {
	return &v
}

func timePtr(v time.Time) *time.Time {
	return &v
}

func TestPromoCodeValidateAcceptsPercentage(t *testing.T) {
	svc, db := setupPromoServiceTest(t)
	seedPromoCode(t, db, models.PromoCode{
		Code:          "BIENVENUE10",
		DiscountValue: models.NewDiscountValue(10),
		IsActive:      true,
	})

	result, err := svc.Validate(context.Background(), ValidatePromoCodeInput{
		Code:           " bienvenue10 ",
		PlanID:         "essentiel",
		UserID:         "user-1",
		OriginalAmount: 6900,
	})
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if result.PromoCode.Code != "BIENVENUE10" {
		t.Fatalf("unexpected promo: %+v", result.PromoCode)
	}
	if result.Discount.Amount != 690 || result.Discount.FinalAmount != 6210 || result.Discount.OriginalAmount != 6900 {
		t.Fatalf("unexpected discount: %+v", result.Discount)
	}
	if result.Discount.Percentage == nil || *result.Discount.Percentage != 10 {
		t.Fatalf("percentage should be 10, got %v", result.Discount.Percentage)
	}

	var uses int64
	db.Model(&models.PromoCodeUsage{}).Count(&uses)
	if uses != 0 {
		t.Fatalf("validate must not write usage records")
	}
}

func TestPromoCodeValidateRejectionOrder(t *testing.T) {
	svc, db := setupPromoServiceTest(t)
	now := time.Now()

	seedPromoCode(t, db, models.PromoCode{Code: "OFF", DiscountValue: models.NewDiscountValue(10), IsActive: true})
	db.Model(&models.PromoCode{}).Where("code = ?", "OFF").Update("is_active", false)
	// 同时不满足多个条件时返回最先命中的原因
	seedPromoCode(t, db, models.PromoCode{
		Code:          "FUTURE",
		DiscountValue: models.NewDiscountValue(10),
		IsActive:      true,
		ValidFrom:     timePtr(now.Add(time.Hour)),
		ValidUntil:    timePtr(now.Add(-time.Hour)),
	})
	seedPromoCode(t, db, models.PromoCode{
		Code:          "PAST",
		DiscountValue: models.NewDiscountValue(10),
		IsActive:      true,
		ValidUntil:    timePtr(now.Add(-time.Minute)),
		MaxUses:       intPtr(1),
		CurrentUses:   1,
	})
	seedPromoCode(t, db, models.PromoCode{
		Code:          "FULL",
		DiscountValue: models.NewDiscountValue(10),
		IsActive:      true,
		MaxUses:       intPtr(2),
		CurrentUses:   2,
		EligiblePlans: models.StringList{"pro"},
	})
	seedPromoCode(t, db, models.PromoCode{
		Code:          "STARTER5",
		DiscountValue: models.NewDiscountValue(5),
		IsActive:      true,
		EligiblePlans: models.StringList{"starter"},
	})
	used := seedPromoCode(t, db, models.PromoCode{
		Code:          "ONCE",
		DiscountValue: models.NewDiscountValue(5),
		IsActive:      true,
	})
	if err := db.Create(&models.PromoCodeUsage{PromoCodeID: used.ID, UserID: "user-1"}).Error; err != nil {
		t.Fatalf("create usage failed: %v", err)
	}

	cases := []struct {
		code string
		plan string
		want error
	}{
		{code: "MISSING", plan: "starter", want: ErrPromoCodeNotFound},
		{code: "OFF", plan: "starter", want: ErrPromoCodeInactive},
		{code: "FUTURE", plan: "starter", want: ErrPromoCodeNotYetValid},
		{code: "PAST", plan: "starter", want: ErrPromoCodeExpired},
		{code: "FULL", plan: "starter", want: ErrPromoCodeLimitReached},
		{code: "STARTER5", plan: "premium", want: ErrPromoCodePlanNotEligible},
		{code: "ONCE", plan: "premium", want: ErrPromoCodeAlreadyUsed},
	}
	for _, item := range cases {
		_, err := svc.Validate(context.Background(), ValidatePromoCodeInput{
			Code:           item.code,
			PlanID:         item.plan,
			UserID:         "user-1",
			OriginalAmount: 3500,
		})
		if !errors.Is(err, item.want) {
			t.Fatalf("code %s: want %v got %v", item.code, item.want, err)
		}
	}

	if _, err := svc.Validate(context.Background(), ValidatePromoCodeInput{
		Code: "ONCE", PlanID: "premium", UserID: "user-2", OriginalAmount: 3500,
	}); err != nil {
		t.Fatalf("another user should still be able to use ONCE: %v", err)
	}
}

func TestPromoCodeValidateMissingParameters(t *testing.T) {
	svc, _ := setupPromoServiceTest(t)
	inputs := []ValidatePromoCodeInput{
		{PlanID: "pro", UserID: "u", OriginalAmount: 100},
		{Code: "X", UserID: "u", OriginalAmount: 100},
		{Code: "X", PlanID: "pro", OriginalAmount: 100},
		{Code: "X", PlanID: "pro", UserID: "u", OriginalAmount: 0},
	}
	for _, input := range inputs {
		if _, err := svc.Validate(context.Background(), input); !errors.Is(err, ErrMissingParameters) {
			t.Fatalf("input %+v: expected missing parameters, got %v", input, err)
		}
	}
}

func TestCalculateDiscount(t *testing.T) {
	percent := func(v float64) *models.PromoCode {
		return &models.PromoCode{DiscountType: models.DiscountTypePercentage, DiscountValue: models.NewDiscountValueFromFloat(v)}
	}
	fixed := func(v int64) *models.PromoCode {
		return &models.PromoCode{DiscountType: models.DiscountTypeFixedAmount, DiscountValue: models.NewDiscountValue(v)}
	}
	cases := []struct {
		name     string
		promo    *models.PromoCode
		original int64
		discount int64
		final    int64
	}{
		{name: "percent exact", promo: percent(25), original: 14900, discount: 3725, final: 11175},
		{name: "percent rounds half up", promo: percent(50), original: 2501, discount: 1251, final: 1250},
		{name: "percent rounds down", promo: percent(10), original: 994, discount: 99, final: 895},
		{name: "percent fractional value", promo: percent(12.5), original: 1000, discount: 125, final: 875},
		{name: "fixed", promo: fixed(1500), original: 10900, discount: 1500, final: 9400},
		{name: "fixed clamps to original", promo: fixed(1500), original: 1000, discount: 1000, final: 0},
		{name: "percent 100", promo: percent(100), original: 3000, discount: 3000, final: 0},
	}
	for _, item := range cases {
		got := CalculateDiscount(item.promo, item.original)
		if got.Amount != item.discount || got.FinalAmount != item.final {
			t.Fatalf("%s: want discount=%d final=%d, got %+v", item.name, item.discount, item.final, got)
		}
	}
	if got := CalculateDiscount(fixed(100), 500); got.Percentage != nil {
		t.Fatalf("fixed discount should not report percentage")
	}
}

func TestPromoCodeApplyRecordsUsage(t *testing.T) {
	svc, db := setupPromoServiceTest(t)
	promo := seedPromoCode(t, db, models.PromoCode{
		Code:          "NOEL2026",
		DiscountValue: models.NewDiscountValue(25),
		IsActive:      true,
		MaxUses:       intPtr(100),
	})

	usage, err := svc.Apply(context.Background(), ApplyPromoCodeInput{
		PromoCodeID:    promo.ID,
		UserID:         "user-1",
		SubscriptionID: "sub_1",
		DiscountAmount: 1725,
		OriginalAmount: 6900,
		FinalAmount:    5175,
	})
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if usage.ID == 0 || usage.SubscriptionID != "sub_1" || usage.DiscountAmount != 1725 {
		t.Fatalf("unexpected usage: %+v", usage)
	}

	var reloaded models.PromoCode
	if err := db.First(&reloaded, promo.ID).Error; err != nil {
		t.Fatalf("reload promo failed: %v", err)
	}
	if reloaded.CurrentUses != 1 {
		t.Fatalf("current uses want 1 got %d", reloaded.CurrentUses)
	}

	_, err = svc.Apply(context.Background(), ApplyPromoCodeInput{PromoCodeID: promo.ID, UserID: "user-1", SubscriptionID: "sub_2"})
	if !errors.Is(err, ErrPromoCodeAlreadyRedeemed) {
		t.Fatalf("second apply by same user should be rejected, got %v", err)
	}
	if err := db.First(&reloaded, promo.ID).Error; err != nil {
		t.Fatalf("reload promo failed: %v", err)
	}
	if reloaded.CurrentUses != 1 {
		t.Fatalf("rejected apply must not increment, got %d", reloaded.CurrentUses)
	}
}

func TestPromoCodeApplyRespectsGlobalCap(t *testing.T) {
	svc, db := setupPromoServiceTest(t)
	promo := seedPromoCode(t, db, models.PromoCode{
		Code:          "FLASH50",
		DiscountValue: models.NewDiscountValue(50),
		IsActive:      true,
		MaxUses:       intPtr(2),
	})

	for i := 1; i <= 2; i++ {
		if _, err := svc.Apply(context.Background(), ApplyPromoCodeInput{PromoCodeID: promo.ID, UserID: fmt.Sprintf("user-%d", i), SubscriptionID: fmt.Sprintf("sub_%d", i)}); err != nil {
			t.Fatalf("apply %d failed: %v", i, err)
		}
	}
	_, err := svc.Apply(context.Background(), ApplyPromoCodeInput{PromoCodeID: promo.ID, UserID: "user-3", SubscriptionID: "sub_3"})
	if !errors.Is(err, ErrPromoCodeLimitReached) {
		t.Fatalf("expected limit reached, got %v", err)
	}

	var count int64
	db.Model(&models.PromoCodeUsage{}).Where("promo_code_id = ?", promo.ID).Count(&count)
	if count != 2 {
		t.Fatalf("usage records want 2 got %d", count)
	}
	var reloaded models.PromoCode
	db.First(&reloaded, promo.ID)
	if reloaded.CurrentUses != 2 {
		t.Fatalf("current uses must not exceed cap, got %d", reloaded.CurrentUses)
	}
}

func TestPromoCodeApplyPerUserCapAboveOne(t *testing.T) {
	svc, db := setupPromoServiceTest(t)
	promo := seedPromoCode(t, db, models.PromoCode{
		Code:           "TWICE",
		DiscountValue:  models.NewDiscountValue(5),
		IsActive:       true,
		MaxUsesPerUser: 2,
	})
	for i := 0; i < 2; i++ {
		if _, err := svc.Apply(context.Background(), ApplyPromoCodeInput{PromoCodeID: promo.ID, UserID: "user-1", SubscriptionID: fmt.Sprintf("sub_%d", i)}); err != nil {
			t.Fatalf("apply %d failed: %v", i, err)
		}
	}
	if _, err := svc.Apply(context.Background(), ApplyPromoCodeInput{PromoCodeID: promo.ID, UserID: "user-1", SubscriptionID: "sub_9"}); !errors.Is(err, ErrPromoCodeAlreadyRedeemed) {
		t.Fatalf("third apply should be rejected, got %v", err)
	}
}

func TestPromoCodeApplyUnknownCode(t *testing.T) {
	svc, _ := setupPromoServiceTest(t)
	if _, err := svc.Apply(context.Background(), ApplyPromoCodeInput{PromoCodeID: 999, UserID: "user-1", SubscriptionID: "sub_1"}); !errors.Is(err, ErrPromoCodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	missing := []ApplyPromoCodeInput{
		{UserID: "user-1", SubscriptionID: "sub_1"},
		{PromoCodeID: 1, SubscriptionID: "sub_1"},
		{PromoCodeID: 1, UserID: "user-1"},
		{PromoCodeID: 1, UserID: "user-1", SubscriptionID: "   "},
		{PromoCodeID: 1, UserID: "user-1", SubscriptionID: "sub_1", DiscountAmount: -1},
	}
	for _, input := range missing {
		if _, err := svc.Apply(context.Background(), input); !errors.Is(err, ErrMissingParameters) {
			t.Fatalf("input %+v: expected missing parameters, got %v", input, err)
		}
	}
}

func TestPromoCodeApplyOncePerSubscription(t *testing.T) {
	svc, db := setupPromoServiceTest(t)
	promo := seedPromoCode(t, db, models.PromoCode{
		Code:           "FIDELITE",
		DiscountValue:  models.NewDiscountValue(15),
		IsActive:       true,
		MaxUses:        intPtr(10),
		MaxUsesPerUser: 3,
	})
	input := ApplyPromoCodeInput{PromoCodeID: promo.ID, UserID: "user-1", SubscriptionID: "sub_1", DiscountAmount: 500}
	if _, err := svc.Apply(context.Background(), input); err != nil {
		t.Fatalf("first apply failed: %v", err)
	}
	if _, err := svc.Apply(context.Background(), input); !errors.Is(err, ErrPromoCodeAlreadyRedeemed) {
		t.Fatalf("same subscription should be rejected, got %v", err)
	}

	var count int64
	db.Model(&models.PromoCodeUsage{}).Where("promo_code_id = ? AND subscription_id = ?", promo.ID, "sub_1").Count(&count)
	if count != 1 {
		t.Fatalf("usage records want 1 got %d", count)
	}
	var reloaded models.PromoCode
	db.First(&reloaded, promo.ID)
	if reloaded.CurrentUses != 1 {
		t.Fatalf("current uses want 1 got %d", reloaded.CurrentUses)
	}

	if _, err := svc.Apply(context.Background(), ApplyPromoCodeInput{PromoCodeID: promo.ID, UserID: "user-1", SubscriptionID: "sub_2"}); err != nil {
		t.Fatalf("another subscription within per-user cap should pass, got %v", err)
	}
}

func TestPromoErrorKey(t *testing.T) {
	if got := PromoErrorKey(fmt.Errorf("wrap: %w", ErrPromoCodeExpired)); got != "promo.expired" {
		t.Fatalf("unexpected key: %s", got)
	}
	if got := PromoErrorKey(errors.New("other")); got != "" {
		t.Fatalf("unknown error should map to empty key, got %s", got)
	}
}

func TestCacheablePromoCode(t *testing.T) {
	if cacheablePromoCode(nil) {
		t.Fatalf("nil promo must not be cached")
	}
	if !cacheablePromoCode(&models.PromoCode{Code: "OPEN"}) {
		t.Fatalf("uncapped promo should be cached")
	}
	if cacheablePromoCode(&models.PromoCode{Code: "CAPPED", MaxUses: intPtr(5)}) {
		t.Fatalf("capped promo must be read from the database")
	}
}
