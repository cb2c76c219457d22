package cache

import (
	"context"
	"testing"
	"time"

	"github.com/damsblt/only-you-coaching-app-sub005/internal/models"
)

func TestDisabledCacheIsNoop(t *testing.T) {
	if err := InitRedis(nil); err != nil {
		t.Fatalf("init with nil config should not fail: %v", err)
	}
	if Enabled() {
		t.Fatalf("cache should be disabled")
	}
	ctx := context.Background()
	promo := &models.PromoCode{ID: 1, Code: "SUMMER20"}
	if err := SetPromoCode(ctx, promo, time.Minute); err != nil {
		t.Fatalf("set on disabled cache should be noop: %v", err)
	}
	got, hit, err := GetPromoCode(ctx, "summer20")
	if err != nil || hit || got != nil {
		t.Fatalf("get on disabled cache should miss, got=%v hit=%v err=%v", got, hit, err)
	}
	if err := DelPromoCode(ctx, "summer20"); err != nil {
		t.Fatalf("del on disabled cache should be noop: %v", err)
	}
	if err := Ping(ctx); err != nil {
		t.Fatalf("ping on disabled cache should be noop: %v", err)
	}
}

func TestKeys(t *testing.T) {
	if got := promoCodeKey(" summer20 "); got != "promo:code:SUMMER20" {
		t.Fatalf("unexpected promo key: %s", got)
	}
	if got := BuildKey("ratelimit:x"); got != defaultPrefix+":ratelimit:x" {
		t.Fatalf("unexpected prefixed key: %s", got)
	}
	if got := adminAuthStateKey(7); got != "auth:admin:7" {
		t.Fatalf("unexpected admin key: %s", got)
	}
}

func TestBuildAdminAuthState(t *testing.T) {
	if BuildAdminAuthState(nil) != nil {
		t.Fatalf("nil admin should produce nil state")
	}
	now := time.Unix(1700000000, 0)
	state := BuildAdminAuthState(&models.Admin{ID: 3, Username: "coach", TokenVersion: 2, TokenInvalidBefore: &now, IsSuper: true})
	if state.AdminID != 3 || state.TokenVersion != 2 || state.TokenInvalidBefore != 1700000000 || !state.IsSuper {
		t.Fatalf("unexpected state: %+v", state)
	}
}
