package main

import (
	"context"
	"flag"
	"time"

	"github.com/damsblt/only-you-coaching-app-sub005/internal/app"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/config"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/logger"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/provider"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/service"
)

func main() {
	var syncStripe bool
	var stripeMode string
	flag.BoolVar(&syncStripe, "sync-stripe", false, "写入后将演示优惠码同步为 Stripe 优惠券")
	flag.StringVar(&stripeMode, "stripe-mode", config.StripeModeTest, "Stripe 模式: test / live")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	defer logger.Sync()
	stdLog := logger.StdLogger()

	if err := app.PrepareDatabase(cfg); err != nil {
		stdLog.Fatalf("Failed to prepare database: %v", err)
	}

	created, err := app.SeedDemoData(time.Now())
	if err != nil {
		stdLog.Fatalf("Failed to seed promo codes: %v", err)
	}
	stdLog.Printf("Seeded %d promo codes", created)

	if !syncStripe {
		return
	}
	if !cfg.Stripe.Configured() {
		stdLog.Printf("Stripe not configured, skip coupon sync")
		return
	}

	container := provider.NewContainer(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	result, err := container.CouponSyncService.Sync(ctx, service.CouponSyncInput{Mode: stripeMode})
	if err != nil {
		stdLog.Fatalf("Failed to sync stripe coupons: %v", err)
	}
	stdLog.Printf("Stripe coupon sync (%s): total=%d synced=%d skipped=%d errors=%d",
		result.Mode, result.Total, len(result.Synced), len(result.Skipped), len(result.Errors))
	for _, item := range result.Errors {
		stdLog.Printf("  %+v", item)
	}
}
