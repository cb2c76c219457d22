package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestLoadWithDefaults(t *testing.T) {
	v := viper.New()
	v.SetConfigFile(filepath.Join(t.TempDir(), "missing.yml"))

	cfg, err := LoadWith(v)
	if err != nil {
		t.Fatalf("load config failed: %v", err)
	}
	if cfg.Stripe.Currency != "chf" {
		t.Fatalf("currency want chf got %s", cfg.Stripe.Currency)
	}
	if cfg.S3.Bucket != "only-you-coaching" || cfg.S3.Region != "eu-north-1" {
		t.Fatalf("unexpected s3 defaults: %+v", cfg.S3)
	}
	if len(cfg.Plans) != 6 {
		t.Fatalf("default plans want 6 got %d", len(cfg.Plans))
	}
	plan, ok := cfg.FindPlan("Premium")
	if !ok || plan.CommitmentMonths != 3 {
		t.Fatalf("premium plan lookup failed: %+v ok=%v", plan, ok)
	}
	if plan.Features.HomeVisits != 1 || !plan.Features.NutritionAdvice {
		t.Fatalf("premium features unexpected: %+v", plan.Features)
	}
	starter, _ := cfg.FindPlan("starter")
	if starter.Features.PredefinedPrograms || starter.Features.CoachingCalls != 0 || !starter.Features.AudioLibrary {
		t.Fatalf("starter features unexpected: %+v", starter.Features)
	}
	if cfg.Promo.RecentUsageSize != 10 {
		t.Fatalf("recent usage size want 10 got %d", cfg.Promo.RecentUsageSize)
	}
}

func TestLoadWithFileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	content := []byte(`
stripe:
  mode: live
  currency: EUR
plans:
  - id: solo
    name: Solo
    amount: 1000
    interval: month
    commitment_months: 1
    stripe_price_id: price_solo
    features:
      videos: true
      coaching_calls: 2
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config failed: %v", err)
	}
	v := viper.New()
	v.SetConfigFile(path)

	cfg, err := LoadWith(v)
	if err != nil {
		t.Fatalf("load config failed: %v", err)
	}
	if cfg.Stripe.Currency != "eur" {
		t.Fatalf("currency should be lower-cased, got %s", cfg.Stripe.Currency)
	}
	if len(cfg.Plans) != 1 || cfg.Plans[0].ID != "solo" {
		t.Fatalf("plans should come from file, got %+v", cfg.Plans)
	}
	if solo, ok := cfg.FindPlanByPriceID("price_solo"); !ok || !solo.Features.Videos || solo.Features.CoachingCalls != 2 {
		t.Fatalf("plan features should come from file, got %+v ok=%v", solo, ok)
	}
	if cfg.Stripe.ResolveMode("localhost:3000") != StripeModeLive {
		t.Fatalf("explicit live mode should win over host detection")
	}
}

func TestStripeResolveMode(t *testing.T) {
	cfg := StripeConfig{Mode: StripeModeAuto, TestHostSuffixes: []string{"vercel.app", "localhost"}}
	cases := map[string]string{
		"localhost:3000":            StripeModeTest,
		"preview-abc.vercel.app":    StripeModeTest,
		"www.only-you-coaching.com": StripeModeLive,
		"":                          StripeModeTest,
		"notlocalhost.example.com":  StripeModeLive,
	}
	for host, want := range cases {
		if got := cfg.ResolveMode(host); got != want {
			t.Fatalf("host %q mode want %s got %s", host, want, got)
		}
	}
}

func TestStripeSecretKeyFallback(t *testing.T) {
	cfg := StripeConfig{TestSecretKey: "sk_test_1"}
	if got := cfg.SecretKey(StripeModeLive); got != "sk_test_1" {
		t.Fatalf("live without key should fallback to test, got %s", got)
	}
	cfg.LiveSecretKey = "sk_live_1"
	if got := cfg.SecretKey(StripeModeLive); got != "sk_live_1" {
		t.Fatalf("live key want sk_live_1 got %s", got)
	}
}

func TestAdminEmailAllowlist(t *testing.T) {
	open := AdminConfig{}
	if !open.IsEmailAllowed("anyone@example.com") {
		t.Fatalf("empty allowlist should allow every email")
	}
	restricted := AdminConfig{AllowedEmails: []string{"Coach@Only-You.ch"}}
	if !restricted.IsEmailAllowed(" coach@only-you.ch ") {
		t.Fatalf("allowlist match should be case-insensitive")
	}
	if restricted.IsEmailAllowed("other@example.com") {
		t.Fatalf("email outside allowlist should be rejected")
	}
}
