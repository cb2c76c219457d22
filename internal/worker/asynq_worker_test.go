package worker

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/damsblt/only-you-coaching-app-sub005/internal/config"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/models"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/payment/stripe"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/provider"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/queue"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/repository"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/service"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

func setupWorkerTest(t *testing.T, handler http.HandlerFunc) (*Consumer, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:worker_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.PromoCode{}, &models.PromoCodeUsage{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := stripe.New(stripe.Options{
		Mode:       config.StripeModeTest,
		SecretKey:  "sk_test_worker",
		APIBaseURL: server.URL,
	})
	if err != nil {
		t.Fatalf("create stripe client failed: %v", err)
	}
	resolver := func(mode string) (service.StripeGateway, error) {
		return client, nil
	}
	container := &provider.Container{
		CouponSyncService: service.NewCouponSyncService(repository.NewPromoCodeRepository(db), resolver),
	}
	return NewConsumer(container), db
}

func couponAPIHandler(t *testing.T, created *int32) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/v1/coupons/"):
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","code":"resource_missing","message":"No such coupon"}}`))
		case r.Method == http.MethodPost && r.URL.Path == "/v1/coupons":
			atomic.AddInt32(created, 1)
			if err := r.ParseForm(); err != nil {
				t.Errorf("parse form failed: %v", err)
			}
			id := r.PostForm.Get("id")
			_, _ = w.Write([]byte(`{"id":"` + id + `","object":"coupon","percent_off":20,"duration":"forever","valid":true}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusBadRequest)
		}
	}
}

func TestConsumerMirrorsPromoCoupon(t *testing.T) {
	var created int32
	consumer, db := setupWorkerTest(t, couponAPIHandler(t, &created))
	promo := models.PromoCode{
		Code:           "PRINTEMPS20",
		DiscountType:   models.DiscountTypePercentage,
		DiscountValue:  models.NewDiscountValue(20),
		MaxUsesPerUser: 1,
		IsActive:       true,
	}
	if err := db.Create(&promo).Error; err != nil {
		t.Fatalf("create promo failed: %v", err)
	}

	task, err := queue.NewPromoCouponMirrorTask(queue.PromoCouponMirrorPayload{PromoCodeID: promo.ID, Mode: "test"})
	if err != nil {
		t.Fatalf("new task failed: %v", err)
	}
	if err := consumer.handlePromoCouponMirror(context.Background(), task); err != nil {
		t.Fatalf("handle mirror failed: %v", err)
	}
	if atomic.LoadInt32(&created) != 1 {
		t.Fatalf("expected one coupon create call, got %d", created)
	}
	var reloaded models.PromoCode
	db.First(&reloaded, promo.ID)
	if reloaded.StripeCouponID == nil || *reloaded.StripeCouponID != "PRINTEMPS20" {
		t.Fatalf("coupon id should be stored, got %v", reloaded.StripeCouponID)
	}
}

func TestConsumerSyncTask(t *testing.T) {
	var created int32
	consumer, db := setupWorkerTest(t, couponAPIHandler(t, &created))
	for _, code := range []string{"A10", "B10"} {
		if err := db.Create(&models.PromoCode{
			Code:           code,
			DiscountType:   models.DiscountTypePercentage,
			DiscountValue:  models.NewDiscountValue(10),
			MaxUsesPerUser: 1,
			IsActive:       true,
		}).Error; err != nil {
			t.Fatalf("create promo failed: %v", err)
		}
	}
	task, err := queue.NewPromoCouponSyncTask(queue.PromoCouponSyncPayload{Mode: "test", Codes: []string{"a10"}})
	if err != nil {
		t.Fatalf("new task failed: %v", err)
	}
	if err := consumer.handlePromoCouponSync(context.Background(), task); err != nil {
		t.Fatalf("handle sync failed: %v", err)
	}
	if atomic.LoadInt32(&created) != 1 {
		t.Fatalf("only the requested code should be synced, got %d creates", created)
	}
}

func TestConsumerSkipsBadPayloads(t *testing.T) {
	var created int32
	consumer, _ := setupWorkerTest(t, couponAPIHandler(t, &created))

	bad := asynq.NewTask(queue.TaskPromoCouponMirror, []byte("{"))
	if err := consumer.handlePromoCouponMirror(context.Background(), bad); err != asynq.SkipRetry {
		t.Fatalf("malformed payload should skip retry, got %v", err)
	}
	empty := asynq.NewTask(queue.TaskPromoCouponMirror, []byte(`{"promo_code_id":0}`))
	if err := consumer.handlePromoCouponMirror(context.Background(), empty); err != nil {
		t.Fatalf("empty payload should be ignored, got %v", err)
	}
	missing := asynq.NewTask(queue.TaskPromoCouponMirror, []byte(`{"promo_code_id":404,"mode":"test"}`))
	if err := consumer.handlePromoCouponMirror(context.Background(), missing); err != nil {
		t.Fatalf("missing promo should be ignored, got %v", err)
	}
	if atomic.LoadInt32(&created) != 0 {
		t.Fatalf("no coupon should be created")
	}

	var nilConsumer *Consumer
	if err := nilConsumer.handlePromoCouponSync(context.Background(), bad); err != nil {
		t.Fatalf("nil consumer should be a no-op, got %v", err)
	}
}
