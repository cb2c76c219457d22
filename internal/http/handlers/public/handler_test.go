package public

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/damsblt/only-you-coaching-app-sub005/internal/config"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/models"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/provider"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/repository"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupPublicHandlerTest(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dsn := fmt.Sprintf("file:public_handler_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.PromoCode{}, &models.PromoCodeUsage{}, &models.Subscription{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	cfg := &config.Config{
		Plans: []config.PlanConfig{{ID: "essentiel", Name: "Essentiel", StripePriceID: "price_essentiel", Amount: 6900, Interval: "month", CommitmentMonths: 3}},
		S3:    config.S3Config{AllowedPrefixes: []string{"Video/"}},
	}
	promoRepo := repository.NewPromoCodeRepository(db)
	promoService := service.NewPromoCodeService(promoRepo, repository.NewPromoCodeUsageRepository(db), 0)
	container := &provider.Container{
		Config:              cfg,
		PromoCodeService:    promoService,
		SubscriptionService: service.NewSubscriptionService(cfg, repository.NewSubscriptionRepository(db), promoService, nil),
		AssetService:        service.NewAssetService(cfg.S3, nil),
	}
	h := New(container)

	router := gin.New()
	router.POST("/promo-codes/validate", h.ValidatePromoCode)
	router.POST("/promo-codes/apply", h.ApplyPromoCode)
	router.GET("/plans", h.ListPlans)
	router.GET("/subscriptions/:userId", h.GetUserSubscription)
	router.POST("/webhooks/stripe", h.StripeWebhook)
	router.GET("/assets/signed-url", h.GetSignedAssetURL)
	return router, db
}

func performJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Language", "fr")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body failed: %v (%s)", err, w.Body.String())
	}
	return body
}

func seedHandlerPromo(t *testing.T, db *gorm.DB, promo models.PromoCode) models.PromoCode {
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
	return promo
}

func TestValidatePromoCodeHandler(t *testing.T) {
	router, db := setupPublicHandlerTest(t)
	seedHandlerPromo(t, db, models.PromoCode{Code: "BIENVENUE10", DiscountValue: models.NewDiscountValue(10), IsActive: true})

	w := performJSON(router, http.MethodPost, "/promo-codes/validate", gin.H{
		"code": "bienvenue10", "planId": "essentiel", "userId": "user-1", "originalAmount": 6900,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("want 200 got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["valid"] != true {
		t.Fatalf("expected valid response: %v", body)
	}
	promo := body["promoCode"].(map[string]interface{})
	if promo["code"] != "BIENVENUE10" || promo["discountType"] != "percentage" {
		t.Fatalf("unexpected promo view: %v", promo)
	}
	discount := body["discount"].(map[string]interface{})
	if discount["amount"].(float64) != 690 || discount["finalAmount"].(float64) != 6210 {
		t.Fatalf("unexpected discount: %v", discount)
	}
}

func TestValidatePromoCodeHandlerRejections(t *testing.T) {
	router, db := setupPublicHandlerTest(t)
	seedHandlerPromo(t, db, models.PromoCode{Code: "OFF", DiscountValue: models.NewDiscountValue(10), IsActive: false})

	cases := []struct {
		name   string
		body   gin.H
		status int
		msg    string
	}{
		{"missing", gin.H{"code": "OFF"}, http.StatusBadRequest, "Missing required parameters"},
		{"unknown", gin.H{"code": "NOPE", "planId": "essentiel", "userId": "u", "originalAmount": 100}, http.StatusNotFound, "Code promo invalide"},
		{"inactive", gin.H{"code": "OFF", "planId": "essentiel", "userId": "u", "originalAmount": 100}, http.StatusBadRequest, "Ce code promo n'est plus actif"},
	}
	for _, tc := range cases {
		w := performJSON(router, http.MethodPost, "/promo-codes/validate", tc.body)
		if w.Code != tc.status {
			t.Fatalf("%s: want %d got %d", tc.name, tc.status, w.Code)
		}
		body := decodeBody(t, w)
		if body["valid"] != false || body["error"] != tc.msg {
			t.Fatalf("%s: unexpected body %v", tc.name, body)
		}
	}
}

func TestApplyPromoCodeHandler(t *testing.T) {
	router, db := setupPublicHandlerTest(t)
	promo := seedHandlerPromo(t, db, models.PromoCode{Code: "ETE15", DiscountValue: models.NewDiscountValue(15), IsActive: true})
	req := gin.H{
		"promoCodeId": promo.ID, "userId": "user-1", "subscriptionId": "sub_1",
		"discountAmount": 1035, "originalAmount": 6900, "finalAmount": 5865,
	}

	w := performJSON(router, http.MethodPost, "/promo-codes/apply", req)
	if w.Code != http.StatusOK {
		t.Fatalf("want 200 got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	usage := body["usage"].(map[string]interface{})
	if body["success"] != true || usage["subscription_id"] != "sub_1" {
		t.Fatalf("unexpected body: %v", body)
	}

	w = performJSON(router, http.MethodPost, "/promo-codes/apply", req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("second apply want 400 got %d", w.Code)
	}
	body = decodeBody(t, w)
	if body["success"] != false || body["error"] != "Code promo déjà utilisé" {
		t.Fatalf("unexpected body: %v", body)
	}

	w = performJSON(router, http.MethodPost, "/promo-codes/apply", gin.H{"promoCodeId": 9999, "userId": "user-1", "subscriptionId": "sub_9", "discountAmount": 0})
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown promo want 404 got %d", w.Code)
	}
}

func TestApplyPromoCodeHandlerMissingParameters(t *testing.T) {
	router, db := setupPublicHandlerTest(t)
	promo := seedHandlerPromo(t, db, models.PromoCode{Code: "ETE15", DiscountValue: models.NewDiscountValue(15), IsActive: true})

	cases := []struct {
		name string
		body gin.H
	}{
		{name: "subscription missing", body: gin.H{"promoCodeId": promo.ID, "userId": "user-1", "discountAmount": 1035}},
		{name: "subscription blank", body: gin.H{"promoCodeId": promo.ID, "userId": "user-1", "subscriptionId": "  ", "discountAmount": 1035}},
		{name: "discount missing", body: gin.H{"promoCodeId": promo.ID, "userId": "user-1", "subscriptionId": "sub_1"}},
		{name: "user missing", body: gin.H{"promoCodeId": promo.ID, "subscriptionId": "sub_1", "discountAmount": 1035}},
		{name: "promo missing", body: gin.H{"userId": "user-1", "subscriptionId": "sub_1", "discountAmount": 1035}},
	}
	for _, tc := range cases {
		w := performJSON(router, http.MethodPost, "/promo-codes/apply", tc.body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: want 400 got %d", tc.name, w.Code)
		}
		body := decodeBody(t, w)
		if body["success"] != false || body["error"] != "Missing required parameters" {
			t.Fatalf("%s: unexpected body %v", tc.name, body)
		}
	}

	var count int64
	db.Model(&models.PromoCodeUsage{}).Count(&count)
	if count != 0 {
		t.Fatalf("rejected requests must not record usage, got %d", count)
	}
	if w := performJSON(router, http.MethodPost, "/promo-codes/apply", gin.H{"promoCodeId": promo.ID, "userId": "user-1", "subscriptionId": "sub_1", "discountAmount": 0}); w.Code != http.StatusOK {
		t.Fatalf("zero discount is a valid amount, got %d: %s", w.Code, w.Body.String())
	}
}

func TestPlansAndSubscriptionHandlers(t *testing.T) {
	router, db := setupPublicHandlerTest(t)

	w := performJSON(router, http.MethodGet, "/plans", nil)
	body := decodeBody(t, w)
	plans := body["data"].([]interface{})
	if len(plans) != 1 || plans[0].(map[string]interface{})["id"] != "essentiel" {
		t.Fatalf("unexpected plans: %v", body)
	}

	w = performJSON(router, http.MethodGet, "/subscriptions/user-1", nil)
	body = decodeBody(t, w)
	if body["status_code"].(float64) != 404 {
		t.Fatalf("missing subscription want 404 envelope, got %v", body)
	}

	if err := db.Create(&models.Subscription{UserID: "user-1", StripeSubscriptionID: "sub_1", PlanID: "essentiel", Status: models.SubscriptionStatusActive}).Error; err != nil {
		t.Fatalf("create subscription failed: %v", err)
	}
	w = performJSON(router, http.MethodGet, "/subscriptions/user-1", nil)
	body = decodeBody(t, w)
	data := body["data"].(map[string]interface{})
	if body["status_code"].(float64) != 0 || data["stripe_subscription_id"] != "sub_1" {
		t.Fatalf("unexpected subscription body: %v", body)
	}
}

func TestStripeWebhookWithoutStripe(t *testing.T) {
	router, _ := setupPublicHandlerTest(t)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader([]byte(`{"id":"evt_1"}`)))
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("want 503 got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["received"] != false {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestStripeWebhookRejectsOversizedBody(t *testing.T) {
	router, _ := setupPublicHandlerTest(t)

	oversized := bytes.Repeat([]byte("a"), int(defaultWebhookBodyLimit)+1)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(oversized))
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("want 413 got %d: %s", w.Code, w.Body.String())
	}
	if body := decodeBody(t, w); body["received"] != false {
		t.Fatalf("unexpected body: %v", body)
	}

	// 恰好等于上限的请求体进入签名校验
	exact := bytes.Repeat([]byte("a"), int(defaultWebhookBodyLimit))
	req = httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(exact))
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("body at the limit should reach the service, got %d", w.Code)
	}
}

func TestSignedAssetURLHandler(t *testing.T) {
	router, _ := setupPublicHandlerTest(t)

	w := performJSON(router, http.MethodGet, "/assets/signed-url", nil)
	if decodeBody(t, w)["status_code"].(float64) != 400 {
		t.Fatalf("missing key should be rejected: %s", w.Body.String())
	}
	w = performJSON(router, http.MethodGet, "/assets/signed-url?key=Video/a.mp4", nil)
	if decodeBody(t, w)["status_code"].(float64) != 503 {
		t.Fatalf("unconfigured storage want 503: %s", w.Body.String())
	}
}
