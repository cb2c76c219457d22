package admin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/damsblt/only-you-coaching-app-sub005/internal/config"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/models"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/provider"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/queue"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/repository"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupPromoAdminHandlerTest(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dsn := fmt.Sprintf("file:admin_handler_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.PromoCode{}, &models.PromoCodeUsage{}, &models.AdminAuditLog{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	queueClient, err := queue.NewClient(nil)
	if err != nil {
		t.Fatalf("new queue client failed: %v", err)
	}
	promoRepo := repository.NewPromoCodeRepository(db)
	usageRepo := repository.NewPromoCodeUsageRepository(db)
	couponSync := service.NewCouponSyncService(promoRepo, nil)
	container := &provider.Container{
		Config:                &config.Config{},
		QueueClient:           queueClient,
		CouponSyncService:     couponSync,
		PromoCodeAdminService: service.NewPromoCodeAdminService(promoRepo, usageRepo, queueClient, couponSync, nil, 10),
		AdminAuditService:     service.NewAdminAuditService(repository.NewAdminAuditLogRepository(db)),
	}
	h := New(container)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("admin_id", uint(1))
		c.Set("username", "marie")
		c.Set("request_id", "req-test")
		c.Next()
	})
	router.GET("/promo-codes", h.GetAdminPromoCodes)
	router.POST("/promo-codes", h.CreatePromoCode)
	router.GET("/promo-codes/:id", h.GetAdminPromoCode)
	router.PATCH("/promo-codes/:id", h.UpdatePromoCode)
	router.DELETE("/promo-codes/:id", h.DeletePromoCode)
	router.POST("/sync-stripe-coupons", h.SyncStripeCoupons)
	router.GET("/sync-stripe-coupons", h.GetStripeCouponStatus)
	router.GET("/audit-logs", h.ListAdminAuditLogs)
	return router, db
}

func doAdminRequest(router *gin.Engine, method, path, body string) (int, map[string]interface{}) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Language", "fr")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	var payload map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &payload)
	return w.Code, payload
}

func statusCodeOf(payload map[string]interface{}) int {
	value, _ := payload["status_code"].(float64)
	return int(value)
}

func TestPromoCodeAdminLifecycle(t *testing.T) {
	router, db := setupPromoAdminHandlerTest(t)

	_, payload := doAdminRequest(router, http.MethodPost, "/promo-codes", `{
		"code": "printemps20",
		"discountType": "percentage",
		"discountValue": 20,
		"maxUses": 50,
		"eligiblePlans": ["essentiel"],
		"validUntil": "2099-01-01T00:00:00Z",
		"createStripeCoupon": false
	}`)
	if statusCodeOf(payload) != 0 {
		t.Fatalf("create failed: %v", payload)
	}
	created := payload["data"].(map[string]interface{})
	if created["code"] != "PRINTEMPS20" || created["max_uses_per_user"].(float64) != 1 {
		t.Fatalf("unexpected promo: %v", created)
	}
	id := uint(created["id"].(float64))

	_, payload = doAdminRequest(router, http.MethodPost, "/promo-codes", `{"code":"PRINTEMPS20","discountType":"percentage","discountValue":10}`)
	if statusCodeOf(payload) != 409 || payload["msg"] != "Ce code promo existe déjà" {
		t.Fatalf("duplicate should be rejected: %v", payload)
	}

	_, payload = doAdminRequest(router, http.MethodGet, "/promo-codes?code=printemps20", "")
	if statusCodeOf(payload) != 0 || len(payload["data"].([]interface{})) != 1 {
		t.Fatalf("unexpected list: %v", payload)
	}

	_, payload = doAdminRequest(router, http.MethodPatch, fmt.Sprintf("/promo-codes/%d", id), `{"isActive":false,"maxUses":null,"validUntil":null}`)
	if statusCodeOf(payload) != 0 {
		t.Fatalf("patch failed: %v", payload)
	}
	var reloaded models.PromoCode
	db.First(&reloaded, id)
	if reloaded.IsActive || reloaded.MaxUses != nil || reloaded.ValidUntil != nil {
		t.Fatalf("patch not applied: %+v", reloaded)
	}

	_, payload = doAdminRequest(router, http.MethodGet, fmt.Sprintf("/promo-codes/%d", id), "")
	detail := payload["data"].(map[string]interface{})
	if _, ok := detail["stats"]; !ok {
		t.Fatalf("detail should include stats: %v", payload)
	}

	_, payload = doAdminRequest(router, http.MethodDelete, fmt.Sprintf("/promo-codes/%d", id), "")
	if statusCodeOf(payload) != 0 {
		t.Fatalf("delete failed: %v", payload)
	}
	_, payload = doAdminRequest(router, http.MethodGet, fmt.Sprintf("/promo-codes/%d", id), "")
	if statusCodeOf(payload) != 404 {
		t.Fatalf("deleted promo should be gone: %v", payload)
	}

	var actions []string
	db.Model(&models.AdminAuditLog{}).Order("id ASC").Pluck("action", &actions)
	want := []string{models.AuditActionPromoCreate, models.AuditActionPromoUpdate, models.AuditActionPromoDelete}
	if strings.Join(actions, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected audit trail: %v", actions)
	}
	_, payload = doAdminRequest(router, http.MethodGet, "/audit-logs?action=promo_code.create", "")
	if len(payload["data"].([]interface{})) != 1 {
		t.Fatalf("audit filter failed: %v", payload)
	}
}

func TestCreatePromoCodeValidation(t *testing.T) {
	router, _ := setupPromoAdminHandlerTest(t)
	cases := []struct {
		body string
		code int
	}{
		{`{"code":"X"}`, 400},
		{`{"code":"X","discountType":"bogus","discountValue":5}`, 400},
		{`{"code":"X","discountType":"percentage","discountValue":150}`, 400},
		{`{"code":"X","discountType":"percentage","discountValue":10,"validFrom":"2030-01-01T00:00:00Z","validUntil":"2029-01-01T00:00:00Z"}`, 400},
		{`{"code":"X","discountType":"percentage","discountValue":10,"validUntil":"not-a-date"}`, 400},
	}
	for _, tc := range cases {
		_, payload := doAdminRequest(router, http.MethodPost, "/promo-codes", tc.body)
		if statusCodeOf(payload) != tc.code {
			t.Fatalf("body %s: want %d got %v", tc.body, tc.code, payload)
		}
	}
}

func TestParsePatchPromoCodeInput(t *testing.T) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(bytes.NewBufferString(`{"maxUses":5,"validUntil":null,"description":null,"eligiblePlans":["pro"]}`)).Decode(&raw); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	input, err := parsePatchPromoCodeInput(raw)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if input.MaxUses == nil || *input.MaxUses != 5 || input.ClearMaxUses {
		t.Fatalf("unexpected max uses: %+v", input)
	}
	if !input.ClearValidUntil || input.ValidUntil != nil {
		t.Fatalf("validUntil null should clear: %+v", input)
	}
	if input.Description == nil || *input.Description != "" {
		t.Fatalf("description null should clear: %+v", input)
	}
	if input.EligiblePlans == nil || len(*input.EligiblePlans) != 1 || input.IsActive != nil {
		t.Fatalf("unexpected plans: %+v", input)
	}

	raw = map[string]json.RawMessage{"maxUses": json.RawMessage(`"ten"`)}
	if _, err := parsePatchPromoCodeInput(raw); err == nil {
		t.Fatalf("invalid maxUses should fail")
	}
}

func TestCouponSyncWithoutStripe(t *testing.T) {
	router, _ := setupPromoAdminHandlerTest(t)
	_, payload := doAdminRequest(router, http.MethodPost, "/sync-stripe-coupons", `{"force":true}`)
	if statusCodeOf(payload) != 503 {
		t.Fatalf("sync without stripe want 503: %v", payload)
	}
	_, payload = doAdminRequest(router, http.MethodGet, "/sync-stripe-coupons", "")
	if statusCodeOf(payload) != 503 {
		t.Fatalf("status without stripe want 503: %v", payload)
	}
}
