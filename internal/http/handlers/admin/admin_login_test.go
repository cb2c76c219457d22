package admin

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/damsblt/only-you-coaching-app-sub005/internal/config"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/constants"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/models"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/provider"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/repository"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAdminLoginTest(t *testing.T, captcha config.CaptchaConfig) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dsn := fmt.Sprintf("file:admin_login_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Admin{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	cfg := &config.Config{
		JWT:     config.JWTConfig{SecretKey: "login-test-secret", ExpireHours: 1},
		Captcha: captcha,
	}
	authService := service.NewAuthService(cfg, repository.NewAdminRepository(db))
	hash, err := authService.HashPassword("Coach2026!")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if err := db.Create(&models.Admin{Username: "marie", Email: "marie@only-you-coaching.ch", PasswordHash: hash, IsSuper: true}).Error; err != nil {
		t.Fatalf("create admin failed: %v", err)
	}

	h := New(&provider.Container{
		Config:         cfg,
		AuthService:    authService,
		CaptchaService: service.NewCaptchaService(cfg.Captcha),
	})
	router := gin.New()
	router.GET("/login/captcha", h.GetLoginCaptcha)
	router.POST("/login", h.AdminLogin)
	return router
}

func TestAdminLoginWithoutCaptcha(t *testing.T) {
	router := setupAdminLoginTest(t, config.CaptchaConfig{Provider: constants.CaptchaProviderNone})

	_, payload := doAdminRequest(router, http.MethodGet, "/login/captcha", "")
	data := payload["data"].(map[string]interface{})
	if data["enabled"] != false || data["provider"] != constants.CaptchaProviderNone {
		t.Fatalf("unexpected captcha setting: %v", payload)
	}

	_, payload = doAdminRequest(router, http.MethodPost, "/login", `{"username":"marie","password":"Coach2026!"}`)
	if statusCodeOf(payload) != 0 {
		t.Fatalf("login failed: %v", payload)
	}
	if token, _ := payload["data"].(map[string]interface{})["token"].(string); token == "" {
		t.Fatalf("token missing: %v", payload)
	}

	_, payload = doAdminRequest(router, http.MethodPost, "/login", `{"username":"marie","password":"wrong"}`)
	if statusCodeOf(payload) != 401 {
		t.Fatalf("wrong password want 401 got %v", payload)
	}
}

func TestAdminLoginRequiresTurnstile(t *testing.T) {
	verifier := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		w.Header().Set("Content-Type", "application/json")
		if r.PostForm.Get("response") == "good-token" {
			_, _ = w.Write([]byte(`{"success":true}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":false}`))
	}))
	defer verifier.Close()

	router := setupAdminLoginTest(t, config.CaptchaConfig{
		Provider: constants.CaptchaProviderTurnstile,
		Scenes:   config.CaptchaSceneConfig{AdminLogin: true},
		Turnstile: config.CaptchaTurnstileConfig{
			SiteKey:   "site-key",
			SecretKey: "secret",
			VerifyURL: verifier.URL,
		},
	})

	_, payload := doAdminRequest(router, http.MethodGet, "/login/captcha", "")
	data := payload["data"].(map[string]interface{})
	if data["enabled"] != true || data["site_key"] != "site-key" {
		t.Fatalf("unexpected captcha setting: %v", payload)
	}

	cases := []struct {
		name string
		body string
		code int
		msg  string
	}{
		{name: "missing token", body: `{"username":"marie","password":"Coach2026!"}`, code: 400, msg: "Veuillez compléter le captcha"},
		{name: "rejected token", body: `{"username":"marie","password":"Coach2026!","captcha_payload":{"turnstile_token":"bad"}}`, code: 400, msg: "Captcha incorrect ou expiré"},
		{name: "accepted token", body: `{"username":"marie","password":"Coach2026!","captcha_payload":{"turnstile_token":"good-token"}}`, code: 0},
	}
	for _, tc := range cases {
		_, payload := doAdminRequest(router, http.MethodPost, "/login", tc.body)
		if statusCodeOf(payload) != tc.code {
			t.Fatalf("%s: want status_code %d got %v", tc.name, tc.code, payload)
		}
		if tc.msg != "" && payload["msg"] != tc.msg {
			t.Fatalf("%s: unexpected msg %v", tc.name, payload["msg"])
		}
	}
}
