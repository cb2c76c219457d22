package shared

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/damsblt/only-you-coaching-app-sub005/internal/constants"

	"github.com/gin-gonic/gin"
)

func newTestContext(target string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c, w
}

func TestParsePagination(t *testing.T) {
	cases := []struct {
		target   string
		page     int
		pageSize int
	}{
		{target: "/admin/promo-codes", page: 1, pageSize: 20},
		{target: "/admin/promo-codes?page=3&page_size=50", page: 3, pageSize: 50},
		{target: "/admin/promo-codes?page=0&pageSize=10", page: 1, pageSize: 10},
		{target: "/admin/promo-codes?page=2&page_size=1000", page: 2, pageSize: 100},
		{target: "/admin/promo-codes?page=abc&page_size=-5", page: 1, pageSize: 20},
	}
	for _, tc := range cases {
		c, _ := newTestContext(tc.target)
		page, pageSize := ParsePagination(c)
		if page != tc.page || pageSize != tc.pageSize {
			t.Fatalf("%s: want %d/%d got %d/%d", tc.target, tc.page, tc.pageSize, page, pageSize)
		}
	}
}

func TestAdminIDFromContext(t *testing.T) {
	c, _ := newTestContext("/admin/me")
	if _, ok := AdminIDFromContext(c); ok {
		t.Fatalf("expected missing admin id")
	}
	c.Set(constants.ContextKeyAdminID, uint(7))
	if id, ok := AdminIDFromContext(c); !ok || id != 7 {
		t.Fatalf("expected admin id 7, got %d %v", id, ok)
	}
	c.Set(constants.ContextKeyAdminID, -3)
	if _, ok := AdminIDFromContext(c); ok {
		t.Fatalf("negative admin id must be rejected")
	}
}

func TestRequireAdminIDWritesUnauthorized(t *testing.T) {
	c, w := newTestContext("/admin/me")
	c.Set(constants.ContextKeyRequestID, "req-1")
	if _, ok := RequireAdminID(c); ok {
		t.Fatalf("expected failure without admin id")
	}
	var resp struct {
		StatusCode int                    `json:"status_code"`
		Msg        string                 `json:"msg"`
		Data       map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp.StatusCode != 401 || resp.Msg == "" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Data["request_id"] != "req-1" {
		t.Fatalf("request id should be attached, got %v", resp.Data)
	}
}
