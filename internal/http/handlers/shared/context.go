package shared

import (
	"strings"

	"github.com/damsblt/only-you-coaching-app-sub005/internal/constants"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/http/response"

	"github.com/gin-gonic/gin"
)

// AdminIDFromContext 读取鉴权中间件写入的管理员 ID
func AdminIDFromContext(c *gin.Context) (uint, bool) {
	if c == nil {
		return 0, false
	}
	value, exists := c.Get(constants.ContextKeyAdminID)
	if !exists {
		return 0, false
	}
	switch v := value.(type) {
	case uint:
		return v, v > 0
	case int:
		if v > 0 {
			return uint(v), true
		}
	case float64:
		if v > 0 {
			return uint(v), true
		}
	}
	return 0, false
}

// RequireAdminID 读取管理员 ID，缺失时直接写出 401
func RequireAdminID(c *gin.Context) (uint, bool) {
	adminID, ok := AdminIDFromContext(c)
	if !ok {
		RespondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return 0, false
	}
	return adminID, true
}

// ContextString 读取上下文中的字符串值
func ContextString(c *gin.Context, key string) string {
	if c == nil {
		return ""
	}
	value, exists := c.Get(key)
	if !exists {
		return ""
	}
	if text, ok := value.(string); ok {
		return strings.TrimSpace(text)
	}
	return ""
}
