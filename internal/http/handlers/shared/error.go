package shared

import (
	"github.com/damsblt/only-you-coaching-app-sub005/internal/constants"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/http/response"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/i18n"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 返回携带 request_id 的日志实例
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if id := ContextString(c, constants.ContextKeyRequestID); id != "" {
		return logger.SW("request_id", id)
	}
	return logger.S()
}

// LocalizedError 按请求语言构造接口错误
func LocalizedError(c *gin.Context, code int, key string, err error) *response.AppError {
	return response.NewAppError(code, key, i18n.T(i18n.ResolveLocale(c), key), err)
}

// RespondError 返回国际化错误响应（统一信封）
func RespondError(c *gin.Context, code int, key string, err error) {
	writeAppError(c, LocalizedError(c, code, key, err))
}

// RespondErrorWithMsg 返回自定义消息错误响应（统一信封）
func RespondErrorWithMsg(c *gin.Context, code int, msg string, err error) {
	writeAppError(c, response.NewAppError(code, "", msg, err))
}

func writeAppError(c *gin.Context, appErr *response.AppError) {
	if appErr.Err != nil {
		fields := []interface{}{
			"code", appErr.Code,
			"message", appErr.Message,
			"error", appErr.Err,
		}
		if appErr.Key != "" {
			fields = append(fields, "key", appErr.Key)
		}
		if c != nil && c.Request != nil {
			fields = append(fields, "path", c.FullPath())
		}
		RequestLog(c).Errorw("handler_error", fields...)
	}
	response.Error(c, appErr.Code, appErr.Message)
}
