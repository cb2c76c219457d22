package response

// AppError 接口层错误：业务码 + i18n 键 + 已本地化消息
type AppError struct {
	Code    int
	Key     string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus 对应的 HTTP 状态（原始响应使用）
func (e *AppError) HTTPStatus() int {
	return HTTPStatus(e.Code)
}

// NewAppError 创建接口层错误
func NewAppError(code int, key, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Key:     key,
		Message: message,
		Err:     err,
	}
}
