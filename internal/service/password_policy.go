package service

import (
	"strings"
	"unicode"

	"github.com/damsblt/only-you-coaching-app-sub005/internal/config"
)

// PasswordPolicyError 密码不满足策略，Key/Args 用于生成本地化提示
type PasswordPolicyError struct {
	key  string
	args []interface{}
}

func (e *PasswordPolicyError) Error() string {
	return e.key
}

func (e *PasswordPolicyError) Is(target error) bool {
	return target == ErrWeakPassword
}

// Key 返回 i18n 键
func (e *PasswordPolicyError) Key() string {
	return e.key
}

// Args 返回 i18n 参数
func (e *PasswordPolicyError) Args() []interface{} {
	return e.args
}

func policyViolation(key string, args ...interface{}) error {
	return &PasswordPolicyError{key: key, args: args}
}

// validatePassword 按配置校验新密码；username/oldPassword 为空时跳过对应检查
func validatePassword(policy config.PasswordPolicyConfig, password, username, oldPassword string) error {
	if oldPassword != "" && password == oldPassword {
		return policyViolation("error.password_reused")
	}
	if name := strings.ToLower(strings.TrimSpace(username)); len(name) >= 3 &&
		strings.Contains(strings.ToLower(password), name) {
		return policyViolation("error.password_contains_username")
	}

	if policy.MinLength > 0 && len([]rune(password)) < policy.MinLength {
		return policyViolation("error.password_min_length", policy.MinLength)
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasNumber = true
		default:
			hasSpecial = true
		}
	}

	switch {
	case policy.RequireUpper && !hasUpper:
		return policyViolation("error.password_require_upper")
	case policy.RequireLower && !hasLower:
		return policyViolation("error.password_require_lower")
	case policy.RequireNumber && !hasNumber:
		return policyViolation("error.password_require_number")
	case policy.RequireSpecial && !hasSpecial:
		return policyViolation("error.password_require_special")
	}
	return nil
}
