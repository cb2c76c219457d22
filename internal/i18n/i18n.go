package i18n

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"
)

// 支持的语言
const (
	LocaleFR = "fr"
	LocaleEN = "en"
)

// supportedTags 与 matcher 顺序一致
var supportedTags = []language.Tag{language.French, language.English}

var matcher = language.NewMatcher(supportedTags)

var (
	mu            sync.RWMutex
	defaultLocale = LocaleFR
	catalogs      = map[string]map[string]string{
		LocaleFR: messagesFR,
		LocaleEN: messagesEN,
	}
)

// SetDefaultLocale 设置默认语言（未知语言忽略）
func SetDefaultLocale(locale string) {
	normalized := normalizeLocale(locale)
	mu.Lock()
	defer mu.Unlock()
	if _, ok := catalogs[normalized]; ok {
		defaultLocale = normalized
	}
}

// DefaultLocale 返回默认语言
func DefaultLocale() string {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLocale
}

// ResolveLocale 从请求中解析语言
// 优先级：?lang > Accept-Language（按 q 权重）> 默认语言
func ResolveLocale(c *gin.Context) string {
	if c == nil || c.Request == nil {
		return DefaultLocale()
	}
	if lang := normalizeLocale(c.Query("lang")); isSupported(lang) {
		return lang
	}
	return MatchAcceptLanguage(c.GetHeader("Accept-Language"))
}

// MatchAcceptLanguage 将 Accept-Language 头匹配到已支持的语言，无法匹配时返回默认语言
func MatchAcceptLanguage(header string) string {
	if strings.TrimSpace(header) == "" {
		return DefaultLocale()
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return DefaultLocale()
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No || index < 0 || index >= len(supportedTags) {
		return DefaultLocale()
	}
	base, _ := supportedTags[index].Base()
	return base.String()
}

// T 翻译 key，缺失时回退默认语言，再回退 key 本身
func T(locale, key string) string {
	mu.RLock()
	defer mu.RUnlock()
	if msgs, ok := catalogs[normalizeLocale(locale)]; ok {
		if msg, ok := msgs[key]; ok {
			return msg
		}
	}
	if msg, ok := catalogs[defaultLocale][key]; ok {
		return msg
	}
	return key
}

// Sprintf 翻译后格式化
func Sprintf(locale, key string, args ...interface{}) string {
	return fmt.Sprintf(T(locale, key), args...)
}

func normalizeLocale(locale string) string {
	normalized := strings.ToLower(strings.TrimSpace(locale))
	if idx := strings.IndexAny(normalized, "-_"); idx > 0 {
		normalized = normalized[:idx]
	}
	return normalized
}

func isSupported(locale string) bool {
	if locale == "" {
		return false
	}
	mu.RLock()
	defer mu.RUnlock()
	_, ok := catalogs[locale]
	return ok
}
