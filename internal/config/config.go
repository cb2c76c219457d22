package config

import (
	"fmt"
	"strings"

	"github.com/damsblt/only-you-coaching-app-sub005/internal/logger"

	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Queue    QueueConfig    `mapstructure:"queue"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Security SecurityConfig `mapstructure:"security"`
	Captcha  CaptchaConfig  `mapstructure:"captcha"`
	Stripe   StripeConfig   `mapstructure:"stripe"`
	S3       S3Config       `mapstructure:"s3"`
	Promo    PromoConfig    `mapstructure:"promo"`
	Plans    []PlanConfig   `mapstructure:"plans"`
}

// AppConfig 应用基础信息
type AppConfig struct {
	Name          string `mapstructure:"name"`
	DefaultLocale string `mapstructure:"default_locale"`
	PublicURL     string `mapstructure:"public_url"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host                   string `mapstructure:"host"`
	Port                   string `mapstructure:"port"`
	Mode                   string `mapstructure:"mode"` // debug / release
	ReadTimeoutSeconds     int    `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds    int    `mapstructure:"write_timeout_seconds"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds"`
}

// Addr 监听地址
func (c ServerConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// LogConfig 日志配置
type LogConfig struct {
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	Level      string `mapstructure:"level"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
	Stdout     bool   `mapstructure:"stdout"`
}

// ToLoggerOptions 转换为 logger 配置
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Dir:        c.Dir,
		Filename:   c.Filename,
		Level:      c.Level,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
		Stdout:     c.Stdout,
	}
}

// DatabasePoolConfig 数据库连接池配置
type DatabasePoolConfig struct {
	MaxOpenConns           int `mapstructure:"max_open_conns"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int `mapstructure:"conn_max_idle_time_seconds"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver string             `mapstructure:"driver"` // sqlite / postgres
	DSN    string             `mapstructure:"dsn"`
	Debug  bool               `mapstructure:"debug"`
	Pool   DatabasePoolConfig `mapstructure:"pool"`
}

// JWTConfig JWT 配置
type JWTConfig struct {
	SecretKey   string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

// AdminConfig 后台管理员配置
type AdminConfig struct {
	DefaultUsername string `mapstructure:"default_username"`
	DefaultPassword string `mapstructure:"default_password"`
	DefaultEmail    string `mapstructure:"default_email"`
	// AllowedEmails 非空时仅允许列表中的邮箱登录后台
	AllowedEmails []string `mapstructure:"allowed_emails"`
}

// IsEmailAllowed 判断邮箱是否在后台白名单内
func (c AdminConfig) IsEmailAllowed(email string) bool {
	if len(c.AllowedEmails) == 0 {
		return true
	}
	normalized := strings.ToLower(strings.TrimSpace(email))
	for _, item := range c.AllowedEmails {
		if strings.ToLower(strings.TrimSpace(item)) == normalized {
			return true
		}
	}
	return false
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// QueueConfig 异步队列配置
type QueueConfig struct {
	Enabled     bool           `mapstructure:"enabled"`
	Host        string         `mapstructure:"host"`
	Port        int            `mapstructure:"port"`
	Password    string         `mapstructure:"password"`
	DB          int            `mapstructure:"db"`
	Concurrency int            `mapstructure:"concurrency"`
	Queues      map[string]int `mapstructure:"queues"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	LoginRateLimit RateLimitConfig      `mapstructure:"login_rate_limit"`
	PromoRateLimit RateLimitConfig      `mapstructure:"promo_rate_limit"`
	PasswordPolicy PasswordPolicyConfig `mapstructure:"password_policy"`
}

// CaptchaConfig 验证码配置，provider 为 none 时全部场景放行
type CaptchaConfig struct {
	Provider  string                 `mapstructure:"provider"` // none / image / turnstile
	Scenes    CaptchaSceneConfig     `mapstructure:"scenes"`
	Image     CaptchaImageConfig     `mapstructure:"image"`
	Turnstile CaptchaTurnstileConfig `mapstructure:"turnstile"`
}

// CaptchaSceneConfig 验证码场景开关
type CaptchaSceneConfig struct {
	AdminLogin bool `mapstructure:"admin_login"`
}

// CaptchaImageConfig 图片验证码配置
type CaptchaImageConfig struct {
	Length        int `mapstructure:"length"`
	Width         int `mapstructure:"width"`
	Height        int `mapstructure:"height"`
	NoiseCount    int `mapstructure:"noise_count"`
	ShowLine      int `mapstructure:"show_line"`
	ExpireSeconds int `mapstructure:"expire_seconds"`
	MaxStore      int `mapstructure:"max_store"`
}

// CaptchaTurnstileConfig Cloudflare Turnstile 配置
type CaptchaTurnstileConfig struct {
	SiteKey   string `mapstructure:"site_key"`
	SecretKey string `mapstructure:"secret_key"`
	VerifyURL string `mapstructure:"verify_url"`
	TimeoutMS int    `mapstructure:"timeout_ms"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	WindowSeconds int `mapstructure:"window_seconds"`
	MaxAttempts   int `mapstructure:"max_attempts"`
	BlockSeconds  int `mapstructure:"block_seconds"`
}

// PasswordPolicyConfig 密码策略配置
type PasswordPolicyConfig struct {
	MinLength      int  `mapstructure:"min_length"`
	RequireUpper   bool `mapstructure:"require_upper"`
	RequireLower   bool `mapstructure:"require_lower"`
	RequireNumber  bool `mapstructure:"require_number"`
	RequireSpecial bool `mapstructure:"require_special"`
}

// PromoConfig 优惠码配置
type PromoConfig struct {
	CacheTTLSeconds int  `mapstructure:"cache_ttl_seconds"`
	SyncOnCreate    bool `mapstructure:"sync_on_create"`
	RecentUsageSize int  `mapstructure:"recent_usage_size"`
}

// PlanConfig 订阅套餐
type PlanConfig struct {
	ID               string       `mapstructure:"id" json:"id"`
	Name             string       `mapstructure:"name" json:"name"`
	Category         string       `mapstructure:"category" json:"category"`
	StripePriceID    string       `mapstructure:"stripe_price_id" json:"stripe_price_id"`
	Amount           int64        `mapstructure:"amount" json:"amount"` // 每期金额（最小货币单位）
	Interval         string       `mapstructure:"interval" json:"interval"`
	CommitmentMonths int          `mapstructure:"commitment_months" json:"commitment_months"`
	Features         PlanFeatures `mapstructure:"features" json:"features"`
}

// PlanFeatures 套餐包含的功能，数值字段为每期次数
type PlanFeatures struct {
	Videos             bool `mapstructure:"videos" json:"videos"`
	Recipes            bool `mapstructure:"recipes" json:"recipes"`
	PredefinedPrograms bool `mapstructure:"predefined_programs" json:"predefinedPrograms"`
	CustomPrograms     int  `mapstructure:"custom_programs" json:"customPrograms"`
	CoachingCalls      int  `mapstructure:"coaching_calls" json:"coachingCalls"`
	EmailSupport       bool `mapstructure:"email_support" json:"emailSupport"`
	SMSSupport         bool `mapstructure:"sms_support" json:"smsSupport"`
	AudioLibrary       bool `mapstructure:"audio_library" json:"audioLibrary"`
	NutritionAdvice    bool `mapstructure:"nutrition_advice" json:"nutritionAdvice"`
	ProgressTracking   bool `mapstructure:"progress_tracking" json:"progressTracking"`
	HomeVisits         int  `mapstructure:"home_visits" json:"homeVisits"`
}

// DefaultPlans 默认套餐目录
func DefaultPlans() []PlanConfig {
	personalized := PlanFeatures{
		Videos: true, Recipes: true, PredefinedPrograms: true,
		CustomPrograms: 3, CoachingCalls: 1, EmailSupport: true, SMSSupport: true,
	}
	avance := personalized
	avance.AudioLibrary = true
	avance.NutritionAdvice = true
	avance.ProgressTracking = true
	premium := avance
	premium.HomeVisits = 1

	starter := PlanFeatures{Videos: true, Recipes: true, AudioLibrary: true}
	online := starter
	online.PredefinedPrograms = true

	return []PlanConfig{
		{ID: "essentiel", Name: "Essentiel", Category: "personalized", Amount: 6900, Interval: "month", CommitmentMonths: 3, Features: personalized},
		{ID: "avance", Name: "Avancé", Category: "personalized", Amount: 10900, Interval: "month", CommitmentMonths: 3, Features: avance},
		{ID: "premium", Name: "Premium", Category: "personalized", Amount: 14900, Interval: "month", CommitmentMonths: 3, Features: premium},
		{ID: "starter", Name: "Starter", Category: "online", Amount: 3500, Interval: "month", CommitmentMonths: 2, Features: starter},
		{ID: "pro", Name: "Pro", Category: "online", Amount: 3000, Interval: "month", CommitmentMonths: 4, Features: online},
		{ID: "expert", Name: "Expert", Category: "online", Amount: 2500, Interval: "month", CommitmentMonths: 6, Features: online},
	}
}

// FindPlanByPriceID 根据 Stripe 价格 ID 查找套餐
func (c *Config) FindPlanByPriceID(priceID string) (PlanConfig, bool) {
	trimmed := strings.TrimSpace(priceID)
	if trimmed == "" {
		return PlanConfig{}, false
	}
	for _, plan := range c.Plans {
		if plan.StripePriceID != "" && plan.StripePriceID == trimmed {
			return plan, true
		}
	}
	return PlanConfig{}, false
}

// FindPlan 根据 ID 查找套餐
func (c *Config) FindPlan(id string) (PlanConfig, bool) {
	normalized := strings.ToLower(strings.TrimSpace(id))
	for _, plan := range c.Plans {
		if strings.ToLower(plan.ID) == normalized {
			return plan, true
		}
	}
	return PlanConfig{}, false
}

// Load 从 config.yml 加载配置
func Load() *Config {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("../")
	v.AddConfigPath("./etc")

	cfg, err := LoadWith(v)
	if err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(fmt.Errorf("配置解析失败: %w", err))
	}
	return cfg
}

// LoadWith 使用给定的 viper 实例加载配置
func LoadWith(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	// 环境变量覆盖，例如 stripe.webhook_secret -> STRIPE_WEBHOOK_SECRET
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		logger.Warnw("config_file_read_failed", "error", err, "fallback", "env_or_defaults")
	} else {
		logger.Infow("config_file_loaded", "file", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	normalize(&cfg)
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "only-you-coaching")
	v.SetDefault("app.default_locale", "fr")
	v.SetDefault("app.public_url", "http://localhost:3000")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout_seconds", 15)
	v.SetDefault("server.write_timeout_seconds", 30)
	v.SetDefault("server.shutdown_timeout_seconds", 10)
	v.SetDefault("log.dir", "")
	v.SetDefault("log.filename", "coaching-api.log")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)
	v.SetDefault("log.stdout", false)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./db/coaching.db")
	v.SetDefault("database.debug", false)
	v.SetDefault("database.pool.max_open_conns", 1)
	v.SetDefault("database.pool.max_idle_conns", 1)
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.expire_hours", 24)
	v.SetDefault("admin.default_username", "admin")
	v.SetDefault("admin.default_password", "")
	v.SetDefault("admin.default_email", "")
	v.SetDefault("admin.allowed_emails", []string{})
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "oyc")
	v.SetDefault("queue.enabled", true)
	v.SetDefault("queue.host", "127.0.0.1")
	v.SetDefault("queue.port", 6379)
	v.SetDefault("queue.password", "")
	v.SetDefault("queue.db", 1)
	v.SetDefault("queue.concurrency", 5)
	v.SetDefault("queue.queues", map[string]int{
		"default":  5,
		"critical": 3,
	})
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{
		"Content-Type",
		"Content-Length",
		"Accept-Language",
		"Authorization",
		"X-Request-ID",
		"Stripe-Signature",
	})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.max_age", 600)
	v.SetDefault("security.login_rate_limit.window_seconds", 300)
	v.SetDefault("security.login_rate_limit.max_attempts", 5)
	v.SetDefault("security.login_rate_limit.block_seconds", 900)
	v.SetDefault("security.promo_rate_limit.window_seconds", 60)
	v.SetDefault("security.promo_rate_limit.max_attempts", 20)
	v.SetDefault("security.promo_rate_limit.block_seconds", 300)
	v.SetDefault("security.password_policy.min_length", 8)
	v.SetDefault("security.password_policy.require_upper", true)
	v.SetDefault("security.password_policy.require_lower", true)
	v.SetDefault("security.password_policy.require_number", true)
	v.SetDefault("security.password_policy.require_special", false)
	v.SetDefault("captcha.provider", "none")
	v.SetDefault("captcha.scenes.admin_login", false)
	v.SetDefault("captcha.image.length", 5)
	v.SetDefault("captcha.image.width", 240)
	v.SetDefault("captcha.image.height", 80)
	v.SetDefault("captcha.image.noise_count", 2)
	v.SetDefault("captcha.image.show_line", 2)
	v.SetDefault("captcha.image.expire_seconds", 300)
	v.SetDefault("captcha.image.max_store", 10240)
	v.SetDefault("captcha.turnstile.site_key", "")
	v.SetDefault("captcha.turnstile.secret_key", "")
	v.SetDefault("captcha.turnstile.verify_url", "https://challenges.cloudflare.com/turnstile/v0/siteverify")
	v.SetDefault("captcha.turnstile.timeout_ms", 2000)
	v.SetDefault("stripe.mode", "auto")
	v.SetDefault("stripe.test_secret_key", "")
	v.SetDefault("stripe.live_secret_key", "")
	v.SetDefault("stripe.webhook_secret", "")
	v.SetDefault("stripe.currency", "chf")
	v.SetDefault("stripe.success_url", "http://localhost:3000/checkout/success?session_id={CHECKOUT_SESSION_ID}")
	v.SetDefault("stripe.cancel_url", "http://localhost:3000/subscriptions")
	v.SetDefault("stripe.test_host_suffixes", []string{"vercel.app", "localhost", "127.0.0.1"})
	v.SetDefault("stripe.rate_limit_per_second", 20)
	v.SetDefault("stripe.rate_limit_burst", 5)
	v.SetDefault("stripe.timeout_seconds", 30)
	v.SetDefault("s3.region", "eu-north-1")
	v.SetDefault("s3.bucket", "only-you-coaching")
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.public_base_url", "")
	v.SetDefault("s3.default_expire_seconds", 3600)
	v.SetDefault("s3.max_expire_seconds", 604800)
	v.SetDefault("s3.allowed_prefixes", []string{"Video/", "thumbnails/", "recipes/", "Audio/", "programmes/"})
	v.SetDefault("s3.public_prefixes", []string{"thumbnails/", "recipes/"})
	v.SetDefault("promo.cache_ttl_seconds", 60)
	v.SetDefault("promo.sync_on_create", true)
	v.SetDefault("promo.recent_usage_size", 10)
}

func normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	if len(cfg.Plans) == 0 {
		cfg.Plans = DefaultPlans()
	}
	cfg.Stripe.Currency = strings.ToLower(strings.TrimSpace(cfg.Stripe.Currency))
	if cfg.Stripe.Currency == "" {
		cfg.Stripe.Currency = "chf"
	}
	if cfg.Promo.RecentUsageSize <= 0 {
		cfg.Promo.RecentUsageSize = 10
	}
	if cfg.S3.DefaultExpireSeconds <= 0 {
		cfg.S3.DefaultExpireSeconds = 3600
	}
}
