package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "coaching"

var (
	// HTTP 指标
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// 优惠码指标
	promoValidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promo_validations_total",
			Help:      "Promo code validations by result",
		},
		[]string{"result"},
	)
	promoRedemptionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promo_redemptions_total",
			Help:      "Promo code redemptions by result",
		},
		[]string{"result"},
	)
	couponSyncTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stripe_coupon_sync_total",
			Help:      "Stripe coupon mirroring outcomes",
		},
		[]string{"mode", "outcome"},
	)

	// Stripe 调用
	stripeRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stripe_request_duration_seconds",
			Help:      "Duration of Stripe API calls in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation", "status"},
	)

	webhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stripe_webhook_events_total",
			Help:      "Stripe webhook events by type and result",
		},
		[]string{"type", "result"},
	)
)

// Handler 返回 /metrics 处理器
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveHTTP 记录一次 HTTP 请求
func ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveValidation 记录校验结果（accepted 或拒绝原因）
func ObserveValidation(result string) {
	promoValidationsTotal.WithLabelValues(result).Inc()
}

// ObserveRedemption 记录兑换结果
func ObserveRedemption(result string) {
	promoRedemptionsTotal.WithLabelValues(result).Inc()
}

// ObserveCouponSync 累加同步结果
func ObserveCouponSync(mode, outcome string, count int) {
	if count <= 0 {
		return
	}
	couponSyncTotal.WithLabelValues(mode, outcome).Add(float64(count))
}

// ObserveStripeCall 记录 Stripe 调用耗时
func ObserveStripeCall(operation string, err error, elapsed time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	stripeRequestDuration.WithLabelValues(operation, status).Observe(elapsed.Seconds())
}

// ObserveWebhook 记录 webhook 处理结果
func ObserveWebhook(eventType, result string) {
	webhookEventsTotal.WithLabelValues(eventType, result).Inc()
}
