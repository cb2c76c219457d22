package stripe

import (
	"context"
	"strings"
	"time"

	stripego "github.com/stripe/stripe-go/v76"
)

// CouponSpec 创建优惠券参数
type CouponSpec struct {
	ID             string
	Name           string
	PercentOff     *float64
	AmountOff      *int64
	Currency       string
	MaxRedemptions *int64
	RedeemBy       *time.Time
	Metadata       map[string]string
}

// Coupon Stripe 优惠券摘要
type Coupon struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	PercentOff     *float64 `json:"percent_off"`
	AmountOff      *int64   `json:"amount_off"`
	Currency       string   `json:"currency,omitempty"`
	Duration       string   `json:"duration"`
	MaxRedemptions *int64   `json:"max_redemptions"`
	TimesRedeemed  int64    `json:"times_redeemed"`
	Valid          bool     `json:"valid"`
}

func fromStripeCoupon(c *stripego.Coupon) *Coupon {
	if c == nil {
		return nil
	}
	out := &Coupon{
		ID:            c.ID,
		Name:          c.Name,
		Currency:      string(c.Currency),
		Duration:      string(c.Duration),
		TimesRedeemed: c.TimesRedeemed,
		Valid:         c.Valid,
	}
	if c.PercentOff > 0 {
		percent := c.PercentOff
		out.PercentOff = &percent
	}
	if c.AmountOff > 0 {
		amount := c.AmountOff
		out.AmountOff = &amount
	}
	if c.MaxRedemptions > 0 {
		max := c.MaxRedemptions
		out.MaxRedemptions = &max
	}
	return out
}

// GetCoupon 查询优惠券，不存在时返回 ErrCouponNotFound
func (c *Client) GetCoupon(ctx context.Context, id string) (*Coupon, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	params := &stripego.CouponParams{}
	params.Context = ctx
	start := time.Now()
	coupon, err := c.api.Coupons.Get(strings.TrimSpace(id), params)
	observe("coupon.get", start, err)
	if err != nil {
		return nil, wrapError("get coupon", err)
	}
	return fromStripeCoupon(coupon), nil
}

// CreateCoupon 创建优惠券（duration=forever）
func (c *Client) CreateCoupon(ctx context.Context, spec CouponSpec) (*Coupon, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	params := &stripego.CouponParams{
		Duration: stripego.String(couponDurationValue),
	}
	params.Context = ctx
	if id := strings.TrimSpace(spec.ID); id != "" {
		params.ID = stripego.String(id)
	}
	if name := strings.TrimSpace(spec.Name); name != "" {
		params.Name = stripego.String(name)
	}
	switch {
	case spec.PercentOff != nil:
		params.PercentOff = stripego.Float64(*spec.PercentOff)
	case spec.AmountOff != nil:
		params.AmountOff = stripego.Int64(*spec.AmountOff)
		currency := strings.ToLower(strings.TrimSpace(spec.Currency))
		if currency == "" {
			currency = c.currency
		}
		params.Currency = stripego.String(currency)
	}
	if spec.MaxRedemptions != nil && *spec.MaxRedemptions > 0 {
		params.MaxRedemptions = stripego.Int64(*spec.MaxRedemptions)
	}
	if spec.RedeemBy != nil {
		params.RedeemBy = stripego.Int64(spec.RedeemBy.Unix())
	}
	for key, value := range spec.Metadata {
		params.AddMetadata(key, value)
	}

	start := time.Now()
	coupon, err := c.api.Coupons.New(params)
	observe("coupon.create", start, err)
	if err != nil {
		return nil, wrapError("create coupon", err)
	}
	return fromStripeCoupon(coupon), nil
}

// DeleteCoupon 删除优惠券
func (c *Client) DeleteCoupon(ctx context.Context, id string) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	params := &stripego.CouponParams{}
	params.Context = ctx
	start := time.Now()
	_, err := c.api.Coupons.Del(strings.TrimSpace(id), params)
	observe("coupon.delete", start, err)
	return wrapError("delete coupon", err)
}

// ListCoupons 列出优惠券（最多 limit 条）
func (c *Client) ListCoupons(ctx context.Context, limit int) ([]Coupon, error) {
	if limit <= 0 || limit > defaultCouponLimit {
		limit = defaultCouponLimit
	}
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	params := &stripego.CouponListParams{}
	params.Context = ctx
	params.Limit = stripego.Int64(int64(limit))
	params.Single = true

	start := time.Now()
	iter := c.api.Coupons.List(params)
	coupons := make([]Coupon, 0, limit)
	for iter.Next() {
		if item := fromStripeCoupon(iter.Coupon()); item != nil {
			coupons = append(coupons, *item)
		}
		if len(coupons) >= limit {
			break
		}
	}
	err := iter.Err()
	observe("coupon.list", start, err)
	if err != nil {
		return nil, wrapError("list coupons", err)
	}
	return coupons, nil
}
