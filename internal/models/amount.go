package models

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// DiscountValue 折扣数值（百分比或最小货币单位金额）
// 以 JSON 数字输出，数据库中以 decimal 存储
type DiscountValue struct {
	decimal.Decimal
}

// NewDiscountValue 从整数构造折扣值
func NewDiscountValue(v int64) DiscountValue {
	return DiscountValue{Decimal: decimal.NewFromInt(v)}
}

// NewDiscountValueFromFloat 从浮点数构造折扣值（保留 2 位小数）
func NewDiscountValueFromFloat(v float64) DiscountValue {
	return DiscountValue{Decimal: decimal.NewFromFloat(v).Round(2)}
}

// MarshalJSON 输出为 JSON 数字
func (d DiscountValue) MarshalJSON() ([]byte, error) {
	return []byte(d.Decimal.Round(2).String()), nil
}

// UnmarshalJSON 解析折扣值（字符串或数字）
func (d *DiscountValue) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		parsed, err := decimal.NewFromString(s)
		if err != nil {
			return err
		}
		d.Decimal = parsed.Round(2)
		return nil
	}
	parsed, err := decimal.NewFromString(string(b))
	if err != nil {
		return err
	}
	d.Decimal = parsed.Round(2)
	return nil
}

// Value 用于数据库写入
func (d DiscountValue) Value() (driver.Value, error) {
	return d.Decimal.Round(2).Value()
}

// Scan 用于数据库读取
func (d *DiscountValue) Scan(value interface{}) error {
	if err := d.Decimal.Scan(value); err != nil {
		return err
	}
	d.Decimal = d.Decimal.Round(2)
	return nil
}

// String 返回规整后的数值文本
func (d DiscountValue) String() string {
	return d.Decimal.Round(2).String()
}
