package models

import (
	"time"
)

// DemoPromoCodes 演示用优惠码
func DemoPromoCodes(now time.Time) []PromoCode {
	intPtr := func(v int) *int { return &v }
	timePtr := func(t time.Time) *time.Time { return &t }
	return []PromoCode{
		{
			Code:           "BIENVENUE10",
			DiscountType:   DiscountTypePercentage,
			DiscountValue:  NewDiscountValue(10),
			MaxUsesPerUser: 1,
			ValidFrom:      timePtr(now),
			ValidUntil:     timePtr(now.AddDate(1, 0, 0)),
			IsActive:       true,
			Description:    "10% de réduction pour les nouveaux clients",
		},
		{
			Code:           "NOEL2026",
			DiscountType:   DiscountTypePercentage,
			DiscountValue:  NewDiscountValue(25),
			MaxUses:        intPtr(100),
			MaxUsesPerUser: 1,
			ValidFrom:      timePtr(now),
			ValidUntil:     timePtr(time.Date(2026, 12, 31, 23, 59, 59, 0, time.UTC)),
			IsActive:       true,
			Description:    "Offre de Noël 2026",
		},
		{
			Code:           "FLASH50",
			DiscountType:   DiscountTypePercentage,
			DiscountValue:  NewDiscountValue(50),
			MaxUses:        intPtr(20),
			MaxUsesPerUser: 1,
			EligiblePlans:  StringList{"essentiel", "starter"},
			ValidFrom:      timePtr(now),
			ValidUntil:     timePtr(now.AddDate(0, 0, 7)),
			IsActive:       true,
			Description:    "Vente flash 50%",
		},
		{
			Code:           "FIDELE15",
			DiscountType:   DiscountTypeFixedAmount,
			DiscountValue:  NewDiscountValue(1500),
			MaxUsesPerUser: 1,
			EligiblePlans:  StringList{"avance", "premium", "pro", "expert"},
			ValidFrom:      timePtr(now),
			IsActive:       true,
			Description:    "15 CHF offerts aux clients fidèles",
		},
		{
			Code:           "STARTER5",
			DiscountType:   DiscountTypePercentage,
			DiscountValue:  NewDiscountValue(5),
			MaxUsesPerUser: 1,
			EligiblePlans:  StringList{"starter"},
			ValidFrom:      timePtr(now),
			IsActive:       true,
			Description:    "5% sur le plan Starter",
		},
	}
}

// SeedDemoPromoCodes 写入演示优惠码（已存在则跳过）
func SeedDemoPromoCodes(now time.Time) (int, error) {
	created := 0
	for _, item := range DemoPromoCodes(now) {
		code := item
		var count int64
		if err := DB.Model(&PromoCode{}).Where("code = ?", code.Code).Count(&count).Error; err != nil {
			return created, err
		}
		if count > 0 {
			continue
		}
		if err := DB.Create(&code).Error; err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
