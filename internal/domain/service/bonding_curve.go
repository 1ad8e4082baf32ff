package service

import (
	"math"

	apperrors "anime-forge-api/pkg/errors"
)

const (
	DefaultCurvePrice  = 0.01
	DefaultCurveGrowth = 1.01
)

// FundingQuote 一次资助的报价
type FundingQuote struct {
	Amount          float64 `json:"amount"`
	PriceAtPurchase float64 `json:"price_at_purchase"`
	Credits         int64   `json:"credits"`
	NewPrice        float64 `json:"new_price"`
}

// BondingCurve 线性乘数联合曲线：每次资助后价格乘以 Growth
type BondingCurve struct {
	DefaultPrice float64
	Growth       float64
}

// NewBondingCurve 创建联合曲线，非正参数回退为默认值
func NewBondingCurve(defaultPrice, growth float64) BondingCurve {
	if !(defaultPrice > 0) {
		defaultPrice = DefaultCurvePrice
	}
	if !(growth > 0) {
		growth = DefaultCurveGrowth
	}
	return BondingCurve{DefaultPrice: defaultPrice, Growth: growth}
}

// EffectivePrice 缺失或非正的价格按默认价处理
func (c BondingCurve) EffectivePrice(price float64) float64 {
	if !(price > 0) || math.IsInf(price, 0) {
		return c.DefaultPrice
	}
	return price
}

// Quote credits = floor(amount / price)，newPrice = price × growth
func (c BondingCurve) Quote(amount, currentPrice float64) (FundingQuote, error) {
	if !(amount > 0) || math.IsInf(amount, 0) {
		return FundingQuote{}, apperrors.ErrInvalidAmount
	}
	price := c.EffectivePrice(currentPrice)

	credits := math.Floor(amount / price)
	if credits > math.MaxInt64 {
		return FundingQuote{}, apperrors.ErrInvalidAmount.WithDetail("amount too large for current price")
	}

	return FundingQuote{
		Amount:          amount,
		PriceAtPurchase: price,
		Credits:         int64(credits),
		NewPrice:        price * c.Growth,
	}, nil
}
