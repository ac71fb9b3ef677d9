package economy

import (
	"errors"
	"math"
)

var (
	ErrInvalidItem   = errors.New("invalid item")
	ErrInvalidAmount = errors.New("invalid amount")
)

// PriceAt returns the cost of the next unit when the buyer already owns
// `owned` units in the item's scaling family:
//
//	price(n) = round(basePrice * growthRate^n)
//
// rounded half-up to the nearest currency unit. owned == 0 returns
// basePrice exactly, with no float round trip.
func PriceAt(basePrice int64, growthRate float64, owned int64) (int64, error) {
	if basePrice <= 0 {
		return 0, ErrInvalidItem
	}
	if owned < 0 {
		return 0, ErrInvalidAmount
	}
	if owned == 0 || growthRate == 1 {
		return basePrice, nil
	}
	if growthRate <= 0 {
		return 0, ErrInvalidItem
	}

	raw := float64(basePrice) * math.Pow(growthRate, float64(owned))
	return int64(math.Floor(raw + 0.5)), nil
}

// PriceCurve returns the prices of the next `count` units starting from
// an owned count of `owned`. Used by the shop view to show escalation.
func PriceCurve(basePrice int64, growthRate float64, owned, count int64) ([]int64, error) {
	if count < 0 {
		return nil, ErrInvalidAmount
	}
	prices := make([]int64, 0, count)
	for i := int64(0); i < count; i++ {
		p, err := PriceAt(basePrice, growthRate, owned+i)
		if err != nil {
			return nil, err
		}
		prices = append(prices, p)
	}
	return prices, nil
}
