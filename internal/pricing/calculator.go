package pricing

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/mMando123/gym-management/internal/plan"
)

var (
	ErrNoSports       = errors.New("at least one sport is required")
	ErrNoPriceForSport = errors.New("plan has no price for sport")
)

// Quote is the priced breakdown of a subscription before it is created.
type Quote struct {
	OriginalCents int64 `json:"original_cents"`
	DiscountCents int64 `json:"discount_cents"`
	PromoCents    int64 `json:"promo_cents"`
	FinalCents    int64 `json:"final_cents"`
}

// Calculator is pure: no I/O, no clock, fully determined by its inputs.
// The promo table is injected so that codes live in configuration, not
// in code.
type Calculator struct {
	promos map[string]float64
}

func NewCalculator(promoCodes map[string]float64) *Calculator {
	promos := make(map[string]float64, len(promoCodes))
	for code, pct := range promoCodes {
		promos[strings.ToUpper(code)] = pct
	}
	return &Calculator{promos: promos}
}

// Calculate sums the plan's per-sport prices and applies, in order, the
// plan discount, the package discount (multi-sport subscriptions only)
// and the promo-code discount. Each percentage applies to the original
// sum. An unknown promo code contributes nothing; a sport missing from
// the plan's price table is a configuration error.
func (c *Calculator) Calculate(p *plan.Plan, prices map[int]int64, sportIDs []int, pkg *plan.Package, promoCode string) (*Quote, error) {
	if len(sportIDs) == 0 {
		return nil, ErrNoSports
	}

	var original int64
	for _, sportID := range sportIDs {
		price, ok := prices[sportID]
		if !ok {
			return nil, fmt.Errorf("%w: sport %d in plan %d", ErrNoPriceForSport, sportID, p.ID)
		}
		original += price
	}

	var discount int64
	if p.DiscountPercent > 0 {
		discount += percentOf(original, p.DiscountPercent)
	}

	if pkg != nil && len(sportIDs) > 1 {
		discount += percentOf(original, pkg.DiscountPercent)
	}

	var promo int64
	if promoCode != "" {
		if pct, ok := c.promos[strings.ToUpper(promoCode)]; ok {
			promo = percentOf(original, pct)
			discount += promo
		}
	}

	final := original - discount
	if final < 0 {
		final = 0
	}

	return &Quote{
		OriginalCents: original,
		DiscountCents: discount,
		PromoCents:    promo,
		FinalCents:    final,
	}, nil
}

func percentOf(amount int64, pct float64) int64 {
	return int64(math.Round(float64(amount) * pct / 100))
}
