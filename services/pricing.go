package services

import (
	"github.com/shopspring/decimal"

	"github.com/MightyWarner19/grainlly/models"
)

var hundred = decimal.NewFromInt(100)

// UnitPrice is the price actually charged: the offer price when one is set,
// otherwise the regular price.
func UnitPrice(p *models.Product) decimal.Decimal {
	if p.OfferPrice != nil && *p.OfferPrice > 0 {
		return decimal.NewFromFloat(*p.OfferPrice)
	}
	return decimal.NewFromFloat(p.Price)
}

// LineTotal is unitPrice × quantity.
func LineTotal(p *models.Product, quantity int) decimal.Decimal {
	return UnitPrice(p).Mul(decimal.NewFromInt(int64(quantity)))
}

// FloorCents truncates toward negative infinity at two decimal places.
func FloorCents(d decimal.Decimal) decimal.Decimal {
	return d.RoundFloor(2)
}

// MinorUnits converts a major-unit amount to the gateway's minor unit
// (paise, cents), rounding half away from zero.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// Pricer computes authoritative order totals.
type Pricer struct {
	surchargePercent decimal.Decimal
}

func NewPricer(surchargePercent decimal.Decimal) Pricer {
	return Pricer{surchargePercent: surchargePercent}
}

// Surcharge is floor(subtotal × percent / 100) in whole currency units.
func (p Pricer) Surcharge(subtotal decimal.Decimal) decimal.Decimal {
	if p.surchargePercent.IsZero() {
		return decimal.Zero
	}
	return subtotal.Mul(p.surchargePercent).Div(hundred).Floor()
}

// Quote is a priced set of line items.
type Quote struct {
	Lines     []models.OrderItem
	Subtotal  decimal.Decimal
	Surcharge decimal.Decimal
	Total     decimal.Decimal
}

// QuoteLine pairs a resolved product with its requested quantity.
type QuoteLine struct {
	Product  *models.Product
	Quantity int
}

// Quote prices lines in order. Callers must have resolved every product.
func (p Pricer) Quote(lines []QuoteLine) Quote {
	q := Quote{Lines: make([]models.OrderItem, 0, len(lines))}
	subtotal := decimal.Zero
	for _, l := range lines {
		unit := UnitPrice(l.Product)
		subtotal = subtotal.Add(unit.Mul(decimal.NewFromInt(int64(l.Quantity))))
		q.Lines = append(q.Lines, models.OrderItem{
			ProductID: l.Product.ID,
			Name:      l.Product.Name,
			UnitPrice: unit.InexactFloat64(),
			Quantity:  l.Quantity,
		})
	}
	q.Subtotal = FloorCents(subtotal)
	q.Surcharge = p.Surcharge(q.Subtotal)
	q.Total = q.Subtotal.Add(q.Surcharge)
	return q
}
