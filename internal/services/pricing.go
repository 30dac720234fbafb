package services

import (
	"errors"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidServiceType = errors.New("unrecognized service type")
	ErrInvalidSubtype     = errors.New("unrecognized module subtype")
)

// Price table of the store, in VND. The constants are part of the external
// contract and must not drift.
var (
	priceSLUnit     = decimal.NewFromInt(1_000_000)
	priceSLRate     = decimal.NewFromInt(100_000)
	priceRPUnit     = decimal.NewFromInt(100_000)
	priceRPPremium  = decimal.NewFromInt(120_000)
	priceRPStandard = decimal.NewFromInt(140_000)
	priceEvent      = decimal.NewFromInt(650_000)
	priceModulTank  = decimal.NewFromInt(300_000)
	priceModulHeli  = decimal.NewFromInt(375_000)
	priceModulShip  = decimal.NewFromInt(400_000)
)

// PricingService answers price quotes. It is pure: no state, no storage.
type PricingService struct{}

func NewPricingService() *PricingService {
	return &PricingService{}
}

// parseQuantity extracts the digits from a quantity field as customers type
// it ("2.000.000", "100k đơn vị", ...). An empty result counts as 1.
func parseQuantity(quantity string) decimal.Decimal {
	var digits strings.Builder
	for _, r := range quantity {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
		}
	}

	if digits.Len() == 0 {
		return decimal.NewFromInt(1)
	}

	value, err := decimal.NewFromString(digits.String())
	if err != nil {
		return decimal.NewFromInt(1)
	}

	return value
}

func (p *PricingService) Quote(serviceType, subtype, quantity string, premium bool) (decimal.Decimal, error) {
	qty := parseQuantity(quantity)
	service := strings.ToUpper(strings.TrimSpace(serviceType))
	sub := strings.ToUpper(strings.TrimSpace(subtype))

	switch service {
	case "SL":
		return qty.Div(priceSLUnit).Mul(priceSLRate), nil
	case "RP":
		rate := priceRPStandard
		if premium {
			rate = priceRPPremium
		}
		return qty.Div(priceRPUnit).Mul(rate), nil
	case "EVENT":
		return qty.Mul(priceEvent), nil
	case "MODUL":
		switch sub {
		case "TANK", "AIR":
			return qty.Mul(priceModulTank), nil
		case "HELI":
			return qty.Mul(priceModulHeli), nil
		case "SHIP":
			return qty.Mul(priceModulShip), nil
		default:
			return decimal.Zero, ErrInvalidSubtype
		}
	default:
		return decimal.Zero, ErrInvalidServiceType
	}
}
