package pricing

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ShippingMethod identifies a shipping option.
type ShippingMethod string

const (
	ShippingStandard  ShippingMethod = "standard"
	ShippingExpress   ShippingMethod = "express"
	ShippingOvernight ShippingMethod = "overnight"
	ShippingFree      ShippingMethod = "free"
)

// ErrUnknownShippingMethod is returned for a method outside the cost table.
var ErrUnknownShippingMethod = errors.New("unknown shipping method")

// ShippingTable maps methods to flat costs in minor currency units.
type ShippingTable map[ShippingMethod]decimal.Decimal

// DefaultShippingTable returns the default method cost table.
func DefaultShippingTable() ShippingTable {
	return ShippingTable{
		ShippingStandard:  decimal.NewFromInt(50),
		ShippingExpress:   decimal.NewFromInt(150),
		ShippingOvernight: decimal.NewFromInt(300),
		ShippingFree:      decimal.Zero,
	}
}

// Cost looks up the cost for a method.
func (t ShippingTable) Cost(method ShippingMethod) (decimal.Decimal, error) {
	cost, ok := t[method]
	if !ok {
		return decimal.Zero, errors.Wrapf(ErrUnknownShippingMethod, "%q", method)
	}
	return cost, nil
}
