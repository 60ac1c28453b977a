package catalog

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ApartmentUnit is a sellable unit type of the complex.
type ApartmentUnit struct {
	Area  decimal.Decimal
	Label string
}

// Store is the read-only catalog of units and down payment options. It is safe for
// concurrent use because nothing mutates it after New.
type Store struct {
	units    []ApartmentUnit
	percents []decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

func New(units []ApartmentUnit, percents []decimal.Decimal) (*Store, error) {
	if len(units) == 0 {
		return nil, fmt.Errorf("catalog: no apartments defined")
	}
	if len(percents) == 0 {
		return nil, fmt.Errorf("catalog: no down payment percents defined")
	}

	seen := make(map[string]bool, len(units))
	for i, u := range units {
		if !u.Area.IsPositive() {
			return nil, fmt.Errorf("catalog: apartment #%d has non-positive area %s", i+1, u.Area)
		}
		if u.Label == "" {
			return nil, fmt.Errorf("catalog: apartment #%d (%s m2) has no label", i+1, u.Area)
		}
		key := u.Area.String()
		if seen[key] {
			return nil, fmt.Errorf("catalog: duplicate apartment area %s", key)
		}
		seen[key] = true
	}

	for i, p := range percents {
		if !p.IsPositive() || p.GreaterThan(hundred) {
			return nil, fmt.Errorf("catalog: percent %s is outside (0, 100]", p)
		}
		if i > 0 && !p.GreaterThan(percents[i-1]) {
			return nil, fmt.Errorf("catalog: percents must be strictly ascending, %s follows %s", p, percents[i-1])
		}
	}

	return &Store{
		units:    append([]ApartmentUnit(nil), units...),
		percents: append([]decimal.Decimal(nil), percents...),
	}, nil
}

// ListApartments returns the units in definition order.
func (s *Store) ListApartments() []ApartmentUnit {
	return append([]ApartmentUnit(nil), s.units...)
}

// ListDownPaymentPercents returns the ascending percent options.
func (s *Store) ListDownPaymentPercents() []decimal.Decimal {
	return append([]decimal.Decimal(nil), s.percents...)
}

func (s *Store) FindApartment(area decimal.Decimal) (ApartmentUnit, bool) {
	for _, u := range s.units {
		if u.Area.Equal(area) {
			return u, true
		}
	}
	return ApartmentUnit{}, false
}

func (s *Store) HasPercent(percent decimal.Decimal) bool {
	for _, p := range s.percents {
		if p.Equal(percent) {
			return true
		}
	}
	return false
}
