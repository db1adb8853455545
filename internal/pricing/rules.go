package pricing

import (
	"math"

	"bcn-hostel-prices/internal/hostels"
)

const (
	DefaultSharedFactor       = 0.8
	DefaultPrivateFactor      = 1.2
	DefaultTouristTaxPerAdult = 5.5
	DefaultCommission         = 0.08
)

// Rules - фиксированные коэффициенты. Все функции чистые и определены для любых входов:
// отрицательные значения приводятся к нулю.
type Rules struct {
	SharedFactor       float64 `yaml:"shared_factor"`
	PrivateFactor      float64 `yaml:"private_factor"`
	TouristTaxPerAdult float64 `yaml:"tourist_tax_per_adult"`
	Commission         float64 `yaml:"commission"`
}

func DefaultRules() Rules {
	return Rules{
		SharedFactor:       DefaultSharedFactor,
		PrivateFactor:      DefaultPrivateFactor,
		TouristTaxPerAdult: DefaultTouristTaxPerAdult,
		Commission:         DefaultCommission,
	}
}

// SharedFromPrivate: shared = private × 0.8.
func SharedFromPrivate(p float64) float64 {
	return DefaultRules().SharedFromPrivate(p)
}

// PrivateFromShared: private = shared × 1.2.
func PrivateFromShared(s float64) float64 {
	return DefaultRules().PrivateFromShared(s)
}

// Hybrid treats the cheapest observed value as the shared price.
func Hybrid(observed ...float64) (shared, private float64) {
	return DefaultRules().Hybrid(observed...)
}

func (r Rules) SharedFromPrivate(p float64) float64 {
	return nonNegative(p) * r.SharedFactor
}

func (r Rules) PrivateFromShared(s float64) float64 {
	return nonNegative(s) * r.PrivateFactor
}

func (r Rules) Hybrid(observed ...float64) (shared, private float64) {
	shared = minOf(observed)
	return shared, r.PrivateFromShared(shared)
}

// Quote - цены обоих типов комнат для одного хостела.
type Quote struct {
	Category       hostels.Category
	Private        float64
	Shared         float64
	PrivateDerived bool
	SharedDerived  bool
}

// Quote применяет правило категории. Для Privado/Compartido при нескольких
// наблюдениях берётся минимум, как и для Híbrido.
func (r Rules) Quote(category hostels.Category, observed ...float64) Quote {
	q := Quote{Category: category}
	base := minOf(observed)

	switch category {
	case hostels.Private:
		q.Private = base
		q.Shared = r.SharedFromPrivate(base)
		q.SharedDerived = true
	case hostels.Shared:
		q.Shared = base
		q.Private = r.PrivateFromShared(base)
		q.PrivateDerived = true
	default:
		q.Shared, q.Private = r.Hybrid(observed...)
		q.PrivateDerived = true
	}
	return q
}

// Breakdown - цена без туристического налога и без комиссии.
type Breakdown struct {
	Gross      float64
	TouristTax float64
	Commission float64
	Net        float64
}

// Net: (gross - tax*adults) - 8% от остатка.
func (r Rules) Net(gross float64, adults int) Breakdown {
	if adults < 0 {
		adults = 0
	}
	gross = nonNegative(gross)
	tax := r.TouristTaxPerAdult * float64(adults)
	withoutTax := gross - tax
	commission := withoutTax * r.Commission

	return Breakdown{
		Gross:      gross,
		TouristTax: tax,
		Commission: commission,
		Net:        withoutTax - commission,
	}
}

// Round2 округляет до центов.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func nonNegative(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}

func minOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := nonNegative(values[0])
	for _, v := range values[1:] {
		if v = nonNegative(v); v < m {
			m = v
		}
	}
	return m
}
