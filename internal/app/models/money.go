package models

import (
	"database/sql/driver"
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is a fixed-point currency amount. All financial outputs are rounded
// half-up to 2 decimal places; intermediate arithmetic keeps decimal's full
// precision so multi-step fee calculations do not compound rounding error.
type Money struct {
	amount decimal.Decimal
}

func NewMoney(d decimal.Decimal) Money {
	return Money{amount: d}
}

func NewMoneyFromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("invalid money amount %q: %w", s, err)
	}
	return Money{amount: d}, nil
}

func NewMoneyFromInt(n int64) Money {
	return Money{amount: decimal.NewFromInt(n)}
}

func ZeroMoney() Money {
	return Money{amount: decimal.Zero}
}

func (m Money) Add(other Money) Money {
	return Money{amount: m.amount.Add(other.amount)}
}

// Sub subtracts other from m. A negative result is rejected rather than
// clamped, so balance fields can never silently drift below zero.
func (m Money) Sub(other Money) (Money, error) {
	result := m.amount.Sub(other.amount)
	if result.IsNegative() {
		return Money{}, fmt.Errorf("amount %s exceeds available %s", other.amount.StringFixed(2), m.amount.StringFixed(2))
	}
	return Money{amount: result}, nil
}

// MulPercent returns percent% of m, rounded half-up at 2 decimal places.
func (m Money) MulPercent(percent decimal.Decimal) Money {
	result := m.amount.Mul(percent).Div(decimal.NewFromInt(100))
	return Money{amount: result.Round(2)}
}

func (m Money) Cmp(other Money) int {
	return m.amount.Cmp(other.amount)
}

func (m Money) Equal(other Money) bool {
	return m.amount.Equal(other.amount)
}

func (m Money) GreaterThan(other Money) bool {
	return m.amount.GreaterThan(other.amount)
}

func (m Money) LessThan(other Money) bool {
	return m.amount.LessThan(other.amount)
}

func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

func (m Money) Decimal() decimal.Decimal {
	return m.amount
}

// String renders the amount at display precision (2 decimal places, half-up).
func (m Money) String() string {
	return m.amount.Round(2).StringFixed(2)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	m.amount = d
	return nil
}

func (m Money) Value() (driver.Value, error) {
	return m.amount.Round(2).StringFixed(2), nil
}

func (m *Money) Scan(value interface{}) error {
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return err
	}
	m.amount = d
	return nil
}
