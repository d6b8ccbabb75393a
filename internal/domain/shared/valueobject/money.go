package valueobject

import (
	"database/sql/driver"
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is the platform currency (Iranian Rial)
const DefaultCurrency = "IRR"

// Money represents a monetary amount with currency
// Money is immutable - all operations return new Money values
type Money struct {
	amount   decimal.Decimal
	currency string
}

// NewMoney creates a new Money value
func NewMoney(amount decimal.Decimal, currency string) Money {
	if currency == "" {
		currency = DefaultCurrency
	}
	return Money{amount: amount, currency: currency}
}

// NewMoneyFromInt creates Money from an integer amount in the default currency
func NewMoneyFromInt(amount int64) Money {
	return NewMoney(decimal.NewFromInt(amount), DefaultCurrency)
}

// NewMoneyFromString creates Money from a string amount
func NewMoneyFromString(amount, currency string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid money amount %q: %w", amount, err)
	}
	return NewMoney(d, currency), nil
}

// ZeroMoney returns a zero amount in the default currency
func ZeroMoney() Money {
	return NewMoney(decimal.Zero, DefaultCurrency)
}

// Amount returns the decimal amount
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns the currency code
func (m Money) Currency() string {
	if m.currency == "" {
		return DefaultCurrency
	}
	return m.currency
}

// Add returns the sum of two Money values
func (m Money) Add(other Money) (Money, error) {
	if err := m.checkCurrency(other); err != nil {
		return Money{}, err
	}
	return NewMoney(m.amount.Add(other.amount), m.Currency()), nil
}

// Subtract returns the difference of two Money values
func (m Money) Subtract(other Money) (Money, error) {
	if err := m.checkCurrency(other); err != nil {
		return Money{}, err
	}
	return NewMoney(m.amount.Sub(other.amount), m.Currency()), nil
}

// Multiply returns the Money multiplied by a factor
func (m Money) Multiply(factor decimal.Decimal) Money {
	return NewMoney(m.amount.Mul(factor), m.Currency())
}

// CalculatePercentage returns the given percentage of this amount,
// rounded to the nearest whole currency unit (halves away from zero)
func (m Money) CalculatePercentage(percent decimal.Decimal) Money {
	result := m.amount.Mul(percent).Div(decimal.NewFromInt(100)).Round(0)
	return NewMoney(result, m.Currency())
}

// Split divides the amount into n parts of whole currency units.
// Each part receives the floored equal share; the remainder is added
// to the last part so the parts always sum to the original amount.
func (m Money) Split(n int) ([]Money, error) {
	if n <= 0 {
		return nil, fmt.Errorf("cannot split money into %d parts", n)
	}
	base := m.amount.Div(decimal.NewFromInt(int64(n))).Floor()
	parts := make([]Money, n)
	for i := 0; i < n; i++ {
		parts[i] = NewMoney(base, m.Currency())
	}
	remainder := m.amount.Sub(base.Mul(decimal.NewFromInt(int64(n))))
	last, err := parts[n-1].Add(NewMoney(remainder, m.Currency()))
	if err != nil {
		return nil, err
	}
	parts[n-1] = last
	return parts, nil
}

// IsZero reports whether the amount is zero
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// IsNegative reports whether the amount is negative
func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

// IsPositive reports whether the amount is strictly positive
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// Equals reports whether two Money values are equal
func (m Money) Equals(other Money) bool {
	return m.Currency() == other.Currency() && m.amount.Equal(other.amount)
}

// GreaterThan reports whether this amount is greater than the other
func (m Money) GreaterThan(other Money) bool {
	return m.amount.GreaterThan(other.amount)
}

// LessThan reports whether this amount is less than the other
func (m Money) LessThan(other Money) bool {
	return m.amount.LessThan(other.amount)
}

// String returns a human-readable representation
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.String(), m.Currency())
}

// Value implements driver.Valuer for database storage
func (m Money) Value() (driver.Value, error) {
	return m.amount.String(), nil
}

// Scan implements sql.Scanner for database retrieval
func (m *Money) Scan(value interface{}) error {
	if value == nil {
		m.amount = decimal.Zero
		m.currency = DefaultCurrency
		return nil
	}
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return fmt.Errorf("failed to scan money amount: %w", err)
	}
	m.amount = d
	m.currency = DefaultCurrency
	return nil
}

func (m Money) checkCurrency(other Money) error {
	if m.Currency() != other.Currency() {
		return fmt.Errorf("currency mismatch: %s vs %s", m.Currency(), other.Currency())
	}
	return nil
}
