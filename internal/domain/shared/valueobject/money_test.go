package valueobject

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoney_Add(t *testing.T) {
	a := NewMoneyFromInt(1000)
	b := NewMoneyFromInt(500)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.True(t, sum.Equals(NewMoneyFromInt(1500)))
}

func TestMoney_Add_CurrencyMismatch(t *testing.T) {
	a := NewMoney(decimal.NewFromInt(100), "IRR")
	b := NewMoney(decimal.NewFromInt(100), "USD")

	_, err := a.Add(b)
	assert.Error(t, err)
}

func TestMoney_Subtract(t *testing.T) {
	a := NewMoneyFromInt(1000)
	b := NewMoneyFromInt(300)

	diff, err := a.Subtract(b)
	require.NoError(t, err)
	assert.True(t, diff.Equals(NewMoneyFromInt(700)))
}

func TestMoney_Split_EvenDivision(t *testing.T) {
	m := NewMoneyFromInt(3000000)

	parts, err := m.Split(3)
	require.NoError(t, err)
	require.Len(t, parts, 3)
	for _, p := range parts {
		assert.True(t, p.Equals(NewMoneyFromInt(1000000)))
	}
}

func TestMoney_Split_RemainderGoesToLastPart(t *testing.T) {
	m := NewMoneyFromInt(1000001)

	parts, err := m.Split(3)
	require.NoError(t, err)
	require.Len(t, parts, 3)
	assert.True(t, parts[0].Equals(NewMoneyFromInt(333333)))
	assert.True(t, parts[1].Equals(NewMoneyFromInt(333333)))
	assert.True(t, parts[2].Equals(NewMoneyFromInt(333335)))

	total := ZeroMoney()
	for _, p := range parts {
		var err error
		total, err = total.Add(p)
		require.NoError(t, err)
	}
	assert.True(t, total.Equals(m))
}

func TestMoney_Split_InvalidParts(t *testing.T) {
	m := NewMoneyFromInt(100)

	_, err := m.Split(0)
	assert.Error(t, err)

	_, err = m.Split(-1)
	assert.Error(t, err)
}

func TestMoney_CalculatePercentage(t *testing.T) {
	tests := []struct {
		name     string
		amount   int64
		percent  string
		expected int64
	}{
		{"ten percent", 1000000, "10", 100000},
		{"rounds a fractional result to the nearest unit", 999999, "10", 100000},
		{"rounds down below the half unit", 1004, "10", 100},
		{"half a unit rounds up", 1005, "10", 101},
		{"five percent", 3000000, "5", 150000},
		{"zero percent", 1000000, "0", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMoneyFromInt(tt.amount)
			p, err := decimal.NewFromString(tt.percent)
			require.NoError(t, err)

			result := m.CalculatePercentage(p)
			assert.True(t, result.Equals(NewMoneyFromInt(tt.expected)),
				"expected %d, got %s", tt.expected, result.Amount())
		})
	}
}

func TestMoney_Comparisons(t *testing.T) {
	a := NewMoneyFromInt(100)
	b := NewMoneyFromInt(200)

	assert.True(t, a.LessThan(b))
	assert.True(t, b.GreaterThan(a))
	assert.False(t, a.Equals(b))
	assert.True(t, ZeroMoney().IsZero())
	assert.True(t, a.IsPositive())

	neg, err := a.Subtract(b)
	require.NoError(t, err)
	assert.True(t, neg.IsNegative())
}

func TestMoney_DefaultCurrency(t *testing.T) {
	m := NewMoney(decimal.NewFromInt(100), "")
	assert.Equal(t, "IRR", m.Currency())
}

func TestNewMoneyFromString(t *testing.T) {
	m, err := NewMoneyFromString("1500000", "IRR")
	require.NoError(t, err)
	assert.True(t, m.Equals(NewMoneyFromInt(1500000)))

	_, err = NewMoneyFromString("not-a-number", "IRR")
	assert.Error(t, err)
}
