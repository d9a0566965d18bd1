package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount expressed in the smallest unit of the shop currency.
type Money int64

func (m Money) Add(o Money) Money { return m + o }
func (m Money) Sub(o Money) Money { return m - o }
func (m Money) Mul(n int) Money { return m * Money(n) }
func (m Money) Neg() Money { return -m }
func (m Money) IsPositive() bool { return m > 0 }
func (m Money) IsNegative() bool { return m < 0 }
func (m Money) Int64() int64 { return int64(m) }
func (m Money) Decimal() decimal.Decimal { return decimal.NewFromInt(int64(m)) }

// Cmp returns -1, 0 or +1.
func (m Money) Cmp(o Money) int {
	switch {
	case m < o:
		return -1
	case m > o:
		return 1
	}
	return 0
}

// Scale multiplies m by factor, truncating toward zero.
func (m Money) Scale(factor decimal.Decimal) Money {
	return Money(m.Decimal().Mul(factor).IntPart())
}

// Currency describes how minor units map to a human readable amount.
type Currency struct {
	Code     string
	Exponent int32
	Symbol   string
}

// Format renders m with exactly Exponent fraction digits, e.g. 1050 -> "10.50".
func (c Currency) Format(m Money) string {
	return decimal.New(int64(m), -c.Exponent).StringFixed(c.Exponent)
}

// Parse reads "12", "-3", "12.5" or "12,50" into minor units. Extra fraction digits are truncated.
func (c Currency) Parse(s string) (Money, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	s = strings.Replace(s, ",", ".", 1)
	if s == "" {
		return 0, fmt.Errorf("parse amount: empty")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return Money(d.Shift(c.Exponent).IntPart()), nil
}

// FeeSchedule is the surcharge applied to card top-ups.
type FeeSchedule struct {
	Percentage float64 // 0-100
	Fixed      Money
}

// Fee returns amount*Percentage/100 + Fixed, floored at zero.
func (f FeeSchedule) Fee(amount Money) Money {
	pct := decimal.NewFromFloat(f.Percentage).Div(decimal.NewFromInt(100))
	total := amount.Scale(pct).Add(f.Fixed)
	if total.IsNegative() {
		return 0
	}
	return total
}
