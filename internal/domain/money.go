package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount in a single currency. Arithmetic between two values
// requires matching currencies.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

func NewMoney(amount decimal.Decimal, currency string) Money {
	return Money{Amount: amount, Currency: strings.ToUpper(strings.TrimSpace(currency))}
}

func MoneyFromFloat(amount float64, currency string) Money {
	return NewMoney(decimal.NewFromFloat(amount), currency)
}

func Zero(currency string) Money { return NewMoney(decimal.Zero, currency) }

func (m Money) IsZero() bool { return m.Amount.IsZero() }

func (m Money) Add(o Money) (Money, error) {
	if m.Currency != o.Currency {
		return Money{}, fmt.Errorf("%w: %s + %s", ErrCurrencyMismatch, m.Currency, o.Currency)
	}
	return Money{Amount: m.Amount.Add(o.Amount), Currency: m.Currency}, nil
}

// Sum adds every value onto a zero of currency.
func Sum(currency string, values ...Money) (Money, error) {
	total := Zero(currency)
	for _, v := range values {
		var err error
		if total, err = total.Add(v); err != nil {
			return Money{}, err
		}
	}
	return total, nil
}

func (m Money) MulInt(n int) Money {
	return Money{Amount: m.Amount.Mul(decimal.NewFromInt(int64(n))), Currency: m.Currency}
}

func (m Money) DivInt(n int) Money {
	return Money{Amount: m.Amount.Div(decimal.NewFromInt(int64(n))), Currency: m.Currency}
}

// Convert applies rate (units of target per unit of m.Currency).
func (m Money) Convert(rate decimal.Decimal, target string) Money {
	return NewMoney(m.Amount.Mul(rate), target)
}

func (m Money) String() string {
	return m.Amount.StringFixed(2) + " " + m.Currency
}

type BudgetRange struct {
	Low  Money `json:"low"`
	High Money `json:"high"`
}

func (r BudgetRange) Convert(rate decimal.Decimal, target string) BudgetRange {
	return BudgetRange{Low: r.Low.Convert(rate, target), High: r.High.Convert(rate, target)}
}
