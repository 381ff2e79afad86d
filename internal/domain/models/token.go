package models

import (
	"encoding/json"
	"math/big"

	"github.com/shopspring/decimal"
)

// DefaultTokenDecimals is used when the token does not say otherwise.
const DefaultTokenDecimals int32 = 18

// Token is an amount of the governance token in base units.
type Token struct {
	amount   *big.Int
	symbol   string
	decimals int32
}

// NewToken builds a token amount. A nil amount is treated as zero.
func NewToken(amount *big.Int, symbol string, decimals int32) Token {
	a := new(big.Int)
	if amount != nil {
		a.Set(amount)
	}
	return Token{amount: a, symbol: symbol, decimals: decimals}
}

// Amount returns the amount in base units.
func (t Token) Amount() *big.Int {
	if t.amount == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(t.amount)
}

func (t Token) Symbol() string  { return t.symbol }
func (t Token) Decimals() int32 { return t.decimals }

// Value returns the display amount, amount / 10^decimals.
func (t Token) Value() decimal.Decimal {
	return decimal.NewFromBigInt(t.Amount(), -t.decimals)
}

// IsZero reports whether the amount is zero.
func (t Token) IsZero() bool {
	return t.amount == nil || t.amount.Sign() == 0
}

// String formats the token as "<value> <symbol>".
func (t Token) String() string {
	v := t.Value().String()
	if t.symbol == "" {
		return v
	}
	return v + " " + t.symbol
}

type tokenJSON struct {
	Amount   string `json:"amount"`
	Value    string `json:"value"`
	Symbol   string `json:"symbol"`
	Decimals int32  `json:"decimals"`
}

func (t Token) MarshalJSON() ([]byte, error) {
	return json.Marshal(tokenJSON{
		Amount:   t.Amount().String(),
		Value:    t.Value().String(),
		Symbol:   t.symbol,
		Decimals: t.decimals,
	})
}

// MarshalYAML keeps yaml output in the same shape as json.
func (t Token) MarshalYAML() (interface{}, error) {
	return tokenJSON{
		Amount:   t.Amount().String(),
		Value:    t.Value().String(),
		Symbol:   t.symbol,
		Decimals: t.decimals,
	}, nil
}
