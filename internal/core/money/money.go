// Package money は金額と単価を扱う値オブジェクトを提供します。
package money

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ogurasousui/peoplesoft-ledger/internal/core/stored"
)

// MinorUnits は通貨の補助単位の桁数です。支払額はこの桁数に銀行丸めされます。
const MinorUnits int32 = 2

// Money は任意精度の金額を表す不変の値です。
// 途中計算のため負の値も保持できます。
type Money struct {
	amount decimal.Decimal
}

// Zero は 0 の金額を返します。
func Zero() Money {
	return Money{amount: decimal.Zero}
}

// New は decimal から Money を生成します。
func New(amount decimal.Decimal) Money {
	return Money{amount: amount}
}

// NewFromCents は補助単位の整数値から Money を生成します。
func NewFromCents(cents int64) Money {
	return Money{amount: decimal.New(cents, -MinorUnits)}
}

// Parse は "5.50" や "$5.50" 形式の文字列を解析します。
func Parse(raw string) (Money, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(raw), "$")
	if trimmed == "" {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	return Money{amount: d}, nil
}

// MustParse は Parse と同様ですが失敗時に panic します。固定値専用です。
func MustParse(raw string) Money {
	m, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return m
}

// Decimal は内部の decimal 値を返します。
func (m Money) Decimal() decimal.Decimal {
	return m.amount
}

// Add は加算結果を返します。
func (m Money) Add(other Money) Money {
	return Money{amount: m.amount.Add(other.amount)}
}

// Sub は減算結果を返します。
func (m Money) Sub(other Money) Money {
	return Money{amount: m.amount.Sub(other.amount)}
}

// Cmp は m < other なら -1、等しければ 0、大きければ 1 を返します。
func (m Money) Cmp(other Money) int {
	return m.amount.Cmp(other.amount)
}

// Equal は数値として等しいかを返します ("132" と "132.00" は等しい)。
func (m Money) Equal(other Money) bool {
	return m.amount.Equal(other.amount)
}

func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

// Round は補助単位に銀行丸めした金額を返します。
func (m Money) Round() Money {
	return Money{amount: m.amount.RoundBank(MinorUnits)}
}

// String は "$132.00" 形式で表示用文字列を返します。
func (m Money) String() string {
	if m.amount.IsNegative() {
		return "-$" + m.amount.Neg().StringFixedBank(MinorUnits)
	}
	return "$" + m.amount.StringFixedBank(MinorUnits)
}

// MarshalJSON は丸めを行わず正確な値を文字列として出力します。
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.amount.String())
}

// UnmarshalJSON は文字列形式の金額を復元します。
func (m *Money) UnmarshalJSON(b []byte) error {
	var raw *string
	if err := json.Unmarshal(b, &raw); err != nil {
		return stored.Invalid("money", "", err)
	}
	if raw == nil {
		return stored.Invalid("money", "", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(*raw)
	if err != nil {
		return stored.Invalid("money", "", err)
	}
	m.amount = d
	return nil
}
