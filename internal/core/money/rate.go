package money

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ogurasousui/peoplesoft-ledger/internal/core/stored"
)

// Rate は「period ごとに amount を得る」単価を表します。
type Rate struct {
	amount Money
	period time.Duration
}

// NewRate は Rate を生成します。amount は非負、period は正である必要があります。
func NewRate(amount Money, period time.Duration) (Rate, error) {
	if amount.IsNegative() {
		return Rate{}, fmt.Errorf("%w: negative amount %s", ErrInvalidRate, amount)
	}
	if period <= 0 {
		return Rate{}, fmt.Errorf("%w: %s", ErrInvalidPeriod, period)
	}
	return Rate{amount: amount, period: period}, nil
}

// Hourly は 1 時間あたりの単価を生成します。
func Hourly(amount Money) (Rate, error) {
	return NewRate(amount, time.Hour)
}

func (r Rate) Amount() Money {
	return r.amount
}

func (r Rate) Period() time.Duration {
	return r.period
}

// PayFor は amount × (d / period) を補助単位へ銀行丸めして返します。
// 乗算を先に行うため d が period の整数倍でなくても誤差は丸め時のみ発生します。
func (r Rate) PayFor(d time.Duration) Money {
	if r.period <= 0 {
		return Zero()
	}
	numerator := r.amount.amount.Mul(decimal.NewFromInt(int64(d)))
	pay := numerator.Div(decimal.NewFromInt(int64(r.period)))
	return Money{amount: pay}.Round()
}

// Equal は amount と period が等しいかを返します。
func (r Rate) Equal(other Rate) bool {
	return r.period == other.period && r.amount.Equal(other.amount)
}

func (r Rate) String() string {
	return fmt.Sprintf("%s/%s", r.amount, r.period)
}

type rateJSON struct {
	Amount *Money  `json:"amount"`
	Period *string `json:"period"`
}

// MarshalJSON は {"amount":"5.5","period":"1h0m0s"} 形式で出力します。
func (r Rate) MarshalJSON() ([]byte, error) {
	period := r.period.String()
	return json.Marshal(rateJSON{Amount: &r.amount, Period: &period})
}

// UnmarshalJSON は Rate を復元し、NewRate と同じ検証を行います。
func (r *Rate) UnmarshalJSON(b []byte) error {
	var raw rateJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return stored.Invalid("rate", "", err)
	}
	if raw.Amount == nil {
		return stored.Invalid("rate", "amount", ErrInvalidAmount)
	}
	if raw.Period == nil {
		return stored.Invalid("rate", "period", ErrInvalidPeriod)
	}
	period, err := time.ParseDuration(*raw.Period)
	if err != nil {
		return stored.Invalid("rate", "period", err)
	}
	rate, err := NewRate(*raw.Amount, period)
	if err != nil {
		return stored.Invalid("rate", "", err)
	}
	*r = rate
	return nil
}
