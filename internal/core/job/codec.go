package job

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ogurasousui/peoplesoft-ledger/internal/core/money"
	"github.com/ogurasousui/peoplesoft-ledger/internal/core/stored"
)

type jobJSON struct {
	ID       string      `json:"jobId"`
	Name     string      `json:"name"`
	Rate     *money.Rate `json:"rate"`
	Duration *string     `json:"duration"`
	Paid     *bool       `json:"hasPaid"`
	Persons  []string    `json:"personIds"`
}

func (j Job) MarshalJSON() ([]byte, error) {
	duration := j.duration.String()
	return json.Marshal(jobJSON{
		ID:       j.id,
		Name:     j.name,
		Rate:     &j.rate,
		Duration: &duration,
		Paid:     &j.paid,
		Persons:  j.Persons(),
	})
}

// UnmarshalJSON は Job を復元します。欠落や不正な値は stored.ErrInvalidValue になります。
func (j *Job) UnmarshalJSON(b []byte) error {
	var raw jobJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return stored.Invalid("job", "", err)
	}
	if raw.Rate == nil {
		return stored.Invalid("job", "rate", nil)
	}
	if raw.Duration == nil {
		return stored.Invalid("job", "duration", nil)
	}
	if raw.Paid == nil {
		return stored.Invalid("job", "hasPaid", nil)
	}
	duration, err := time.ParseDuration(*raw.Duration)
	if err != nil {
		return stored.Invalid("job", "duration", err)
	}

	decoded, err := New(raw.ID, raw.Name, *raw.Rate, duration, *raw.Paid, raw.Persons...)
	if err != nil {
		return stored.Invalid("job", "", fmt.Errorf("%s: %w", raw.ID, err))
	}
	*j = decoded
	return nil
}
