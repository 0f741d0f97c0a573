// Package job は割り当て可能な仕事とその支払状態を扱います。
package job

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/ogurasousui/peoplesoft-ledger/internal/core/money"
)

// Job は単価・作業時間・支払済みフラグ・担当者を持つ不変の値です。
// 状態を変える操作はすべて新しい Job を返します。
type Job struct {
	id       string
	name     string
	rate     money.Rate
	duration time.Duration
	paid     bool
	persons  []string
}

// New は入力を検証して Job を生成します。personIDs は担当者の person id です。
func New(id, name string, rate money.Rate, duration time.Duration, paid bool, personIDs ...string) (Job, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Job{}, ErrInvalidID
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Job{}, ErrInvalidName
	}
	if duration <= 0 {
		return Job{}, fmt.Errorf("%w: %s", ErrInvalidDuration, duration)
	}
	if rate.Period() <= 0 {
		return Job{}, money.ErrInvalidRate
	}

	return Job{
		id:       id,
		name:     name,
		rate:     rate,
		duration: duration,
		paid:     paid,
		persons:  normalizePersons(personIDs),
	}, nil
}

func (j Job) ID() string {
	return j.id
}

func (j Job) Name() string {
	return j.name
}

func (j Job) Rate() money.Rate {
	return j.rate
}

func (j Job) Duration() time.Duration {
	return j.duration
}

// Paid は精算済みであれば true を返します。
func (j Job) Paid() bool {
	return j.paid
}

// Persons は担当者 id のコピーを返します。返り値を変更しても Job には影響しません。
func (j Job) Persons() []string {
	return slices.Clone(j.persons)
}

// HasPerson は personID が担当者に含まれるかを返します。
func (j Job) HasPerson(personID string) bool {
	_, found := slices.BinarySearch(j.persons, personID)
	return found
}

// CalculatePay は Rate と Duration から支払額を計算します。副作用はありません。
func (j Job) CalculatePay() money.Money {
	return j.rate.PayFor(j.duration)
}

// SetAsPaid は支払済みの Job を返します。すでに支払済みでも結果は同じです。
func (j Job) SetAsPaid() Job {
	paid := j.clone()
	paid.paid = true
	return paid
}

// SetAsNotPaid は未払いの Job を返します。支払済みの Job に対しては ErrIllegalPayment を返します。
func (j Job) SetAsNotPaid() (Job, error) {
	if j.paid {
		return Job{}, fmt.Errorf("job %s: %w", j.id, ErrIllegalPayment)
	}
	return j.clone(), nil
}

// WithPersons は担当者を置き換えた Job を返します。
func (j Job) WithPersons(personIDs ...string) Job {
	updated := j.clone()
	updated.persons = normalizePersons(personIDs)
	return updated
}

// WithoutPerson は personID を担当者から外した Job を返します。
func (j Job) WithoutPerson(personID string) Job {
	remaining := make([]string, 0, len(j.persons))
	for _, id := range j.persons {
		if id != personID {
			remaining = append(remaining, id)
		}
	}
	return j.WithPersons(remaining...)
}

// Equal は全フィールドが等しいかを返します。
func (j Job) Equal(other Job) bool {
	return j.id == other.id &&
		j.name == other.name &&
		j.rate.Equal(other.rate) &&
		j.duration == other.duration &&
		j.paid == other.paid &&
		slices.Equal(j.persons, other.persons)
}

func (j Job) String() string {
	status := "unpaid"
	if j.paid {
		status = "paid"
	}
	return fmt.Sprintf("%s [%s] %s for %s (%s)", j.id, j.name, j.rate, j.duration, status)
}

func (j Job) clone() Job {
	c := j
	c.persons = slices.Clone(j.persons)
	return c
}

func normalizePersons(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		trimmed := strings.TrimSpace(id)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	slices.Sort(out)
	return slices.Compact(out)
}
