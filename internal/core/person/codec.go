package person

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/ogurasousui/peoplesoft-ledger/internal/core/money"
	"github.com/ogurasousui/peoplesoft-ledger/internal/core/stored"
)

type personJSON struct {
	ID      string          `json:"personId"`
	Name    string          `json:"name"`
	Phone   string          `json:"phone"`
	Email   string          `json:"email"`
	Address string          `json:"address"`
	Tags    []TagJSON       `json:"tags"`
	Salary  *money.Money    `json:"salary"`
	Jobs    map[string]bool `json:"jobs"`
}

// TagJSON はタグの永続化表現です。倍率は文字列で保持します。
type TagJSON struct {
	Name       string  `json:"name"`
	Multiplier *string `json:"multiplier,omitempty"`
}

// EncodeTags はタグを永続化表現へ変換します。
func EncodeTags(tags []Tag) []TagJSON {
	out := make([]TagJSON, 0, len(tags))
	for _, t := range tags {
		encoded := TagJSON{Name: t.Name}
		if t.Multiplier.Valid {
			m := t.Multiplier.Decimal.String()
			encoded.Multiplier = &m
		}
		out = append(out, encoded)
	}
	return out
}

// DecodeTags は永続化表現からタグを復元します。
func DecodeTags(raw []TagJSON) ([]Tag, error) {
	tags := make([]Tag, 0, len(raw))
	for _, r := range raw {
		if r.Multiplier == nil {
			tags = append(tags, Tag{Name: r.Name})
			continue
		}
		m, err := decimal.NewFromString(*r.Multiplier)
		if err != nil {
			return nil, stored.Invalid("tag", "multiplier", err)
		}
		tags = append(tags, Tag{Name: r.Name, Multiplier: decimal.NullDecimal{Decimal: m, Valid: true}})
	}
	return tags, nil
}

func (p Person) MarshalJSON() ([]byte, error) {
	jobs := p.Jobs()
	if jobs == nil {
		jobs = map[string]bool{}
	}
	return json.Marshal(personJSON{
		ID:      p.id,
		Name:    p.details.Name,
		Phone:   p.details.Phone,
		Email:   p.details.Email,
		Address: p.details.Address,
		Tags:    EncodeTags(p.details.Tags),
		Salary:  &p.owedSalary,
		Jobs:    jobs,
	})
}

// UnmarshalJSON は Person を復元します。欠落や不正な値は stored.ErrInvalidValue になります。
func (p *Person) UnmarshalJSON(b []byte) error {
	var raw personJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return stored.Invalid("person", "", err)
	}
	if raw.Salary == nil {
		return stored.Invalid("person", "salary", nil)
	}
	if raw.Jobs == nil {
		return stored.Invalid("person", "jobs", nil)
	}

	tags, err := DecodeTags(raw.Tags)
	if err != nil {
		return stored.Invalid("person", "tags", err)
	}

	decoded, err := Restore(raw.ID, Details{
		Name:    raw.Name,
		Phone:   raw.Phone,
		Email:   raw.Email,
		Address: raw.Address,
		Tags:    tags,
	}, *raw.Salary, raw.Jobs)
	if err != nil {
		return stored.Invalid("person", raw.ID, err)
	}
	*p = decoded
	return nil
}
