package person

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

var tagNamePattern = regexp.MustCompile(`^[\p{L}\p{N}]+$`)

// Tag は人物に付与するラベルです。Multiplier を持つタグは倍率付きタグとして表示されます。
type Tag struct {
	Name       string
	Multiplier decimal.NullDecimal
}

// NewTag は倍率なしのタグを生成します。
func NewTag(name string) (Tag, error) {
	t := Tag{Name: strings.TrimSpace(name)}
	return t, t.validate()
}

// NewMultiplierTag は倍率付きのタグを生成します。
func NewMultiplierTag(name string, multiplier decimal.Decimal) (Tag, error) {
	t := Tag{
		Name:       strings.TrimSpace(name),
		Multiplier: decimal.NullDecimal{Decimal: multiplier, Valid: true},
	}
	return t, t.validate()
}

func (t Tag) validate() error {
	if !tagNamePattern.MatchString(t.Name) {
		return fmt.Errorf("%w: %q", ErrInvalidTag, t.Name)
	}
	if t.Multiplier.Valid && t.Multiplier.Decimal.IsNegative() {
		return fmt.Errorf("%w: %s", ErrInvalidMultiplier, t.Multiplier.Decimal)
	}
	return nil
}

// Equal はタグ名と倍率が等しいかを返します。
func (t Tag) Equal(other Tag) bool {
	if t.Name != other.Name || t.Multiplier.Valid != other.Multiplier.Valid {
		return false
	}
	return !t.Multiplier.Valid || t.Multiplier.Decimal.Equal(other.Multiplier.Decimal)
}

func (t Tag) String() string {
	if t.Multiplier.Valid {
		return "[" + t.Name + ": x" + t.Multiplier.Decimal.String() + "]"
	}
	return "[" + t.Name + "]"
}

// normalizeTags は検証済みのタグを名前順に並べ、同名タグは後勝ちで 1 つにまとめます。
func normalizeTags(tags []Tag) ([]Tag, error) {
	byName := make(map[string]Tag, len(tags))
	for _, t := range tags {
		t.Name = strings.TrimSpace(t.Name)
		if err := t.validate(); err != nil {
			return nil, err
		}
		byName[t.Name] = t
	}

	out := make([]Tag, 0, len(byName))
	for _, t := range byName {
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b Tag) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}
