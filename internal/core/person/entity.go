// Package person は人物と、その人物への未払い給与台帳を扱います。
package person

import (
	"fmt"
	"maps"
	"net/mail"
	"regexp"
	"slices"
	"strings"

	"github.com/ogurasousui/peoplesoft-ledger/internal/core/money"
)

var (
	namePattern  = regexp.MustCompile(`^[\p{L}\p{N}][\p{L}\p{N} ]*$`)
	phonePattern = regexp.MustCompile(`^\d{3,}$`)
)

// Details は人物の連絡先情報です。
type Details struct {
	Name    string
	Phone   string
	Email   string
	Address string
	Tags    []Tag
}

// Person は人物の不変スナップショットです。
// owedSalary は jobs のうち未払いの仕事の支払額合計と常に一致します。
type Person struct {
	id         string
	details    Details
	owedSalary money.Money
	jobs       map[string]bool
}

// New は未払い給与 0、仕事なしの Person を生成します。
func New(id string, details Details) (Person, error) {
	return Restore(id, details, money.Zero(), nil)
}

// Restore は保存済みの台帳を含めて Person を再構築します。
func Restore(id string, details Details, owedSalary money.Money, jobs map[string]bool) (Person, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Person{}, ErrInvalidID
	}

	normalized, err := normalizeDetails(details)
	if err != nil {
		return Person{}, err
	}

	copied := make(map[string]bool, len(jobs))
	for jobID, paid := range jobs {
		if strings.TrimSpace(jobID) == "" {
			return Person{}, fmt.Errorf("person %s: empty job id in ledger", id)
		}
		copied[jobID] = paid
	}

	return Person{id: id, details: normalized, owedSalary: owedSalary, jobs: copied}, nil
}

func (p Person) ID() string {
	return p.id
}

func (p Person) Name() string {
	return p.details.Name
}

func (p Person) Phone() string {
	return p.details.Phone
}

func (p Person) Email() string {
	return p.details.Email
}

func (p Person) Address() string {
	return p.details.Address
}

// Tags はタグのコピーを返します。
func (p Person) Tags() []Tag {
	return slices.Clone(p.details.Tags)
}

// Details は連絡先情報のコピーを返します。
func (p Person) Details() Details {
	d := p.details
	d.Tags = slices.Clone(p.details.Tags)
	return d
}

// OwedSalary は未払い給与の合計を返します。
func (p Person) OwedSalary() money.Money {
	return p.owedSalary
}

// Jobs は job id から支払済みフラグへのマップのコピーを返します。
func (p Person) Jobs() map[string]bool {
	return maps.Clone(p.jobs)
}

// HasJob は jobID の台帳記録があればその支払済みフラグと true を返します。
func (p Person) HasJob(jobID string) (paid bool, ok bool) {
	paid, ok = p.jobs[jobID]
	return paid, ok
}

// WithDetails は台帳を保ったまま連絡先情報を置き換えた Person を返します。
func (p Person) WithDetails(details Details) (Person, error) {
	normalized, err := normalizeDetails(details)
	if err != nil {
		return Person{}, err
	}
	updated := p.clone()
	updated.details = normalized
	return updated, nil
}

// IsSamePerson は名前が同じかどうかで同一人物かを判定します。
func (p Person) IsSamePerson(other Person) bool {
	return strings.EqualFold(p.details.Name, other.details.Name)
}

// Equal は id・連絡先・タグ・台帳がすべて等しいかを返します。
func (p Person) Equal(other Person) bool {
	return p.id == other.id &&
		p.details.Name == other.details.Name &&
		p.details.Phone == other.details.Phone &&
		p.details.Email == other.details.Email &&
		p.details.Address == other.details.Address &&
		slices.EqualFunc(p.details.Tags, other.details.Tags, Tag.Equal) &&
		p.owedSalary.Equal(other.owedSalary) &&
		maps.Equal(p.jobs, other.jobs)
}

func (p Person) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s; Phone: %s; Email: %s; Address: %s; Salary: %s",
		p.details.Name, p.details.Phone, p.details.Email, p.details.Address, p.owedSalary)
	if len(p.details.Tags) > 0 {
		b.WriteString("; Tags: ")
		for _, t := range p.details.Tags {
			b.WriteString(t.String())
		}
	}
	return b.String()
}

func (p Person) clone() Person {
	c := p
	c.details.Tags = slices.Clone(p.details.Tags)
	c.jobs = maps.Clone(p.jobs)
	if c.jobs == nil {
		c.jobs = map[string]bool{}
	}
	return c
}

func normalizeDetails(d Details) (Details, error) {
	name := strings.Join(strings.Fields(d.Name), " ")
	if !namePattern.MatchString(name) {
		return Details{}, ErrInvalidName
	}

	phone := strings.TrimSpace(d.Phone)
	if !phonePattern.MatchString(phone) {
		return Details{}, ErrInvalidPhone
	}

	email, err := normalizeEmail(d.Email)
	if err != nil {
		return Details{}, err
	}

	address := strings.TrimSpace(d.Address)
	if address == "" {
		return Details{}, ErrInvalidAddress
	}

	tags, err := normalizeTags(d.Tags)
	if err != nil {
		return Details{}, err
	}

	return Details{Name: name, Phone: phone, Email: email, Address: address, Tags: tags}, nil
}

func normalizeEmail(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidEmail
	}

	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed {
		return "", ErrInvalidEmail
	}

	return strings.ToLower(addr.Address), nil
}
