package memory

import (
	"context"
	"fmt"

	"github.com/ogurasousui/peoplesoft-ledger/internal/core/person"
)

// PersonRepository は person.Repository のインメモリ実装です。
type PersonRepository struct {
	store *orderedStore[person.Person]
}

var _ person.Repository = (*PersonRepository)(nil)

// NewPersonRepository は空の PersonRepository を生成します。
func NewPersonRepository() *PersonRepository {
	return &PersonRepository{store: newOrderedStore(person.Person.ID)}
}

func (r *PersonRepository) Create(_ context.Context, p person.Person) error {
	if !r.store.create(p) {
		return fmt.Errorf("%w: %s", person.ErrPersonExists, p.ID())
	}
	return nil
}

func (r *PersonRepository) Replace(_ context.Context, p person.Person) error {
	if !r.store.replace(p) {
		return fmt.Errorf("%w: %s", person.ErrPersonNotFound, p.ID())
	}
	return nil
}

func (r *PersonRepository) Delete(_ context.Context, id string) error {
	if !r.store.delete(id) {
		return fmt.Errorf("%w: %s", person.ErrPersonNotFound, id)
	}
	return nil
}

func (r *PersonRepository) FindByID(_ context.Context, id string) (person.Person, error) {
	p, ok := r.store.find(id)
	if !ok {
		return person.Person{}, fmt.Errorf("%w: %s", person.ErrPersonNotFound, id)
	}
	return p, nil
}

func (r *PersonRepository) List(_ context.Context, filter person.ListFilter) ([]person.Person, string, error) {
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, "", person.ErrInvalidPageSize
	}
	persons, next := r.store.list(filter.Match, filter.Limit, filter.Offset)
	return persons, next, nil
}

func (r *PersonRepository) ReplaceAll(_ context.Context, persons []person.Person) error {
	if id, ok := r.store.replaceAll(persons); !ok {
		return fmt.Errorf("%w: %s", person.ErrPersonExists, id)
	}
	return nil
}
