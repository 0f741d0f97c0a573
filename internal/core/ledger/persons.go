package ledger

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ogurasousui/peoplesoft-ledger/internal/core/person"
)

// AddPersonInput は人物追加時の入力です。
type AddPersonInput struct {
	Name    string
	Phone   string
	Email   string
	Address string
	Tags    []person.Tag
}

// EditPersonInput は人物編集時の入力です。nil のフィールドは変更しません。
type EditPersonInput struct {
	ID      string
	Name    *string
	Phone   *string
	Email   *string
	Address *string
	Tags    []person.Tag
	TagsSet bool
}

// ListPersonsInput は一覧取得時の入力です。Keyword は名前の部分一致 (大文字小文字を区別しない) です。
type ListPersonsInput struct {
	Keyword   string
	PageSize  int
	PageToken string
}

// ListPersonsResult は一覧取得結果を表します。
type ListPersonsResult struct {
	Persons       []person.Person
	NextPageToken string
}

// AddPerson は未払い給与 0 の人物を追加します。同名の人物がいる場合は person.ErrPersonExists を返します。
func (s *Service) AddPerson(ctx context.Context, in AddPersonInput) (person.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := person.New(s.ids.NewPersonID(), person.Details{
		Name:    in.Name,
		Phone:   in.Phone,
		Email:   in.Email,
		Address: in.Address,
		Tags:    in.Tags,
	})
	if err != nil {
		return person.Person{}, err
	}

	if err := s.ensureNoSamePerson(ctx, p); err != nil {
		return person.Person{}, err
	}

	if err := s.persons.Create(ctx, p); err != nil {
		return person.Person{}, err
	}

	s.logger.InfoContext(ctx, "person added", slog.String("person_id", p.ID()))
	return p, s.flush(ctx)
}

// EditPerson は台帳を保ったまま連絡先情報を更新します。
func (s *Service) EditPerson(ctx context.Context, in EditPersonInput) (person.Person, error) {
	id, err := normalizeID(in.ID)
	if err != nil {
		return person.Person{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.persons.FindByID(ctx, id)
	if err != nil {
		return person.Person{}, err
	}

	details := existing.Details()
	if in.Name != nil {
		details.Name = *in.Name
	}
	if in.Phone != nil {
		details.Phone = *in.Phone
	}
	if in.Email != nil {
		details.Email = *in.Email
	}
	if in.Address != nil {
		details.Address = *in.Address
	}
	if in.TagsSet {
		details.Tags = in.Tags
	}

	edited, err := existing.WithDetails(details)
	if err != nil {
		return person.Person{}, err
	}

	if !existing.IsSamePerson(edited) {
		if err := s.ensureNoSamePerson(ctx, edited); err != nil {
			return person.Person{}, err
		}
	}

	if err := s.persons.Replace(ctx, edited); err != nil {
		return person.Person{}, err
	}
	s.registry.EditPerson(existing, edited)

	s.logger.InfoContext(ctx, "person edited", slog.String("person_id", edited.ID()))
	return edited, s.flush(ctx)
}

// DeletePerson は人物を削除し、担当していた仕事を担当者なしにします。
// 仕事側の担当者集合からも削除した人物を取り除きます。
func (s *Service) DeletePerson(ctx context.Context, id string) error {
	id, err := normalizeID(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	target, err := s.persons.FindByID(ctx, id)
	if err != nil {
		return err
	}

	assignments := s.registry.Snapshot()
	var orphaned []string
	for jobID, personID := range assignments {
		if personID == target.ID() {
			orphaned = append(orphaned, jobID)
		}
	}

	undo := &undoLog{logger: s.logger}
	for _, jobID := range orphaned {
		j, err := s.jobs.FindByID(ctx, jobID)
		if err != nil {
			undo.rollback(ctx)
			return err
		}
		if err := s.replaceJob(ctx, undo, j, j.WithoutPerson(target.ID())); err != nil {
			return err
		}
	}

	if err := s.persons.Delete(ctx, target.ID()); err != nil {
		undo.rollback(ctx)
		return err
	}
	s.registry.DeletePerson(target)

	s.logger.InfoContext(ctx, "person deleted",
		slog.String("person_id", target.ID()),
		slog.Int("orphaned_jobs", len(orphaned)),
	)
	return s.flush(ctx)
}

// GetPerson は人物を取得します。
func (s *Service) GetPerson(ctx context.Context, id string) (person.Person, error) {
	id, err := normalizeID(id)
	if err != nil {
		return person.Person{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.persons.FindByID(ctx, id)
}

// ListPersons は人物の一覧を取得します。
func (s *Service) ListPersons(ctx context.Context, in ListPersonsInput) (*ListPersonsResult, error) {
	limit, err := normalizePageSize(in.PageSize)
	if err != nil {
		return nil, err
	}

	offset, err := parsePageToken(in.PageToken)
	if err != nil {
		return nil, err
	}

	filter := person.ListFilter{Limit: limit, Offset: offset}
	if keyword := strings.ToLower(strings.TrimSpace(in.Keyword)); keyword != "" {
		filter.Match = func(p person.Person) bool {
			return strings.Contains(strings.ToLower(p.Name()), keyword)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	persons, next, err := s.persons.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &ListPersonsResult{Persons: persons, NextPageToken: next}, nil
}

func (s *Service) ensureNoSamePerson(ctx context.Context, candidate person.Person) error {
	same, _, err := s.persons.List(ctx, person.ListFilter{
		Match: func(p person.Person) bool {
			return p.ID() != candidate.ID() && p.IsSamePerson(candidate)
		},
		Limit: 1,
	})
	if err != nil {
		return err
	}
	if len(same) > 0 {
		return person.ErrPersonExists
	}
	return nil
}
