// Package ledger は人物・仕事・担当関係を変更する唯一のコマンド層です。
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/ogurasousui/peoplesoft-ledger/internal/core/employment"
	"github.com/ogurasousui/peoplesoft-ledger/internal/core/job"
	"github.com/ogurasousui/peoplesoft-ledger/internal/core/person"
)

const (
	defaultListPageSize = 50
	maxListPageSize     = 200
)

// UseCase は台帳コマンドの公開インターフェースです。
type UseCase interface {
	AddPerson(ctx context.Context, in AddPersonInput) (person.Person, error)
	EditPerson(ctx context.Context, in EditPersonInput) (person.Person, error)
	DeletePerson(ctx context.Context, id string) error
	GetPerson(ctx context.Context, id string) (person.Person, error)
	ListPersons(ctx context.Context, in ListPersonsInput) (*ListPersonsResult, error)
	ExportPerson(ctx context.Context, personID string) (*PersonExport, error)

	AddJob(ctx context.Context, in AddJobInput) (job.Job, error)
	DeleteJob(ctx context.Context, id string) error
	GetJob(ctx context.Context, id string) (job.Job, error)
	ListJobs(ctx context.Context, in ListJobsInput) (*ListJobsResult, error)

	AssignJob(ctx context.Context, in AssignJobInput) (*AssignmentResult, error)
	PayJob(ctx context.Context, jobID string) (*PaymentResult, error)
	MarkJobUnpaid(ctx context.Context, jobID string) (job.Job, error)
	JobsForPerson(ctx context.Context, personID string) ([]job.Job, error)

	Clear(ctx context.Context) error
	Restore(ctx context.Context) error
}

// Service は台帳コマンドを 1 つずつ直列に実行します。
// 変更系コマンドは新しいスナップショットをすべて計算してから書き込み、完了後に StateStore へ保存します。
type Service struct {
	mu sync.Mutex

	persons  person.Repository
	jobs     job.Repository
	registry *employment.Registry
	store    StateStore
	ids      IDGenerator
	logger   *slog.Logger
}

var _ UseCase = (*Service)(nil)

// NewService は Service を生成します。registry が nil の場合は空の Registry を使います。
func NewService(persons person.Repository, jobs job.Repository, registry *employment.Registry, opts ...Option) *Service {
	if registry == nil {
		registry = employment.New()
	}
	s := &Service{
		persons:  persons,
		jobs:     jobs,
		registry: registry,
		store:    noopStateStore{},
		ids:      newSequentialIDs(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// flush はモデル全体を StateStore へ保存します。呼び出し側が mu を保持している必要があります。
func (s *Service) flush(ctx context.Context) error {
	state, err := s.snapshot(ctx)
	if err != nil {
		return err
	}
	if err := s.store.Save(ctx, state); err != nil {
		s.logger.ErrorContext(ctx, "failed to save ledger state", slog.Any("error", err))
		return fmt.Errorf("%w: %w", ErrSaveState, err)
	}
	return nil
}

func (s *Service) snapshot(ctx context.Context) (State, error) {
	persons, _, err := s.persons.List(ctx, person.ListFilter{})
	if err != nil {
		return State{}, err
	}
	jobs, _, err := s.jobs.List(ctx, job.ListFilter{})
	if err != nil {
		return State{}, err
	}
	return State{Persons: persons, Jobs: jobs, Employment: s.registry.Snapshot()}, nil
}

// undoLog は複数ストアへの書き込みが途中で失敗した場合に、それまでの書き込みを巻き戻します。
type undoLog struct {
	logger *slog.Logger
	steps  []func(context.Context) error
}

func (u *undoLog) push(step func(context.Context) error) {
	u.steps = append(u.steps, step)
}

func (u *undoLog) rollback(ctx context.Context) {
	for i := len(u.steps) - 1; i >= 0; i-- {
		if err := u.steps[i](ctx); err != nil {
			u.logger.ErrorContext(ctx, "rollback step failed", slog.Any("error", err))
		}
	}
	u.steps = nil
}

func (s *Service) replaceJob(ctx context.Context, undo *undoLog, previous, next job.Job) error {
	if err := s.jobs.Replace(ctx, next); err != nil {
		undo.rollback(ctx)
		return err
	}
	undo.push(func(ctx context.Context) error { return s.jobs.Replace(ctx, previous) })
	return nil
}

func (s *Service) replacePerson(ctx context.Context, undo *undoLog, previous, next person.Person) error {
	if err := s.persons.Replace(ctx, next); err != nil {
		undo.rollback(ctx)
		return err
	}
	undo.push(func(ctx context.Context) error { return s.persons.Replace(ctx, previous) })
	return nil
}

// assigneeOf は registry に記録された担当者を返します。担当者がいない場合 ok は false です。
func (s *Service) assigneeOf(ctx context.Context, jobID string) (p person.Person, ok bool, err error) {
	personID, ok := s.registry.AssigneeOf(jobID)
	if !ok {
		return person.Person{}, false, nil
	}
	p, err = s.persons.FindByID(ctx, personID)
	if err != nil {
		return person.Person{}, false, fmt.Errorf("assignee of job %s: %w", jobID, err)
	}
	return p, true, nil
}

func normalizeID(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("id: %w", ErrInvalidID)
	}
	return trimmed, nil
}

func normalizePageSize(pageSize int) (int, error) {
	if pageSize <= 0 {
		return defaultListPageSize, nil
	}
	if pageSize > maxListPageSize {
		return 0, ErrInvalidPageSize
	}
	return pageSize, nil
}

func parsePageToken(token string) (int, error) {
	if strings.TrimSpace(token) == "" {
		return 0, nil
	}

	offset, err := strconv.Atoi(token)
	if err != nil || offset < 0 {
		return 0, ErrInvalidPageToken
	}

	return offset, nil
}
