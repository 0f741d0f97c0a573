package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ogurasousui/peoplesoft-ledger/internal/core/job"
	"github.com/ogurasousui/peoplesoft-ledger/internal/core/person"
)

// AssignJobInput は仕事の割り当て時の入力です。
type AssignJobInput struct {
	JobID    string
	PersonID string
}

// AssignmentResult は割り当て後の仕事と担当者です。
type AssignmentResult struct {
	Job    job.Job
	Person person.Person
}

// PaymentResult は支払後の仕事と担当者です。担当者がいない場合 Assignee は nil です。
type PaymentResult struct {
	Job      job.Job
	Assignee *person.Person
}

// AssignJob は仕事を人物に割り当て、人物の台帳へ反映します。
//
// 人物がすでにその仕事を記録している場合は person.ErrDuplicateJob を返します。
// 以前の担当者は registry 上で上書きされますが、その人物の台帳は変更しません。
// その人物の未払い分は以後の PayJob でも AssignJob でも精算されず、残り続けます。
func (s *Service) AssignJob(ctx context.Context, in AssignJobInput) (*AssignmentResult, error) {
	jobID, err := normalizeID(in.JobID)
	if err != nil {
		return nil, fmt.Errorf("job %w", err)
	}
	personID, err := normalizeID(in.PersonID)
	if err != nil {
		return nil, fmt.Errorf("person %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	j, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	p, err := s.persons.FindByID(ctx, personID)
	if err != nil {
		return nil, err
	}

	if _, recorded := p.HasJob(j.ID()); recorded {
		return nil, fmt.Errorf("person %s: job %s: %w", p.ID(), j.ID(), person.ErrDuplicateJob)
	}

	assigned := j.WithPersons(p.ID())
	updated, err := p.UpdateJobs(assigned)
	if err != nil {
		return nil, err
	}

	undo := &undoLog{logger: s.logger}
	if err := s.replaceJob(ctx, undo, j, assigned); err != nil {
		return nil, err
	}
	if err := s.replacePerson(ctx, undo, p, updated); err != nil {
		return nil, err
	}

	if previous, ok := s.registry.AssigneeOf(j.ID()); ok && previous != p.ID() {
		s.logger.WarnContext(ctx, "job reassigned; previous assignee ledger left unchanged",
			slog.String("job_id", j.ID()),
			slog.String("previous_person_id", previous),
			slog.String("person_id", p.ID()),
		)
	}
	s.registry.Associate(assigned, updated)

	s.logger.InfoContext(ctx, "job assigned",
		slog.String("job_id", j.ID()),
		slog.String("person_id", p.ID()),
		slog.String("owed_salary", updated.OwedSalary().String()),
	)
	return &AssignmentResult{Job: assigned, Person: updated}, s.flush(ctx)
}

// PayJob は仕事を支払済みにし、担当者の未払い給与から支払額を差し引きます。
// すでに支払済みの仕事に対しては何も変更しません。
func (s *Service) PayJob(ctx context.Context, jobID string) (*PaymentResult, error) {
	jobID, err := normalizeID(jobID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	j, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		return nil, err
	}

	assignee, hasAssignee, err := s.assigneeOf(ctx, j.ID())
	if err != nil {
		return nil, err
	}

	if j.Paid() {
		result := &PaymentResult{Job: j}
		if hasAssignee {
			result.Assignee = &assignee
		}
		return result, nil
	}

	paid := j.SetAsPaid()
	result := &PaymentResult{Job: paid}

	undo := &undoLog{logger: s.logger}
	if hasAssignee {
		settled, err := assignee.UpdateJobs(paid)
		if err != nil {
			return nil, err
		}
		if err := s.replaceJob(ctx, undo, j, paid); err != nil {
			return nil, err
		}
		if err := s.replacePerson(ctx, undo, assignee, settled); err != nil {
			return nil, err
		}
		result.Assignee = &settled
	} else if err := s.replaceJob(ctx, undo, j, paid); err != nil {
		return nil, err
	}

	attrs := []any{slog.String("job_id", paid.ID()), slog.String("amount", paid.CalculatePay().String())}
	if result.Assignee != nil {
		attrs = append(attrs, slog.String("person_id", result.Assignee.ID()))
	}
	s.logger.InfoContext(ctx, "job paid", attrs...)
	return result, s.flush(ctx)
}

// MarkJobUnpaid は仕事を未払いとして扱います。支払済みの仕事に対しては job.ErrIllegalPayment を返し、何も変更しません。
func (s *Service) MarkJobUnpaid(ctx context.Context, jobID string) (job.Job, error) {
	jobID, err := normalizeID(jobID)
	if err != nil {
		return job.Job{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	j, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		return job.Job{}, err
	}

	unpaid, err := j.SetAsNotPaid()
	if err != nil {
		return job.Job{}, err
	}

	assignee, hasAssignee, err := s.assigneeOf(ctx, j.ID())
	if err != nil {
		return job.Job{}, err
	}
	if hasAssignee {
		// 担当者の台帳に支払済みとして記録されていれば ErrIllegalPayment になります。
		if _, err := assignee.UpdateJobs(unpaid); err != nil {
			return job.Job{}, err
		}
	}
	return unpaid, nil
}

// JobsForPerson は人物が現在担当している仕事を返します。
func (s *Service) JobsForPerson(ctx context.Context, personID string) ([]job.Job, error) {
	personID, err := normalizeID(personID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.persons.FindByID(ctx, personID)
	if err != nil {
		return nil, err
	}
	return s.registry.JobsFor(ctx, p, s.jobs)
}
