package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ogurasousui/peoplesoft-ledger/internal/core/job"
	"github.com/ogurasousui/peoplesoft-ledger/internal/core/money"
)

// AddJobInput は仕事追加時の入力です。Rate は "5.50" や "$5.50" 形式の金額で、RatePeriod あたりの報酬を表します。
// RatePeriod が 0 の場合は 1 時間として扱います。
type AddJobInput struct {
	Name       string
	Rate       string
	RatePeriod time.Duration
	Duration   time.Duration
}

// ListJobsInput は一覧取得時の入力です。Paid が nil の場合は支払状態で絞り込みません。
// Keyword は仕事名の部分一致 (大文字小文字を区別しない) で絞り込みます。
type ListJobsInput struct {
	Paid      *bool
	Keyword   string
	PageSize  int
	PageToken string
}

// ListJobsResult は一覧取得結果を表します。
type ListJobsResult struct {
	Jobs          []job.Job
	NextPageToken string
}

// AddJob は未払いの仕事を追加します。
func (s *Service) AddJob(ctx context.Context, in AddJobInput) (job.Job, error) {
	amount, err := money.Parse(in.Rate)
	if err != nil {
		return job.Job{}, fmt.Errorf("rate: %w", err)
	}

	period := in.RatePeriod
	if period == 0 {
		period = time.Hour
	}
	rate, err := money.NewRate(amount, period)
	if err != nil {
		return job.Job{}, fmt.Errorf("rate: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	j, err := job.New(s.ids.NewJobID(), in.Name, rate, in.Duration, false)
	if err != nil {
		return job.Job{}, err
	}

	if err := s.jobs.Create(ctx, j); err != nil {
		return job.Job{}, err
	}

	s.logger.InfoContext(ctx, "job added",
		slog.String("job_id", j.ID()),
		slog.String("pay", j.CalculatePay().String()),
	)
	return j, s.flush(ctx)
}

// DeleteJob は仕事と担当関係を削除します。担当者の台帳はそのまま残ります。
func (s *Service) DeleteJob(ctx context.Context, id string) error {
	id, err := normalizeID(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	target, err := s.jobs.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.jobs.Delete(ctx, target.ID()); err != nil {
		return err
	}
	s.registry.DeleteJob(target)

	s.logger.InfoContext(ctx, "job deleted", slog.String("job_id", target.ID()))
	return s.flush(ctx)
}

// GetJob は仕事を取得します。
func (s *Service) GetJob(ctx context.Context, id string) (job.Job, error) {
	id, err := normalizeID(id)
	if err != nil {
		return job.Job{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.jobs.FindByID(ctx, id)
}

// ListJobs は仕事の一覧を取得します。
func (s *Service) ListJobs(ctx context.Context, in ListJobsInput) (*ListJobsResult, error) {
	limit, err := normalizePageSize(in.PageSize)
	if err != nil {
		return nil, err
	}

	offset, err := parsePageToken(in.PageToken)
	if err != nil {
		return nil, err
	}

	filter := job.ListFilter{Limit: limit, Offset: offset}
	keyword := strings.ToLower(strings.TrimSpace(in.Keyword))
	if in.Paid != nil || keyword != "" {
		paid := in.Paid
		filter.Match = func(j job.Job) bool {
			if paid != nil && j.Paid() != *paid {
				return false
			}
			return keyword == "" || strings.Contains(strings.ToLower(j.Name()), keyword)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	jobs, next, err := s.jobs.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &ListJobsResult{Jobs: jobs, NextPageToken: next}, nil
}
