package memory

import (
	"context"
	"fmt"

	"github.com/ogurasousui/peoplesoft-ledger/internal/core/job"
)

// JobRepository は job.Repository のインメモリ実装です。
type JobRepository struct {
	store *orderedStore[job.Job]
}

var _ job.Repository = (*JobRepository)(nil)

// NewJobRepository は空の JobRepository を生成します。
func NewJobRepository() *JobRepository {
	return &JobRepository{store: newOrderedStore(job.Job.ID)}
}

func (r *JobRepository) Create(_ context.Context, j job.Job) error {
	if !r.store.create(j) {
		return fmt.Errorf("%w: %s", job.ErrJobExists, j.ID())
	}
	return nil
}

func (r *JobRepository) Replace(_ context.Context, j job.Job) error {
	if !r.store.replace(j) {
		return fmt.Errorf("%w: %s", job.ErrJobNotFound, j.ID())
	}
	return nil
}

func (r *JobRepository) Delete(_ context.Context, id string) error {
	if !r.store.delete(id) {
		return fmt.Errorf("%w: %s", job.ErrJobNotFound, id)
	}
	return nil
}

func (r *JobRepository) FindByID(_ context.Context, id string) (job.Job, error) {
	j, ok := r.store.find(id)
	if !ok {
		return job.Job{}, fmt.Errorf("%w: %s", job.ErrJobNotFound, id)
	}
	return j, nil
}

func (r *JobRepository) List(_ context.Context, filter job.ListFilter) ([]job.Job, string, error) {
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, "", job.ErrInvalidPageSize
	}
	jobs, next := r.store.list(filter.Match, filter.Limit, filter.Offset)
	return jobs, next, nil
}

func (r *JobRepository) ReplaceAll(_ context.Context, jobs []job.Job) error {
	if id, ok := r.store.replaceAll(jobs); !ok {
		return fmt.Errorf("%w: %s", job.ErrJobExists, id)
	}
	return nil
}
