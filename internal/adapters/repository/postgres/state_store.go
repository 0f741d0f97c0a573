package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/ogurasousui/peoplesoft-ledger/internal/core/job"
	"github.com/ogurasousui/peoplesoft-ledger/internal/core/ledger"
	"github.com/ogurasousui/peoplesoft-ledger/internal/core/money"
	"github.com/ogurasousui/peoplesoft-ledger/internal/core/person"
	"github.com/ogurasousui/peoplesoft-ledger/internal/core/stored"
	pgdb "github.com/ogurasousui/peoplesoft-ledger/internal/platform/db/postgres"
)

const (
	deleteEmploymentQuery = `DELETE FROM employment`
	deletePersonJobsQuery = `DELETE FROM person_jobs`
	deleteJobsQuery       = `DELETE FROM jobs`
	deletePersonsQuery    = `DELETE FROM persons`

	insertPersonQuery = `
        INSERT INTO persons (id, position, name, phone, email, address, tags, owed_salary)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8::numeric)
    `
	insertPersonJobQuery = `
        INSERT INTO person_jobs (person_id, job_id, paid)
        VALUES ($1, $2, $3)
    `
	insertJobQuery = `
        INSERT INTO jobs (id, position, name, rate_amount, rate_period_ns, duration_ns, paid, assignees)
        VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8)
    `
	insertEmploymentQuery = `
        INSERT INTO employment (job_id, person_id)
        VALUES ($1, $2)
    `

	selectPersonsQuery = `
        SELECT id, name, phone, email, address, tags, owed_salary::text
          FROM persons
         ORDER BY position
    `
	selectPersonJobsQuery = `
        SELECT person_id, job_id, paid
          FROM person_jobs
    `
	selectJobsQuery = `
        SELECT id, name, rate_amount::text, rate_period_ns, duration_ns, paid, assignees
          FROM jobs
         ORDER BY position
    `
	selectEmploymentQuery = `
        SELECT job_id, person_id
          FROM employment
    `
)

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

// StateStore は PostgreSQL を利用した ledger.StateStore の実装です。
// Save は 1 つの読み書きトランザクション内ですべての行を置き換えます。
type StateStore struct {
	pool pgdb.Queryer
	tx   TransactionManager
}

var _ ledger.StateStore = (*StateStore)(nil)

// NewStateStore は StateStore を生成します。
func NewStateStore(pool pgdb.Queryer, tx TransactionManager) *StateStore {
	return &StateStore{pool: pool, tx: tx}
}

// Save は状態全体を保存します。
func (s *StateStore) Save(ctx context.Context, state ledger.State) error {
	return s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		exec := pgdb.QueryerFromContext(txCtx, s.pool)

		for _, q := range []string{deleteEmploymentQuery, deletePersonJobsQuery, deleteJobsQuery, deletePersonsQuery} {
			if _, err := exec.Exec(txCtx, q); err != nil {
				return fmt.Errorf("postgres: clear state: %w", err)
			}
		}

		for i, p := range state.Persons {
			tags, err := json.Marshal(person.EncodeTags(p.Tags()))
			if err != nil {
				return fmt.Errorf("postgres: encode tags of person %s: %w", p.ID(), err)
			}
			if _, err := exec.Exec(txCtx, insertPersonQuery,
				p.ID(), i, p.Name(), p.Phone(), p.Email(), p.Address(), tags, p.OwedSalary().Decimal().String(),
			); err != nil {
				return fmt.Errorf("postgres: insert person %s: %w", p.ID(), err)
			}
		}

		for _, p := range state.Persons {
			for _, jobID := range sortedKeys(p.Jobs()) {
				paid, _ := p.HasJob(jobID)
				if _, err := exec.Exec(txCtx, insertPersonJobQuery, p.ID(), jobID, paid); err != nil {
					return fmt.Errorf("postgres: insert ledger entry %s/%s: %w", p.ID(), jobID, err)
				}
			}
		}

		for i, j := range state.Jobs {
			if _, err := exec.Exec(txCtx, insertJobQuery,
				j.ID(), i, j.Name(), j.Rate().Amount().Decimal().String(),
				int64(j.Rate().Period()), int64(j.Duration()), j.Paid(), j.Persons(),
			); err != nil {
				return fmt.Errorf("postgres: insert job %s: %w", j.ID(), err)
			}
		}

		for _, jobID := range sortedKeys(state.Employment) {
			if _, err := exec.Exec(txCtx, insertEmploymentQuery, jobID, state.Employment[jobID]); err != nil {
				return fmt.Errorf("postgres: insert employment %s: %w", jobID, err)
			}
		}
		return nil
	})
}

// Load は状態全体を読み込みます。
func (s *StateStore) Load(ctx context.Context) (ledger.State, error) {
	var state ledger.State
	err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		exec := pgdb.QueryerFromContext(txCtx, s.pool)

		ledgers, err := loadPersonJobs(txCtx, exec)
		if err != nil {
			return err
		}
		persons, err := loadPersons(txCtx, exec, ledgers)
		if err != nil {
			return err
		}
		jobs, err := loadJobs(txCtx, exec)
		if err != nil {
			return err
		}
		assignments, err := loadEmployment(txCtx, exec)
		if err != nil {
			return err
		}

		state = ledger.State{Persons: persons, Jobs: jobs, Employment: assignments}
		return nil
	})
	if err != nil {
		return ledger.State{}, err
	}
	return state, nil
}

func loadPersonJobs(ctx context.Context, exec pgdb.Queryer) (map[string]map[string]bool, error) {
	rows, err := exec.Query(ctx, selectPersonJobsQuery)
	if err != nil {
		return nil, fmt.Errorf("postgres: select person_jobs: %w", err)
	}
	defer rows.Close()

	ledgers := make(map[string]map[string]bool)
	for rows.Next() {
		var (
			personID, jobID string
			paid            bool
		)
		if err := rows.Scan(&personID, &jobID, &paid); err != nil {
			return nil, stored.Invalid("person_jobs", "", err)
		}
		if ledgers[personID] == nil {
			ledgers[personID] = make(map[string]bool)
		}
		ledgers[personID][jobID] = paid
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: select person_jobs: %w", err)
	}
	return ledgers, nil
}

func loadPersons(ctx context.Context, exec pgdb.Queryer, ledgers map[string]map[string]bool) ([]person.Person, error) {
	rows, err := exec.Query(ctx, selectPersonsQuery)
	if err != nil {
		return nil, fmt.Errorf("postgres: select persons: %w", err)
	}
	defer rows.Close()

	var persons []person.Person
	for rows.Next() {
		var (
			id, name, phone, email, address string
			rawTags                         []byte
			rawSalary                       string
		)
		if err := rows.Scan(&id, &name, &phone, &email, &address, &rawTags, &rawSalary); err != nil {
			return nil, stored.Invalid("person", "", err)
		}

		var encodedTags []person.TagJSON
		if err := json.Unmarshal(rawTags, &encodedTags); err != nil {
			return nil, stored.Invalid("person", "tags", err)
		}
		tags, err := person.DecodeTags(encodedTags)
		if err != nil {
			return nil, stored.Invalid("person", "tags", err)
		}
		salary, err := money.Parse(rawSalary)
		if err != nil {
			return nil, stored.Invalid("person", "owed_salary", err)
		}

		p, err := person.Restore(id, person.Details{
			Name:    name,
			Phone:   phone,
			Email:   email,
			Address: address,
			Tags:    tags,
		}, salary, ledgers[id])
		if err != nil {
			return nil, stored.Invalid("person", id, err)
		}
		persons = append(persons, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: select persons: %w", err)
	}
	return persons, nil
}

func loadJobs(ctx context.Context, exec pgdb.Queryer) ([]job.Job, error) {
	rows, err := exec.Query(ctx, selectJobsQuery)
	if err != nil {
		return nil, fmt.Errorf("postgres: select jobs: %w", err)
	}
	defer rows.Close()

	var jobs []job.Job
	for rows.Next() {
		var (
			id, name, rawAmount  string
			periodNs, durationNs int64
			paid                 bool
			assignees            []string
		)
		if err := rows.Scan(&id, &name, &rawAmount, &periodNs, &durationNs, &paid, &assignees); err != nil {
			return nil, stored.Invalid("job", "", err)
		}

		amount, err := money.Parse(rawAmount)
		if err != nil {
			return nil, stored.Invalid("job", "rate_amount", err)
		}
		rate, err := money.NewRate(amount, time.Duration(periodNs))
		if err != nil {
			return nil, stored.Invalid("job", "rate", err)
		}
		j, err := job.New(id, name, rate, time.Duration(durationNs), paid, assignees...)
		if err != nil {
			return nil, stored.Invalid("job", id, err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: select jobs: %w", err)
	}
	return jobs, nil
}

func loadEmployment(ctx context.Context, exec pgdb.Queryer) (map[string]string, error) {
	rows, err := exec.Query(ctx, selectEmploymentQuery)
	if err != nil {
		return nil, fmt.Errorf("postgres: select employment: %w", err)
	}
	defer rows.Close()

	assignments := make(map[string]string)
	for rows.Next() {
		var jobID, personID string
		if err := rows.Scan(&jobID, &personID); err != nil {
			return nil, stored.Invalid("employment", "", err)
		}
		assignments[jobID] = personID
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: select employment: %w", err)
	}
	return assignments, nil
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
