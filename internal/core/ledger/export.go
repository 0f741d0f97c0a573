package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ogurasousui/peoplesoft-ledger/internal/core/job"
	"github.com/ogurasousui/peoplesoft-ledger/internal/core/person"
)

// PersonExport は 1 人分の書き出し結果です。
// Document は人物 (台帳を含む) と担当中の仕事を永続化と同じ JSON 表現でまとめたものです。
type PersonExport struct {
	Person   person.Person
	Jobs     []job.Job
	Document []byte
}

type personExportJSON struct {
	Person person.Person `json:"person"`
	Jobs   []job.Job     `json:"jobs"`
}

// ExportPerson は人物と担当中の仕事を書き出します。状態は変更しません。
func (s *Service) ExportPerson(ctx context.Context, personID string) (*PersonExport, error) {
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
	jobs, err := s.registry.JobsFor(ctx, p, s.jobs)
	if err != nil {
		return nil, err
	}
	if jobs == nil {
		jobs = []job.Job{}
	}

	doc, err := json.Marshal(personExportJSON{Person: p, Jobs: jobs})
	if err != nil {
		return nil, fmt.Errorf("export person %s: %w", p.ID(), err)
	}

	s.logger.DebugContext(ctx, "person exported",
		slog.String("person_id", p.ID()),
		slog.Int("jobs", len(jobs)),
	)
	return &PersonExport{Person: p, Jobs: jobs, Document: doc}, nil
}
