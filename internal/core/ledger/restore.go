package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ogurasousui/peoplesoft-ledger/internal/core/employment"
	"github.com/ogurasousui/peoplesoft-ledger/internal/core/stored"
)

// Clear はすべての人物・仕事・担当関係を削除します。
func (s *Service) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, err := s.snapshot(ctx)
	if err != nil {
		return err
	}

	if err := s.persons.ReplaceAll(ctx, nil); err != nil {
		return err
	}
	if err := s.jobs.ReplaceAll(ctx, nil); err != nil {
		if rerr := s.persons.ReplaceAll(ctx, previous.Persons); rerr != nil {
			s.logger.ErrorContext(ctx, "rollback step failed", slog.Any("error", rerr))
		}
		return err
	}
	s.registry.Reset()

	s.logger.InfoContext(ctx, "ledger cleared",
		slog.Int("persons", len(previous.Persons)),
		slog.Int("jobs", len(previous.Jobs)),
	)
	return s.flush(ctx)
}

// Restore は StateStore から状態全体を読み込み、検証してから置き換えます。
// 検証に失敗した場合は何も変更しません。
func (s *Service) Restore(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	if err := validateState(state); err != nil {
		return fmt.Errorf("load state: %w", err)
	}

	previous, err := s.snapshot(ctx)
	if err != nil {
		return err
	}

	if err := s.persons.ReplaceAll(ctx, state.Persons); err != nil {
		return err
	}
	if err := s.jobs.ReplaceAll(ctx, state.Jobs); err != nil {
		if rerr := s.persons.ReplaceAll(ctx, previous.Persons); rerr != nil {
			s.logger.ErrorContext(ctx, "rollback step failed", slog.Any("error", rerr))
		}
		return err
	}
	s.registry.Replace(employment.FromMap(state.Employment))

	if reserver, ok := s.ids.(idReserver); ok {
		ids := make([]string, 0, len(state.Persons)+len(state.Jobs))
		for _, p := range state.Persons {
			ids = append(ids, p.ID())
		}
		for _, j := range state.Jobs {
			ids = append(ids, j.ID())
		}
		reserver.Reserve(ids...)
	}

	s.logger.InfoContext(ctx, "ledger restored",
		slog.Int("persons", len(state.Persons)),
		slog.Int("jobs", len(state.Jobs)),
		slog.Int("assignments", len(state.Employment)),
	)
	return nil
}

// validateState は id の重複と、担当関係が存在しない仕事・人物を参照していないことを確認します。
func validateState(state State) error {
	personIDs := make(map[string]struct{}, len(state.Persons))
	for _, p := range state.Persons {
		if _, dup := personIDs[p.ID()]; dup {
			return stored.Invalid("state", "persons", fmt.Errorf("duplicate person id %q", p.ID()))
		}
		personIDs[p.ID()] = struct{}{}
	}

	jobIDs := make(map[string]struct{}, len(state.Jobs))
	for _, j := range state.Jobs {
		if _, dup := jobIDs[j.ID()]; dup {
			return stored.Invalid("state", "jobs", fmt.Errorf("duplicate job id %q", j.ID()))
		}
		jobIDs[j.ID()] = struct{}{}
	}

	if err := employment.Validate(state.Employment); err != nil {
		return err
	}
	for jobID, personID := range state.Employment {
		if _, ok := jobIDs[jobID]; !ok {
			return stored.Invalid("state", "employment", fmt.Errorf("unknown job id %q", jobID))
		}
		if _, ok := personIDs[personID]; !ok {
			return stored.Invalid("state", "employment", fmt.Errorf("unknown person id %q", personID))
		}
	}
	return nil
}
