// Package jsonfile はモデル全体を 1 つの JSON ファイルとして保存する StateStore です。
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ogurasousui/peoplesoft-ledger/internal/core/employment"
	"github.com/ogurasousui/peoplesoft-ledger/internal/core/job"
	"github.com/ogurasousui/peoplesoft-ledger/internal/core/ledger"
	"github.com/ogurasousui/peoplesoft-ledger/internal/core/person"
	"github.com/ogurasousui/peoplesoft-ledger/internal/core/stored"
)

// Store は path の JSON ファイルへ状態を保存します。書き込みは一時ファイルと rename によるアトミックな置き換えです。
type Store struct {
	path string
}

var _ ledger.StateStore = (*Store)(nil)

// New は Store を生成します。
func New(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("jsonfile: path is required")
	}
	return &Store{path: path}, nil
}

// Path は保存先のパスを返します。
func (s *Store) Path() string {
	return s.path
}

type document struct {
	Persons    json.RawMessage `json:"persons"`
	Jobs       json.RawMessage `json:"jobs"`
	Employment json.RawMessage `json:"employment"`
}

// Load はファイルから状態を読み込みます。ファイルが存在しない場合は空の状態を返します。
func (s *Store) Load(ctx context.Context) (ledger.State, error) {
	if err := ctx.Err(); err != nil {
		return ledger.State{}, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ledger.State{Employment: map[string]string{}}, nil
		}
		return ledger.State{}, fmt.Errorf("jsonfile: read %s: %w", s.path, err)
	}

	return decode(data)
}

// Save は状態をファイルへ書き込みます。
func (s *Store) Save(ctx context.Context, state ledger.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encode(state)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(s.path, data, 0o600); err != nil {
		return fmt.Errorf("jsonfile: write %s: %w", s.path, err)
	}
	return nil
}

func encode(state ledger.State) ([]byte, error) {
	persons := state.Persons
	if persons == nil {
		persons = []person.Person{}
	}
	jobs := state.Jobs
	if jobs == nil {
		jobs = []job.Job{}
	}
	assignments := state.Employment
	if assignments == nil {
		assignments = map[string]string{}
	}

	out, err := json.MarshalIndent(struct {
		Persons    []person.Person   `json:"persons"`
		Jobs       []job.Job         `json:"jobs"`
		Employment map[string]string `json:"employment"`
	}{persons, jobs, assignments}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("jsonfile: encode state: %w", err)
	}
	return append(out, '\n'), nil
}

func decode(data []byte) (ledger.State, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return ledger.State{}, stored.Invalid("state", "", err)
	}

	var state ledger.State
	if err := decodeField("persons", doc.Persons, &state.Persons); err != nil {
		return ledger.State{}, err
	}
	if err := decodeField("jobs", doc.Jobs, &state.Jobs); err != nil {
		return ledger.State{}, err
	}

	var registry employment.Registry
	if err := decodeField("employment", doc.Employment, &registry); err != nil {
		return ledger.State{}, err
	}
	state.Employment = registry.Snapshot()
	return state, nil
}

func decodeField(field string, raw json.RawMessage, dst any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return stored.Invalid("state", field, errors.New("missing"))
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		if errors.Is(err, stored.ErrInvalidValue) {
			return err
		}
		return stored.Invalid("state", field, err)
	}
	return nil
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return nil
}
