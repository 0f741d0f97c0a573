package ledger

import (
	"context"

	"github.com/ogurasousui/peoplesoft-ledger/internal/core/job"
	"github.com/ogurasousui/peoplesoft-ledger/internal/core/person"
)

// State はモデル全体のスナップショットです。
type State struct {
	Persons    []person.Person
	Jobs       []job.Job
	Employment map[string]string
}

// StateStore はモデル全体を保存・復元する永続化の抽象です。
// 保存先が存在しない場合、Load は空の State を返します。
// 不正なデータは stored.ErrInvalidValue を満たすエラーとして返却されます。
type StateStore interface {
	Load(ctx context.Context) (State, error)
	Save(ctx context.Context, state State) error
}

type noopStateStore struct{}

func (noopStateStore) Load(context.Context) (State, error) {
	return State{Employment: map[string]string{}}, nil
}

func (noopStateStore) Save(context.Context, State) error {
	return nil
}

// IDGenerator は新しい仕事・人物の id を払い出します。同一プロセス内で id を再利用してはいけません。
type IDGenerator interface {
	NewJobID() string
	NewPersonID() string
}

// idReserver は復元済みの id を払い出し対象から外せる IDGenerator が実装します。
type idReserver interface {
	Reserve(ids ...string)
}
