// Package idgen は仕事と人物の id を払い出します。
//
// uuid 形式は UUIDv4 を、typeid 形式は "job_01h2xcejqtf2nbrexx3vqjhp41" のような
// 接頭辞付きの K-sortable な TypeID を返します。いずれもプロセス内で重複しません。
package idgen

import (
	"fmt"

	"github.com/google/uuid"
	"go.jetify.com/typeid/v2"

	"github.com/ogurasousui/peoplesoft-ledger/internal/platform/config"
)

// Kind は id を払い出す対象の種類で、typeid 形式の接頭辞になります。
type Kind string

const (
	KindJob    Kind = "job"
	KindPerson Kind = "person"
)

// Generator は ledger.IDGenerator を満たします。
type Generator struct {
	newID func(Kind) string
}

// New は format に対応する Generator を返します。
func New(format string) (*Generator, error) {
	switch format {
	case config.IDFormatUUID:
		return &Generator{newID: func(Kind) string { return uuid.NewString() }}, nil
	case config.IDFormatTypeID:
		return &Generator{newID: newTypeID}, nil
	default:
		return nil, fmt.Errorf("idgen: unsupported format %q", format)
	}
}

// NewID は kind の新しい id を返します。
func (g *Generator) NewID(kind Kind) string {
	return g.newID(kind)
}

func (g *Generator) NewJobID() string {
	return g.NewID(KindJob)
}

func (g *Generator) NewPersonID() string {
	return g.NewID(KindPerson)
}

// kindOf は typeid 形式の id から種類を取り出します。
func kindOf(id string) (Kind, error) {
	tid, err := typeid.Parse(id)
	if err != nil {
		return "", fmt.Errorf("idgen: parse %q: %w", id, err)
	}
	return Kind(tid.Prefix()), nil
}

func newTypeID(kind Kind) string {
	tid, err := typeid.Generate(string(kind))
	if err != nil {
		panic(fmt.Sprintf("idgen: invalid prefix %q: %v", kind, err))
	}
	return tid.String()
}
