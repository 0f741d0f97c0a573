package ledger

import (
	"strconv"
	"sync"
)

// sequentialIDs は 1 から始まる連番を払い出す既定の IDGenerator です。
// 仕事と人物で同じカウンタを共有します。
type sequentialIDs struct {
	mu   sync.Mutex
	next uint64
}

func newSequentialIDs() *sequentialIDs {
	return &sequentialIDs{next: 1}
}

func (g *sequentialIDs) NewJobID() string {
	return g.issue()
}

func (g *sequentialIDs) NewPersonID() string {
	return g.issue()
}

// Reserve は数値として解釈できる id より大きい値から払い出しを再開します。
func (g *sequentialIDs) Reserve(ids ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, id := range ids {
		n, err := strconv.ParseUint(id, 10, 64)
		if err != nil {
			continue
		}
		if n >= g.next {
			g.next = n + 1
		}
	}
}

func (g *sequentialIDs) issue() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := strconv.FormatUint(g.next, 10)
	g.next++
	return id
}
