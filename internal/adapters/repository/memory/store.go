// Package memory は実行時モデルとして使うインメモリの人物・仕事ストアを提供します。
package memory

import (
	"slices"
	"strconv"
	"sync"
)

// orderedStore は挿入順を保つ id 付き値のストアです。
type orderedStore[T any] struct {
	mu     sync.RWMutex
	idOf   func(T) string
	values map[string]T
	order  []string
}

func newOrderedStore[T any](idOf func(T) string) *orderedStore[T] {
	return &orderedStore[T]{idOf: idOf, values: make(map[string]T)}
}

func (s *orderedStore[T]) create(v T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.idOf(v)
	if _, ok := s.values[id]; ok {
		return false
	}
	s.values[id] = v
	s.order = append(s.order, id)
	return true
}

func (s *orderedStore[T]) replace(v T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.idOf(v)
	if _, ok := s.values[id]; !ok {
		return false
	}
	s.values[id] = v
	return true
}

func (s *orderedStore[T]) delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.values[id]; !ok {
		return false
	}
	delete(s.values, id)
	if i := slices.Index(s.order, id); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}
	return true
}

func (s *orderedStore[T]) find(id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[id]
	return v, ok
}

// list は match に一致する値を挿入順で返します。limit が 0 の場合は全件を返します。
func (s *orderedStore[T]) list(match func(T) bool, limit, offset int) ([]T, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	filtered := make([]T, 0, len(s.order))
	for _, id := range s.order {
		v := s.values[id]
		if match != nil && !match(v) {
			continue
		}
		filtered = append(filtered, v)
	}

	if offset > len(filtered) {
		return []T{}, ""
	}
	if limit <= 0 {
		return filtered[offset:], ""
	}

	end := min(offset+limit, len(filtered))
	var nextToken string
	if end < len(filtered) {
		nextToken = strconv.Itoa(end)
	}
	return filtered[offset:end], nextToken
}

// replaceAll は内容を values で置き換えます。重複した id があれば false を返し、何も変更しません。
func (s *orderedStore[T]) replaceAll(values []T) (string, bool) {
	next := make(map[string]T, len(values))
	order := make([]string, 0, len(values))
	for _, v := range values {
		id := s.idOf(v)
		if _, dup := next[id]; dup {
			return id, false
		}
		next[id] = v
		order = append(order, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = next
	s.order = order
	return "", true
}
