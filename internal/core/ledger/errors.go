package ledger

import "errors"

var (
	ErrInvalidPageSize  = errors.New("ledger: invalid page size")
	ErrInvalidPageToken = errors.New("ledger: invalid page token")
	ErrInvalidID        = errors.New("ledger: invalid id")
	// ErrSaveState は状態の保存に失敗した場合に返却されます。メモリ上の変更は保持されます。
	ErrSaveState = errors.New("ledger: failed to save state")
)
