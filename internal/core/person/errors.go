package person

import "errors"

var (
	ErrInvalidID         = errors.New("person: invalid id")
	ErrInvalidName       = errors.New("person: invalid name")
	ErrInvalidPhone      = errors.New("person: invalid phone")
	ErrInvalidEmail      = errors.New("person: invalid email")
	ErrInvalidAddress    = errors.New("person: invalid address")
	ErrInvalidTag        = errors.New("person: invalid tag")
	ErrInvalidMultiplier = errors.New("person: tag multiplier should be non-negative")
	ErrInvalidPageSize   = errors.New("person: invalid page size")
	ErrPersonNotFound    = errors.New("person: not found")
	ErrPersonExists      = errors.New("person: already exists")
	// ErrDuplicateJob は同じ仕事を初回割り当て済みの人物へ再度割り当てた場合に返却されます。
	ErrDuplicateJob = errors.New("person: job already assigned to this person")
)
