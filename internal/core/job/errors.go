package job

import "errors"

var (
	ErrInvalidID       = errors.New("job: invalid id")
	ErrInvalidName     = errors.New("job: invalid name")
	ErrInvalidDuration = errors.New("job: invalid duration")
	ErrInvalidPageSize = errors.New("job: invalid page size")
	ErrJobNotFound     = errors.New("job: not found")
	ErrJobExists       = errors.New("job: already exists")
	// ErrIllegalPayment は支払済みの仕事を未払いへ戻そうとした場合に返却されます。
	ErrIllegalPayment = errors.New("job: operation would result in a paid job being unpaid")
)
