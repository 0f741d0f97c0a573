package money

import "errors"

var (
	// ErrInvalidAmount は金額が不正な場合に返却されます。
	ErrInvalidAmount = errors.New("money: invalid amount")
	// ErrInvalidRate は単価が不正な場合に返却されます。
	ErrInvalidRate = errors.New("money: invalid rate")
	// ErrInvalidPeriod は単価の基準期間が不正な場合に返却されます。
	ErrInvalidPeriod = errors.New("money: invalid rate period")
)
