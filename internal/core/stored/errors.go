// Package stored は永続化データの復元時に発生するエラーを定義します。
package stored

import (
	"errors"
	"fmt"
)

// ErrInvalidValue は保存済みデータが不正または欠落している場合に返却されます。
var ErrInvalidValue = errors.New("invalid stored value")

// ValueError は復元に失敗した値の種類とフィールドを保持します。
type ValueError struct {
	Kind  string
	Field string
	Err   error
}

// Invalid は ValueError を生成します。
func Invalid(kind, field string, err error) error {
	return &ValueError{Kind: kind, Field: field, Err: err}
}

func (e *ValueError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, ErrInvalidValue)
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s %s", e.Kind, ErrInvalidValue, e.Field)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is は errors.Is(err, ErrInvalidValue) を満たすために実装されています。
func (e *ValueError) Is(target error) bool {
	return target == ErrInvalidValue
}

func (e *ValueError) Unwrap() error {
	return e.Err
}
