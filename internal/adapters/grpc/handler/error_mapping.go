package handler

import (
	"context"
	"errors"

	"github.com/ogurasousui/peoplesoft-ledger/internal/core/job"
	"github.com/ogurasousui/peoplesoft-ledger/internal/core/ledger"
	"github.com/ogurasousui/peoplesoft-ledger/internal/core/money"
	"github.com/ogurasousui/peoplesoft-ledger/internal/core/person"
	"github.com/ogurasousui/peoplesoft-ledger/internal/core/stored"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatusError はドメインエラーを gRPC ステータスへ変換します。
// 保存失敗はメモリ上の変更が適用済みであることを示すため、他のエラーより先に Unavailable へ変換します。
func toStatusError(err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case err == nil:
		return nil
	case errors.Is(err, ledger.ErrSaveState):
		return status.Error(codes.Unavailable, "change applied but not saved: "+err.Error())
	case errors.Is(err, stored.ErrInvalidValue):
		return status.Error(codes.DataLoss, err.Error())
	case errors.Is(err, job.ErrIllegalPayment):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, ledger.ErrInvalidID),
		errors.Is(err, ledger.ErrInvalidPageSize),
		errors.Is(err, ledger.ErrInvalidPageToken),
		errors.Is(err, person.ErrInvalidID),
		errors.Is(err, person.ErrInvalidName),
		errors.Is(err, person.ErrInvalidPhone),
		errors.Is(err, person.ErrInvalidEmail),
		errors.Is(err, person.ErrInvalidAddress),
		errors.Is(err, person.ErrInvalidTag),
		errors.Is(err, person.ErrInvalidMultiplier),
		errors.Is(err, person.ErrInvalidPageSize),
		errors.Is(err, job.ErrInvalidID),
		errors.Is(err, job.ErrInvalidName),
		errors.Is(err, job.ErrInvalidDuration),
		errors.Is(err, job.ErrInvalidPageSize),
		errors.Is(err, money.ErrInvalidAmount),
		errors.Is(err, money.ErrInvalidRate),
		errors.Is(err, money.ErrInvalidPeriod):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, person.ErrPersonExists),
		errors.Is(err, person.ErrDuplicateJob),
		errors.Is(err, job.ErrJobExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, person.ErrPersonNotFound), errors.Is(err, job.ErrJobNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
