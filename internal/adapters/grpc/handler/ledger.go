package handler

import (
	"context"

	"github.com/ogurasousui/peoplesoft-ledger/internal/core/ledger"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// LedgerGrpcHandler は LedgerService の gRPC 実装です。
//
// 変更系 RPC で状態の保存だけが失敗した場合 (ledger.ErrSaveState) は Unavailable を返します。
// このときメモリ上の変更は適用済みのため、クライアントは同じ変更を再送せず Get 系 RPC で現在の状態を確認してください。
type LedgerGrpcHandler struct {
	svc ledger.UseCase
}

var _ LedgerServiceServer = (*LedgerGrpcHandler)(nil)

// NewLedgerGrpcHandler は LedgerGrpcHandler を生成します。
func NewLedgerGrpcHandler(svc ledger.UseCase) *LedgerGrpcHandler {
	return &LedgerGrpcHandler{svc: svc}
}

// AddPerson は人物を追加します。
func (h *LedgerGrpcHandler) AddPerson(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	var in ledger.AddPersonInput
	var err error
	if in.Name, err = stringField(req, "name"); err != nil {
		return nil, err
	}
	if in.Phone, err = stringField(req, "phone"); err != nil {
		return nil, err
	}
	if in.Email, err = stringField(req, "email"); err != nil {
		return nil, err
	}
	if in.Address, err = stringField(req, "address"); err != nil {
		return nil, err
	}
	if in.Tags, _, err = tagsField(req); err != nil {
		return nil, toStatusError(err)
	}

	created, err := h.svc.AddPerson(ctx, in)
	if err != nil {
		return nil, toStatusError(err)
	}
	return newResponse(map[string]any{"person": toProtoPerson(created)})
}

// EditPerson は人物を編集します。指定されなかったフィールドは変更しません。
func (h *LedgerGrpcHandler) EditPerson(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	id, err := requiredString(req, "id")
	if err != nil {
		return nil, err
	}
	in := ledger.EditPersonInput{ID: id}
	if in.Name, err = optionalString(req, "name"); err != nil {
		return nil, err
	}
	if in.Phone, err = optionalString(req, "phone"); err != nil {
		return nil, err
	}
	if in.Email, err = optionalString(req, "email"); err != nil {
		return nil, err
	}
	if in.Address, err = optionalString(req, "address"); err != nil {
		return nil, err
	}
	if in.Tags, in.TagsSet, err = tagsField(req); err != nil {
		return nil, toStatusError(err)
	}

	edited, err := h.svc.EditPerson(ctx, in)
	if err != nil {
		return nil, toStatusError(err)
	}
	return newResponse(map[string]any{"person": toProtoPerson(edited)})
}

// DeletePerson は人物を削除します。
func (h *LedgerGrpcHandler) DeletePerson(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	id, err := requiredString(req, "id")
	if err != nil {
		return nil, err
	}
	if err := h.svc.DeletePerson(ctx, id); err != nil {
		return nil, toStatusError(err)
	}
	return &structpb.Struct{}, nil
}

// GetPerson は人物を取得します。
func (h *LedgerGrpcHandler) GetPerson(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	id, err := requiredString(req, "id")
	if err != nil {
		return nil, err
	}
	found, err := h.svc.GetPerson(ctx, id)
	if err != nil {
		return nil, toStatusError(err)
	}
	return newResponse(map[string]any{"person": toProtoPerson(found)})
}

// ListPersons は人物の一覧を取得します。
func (h *LedgerGrpcHandler) ListPersons(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	var in ledger.ListPersonsInput
	var err error
	if in.Keyword, err = stringField(req, "keyword"); err != nil {
		return nil, err
	}
	if in.PageSize, err = intField(req, "pageSize"); err != nil {
		return nil, err
	}
	if in.PageToken, err = stringField(req, "pageToken"); err != nil {
		return nil, err
	}

	result, err := h.svc.ListPersons(ctx, in)
	if err != nil {
		return nil, toStatusError(err)
	}
	return newResponse(map[string]any{
		"persons":       toProtoPersons(result.Persons),
		"nextPageToken": result.NextPageToken,
	})
}

// ExportPerson は人物と担当中の仕事を書き出します。document は JSON 文字列です。
func (h *LedgerGrpcHandler) ExportPerson(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	id, err := requiredString(req, "id")
	if err != nil {
		return nil, err
	}
	out, err := h.svc.ExportPerson(ctx, id)
	if err != nil {
		return nil, toStatusError(err)
	}
	return newResponse(map[string]any{
		"person":   toProtoPerson(out.Person),
		"jobs":     toProtoJobs(out.Jobs),
		"document": string(out.Document),
	})
}

// AddJob は仕事を追加します。
func (h *LedgerGrpcHandler) AddJob(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	var in ledger.AddJobInput
	var err error
	if in.Name, err = stringField(req, "name"); err != nil {
		return nil, err
	}
	if in.Rate, err = requiredString(req, "rate"); err != nil {
		return nil, err
	}
	if in.RatePeriod, err = durationField(req, "ratePeriod"); err != nil {
		return nil, err
	}
	if in.Duration, err = durationField(req, "duration"); err != nil {
		return nil, err
	}

	created, err := h.svc.AddJob(ctx, in)
	if err != nil {
		return nil, toStatusError(err)
	}
	return newResponse(map[string]any{"job": toProtoJob(created)})
}

// DeleteJob は仕事を削除します。
func (h *LedgerGrpcHandler) DeleteJob(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	id, err := requiredString(req, "id")
	if err != nil {
		return nil, err
	}
	if err := h.svc.DeleteJob(ctx, id); err != nil {
		return nil, toStatusError(err)
	}
	return &structpb.Struct{}, nil
}

// GetJob は仕事を取得します。
func (h *LedgerGrpcHandler) GetJob(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	id, err := requiredString(req, "id")
	if err != nil {
		return nil, err
	}
	found, err := h.svc.GetJob(ctx, id)
	if err != nil {
		return nil, toStatusError(err)
	}
	return newResponse(map[string]any{"job": toProtoJob(found)})
}

// ListJobs は仕事の一覧を取得します。paid を省略した場合は支払状態で絞り込みません。
// keyword は仕事名の部分一致で、paid と併用できます。
func (h *LedgerGrpcHandler) ListJobs(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	var in ledger.ListJobsInput
	var err error
	if in.Paid, err = optionalBool(req, "paid"); err != nil {
		return nil, err
	}
	if in.Keyword, err = stringField(req, "keyword"); err != nil {
		return nil, err
	}
	if in.PageSize, err = intField(req, "pageSize"); err != nil {
		return nil, err
	}
	if in.PageToken, err = stringField(req, "pageToken"); err != nil {
		return nil, err
	}

	result, err := h.svc.ListJobs(ctx, in)
	if err != nil {
		return nil, toStatusError(err)
	}
	return newResponse(map[string]any{
		"jobs":          toProtoJobs(result.Jobs),
		"nextPageToken": result.NextPageToken,
	})
}

// AssignJob は仕事を人物に割り当てます。
func (h *LedgerGrpcHandler) AssignJob(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	jobID, err := requiredString(req, "jobId")
	if err != nil {
		return nil, err
	}
	personID, err := requiredString(req, "personId")
	if err != nil {
		return nil, err
	}

	result, err := h.svc.AssignJob(ctx, ledger.AssignJobInput{JobID: jobID, PersonID: personID})
	if err != nil {
		return nil, toStatusError(err)
	}
	return newResponse(map[string]any{
		"job":    toProtoJob(result.Job),
		"person": toProtoPerson(result.Person),
	})
}

// PayJob は仕事を支払済みにします。
func (h *LedgerGrpcHandler) PayJob(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	jobID, err := requiredString(req, "jobId")
	if err != nil {
		return nil, err
	}

	result, err := h.svc.PayJob(ctx, jobID)
	if err != nil {
		return nil, toStatusError(err)
	}
	fields := map[string]any{"job": toProtoJob(result.Job)}
	if result.Assignee != nil {
		fields["assignee"] = toProtoPerson(*result.Assignee)
	}
	return newResponse(fields)
}

// MarkJobUnpaid は仕事を未払いとして扱います。支払済みの仕事は FailedPrecondition になります。
func (h *LedgerGrpcHandler) MarkJobUnpaid(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	jobID, err := requiredString(req, "jobId")
	if err != nil {
		return nil, err
	}

	updated, err := h.svc.MarkJobUnpaid(ctx, jobID)
	if err != nil {
		return nil, toStatusError(err)
	}
	return newResponse(map[string]any{"job": toProtoJob(updated)})
}

// JobsForPerson は人物に割り当てられている仕事を取得します。
func (h *LedgerGrpcHandler) JobsForPerson(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	personID, err := requiredString(req, "personId")
	if err != nil {
		return nil, err
	}

	jobs, err := h.svc.JobsForPerson(ctx, personID)
	if err != nil {
		return nil, toStatusError(err)
	}
	return newResponse(map[string]any{"jobs": toProtoJobs(jobs)})
}

// Clear はすべての状態を削除します。
func (h *LedgerGrpcHandler) Clear(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	if err := h.svc.Clear(ctx); err != nil {
		return nil, toStatusError(err)
	}
	return &structpb.Struct{}, nil
}

// Restore は保存先から状態を読み込み直します。
func (h *LedgerGrpcHandler) Restore(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	if err := h.svc.Restore(ctx); err != nil {
		return nil, toStatusError(err)
	}
	return &structpb.Struct{}, nil
}
