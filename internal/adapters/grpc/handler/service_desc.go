package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// LedgerServiceName は gRPC のサービス名です。
const LedgerServiceName = "ledger.v1.LedgerService"

// LedgerServiceServer は LedgerService のサーバー側インターフェースです。
// リクエストとレスポンスはすべて google.protobuf.Struct です。
type LedgerServiceServer interface {
	AddPerson(context.Context, *structpb.Struct) (*structpb.Struct, error)
	EditPerson(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeletePerson(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetPerson(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListPersons(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExportPerson(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddJob(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteJob(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetJob(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListJobs(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AssignJob(context.Context, *structpb.Struct) (*structpb.Struct, error)
	PayJob(context.Context, *structpb.Struct) (*structpb.Struct, error)
	MarkJobUnpaid(context.Context, *structpb.Struct) (*structpb.Struct, error)
	JobsForPerson(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Clear(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Restore(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(LedgerServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// LedgerServiceDesc は LedgerService の grpc.ServiceDesc です。
var LedgerServiceDesc = grpc.ServiceDesc{
	ServiceName: LedgerServiceName,
	HandlerType: (*LedgerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("AddPerson", LedgerServiceServer.AddPerson),
		unaryMethod("EditPerson", LedgerServiceServer.EditPerson),
		unaryMethod("DeletePerson", LedgerServiceServer.DeletePerson),
		unaryMethod("GetPerson", LedgerServiceServer.GetPerson),
		unaryMethod("ListPersons", LedgerServiceServer.ListPersons),
		unaryMethod("ExportPerson", LedgerServiceServer.ExportPerson),
		unaryMethod("AddJob", LedgerServiceServer.AddJob),
		unaryMethod("DeleteJob", LedgerServiceServer.DeleteJob),
		unaryMethod("GetJob", LedgerServiceServer.GetJob),
		unaryMethod("ListJobs", LedgerServiceServer.ListJobs),
		unaryMethod("AssignJob", LedgerServiceServer.AssignJob),
		unaryMethod("PayJob", LedgerServiceServer.PayJob),
		unaryMethod("MarkJobUnpaid", LedgerServiceServer.MarkJobUnpaid),
		unaryMethod("JobsForPerson", LedgerServiceServer.JobsForPerson),
		unaryMethod("Clear", LedgerServiceServer.Clear),
		unaryMethod("Restore", LedgerServiceServer.Restore),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ledger/v1/ledger.proto",
}

// RegisterLedgerServiceServer は srv を s に登録します。
func RegisterLedgerServiceServer(s grpc.ServiceRegistrar, srv LedgerServiceServer) {
	s.RegisterService(&LedgerServiceDesc, srv)
}

func unaryMethod(name string, call unaryCall) grpc.MethodDesc {
	fullMethod := "/" + LedgerServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(LedgerServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(LedgerServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// LedgerServiceClient は LedgerService を呼び出すクライアントです。
type LedgerServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewLedgerServiceClient は LedgerServiceClient を生成します。
func NewLedgerServiceClient(cc grpc.ClientConnInterface) *LedgerServiceClient {
	return &LedgerServiceClient{cc: cc}
}

// Call は method を呼び出します。method は "AddPerson" のようなメソッド名です。
func (c *LedgerServiceClient) Call(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if in == nil {
		in = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+LedgerServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
