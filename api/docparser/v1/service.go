package docparserv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "docparser.v1.DocumentService"

const (
	DocumentService_CreateSession_FullMethodName = "/" + ServiceName + "/CreateSession"
	DocumentService_Ingest_FullMethodName        = "/" + ServiceName + "/Ingest"
	DocumentService_Ask_FullMethodName           = "/" + ServiceName + "/Ask"
	DocumentService_GetSession_FullMethodName    = "/" + ServiceName + "/GetSession"
	DocumentService_ListJobs_FullMethodName      = "/" + ServiceName + "/ListJobs"
	DocumentService_ExportJobs_FullMethodName    = "/" + ServiceName + "/ExportJobs"
)

type DocumentServiceServer interface {
	CreateSession(context.Context, *CreateSessionRequest) (*CreateSessionResponse, error)
	Ingest(context.Context, *IngestRequest) (*IngestResponse, error)
	Ask(context.Context, *AskRequest) (*AskResponse, error)
	GetSession(context.Context, *GetSessionRequest) (*GetSessionResponse, error)
	ListJobs(context.Context, *ListJobsRequest) (*ListJobsResponse, error)
	ExportJobs(context.Context, *ExportJobsRequest) (*ExportJobsResponse, error)
}

// UnimplementedDocumentServiceServer can be embedded to satisfy the interface
// for methods a server does not provide.
type UnimplementedDocumentServiceServer struct{}

func (UnimplementedDocumentServiceServer) CreateSession(context.Context, *CreateSessionRequest) (*CreateSessionResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateSession not implemented")
}
func (UnimplementedDocumentServiceServer) Ingest(context.Context, *IngestRequest) (*IngestResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Ingest not implemented")
}
func (UnimplementedDocumentServiceServer) Ask(context.Context, *AskRequest) (*AskResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Ask not implemented")
}
func (UnimplementedDocumentServiceServer) GetSession(context.Context, *GetSessionRequest) (*GetSessionResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetSession not implemented")
}
func (UnimplementedDocumentServiceServer) ListJobs(context.Context, *ListJobsRequest) (*ListJobsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListJobs not implemented")
}
func (UnimplementedDocumentServiceServer) ExportJobs(context.Context, *ExportJobsRequest) (*ExportJobsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ExportJobs not implemented")
}

func RegisterDocumentServiceServer(s grpc.ServiceRegistrar, srv DocumentServiceServer) {
	s.RegisterService(&DocumentService_ServiceDesc, srv)
}

// unary builds a grpc.MethodHandler that decodes Req and dispatches to call.
func unary[Req any, Resp any](fullMethod string, call func(DocumentServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(DocumentServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(DocumentServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var DocumentService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DocumentServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "CreateSession",
			Handler:    unary(DocumentService_CreateSession_FullMethodName, DocumentServiceServer.CreateSession),
		},
		{
			MethodName: "Ingest",
			Handler:    unary(DocumentService_Ingest_FullMethodName, DocumentServiceServer.Ingest),
		},
		{
			MethodName: "Ask",
			Handler:    unary(DocumentService_Ask_FullMethodName, DocumentServiceServer.Ask),
		},
		{
			MethodName: "GetSession",
			Handler:    unary(DocumentService_GetSession_FullMethodName, DocumentServiceServer.GetSession),
		},
		{
			MethodName: "ListJobs",
			Handler:    unary(DocumentService_ListJobs_FullMethodName, DocumentServiceServer.ListJobs),
		},
		{
			MethodName: "ExportJobs",
			Handler:    unary(DocumentService_ExportJobs_FullMethodName, DocumentServiceServer.ExportJobs),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "docparser/v1/document_service",
}

type DocumentServiceClient interface {
	CreateSession(ctx context.Context, in *CreateSessionRequest, opts ...grpc.CallOption) (*CreateSessionResponse, error)
	Ingest(ctx context.Context, in *IngestRequest, opts ...grpc.CallOption) (*IngestResponse, error)
	Ask(ctx context.Context, in *AskRequest, opts ...grpc.CallOption) (*AskResponse, error)
	GetSession(ctx context.Context, in *GetSessionRequest, opts ...grpc.CallOption) (*GetSessionResponse, error)
	ListJobs(ctx context.Context, in *ListJobsRequest, opts ...grpc.CallOption) (*ListJobsResponse, error)
	ExportJobs(ctx context.Context, in *ExportJobsRequest, opts ...grpc.CallOption) (*ExportJobsResponse, error)
}

type documentServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewDocumentServiceClient returns a client that always selects the JSON codec.
func NewDocumentServiceClient(cc grpc.ClientConnInterface) DocumentServiceClient {
	return &documentServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *documentServiceClient) CreateSession(ctx context.Context, in *CreateSessionRequest, opts ...grpc.CallOption) (*CreateSessionResponse, error) {
	return invoke[CreateSessionResponse](ctx, c.cc, DocumentService_CreateSession_FullMethodName, in, opts)
}

func (c *documentServiceClient) Ingest(ctx context.Context, in *IngestRequest, opts ...grpc.CallOption) (*IngestResponse, error) {
	return invoke[IngestResponse](ctx, c.cc, DocumentService_Ingest_FullMethodName, in, opts)
}

func (c *documentServiceClient) Ask(ctx context.Context, in *AskRequest, opts ...grpc.CallOption) (*AskResponse, error) {
	return invoke[AskResponse](ctx, c.cc, DocumentService_Ask_FullMethodName, in, opts)
}

func (c *documentServiceClient) GetSession(ctx context.Context, in *GetSessionRequest, opts ...grpc.CallOption) (*GetSessionResponse, error) {
	return invoke[GetSessionResponse](ctx, c.cc, DocumentService_GetSession_FullMethodName, in, opts)
}

func (c *documentServiceClient) ListJobs(ctx context.Context, in *ListJobsRequest, opts ...grpc.CallOption) (*ListJobsResponse, error) {
	return invoke[ListJobsResponse](ctx, c.cc, DocumentService_ListJobs_FullMethodName, in, opts)
}

func (c *documentServiceClient) ExportJobs(ctx context.Context, in *ExportJobsRequest, opts ...grpc.CallOption) (*ExportJobsResponse, error) {
	return invoke[ExportJobsResponse](ctx, c.cc, DocumentService_ExportJobs_FullMethodName, in, opts)
}
