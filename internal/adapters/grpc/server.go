package grpc

import (
	"context"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/swoet/decentralised-freelance-marketplace-sub002/internal/application"
)

// EscrowInternalService is the service-to-service surface: token validation
// for sibling services and a lightweight escrow status lookup used by the
// payments pipeline.
type EscrowInternalService interface {
	ValidateToken(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetEscrowStatus(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type EscrowInternalServer struct {
	service *application.Service
}

func NewEscrowInternalServer(service *application.Service) *EscrowInternalServer {
	return &EscrowInternalServer{service: service}
}

func Register(server grpc.ServiceRegistrar, svc EscrowInternalService) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: "marketplace.escrow.v1.EscrowInternalService",
		HandlerType: (*EscrowInternalService)(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: "ValidateToken",
				Handler:    structHandler(svc, "ValidateToken", EscrowInternalService.ValidateToken),
			},
			{
				MethodName: "GetEscrowStatus",
				Handler:    structHandler(svc, "GetEscrowStatus", EscrowInternalService.GetEscrowStatus),
			},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "contracts/proto/escrow/v1/escrow_internal.proto",
	}, svc)
}

func (s *EscrowInternalServer) ValidateToken(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	token := req.GetFields()["token"].GetStringValue()
	if token == "" {
		return nil, status.Error(codes.InvalidArgument, "missing token")
	}

	user, claims, err := s.service.Verify(ctx, token)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "invalid token")
	}

	resp, err := structpb.NewStruct(map[string]any{
		"valid":      true,
		"user_id":    user.UserID.String(),
		"email":      user.Email,
		"role":       user.Role,
		"surface":    claims.Surface,
		"expires_at": claims.ExpiresAt.Unix(),
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "build response: %v", err)
	}
	return resp, nil
}

func (s *EscrowInternalServer) GetEscrowStatus(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	raw := req.GetFields()["escrow_id"].GetStringValue()
	escrowID, err := uuid.Parse(raw)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "malformed escrow_id")
	}

	detail, err := s.service.GetEscrowInternal(ctx, escrowID)
	if err != nil {
		return nil, status.Error(codes.NotFound, "escrow not found")
	}

	resp, err := structpb.NewStruct(map[string]any{
		"escrow_id":           detail.Escrow.EscrowID.String(),
		"status":              detail.Escrow.Status,
		"total_amount":        detail.Escrow.TotalAmount,
		"released_amount":     detail.Escrow.ReleasedAmount,
		"remaining_amount":    detail.Escrow.RemainingAmount(),
		"progress_percentage": detail.ProgressPercentage,
		"milestone_count":     len(detail.Milestones),
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "build response: %v", err)
	}
	return resp, nil
}

func structHandler(svc EscrowInternalService, method string, call func(EscrowInternalService, context.Context, *structpb.Struct) (*structpb.Struct, error)) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	fullMethod := "/marketplace.escrow.v1.EscrowInternalService/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		req := &structpb.Struct{}
		if err := dec(req); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(svc, ctx, req)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			typed, ok := req.(*structpb.Struct)
			if !ok {
				return nil, status.Error(codes.InvalidArgument, "invalid request type")
			}
			return call(svc, ctx, typed)
		}
		return interceptor(ctx, req, info, handler)
	}
}
