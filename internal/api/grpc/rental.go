package grpc

import (
	"context"
	"errors"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"toolshed-backend/internal/domain"
	"toolshed-backend/internal/logger"
	"toolshed-backend/internal/service"
)

const (
	RentalServiceName = "toolshed.v1.RentalService"
	// ErrorDomain tags the ErrorInfo detail attached to failed calls.
	ErrorDomain = "toolshed"
)

// RentalServiceServer is the server API for toolshed.v1.RentalService.
// Requests and responses are google.protobuf.Struct payloads.
type RentalServiceServer interface {
	CreateRental(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ApproveRental(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RejectRental(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ReturnRental(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteRental(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetRental(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type RentalHandler struct {
	rentalSvc service.RentalService
}

func NewRentalHandler(rentalSvc service.RentalService) *RentalHandler {
	return &RentalHandler{rentalSvc: rentalSvc}
}

func (h *RentalHandler) CreateRental(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := GetActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	in := service.CreateRentalInput{}
	if in.ToolID, err = int32Field(req, "tool_id", true); err != nil {
		return nil, toStatus(err)
	}
	if in.MemberID, err = int32Field(req, "member_id", false); err != nil {
		return nil, toStatus(err)
	}
	if in.MemberID == 0 && !actor.IsAdmin() {
		in.MemberID = actor.UserID
	}
	start, err := dateField(req, "start_date", true)
	if err != nil {
		return nil, toStatus(err)
	}
	end, err := dateField(req, "end_date", true)
	if err != nil {
		return nil, toStatus(err)
	}
	in.StartDate, in.EndDate = *start, *end
	if in.PriceOverride, err = decimalField(req, "price_override"); err != nil {
		return nil, toStatus(err)
	}

	rental, err := h.rentalSvc.CreateRental(ctx, actor, in)
	return respond(rental, err)
}

func (h *RentalHandler) ApproveRental(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, id, err := h.target(ctx, req)
	if err != nil {
		return nil, err
	}
	return respond(h.rentalSvc.ApproveRental(ctx, actor, id))
}

func (h *RentalHandler) RejectRental(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, id, err := h.target(ctx, req)
	if err != nil {
		return nil, err
	}
	comment, err := stringField(req, "comment")
	if err != nil {
		return nil, toStatus(err)
	}
	return respond(h.rentalSvc.RejectRental(ctx, actor, id, comment))
}

func (h *RentalHandler) ReturnRental(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, id, err := h.target(ctx, req)
	if err != nil {
		return nil, err
	}
	returned, err := dateField(req, "actual_return_date", false)
	if err != nil {
		return nil, toStatus(err)
	}
	comment, err := stringField(req, "comment")
	if err != nil {
		return nil, toStatus(err)
	}
	return respond(h.rentalSvc.ReturnRental(ctx, actor, id, returned, comment))
}

func (h *RentalHandler) DeleteRental(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, id, err := h.target(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := h.rentalSvc.DeleteRental(ctx, actor, id); err != nil {
		return nil, toStatus(err)
	}
	return structpb.NewStruct(map[string]any{"deleted": true, "id": id})
}

func (h *RentalHandler) GetRental(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, id, err := h.target(ctx, req)
	if err != nil {
		return nil, err
	}
	return respond(h.rentalSvc.GetRental(ctx, actor, id))
}

func (h *RentalHandler) target(ctx context.Context, req *structpb.Struct) (domain.Actor, int32, error) {
	actor, err := GetActorFromContext(ctx)
	if err != nil {
		return domain.Actor{}, 0, err
	}
	id, err := int32Field(req, "rental_id", true)
	if err != nil {
		return domain.Actor{}, 0, toStatus(err)
	}
	return actor, id, nil
}

func respond(rental *domain.Rental, err error) (*structpb.Struct, error) {
	if err != nil {
		return nil, toStatus(err)
	}
	out, err := MapDomainRentalToStruct(rental)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode rental: %v", err)
	}
	return out, nil
}

// toStatus maps an error kind to a gRPC status.
func toStatus(err error) error {
	var code codes.Code
	switch {
	case errors.Is(err, domain.ErrValidation):
		code = codes.InvalidArgument
	case errors.Is(err, domain.ErrNotFound):
		code = codes.NotFound
	case errors.Is(err, domain.ErrConflict):
		code = codes.AlreadyExists
	case errors.Is(err, domain.ErrInvalidState), errors.Is(err, domain.ErrBlocked), errors.Is(err, domain.ErrMembershipExpired):
		code = codes.FailedPrecondition
	case errors.Is(err, domain.ErrForbidden):
		code = codes.PermissionDenied
	default:
		logger.Error("rental rpc failed", "error", err)
		return status.Error(codes.Internal, "internal error")
	}
	// FailedPrecondition covers several kinds; the reason tells them apart.
	st, detailErr := status.New(code, err.Error()).WithDetails(&errdetails.ErrorInfo{
		Reason: domain.ErrorCode(err),
		Domain: ErrorDomain,
	})
	if detailErr != nil {
		return status.Error(code, err.Error())
	}
	return st.Err()
}

// ErrorReason returns the error kind carried by a status returned from this
// service, or "" when there is none.
func ErrorReason(err error) string {
	st, ok := status.FromError(err)
	if !ok {
		return ""
	}
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok && info.GetDomain() == ErrorDomain {
			return info.GetReason()
		}
	}
	return ""
}

func RegisterRentalServiceServer(s grpc.ServiceRegistrar, srv RentalServiceServer) {
	s.RegisterService(&RentalService_ServiceDesc, srv)
}

func unaryHandler(method string, call func(RentalServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(RentalServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + RentalServiceName + "/" + method,
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(RentalServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var RentalService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: RentalServiceName,
	HandlerType: (*RentalServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("CreateRental", RentalServiceServer.CreateRental),
		unaryHandler("ApproveRental", RentalServiceServer.ApproveRental),
		unaryHandler("RejectRental", RentalServiceServer.RejectRental),
		unaryHandler("ReturnRental", RentalServiceServer.ReturnRental),
		unaryHandler("DeleteRental", RentalServiceServer.DeleteRental),
		unaryHandler("GetRental", RentalServiceServer.GetRental),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "toolshed/v1/rental.proto",
}
