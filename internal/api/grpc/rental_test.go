package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"toolshed-backend/internal/api/grpc/interceptor"
	"toolshed-backend/internal/domain"
	"toolshed-backend/internal/notification"
	"toolshed-backend/internal/repository/memory"
	"toolshed-backend/internal/security"
	"toolshed-backend/internal/service"
)

type rpcFixture struct {
	conn   *grpc.ClientConn
	store  *memory.Store
	tm     security.TokenManager
	tool   *domain.Tool
	member *domain.Member
}

func newRPCFixture(t *testing.T) *rpcFixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	tool := &domain.Tool{Name: "Table saw", Status: domain.ToolStatusAvailable, WeeklyRate: decimal.RequireFromString("15"), MaintenanceImportance: domain.MaintenanceImportanceLow}
	require.NoError(t, store.Tools().Create(ctx, tool))
	member := &domain.Member{Name: "Ada", Email: "ada@example.com", MembershipExpiresOn: time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, store.Members().Create(ctx, member))

	today := time.Date(2024, time.February, 20, 0, 0, 0, 0, time.UTC)
	rentals := service.NewRentalService(store, notification.LogNotifier{}, service.WithClock(func() time.Time { return today }))
	tm := security.NewTokenManager("0123456789abcdef0123456789abcdef")

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.UnaryInterceptor(interceptor.NewAuthInterceptor(tm).Unary()))
	RegisterRentalServiceServer(srv, NewRentalHandler(rentals))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return &rpcFixture{conn: conn, store: store, tm: tm, tool: tool, member: member}
}

func (f *rpcFixture) call(t *testing.T, actor *domain.Actor, method string, fields map[string]any) (*structpb.Struct, error) {
	t.Helper()
	ctx := context.Background()
	if actor != nil {
		token, err := f.tm.GenerateToken(*actor, time.Hour)
		require.NoError(t, err)
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)
	}
	req, err := structpb.NewStruct(fields)
	require.NoError(t, err)
	out := new(structpb.Struct)
	err = f.conn.Invoke(ctx, "/"+RentalServiceName+"/"+method, req, out)
	return out, err
}

func TestRentalService_RPC(t *testing.T) {
	f := newRPCFixture(t)
	admin := &domain.Actor{UserID: 100, Role: domain.UserRoleAdmin}
	member := &domain.Actor{UserID: f.member.ID, Role: domain.UserRoleMember}

	_, err := f.call(t, nil, "CreateRental", map[string]any{"tool_id": f.tool.ID})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	out, err := f.call(t, member, "CreateRental", map[string]any{
		"tool_id": f.tool.ID, "start_date": "2024-03-01", "end_date": "2024-03-08",
	})
	require.NoError(t, err)
	assert.Equal(t, "PENDING", out.Fields["status"].GetStringValue())
	assert.Equal(t, "15.00", out.Fields["total_price"].GetStringValue())
	rentalID := int32(out.Fields["id"].GetNumberValue())

	_, err = f.call(t, member, "CreateRental", map[string]any{
		"tool_id": f.tool.ID, "start_date": "2024-03-01", "end_date": "2024-03-15",
	})
	assert.Equal(t, codes.AlreadyExists, status.Code(err))

	_, err = f.call(t, member, "CreateRental", map[string]any{
		"tool_id": f.tool.ID, "start_date": "2024-03-02", "end_date": "2024-03-15",
	})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = f.call(t, member, "ApproveRental", map[string]any{"rental_id": rentalID})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
	assert.Equal(t, "forbidden", ErrorReason(err))

	out, err = f.call(t, admin, "ApproveRental", map[string]any{"rental_id": rentalID})
	require.NoError(t, err)
	assert.Equal(t, "ACTIVE", out.Fields["status"].GetStringValue())

	_, err = f.call(t, admin, "RejectRental", map[string]any{"rental_id": rentalID, "comment": "too late"})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
	assert.Equal(t, "invalid_state", ErrorReason(err))

	out, err = f.call(t, member, "ReturnRental", map[string]any{"rental_id": rentalID, "actual_return_date": "2024-03-07"})
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", out.Fields["status"].GetStringValue())
	assert.Equal(t, "2024-03-07", out.Fields["actual_return_date"].GetStringValue())

	out, err = f.call(t, member, "GetRental", map[string]any{"rental_id": rentalID})
	require.NoError(t, err)
	assert.Equal(t, float64(f.member.ID), out.Fields["member_id"].GetNumberValue())

	out, err = f.call(t, admin, "DeleteRental", map[string]any{"rental_id": rentalID})
	require.NoError(t, err)
	assert.True(t, out.Fields["deleted"].GetBoolValue())

	_, err = f.call(t, admin, "GetRental", map[string]any{"rental_id": rentalID})
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = f.call(t, admin, "GetRental", map[string]any{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestRentalService_FailedPreconditionReasons(t *testing.T) {
	f := newRPCFixture(t)
	admin := &domain.Actor{UserID: 100, Role: domain.UserRoleAdmin}

	expired := &domain.Member{Name: "Bo", Email: "bo@example.com", MembershipExpiresOn: time.Date(2023, time.December, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, f.store.Members().Create(context.Background(), expired))
	_, err := f.call(t, admin, "CreateRental", map[string]any{
		"tool_id": f.tool.ID, "member_id": expired.ID, "start_date": "2024-03-01", "end_date": "2024-03-08",
	})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
	assert.Equal(t, "membership_expired", ErrorReason(err))

	require.NoError(t, f.store.Tools().UpdateStatus(context.Background(), f.tool.ID, domain.ToolStatusMaintenance))
	_, err = f.call(t, admin, "CreateRental", map[string]any{
		"tool_id": f.tool.ID, "member_id": f.member.ID, "start_date": "2024-03-01", "end_date": "2024-03-08",
	})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
	assert.Equal(t, "blocked", ErrorReason(err))
}

func TestGetActorFromContext(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(UserIDKey, "7", UserRoleKey, "ADMIN"))
	actor, err := GetActorFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Actor{UserID: 7, Role: domain.UserRoleAdmin}, actor)

	ctx = metadata.NewIncomingContext(context.Background(), metadata.Pairs(UserIDKey, "7"))
	actor, err = GetActorFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.UserRoleMember, actor.Role)

	_, err = GetActorFromContext(context.Background())
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}
