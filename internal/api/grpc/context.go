package grpc

import (
	"context"
	"strconv"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"toolshed-backend/internal/domain"
)

// Metadata keys set by the auth interceptor after validating the token.
const (
	UserIDKey   = "user-id"
	UserRoleKey = "user-role"
)

// GetActorFromContext reads the caller injected by the auth interceptor.
func GetActorFromContext(ctx context.Context) (domain.Actor, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return domain.Actor{}, status.Errorf(codes.Unauthenticated, "metadata is not provided")
	}

	userIDs := md.Get(UserIDKey)
	if len(userIDs) == 0 {
		return domain.Actor{}, status.Errorf(codes.Unauthenticated, "user_id is not provided in metadata")
	}
	userID, err := strconv.ParseInt(userIDs[0], 10, 32)
	if err != nil {
		return domain.Actor{}, status.Errorf(codes.InvalidArgument, "invalid user_id format: %v", err)
	}

	role := domain.UserRoleMember
	if roles := md.Get(UserRoleKey); len(roles) > 0 && domain.UserRole(roles[0]) == domain.UserRoleAdmin {
		role = domain.UserRoleAdmin
	}
	return domain.Actor{UserID: int32(userID), Role: role}, nil
}
