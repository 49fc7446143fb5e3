package grpc

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/BIGM16/Ecole-desExcellents/internal/gateway"
)

type PrincipalServer struct {
	store gateway.PrincipalStore
}

var _ PrincipalQueryServer = (*PrincipalServer)(nil)

func NewPrincipalServer(store gateway.PrincipalStore) *PrincipalServer {
	return &PrincipalServer{store: store}
}

// GetPrincipal returns the account without its credentials.
func (s *PrincipalServer) GetPrincipal(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	id, err := principalID(req)
	if err != nil {
		return nil, err
	}
	p, err := s.store.GetPrincipal(ctx, id)
	if errors.Is(err, gateway.ErrNotFound) {
		return nil, status.Error(codes.NotFound, "principal not found")
	}
	if err != nil {
		return nil, status.Error(codes.Internal, "lookup failed")
	}

	var cohort interface{}
	if p.CohortID != "" {
		cohort = p.CohortID
	}
	out, err := structpb.NewStruct(map[string]interface{}{
		"id":         p.ID,
		"email":      p.Email,
		"first_name": p.FirstName,
		"last_name":  p.LastName,
		"role":       string(p.Role),
		"promotion":  cohort,
		"is_active":  p.IsActive,
	})
	if err != nil {
		return nil, status.Error(codes.Internal, "encode failed")
	}
	return out, nil
}

func (s *PrincipalServer) Exists(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	id, err := principalID(req)
	if err != nil {
		return nil, err
	}
	_, err = s.store.GetPrincipal(ctx, id)
	switch {
	case err == nil:
		return wrapperspb.Bool(true), nil
	case errors.Is(err, gateway.ErrNotFound):
		return wrapperspb.Bool(false), nil
	default:
		return nil, status.Error(codes.Internal, "lookup failed")
	}
}

func principalID(req *wrapperspb.StringValue) (string, error) {
	id := strings.TrimSpace(req.GetValue())
	if id == "" {
		return "", status.Error(codes.InvalidArgument, "principal id required")
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", status.Error(codes.InvalidArgument, "invalid principal id")
	}
	return id, nil
}
