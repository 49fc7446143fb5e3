package clients

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	principalgrpc "github.com/BIGM16/Ecole-desExcellents/internal/grpc"
)

const serviceTokenHeader = "x-service-token"

// Principal is what a sibling service learns about an account.
type Principal struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
	CohortID  string `json:"promotion,omitempty"`
	IsActive  bool   `json:"is_active"`
}

// PrincipalClient calls the principal query service.
type PrincipalClient struct {
	conn grpc.ClientConnInterface
}

func NewPrincipalClient(conn grpc.ClientConnInterface) *PrincipalClient {
	return &PrincipalClient{conn: conn}
}

func (c *PrincipalClient) GetPrincipal(ctx context.Context, id string) (Principal, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, principalgrpc.GetPrincipalMethod, wrapperspb.String(id), out); err != nil {
		return Principal{}, err
	}
	fields := out.GetFields()
	return Principal{
		ID:        fields["id"].GetStringValue(),
		Email:     fields["email"].GetStringValue(),
		FirstName: fields["first_name"].GetStringValue(),
		LastName:  fields["last_name"].GetStringValue(),
		Role:      fields["role"].GetStringValue(),
		CohortID:  fields["promotion"].GetStringValue(),
		IsActive:  fields["is_active"].GetBoolValue(),
	}, nil
}

func (c *PrincipalClient) Exists(ctx context.Context, id string) (bool, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.conn.Invoke(ctx, principalgrpc.ExistsMethod, wrapperspb.String(id), out); err != nil {
		return false, err
	}
	return out.GetValue(), nil
}

type Clients struct {
	PrincipalConn *grpc.ClientConn
	Principals    *PrincipalClient
}

func New(ctx context.Context, principalAddr, serviceToken string, timeout time.Duration) (*Clients, error) {
	if serviceToken == "" {
		return nil, errors.New("service auth token required")
	}
	conn, err := dial(ctx, principalAddr, serviceToken, timeout)
	if err != nil {
		return nil, err
	}
	return &Clients{
		PrincipalConn: conn,
		Principals:    NewPrincipalClient(conn),
	}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.PrincipalConn != nil {
		_ = c.PrincipalConn.Close()
	}
}

func dial(ctx context.Context, addr, serviceToken string, timeout time.Duration, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(serviceAuthUnaryClientInterceptor(serviceToken)),
	}, opts...)
	return grpc.DialContext(ctx, addr, opts...)
}

func serviceAuthUnaryClientInterceptor(serviceToken string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx = metadata.AppendToOutgoingContext(ctx, serviceTokenHeader, serviceToken)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}
