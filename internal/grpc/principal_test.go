package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/BIGM16/Ecole-desExcellents/internal/model"
	"github.com/BIGM16/Ecole-desExcellents/internal/repository/memstore"
)

const testServiceToken = "service-secret"

func startServer(t *testing.T) (*grpc.ClientConn, model.Principal) {
	t.Helper()
	store := memstore.New()
	principal := model.Principal{
		ID:         uuid.NewString(),
		Email:      "sup@ecole.test",
		FirstName:  "Sam",
		LastName:   "Supervisor",
		Role:       model.RoleSupervisor,
		IsActive:   true,
		DateJoined: time.Now().UTC(),
	}
	if err := store.CreatePrincipal(context.Background(), principal); err != nil {
		t.Fatalf("seed principal: %v", err)
	}

	server, err := NewServer(NewPrincipalServer(store), testServiceToken)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	listener := bufconn.Listen(1 << 20)
	go func() {
		_ = server.Serve(listener)
	}()
	t.Cleanup(server.Stop)

	conn, err := grpc.DialContext(context.Background(), "bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn, principal
}

func withToken(token string) context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), serviceTokenHeader, token)
}

func TestNewServerRequiresToken(t *testing.T) {
	if _, err := NewServer(NewPrincipalServer(memstore.New()), ""); err == nil {
		t.Fatalf("expected error without service token")
	}
}

func TestGetPrincipal(t *testing.T) {
	conn, principal := startServer(t)

	out := new(structpb.Struct)
	if err := conn.Invoke(withToken(testServiceToken), GetPrincipalMethod, wrapperspb.String(principal.ID), out); err != nil {
		t.Fatalf("get principal: %v", err)
	}
	fields := out.GetFields()
	if got := fields["email"].GetStringValue(); got != principal.Email {
		t.Fatalf("expected email %s, got %s", principal.Email, got)
	}
	if got := fields["role"].GetStringValue(); got != "ENCADREUR" {
		t.Fatalf("expected role ENCADREUR, got %s", got)
	}
	if _, ok := fields["promotion"].GetKind().(*structpb.Value_NullValue); !ok {
		t.Fatalf("expected null promotion, got %v", fields["promotion"])
	}
	if _, ok := fields["password_hash"]; ok {
		t.Fatalf("password hash must not be exposed")
	}

	err := conn.Invoke(withToken(testServiceToken), GetPrincipalMethod, wrapperspb.String(uuid.NewString()), new(structpb.Struct))
	if status.Code(err) != codes.NotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}

	err = conn.Invoke(withToken(testServiceToken), GetPrincipalMethod, wrapperspb.String("nope"), new(structpb.Struct))
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

func TestExists(t *testing.T) {
	conn, principal := startServer(t)

	out := new(wrapperspb.BoolValue)
	if err := conn.Invoke(withToken(testServiceToken), ExistsMethod, wrapperspb.String(principal.ID), out); err != nil {
		t.Fatalf("exists: %v", err)
	}
	if !out.GetValue() {
		t.Fatalf("expected principal to exist")
	}

	out = new(wrapperspb.BoolValue)
	if err := conn.Invoke(withToken(testServiceToken), ExistsMethod, wrapperspb.String(uuid.NewString()), out); err != nil {
		t.Fatalf("exists: %v", err)
	}
	if out.GetValue() {
		t.Fatalf("expected unknown principal to be absent")
	}
}

func TestServiceTokenRequired(t *testing.T) {
	conn, principal := startServer(t)

	err := conn.Invoke(context.Background(), ExistsMethod, wrapperspb.String(principal.ID), new(wrapperspb.BoolValue))
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", err)
	}

	err = conn.Invoke(withToken("   "), ExistsMethod, wrapperspb.String(principal.ID), new(wrapperspb.BoolValue))
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated for a blank token, got %v", err)
	}

	err = conn.Invoke(withToken("wrong"), ExistsMethod, wrapperspb.String(principal.ID), new(wrapperspb.BoolValue))
	if status.Code(err) != codes.PermissionDenied {
		t.Fatalf("expected PermissionDenied, got %v", err)
	}
}
