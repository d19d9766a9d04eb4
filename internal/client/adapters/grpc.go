package adapters

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/devcms/internal/client/client"
	"github.com/dmitrijs2005/devcms/internal/client/models"
	"github.com/dmitrijs2005/devcms/internal/client/syncengine"
	"github.com/dmitrijs2005/devcms/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Full method names of the sync service. Messages are google.protobuf.Struct
// so no generated stubs are needed on either side.
const (
	SyncServiceName    = "devcms.sync.v1.SyncService"
	SendBatchMethod    = "/" + SyncServiceName + "/SendBatch"
	AuthenticateMethod = "/" + SyncServiceName + "/Authenticate"
)

// GRPCAdapter sends batches over a unary gRPC call.
type GRPCAdapter struct {
	conn  grpc.ClientConnInterface
	close func() error
	token TokenSource
}

// DialGRPC connects to addr without TLS. Extra dial options are appended,
// e.g. a bufconn dialer in tests.
func DialGRPC(addr string, token TokenSource, opts ...grpc.DialOption) (*GRPCAdapter, error) {
	a := &GRPCAdapter{token: token}
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(a.accessTokenInterceptor),
	}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, err
	}
	a.conn, a.close = conn, conn.Close
	return a, nil
}

func (a *GRPCAdapter) Close() error {
	if a.close == nil {
		return nil
	}
	return a.close()
}

func (a *GRPCAdapter) Name() string { return "gRPC" }

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	return metadata.NewOutgoingContext(ctx, md)
}

func (a *GRPCAdapter) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if a.token != nil {
		if t := a.token(); t != "" {
			ctx = withAccessToken(ctx, t)
		}
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

// Authenticate asks the remote whether the current credentials may sync.
// Servers that do not implement the check are assumed to accept.
func (a *GRPCAdapter) Authenticate(ctx context.Context) (bool, error) {
	resp := &structpb.Struct{}
	err := a.conn.Invoke(ctx, AuthenticateMethod, &structpb.Struct{}, resp)
	if status.Code(err) == codes.Unimplemented {
		return true, nil
	}
	if status.Code(err) == codes.Unauthenticated || status.Code(err) == codes.PermissionDenied {
		return false, nil
	}
	if err != nil {
		return false, mapError(err)
	}
	return resp.GetFields()["ok"].GetBoolValue(), nil
}

func (a *GRPCAdapter) SendBatch(ctx context.Context, events []models.Event) (syncengine.BatchResult, error) {
	list := make([]any, 0, len(events))
	for _, e := range events {
		m, err := toJSONMap(e)
		if err != nil {
			return syncengine.BatchResult{}, fmt.Errorf("encode event %s: %w", e.EventID, err)
		}
		list = append(list, m)
	}
	req, err := structpb.NewStruct(map[string]any{"events": list})
	if err != nil {
		return syncengine.BatchResult{}, fmt.Errorf("encode batch: %w", err)
	}

	resp := &structpb.Struct{}
	if err := a.conn.Invoke(ctx, SendBatchMethod, req, resp); err != nil {
		return syncengine.BatchResult{}, mapError(err)
	}

	fields := resp.GetFields()
	success, okS := fields["success"]
	failed, okF := fields["failed"]
	if !okS && !okF {
		return syncengine.BatchResult{}, fmt.Errorf("%w: no success or failed list", syncengine.ErrInvalidBatchResult)
	}
	return syncengine.BatchResult{Success: stringList(success), Failed: stringList(failed)}, nil
}

func stringList(v *structpb.Value) []string {
	var out []string
	for _, item := range v.GetListValue().GetValues() {
		if s, ok := item.GetKind().(*structpb.Value_StringValue); ok {
			out = append(out, s.StringValue)
		}
	}
	return out
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %s", client.ErrUnauthorized, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
		return fmt.Errorf("%w: %s", client.ErrUnavailable, st.Message())
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
