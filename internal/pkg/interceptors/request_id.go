package interceptors

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/jcmexdev/pos-reconciler/internal/pkg/interceptors/constants"
)

// UnaryServerInterceptor copies the request id and idempotency key from the
// incoming metadata into the context. They end up on queued order events.
func UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		md, _ := metadata.FromIncomingContext(ctx)
		ctx = WithRequestID(ctx, firstValue(md, constants.HeaderXRequestId))
		ctx = WithIdempotencyKey(ctx, firstValue(md, constants.HeaderXIdempotencyKey))
		return handler(ctx, req)
	}
}

// UnaryClientInterceptor forwards the ids held in the context as outgoing
// metadata.
func UnaryClientInterceptor() grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		return invoker(ContextWithPropagatedID(ctx), method, req, reply, cc, opts...)
	}
}

func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, constants.ContextKeyRequestID, id)
}

func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	if key == "" {
		return ctx
	}
	return context.WithValue(ctx, constants.ContextKeyIdempotencyKey, key)
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(constants.ContextKeyRequestID).(string)
	return id
}

func IdempotencyKeyFromContext(ctx context.Context) string {
	key, _ := ctx.Value(constants.ContextKeyIdempotencyKey).(string)
	return key
}

// ContextWithPropagatedID appends the context's ids to the outgoing metadata.
func ContextWithPropagatedID(ctx context.Context) context.Context {
	var kv []string
	if id := RequestIDFromContext(ctx); id != "" {
		kv = append(kv, constants.HeaderXRequestId, id)
	}
	if key := IdempotencyKeyFromContext(ctx); key != "" {
		kv = append(kv, constants.HeaderXIdempotencyKey, key)
	}
	if len(kv) == 0 {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, kv...)
}

func firstValue(md metadata.MD, key string) string {
	if vals := md.Get(key); len(vals) > 0 {
		return vals[0]
	}
	return ""
}
