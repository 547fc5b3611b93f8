package interceptors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/jcmexdev/pos-reconciler/internal/pkg/interceptors/constants"
)

func TestUnaryServerInterceptor_CopiesMetadata(t *testing.T) {
	md := metadata.Pairs(constants.HeaderXRequestId, "req-1", constants.HeaderXIdempotencyKey, "idem-1")
	ctx := metadata.NewIncomingContext(context.Background(), md)

	var gotID, gotKey string
	_, err := UnaryServerInterceptor()(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/svc/M"},
		func(ctx context.Context, _ interface{}) (interface{}, error) {
			gotID = RequestIDFromContext(ctx)
			gotKey = IdempotencyKeyFromContext(ctx)
			return nil, nil
		})

	require.NoError(t, err)
	assert.Equal(t, "req-1", gotID)
	assert.Equal(t, "idem-1", gotKey)
}

func TestUnaryServerInterceptor_NoMetadata(t *testing.T) {
	var gotID string
	_, err := UnaryServerInterceptor()(context.Background(), nil, &grpc.UnaryServerInfo{},
		func(ctx context.Context, _ interface{}) (interface{}, error) {
			gotID = RequestIDFromContext(ctx)
			return nil, nil
		})

	require.NoError(t, err)
	assert.Empty(t, gotID)
}

func TestContextWithPropagatedID(t *testing.T) {
	ctx := WithIdempotencyKey(WithRequestID(context.Background(), "req-2"), "idem-2")

	md, ok := metadata.FromOutgoingContext(ContextWithPropagatedID(ctx))

	require.True(t, ok)
	assert.Equal(t, []string{"req-2"}, md.Get(constants.HeaderXRequestId))
	assert.Equal(t, []string{"idem-2"}, md.Get(constants.HeaderXIdempotencyKey))
}

func TestContextWithPropagatedID_Empty(t *testing.T) {
	ctx := context.Background()

	_, ok := metadata.FromOutgoingContext(ContextWithPropagatedID(ctx))

	assert.False(t, ok)
}
