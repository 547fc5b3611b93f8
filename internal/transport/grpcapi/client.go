package grpcapi

import (
	"context"
	"fmt"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/jcmexdev/pos-reconciler/internal/pkg/interceptors"
)

// Client calls the reconciler service over the JSON codec.
type Client struct {
	conn grpc.ClientConnInterface
}

// Dial connects to addr with tracing and request id propagation.
func Dial(addr string, opts ...grpc.DialOption) (*Client, *grpc.ClientConn, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
		grpc.WithUnaryInterceptor(interceptors.UnaryClientInterceptor()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName)),
	}, opts...)

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("grpcapi: dial %s: %w", addr, err)
	}
	return NewClient(conn), conn, nil
}

// NewClient wraps an existing connection. Calls request the JSON codec
// themselves, so conn needs no default call options.
func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

func invoke[Resp any](ctx context.Context, c *Client, method string, req any) (*Resp, error) {
	out := new(Resp)
	if err := c.conn.Invoke(ctx, fullMethod(method), req, out, grpc.CallContentSubtype(CodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*OrderResponse, error) {
	return invoke[OrderResponse](ctx, c, "CreateOrder", req)
}

func (c *Client) GetOrder(ctx context.Context, req *GetOrderRequest) (*OrderResponse, error) {
	return invoke[OrderResponse](ctx, c, "GetOrder", req)
}

func (c *Client) SetOrderItems(ctx context.Context, req *SetOrderItemsRequest) (*OrderResponse, error) {
	return invoke[OrderResponse](ctx, c, "SetOrderItems", req)
}

func (c *Client) SaveOrder(ctx context.Context, req *OrderActionRequest) (*OrderActionResponse, error) {
	return invoke[OrderActionResponse](ctx, c, "SaveOrder", req)
}

func (c *Client) CancelOrder(ctx context.Context, req *OrderActionRequest) (*OrderActionResponse, error) {
	return invoke[OrderActionResponse](ctx, c, "CancelOrder", req)
}

func (c *Client) CompleteOrder(ctx context.Context, req *OrderActionRequest) (*OrderActionResponse, error) {
	return invoke[OrderActionResponse](ctx, c, "CompleteOrder", req)
}

func (c *Client) PutRecipe(ctx context.Context, req *PutRecipeRequest) (*RecipeResponse, error) {
	return invoke[RecipeResponse](ctx, c, "PutRecipe", req)
}

func (c *Client) GetRecipe(ctx context.Context, req *GetRecipeRequest) (*RecipeResponse, error) {
	return invoke[RecipeResponse](ctx, c, "GetRecipe", req)
}

func (c *Client) UpsertInventoryItem(ctx context.Context, req *UpsertInventoryItemRequest) (*InventoryItemResponse, error) {
	return invoke[InventoryItemResponse](ctx, c, "UpsertInventoryItem", req)
}

func (c *Client) ListInventory(ctx context.Context, req *ListInventoryRequest) (*ListInventoryResponse, error) {
	return invoke[ListInventoryResponse](ctx, c, "ListInventory", req)
}

func (c *Client) GetReconciliationLog(ctx context.Context, req *GetReconciliationLogRequest) (*ReconciliationLogResponse, error) {
	return invoke[ReconciliationLogResponse](ctx, c, "GetReconciliationLog", req)
}
