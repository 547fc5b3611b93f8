package grpcapi

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "reconciler.v1.Reconciler"

// ReconcilerServer is the server API for the reconciler.v1.Reconciler service.
type ReconcilerServer interface {
	CreateOrder(context.Context, *CreateOrderRequest) (*OrderResponse, error)
	GetOrder(context.Context, *GetOrderRequest) (*OrderResponse, error)
	SetOrderItems(context.Context, *SetOrderItemsRequest) (*OrderResponse, error)
	SaveOrder(context.Context, *OrderActionRequest) (*OrderActionResponse, error)
	CancelOrder(context.Context, *OrderActionRequest) (*OrderActionResponse, error)
	CompleteOrder(context.Context, *OrderActionRequest) (*OrderActionResponse, error)
	PutRecipe(context.Context, *PutRecipeRequest) (*RecipeResponse, error)
	GetRecipe(context.Context, *GetRecipeRequest) (*RecipeResponse, error)
	UpsertInventoryItem(context.Context, *UpsertInventoryItemRequest) (*InventoryItemResponse, error)
	ListInventory(context.Context, *ListInventoryRequest) (*ListInventoryResponse, error)
	GetReconciliationLog(context.Context, *GetReconciliationLogRequest) (*ReconciliationLogResponse, error)
}

// ServiceDesc describes the service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ReconcilerServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("CreateOrder", ReconcilerServer.CreateOrder),
		unary("GetOrder", ReconcilerServer.GetOrder),
		unary("SetOrderItems", ReconcilerServer.SetOrderItems),
		unary("SaveOrder", ReconcilerServer.SaveOrder),
		unary("CancelOrder", ReconcilerServer.CancelOrder),
		unary("CompleteOrder", ReconcilerServer.CompleteOrder),
		unary("PutRecipe", ReconcilerServer.PutRecipe),
		unary("GetRecipe", ReconcilerServer.GetRecipe),
		unary("UpsertInventoryItem", ReconcilerServer.UpsertInventoryItem),
		unary("ListInventory", ReconcilerServer.ListInventory),
		unary("GetReconciliationLog", ReconcilerServer.GetReconciliationLog),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "reconciler/v1/reconciler",
}

func RegisterReconcilerServer(s grpc.ServiceRegistrar, srv ReconcilerServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func fullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

func unary[Req, Resp any](method string, call func(ReconcilerServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(ReconcilerServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(method)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(*Req))
			})
		},
	}
}
