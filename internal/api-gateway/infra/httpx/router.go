package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jcmexdev/pos-reconciler/internal/api-gateway/infra/httpx/middlewares"
)

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middlewares.AttachTracingMetadata)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", handler.CreateOrder)
		r.Get("/{id}", handler.GetOrderByID)
		r.Put("/{id}/items", handler.SetItems)
		r.Post("/{id}/save", handler.SaveOrder)
		r.Post("/{id}/cancel", handler.CancelOrder)
		r.Post("/{id}/complete", handler.CompleteOrder)
		r.Get("/{id}/reconciliations", handler.ReconciliationHistory)
		r.Get("/{id}/reconciliations/latest", handler.LatestReconciliation)
	})
	r.Put("/menu/{id}/recipe", handler.PutRecipe)
	r.Get("/menu/{id}/recipe", handler.GetRecipe)
	r.Get("/inventory", handler.ListInventory)
	r.Put("/inventory/{name}", handler.UpsertInventoryItem)
	return r
}
