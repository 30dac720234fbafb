package router

import (
	"log"
	"net/http"

	"github.com/cavestore/orderbot/internal/logger"
	"github.com/cavestore/orderbot/internal/middlewares"
	"github.com/cavestore/orderbot/internal/models"
	"github.com/go-chi/chi/v5"
)

type Config struct {
	Endpoint string
}

type Router struct {
	config         Config
	jwtService     models.JWTService
	orderService   models.OrderService
	pricingService models.PricingService
}

func New(
	config Config,
	jwtService models.JWTService,
	orderService models.OrderService,
	pricingService models.PricingService,
) *Router {
	return &Router{
		config,
		jwtService,
		orderService,
		pricingService,
	}
}

func (router *Router) get() chi.Router {
	r := chi.NewRouter()

	r.Use(
		middlewares.ServiceInjectorMiddleware(
			router.jwtService,
			router.orderService,
			router.pricingService,
		),
		logger.RequestLogger,
		middlewares.AuthMiddleware().Middleware,
	)

	r.Route("/api", func(r chi.Router) {
		r.Route("/orders", func(r chi.Router) {
			r.With(middlewares.JSONMiddleware[models.CreateOrderRequest]).Post("/", CreateOrder)
			r.With(middlewares.RequireRoles(models.RoleAdmin, models.RoleModerator)).Get("/", ListOrders)

			r.Route("/{orderID}", func(r chi.Router) {
				r.Get("/", GetOrder)
				r.With(middlewares.RequireRoles(models.RoleAdmin)).Delete("/", DeleteOrder)

				r.With(middlewares.RequireRoles(models.RoleAdmin, models.RoleModerator)).
					Post("/approve", ApproveOrder)
				r.With(
					middlewares.RequireRoles(models.RoleAdmin, models.RoleModerator, models.RoleWorker),
					middlewares.JSONMiddleware[models.AssignOrderRequest],
				).Post("/assign", AssignOrder)
				r.With(
					middlewares.RequireRoles(models.RoleAdmin, models.RoleModerator),
					middlewares.JSONMiddleware[models.ExtendOrderRequest],
				).Post("/extend", ExtendOrder)
				r.Post("/complete", CompleteOrder)
				r.Post("/cancel", CancelOrder)
				r.With(middlewares.JSONMiddleware[models.EditNoteRequest]).Patch("/note", EditNote)
			})
		})

		r.Get("/price", QuotePrice)
		r.With(middlewares.RequireRoles(models.RoleAdmin, models.RoleModerator)).Get("/stats", GetStats)
	})

	return r
}

func (router *Router) Run() {
	log.Fatal(http.ListenAndServe(router.config.Endpoint, router.get()))
}
