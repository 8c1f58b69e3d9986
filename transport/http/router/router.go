package router

import (
	"serenity/internal/handlers/auth"
	"serenity/internal/handlers/booking"
	"serenity/internal/handlers/catalog"
	"serenity/shared/constant"
	"serenity/transport/http/middleware"

	"github.com/go-chi/chi/v5"
)

type DomainHandlers struct {
	Auth    auth.Handler
	Catalog catalog.Handler
	Booking booking.Handler
}

type Router struct {
	DomainHandlers DomainHandlers
	AppMiddleware  middleware.AppMiddleware
	AuthMiddleware middleware.Auth
}

func (r *Router) SetupRoutes(router chi.Router) {
	router.Use(r.AppMiddleware.Tracing)
	router.Use(r.AppMiddleware.RateLimit())

	router.Route("/v1", func(routerGroup chi.Router) {
		// Public surface: login, catalog browsing and slot lookup.
		r.DomainHandlers.Auth.Router(routerGroup)
		r.DomainHandlers.Catalog.Router(routerGroup)
		r.DomainHandlers.Booking.AvailabilityRouter(routerGroup)

		// Staff surface: any authenticated back-office account.
		routerGroup.Group(func(protected chi.Router) {
			protected.Use(r.AuthMiddleware.Auth)

			r.DomainHandlers.Auth.ProtectedRouter(protected)
			r.DomainHandlers.Booking.Router(protected)
		})

		// Admin surface: catalog management and account registration.
		routerGroup.Group(func(admin chi.Router) {
			admin.Use(r.AuthMiddleware.Auth)
			admin.Use(r.AuthMiddleware.RequireRole(constant.RoleSuperAdmin, constant.RoleAdmin))

			r.DomainHandlers.Auth.AdminRouter(admin)
			r.DomainHandlers.Catalog.AdminRouter(admin)
		})
	})
}

func New(domainHandlers DomainHandlers, appMiddleware middleware.AppMiddleware, authMiddleware middleware.Auth) Router {
	return Router{
		DomainHandlers: domainHandlers,
		AppMiddleware:  appMiddleware,
		AuthMiddleware: authMiddleware,
	}
}
