package router

import (
	"github.com/gin-gonic/gin"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// RegistrarFunc adapts a function to the RouteRegistrar interface
type RegistrarFunc func(rg *gin.RouterGroup)

// RegisterRoutes implements RouteRegistrar
func (f RegistrarFunc) RegisterRoutes(rg *gin.RouterGroup) {
	f(rg)
}

// Router manages HTTP route registration. Routes fall into three buckets:
// public (health, webhook intake), admin (operator token required), and
// cron (shared scheduler key required).
type Router struct {
	engine     *gin.Engine
	apiVersion string

	public []RouteRegistrar
	admin  []RouteRegistrar
	cron   []RouteRegistrar

	adminMiddleware []gin.HandlerFunc
	cronMiddleware  []gin.HandlerFunc
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g. "v1")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// WithAdminMiddleware sets the middleware chain guarding admin routes
func WithAdminMiddleware(mw ...gin.HandlerFunc) RouterOption {
	return func(r *Router) {
		r.adminMiddleware = mw
	}
}

// WithCronMiddleware sets the middleware chain guarding cron routes
func WithCronMiddleware(mw ...gin.HandlerFunc) RouterOption {
	return func(r *Router) {
		r.cronMiddleware = mw
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		apiVersion: "v1",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RegisterPublic adds registrars for unauthenticated routes
func (r *Router) RegisterPublic(registrars ...RouteRegistrar) *Router {
	r.public = append(r.public, registrars...)
	return r
}

// RegisterAdmin adds registrars for operator-authenticated routes
func (r *Router) RegisterAdmin(registrars ...RouteRegistrar) *Router {
	r.admin = append(r.admin, registrars...)
	return r
}

// RegisterCron adds registrars for scheduler-authenticated routes
func (r *Router) RegisterCron(registrars ...RouteRegistrar) *Router {
	r.cron = append(r.cron, registrars...)
	return r
}

// Setup registers all routes with the engine
func (r *Router) Setup() {
	api := r.engine.Group("/api/" + r.apiVersion)

	for _, registrar := range r.public {
		registrar.RegisterRoutes(api)
	}

	admin := api.Group("")
	admin.Use(r.adminMiddleware...)
	for _, registrar := range r.admin {
		registrar.RegisterRoutes(admin)
	}

	cron := api.Group("")
	cron.Use(r.cronMiddleware...)
	for _, registrar := range r.cron {
		registrar.RegisterRoutes(cron)
	}
}
