// Package router assembles the stock API routes.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/printshop/backend/internal/interfaces/http/dto"
	"github.com/printshop/backend/internal/interfaces/http/handler"
	"github.com/printshop/backend/internal/interfaces/http/middleware"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router manages HTTP route registration
type Router struct {
	engine     *gin.Engine
	apiVersion string
	registrars []RouteRegistrar
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g., "v1", "v2")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
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

// Register adds a RouteRegistrar to be registered by Setup
func (r *Router) Register(registrars ...RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrars...)
	return r
}

// Setup registers all routes under /api/<version> and answers unknown
// routes with the error envelope
func (r *Router) Setup() {
	api := r.engine.Group("/api/" + r.apiVersion)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}

	r.engine.HandleMethodNotAllowed = true
	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeNotFound, "Route not found", middleware.GetRequestID(c)))
	})
	r.engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeBadRequest, "Method not allowed", middleware.GetRequestID(c)))
	})
}

// DomainGroup collects the routes of one resource under a prefix
type DomainGroup struct {
	name       string
	prefix     string
	routes     []routeDefinition
	subgroups  []*DomainGroup
	middleware []gin.HandlerFunc
}

type routeDefinition struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// NewDomainGroup creates a new domain-specific route group
func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{name: name, prefix: prefix}
}

// Use adds middleware to this group
func (dg *DomainGroup) Use(middleware ...gin.HandlerFunc) *DomainGroup {
	dg.middleware = append(dg.middleware, middleware...)
	return dg
}

// GET registers a GET route
func (dg *DomainGroup) GET(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodGet, path, handlers)
}

// POST registers a POST route
func (dg *DomainGroup) POST(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodPost, path, handlers)
}

// PUT registers a PUT route
func (dg *DomainGroup) PUT(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodPut, path, handlers)
}

func (dg *DomainGroup) handle(method, path string, handlers []gin.HandlerFunc) *DomainGroup {
	dg.routes = append(dg.routes, routeDefinition{method: method, path: path, handlers: handlers})
	return dg
}

// Group creates a sub-group within this domain
func (dg *DomainGroup) Group(name, prefix string) *DomainGroup {
	subgroup := NewDomainGroup(name, prefix)
	dg.subgroups = append(dg.subgroups, subgroup)
	return subgroup
}

// RegisterRoutes implements RouteRegistrar
func (dg *DomainGroup) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group(dg.prefix)
	if len(dg.middleware) > 0 {
		group.Use(dg.middleware...)
	}
	for _, route := range dg.routes {
		group.Handle(route.method, route.path, route.handlers...)
	}
	for _, subgroup := range dg.subgroups {
		subgroup.RegisterRoutes(group)
	}
}

// Name returns the group name
func (dg *DomainGroup) Name() string {
	return dg.name
}

// Prefix returns the group prefix
func (dg *DomainGroup) Prefix() string {
	return dg.prefix
}

// Handlers are the API handlers wired by the server
type Handlers struct {
	Materials *handler.MaterialHandler
	Purchases *handler.PurchaseHandler
	Stock     *handler.StockHandler
	Health    *handler.HealthHandler
}

// StockGroups returns the material, purchase and stock route groups
func StockGroups(h Handlers) []RouteRegistrar {
	materials := NewDomainGroup("materials", "/materials").
		POST("", h.Materials.Create).
		GET("", h.Materials.List).
		GET("/:id", h.Materials.GetByID).
		PUT("/:id", h.Materials.Update).
		POST("/:id/void", h.Materials.Void).
		PUT("/:id/props", h.Materials.SetProps)

	purchases := NewDomainGroup("purchases", "/purchases").
		POST("", h.Purchases.Create).
		GET("", h.Purchases.List).
		GET("/:id", h.Purchases.GetByID).
		POST("/:id/post", h.Purchases.Post).
		POST("/:id/void", h.Purchases.Void)

	stock := NewDomainGroup("stock", "/stock").
		GET("/lots", h.Stock.ListLots).
		GET("/movements", h.Stock.ListMovements).
		GET("/on-hand", h.Stock.OnHandAll).
		GET("/on-hand/:material_id", h.Stock.OnHand).
		GET("/reconcile", h.Stock.Reconcile).
		GET("/control", h.Stock.Control)
	stock.Group("writeoffs", "/writeoffs").
		POST("", h.Stock.CreateWriteoff).
		GET("", h.Stock.ListWriteoffs).
		GET("/:id", h.Stock.GetWriteoff)

	return []RouteRegistrar{materials, purchases, stock}
}

// Setup builds the full API on engine: /health plus the versioned stock routes
func Setup(engine *gin.Engine, h Handlers) {
	engine.GET("/health", h.Health.Health)
	NewRouter(engine).Register(StockGroups(h)...).Setup()
}
