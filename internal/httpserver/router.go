package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"minishop-gateway/internal/availability"
	"minishop-gateway/internal/domain"
	"minishop-gateway/internal/navigation"
	cartsvc "minishop-gateway/internal/service/cart"
	operatorsvc "minishop-gateway/internal/service/operator"
	storefrontsvc "minishop-gateway/internal/service/storefront"
)

// CartService holds customer cart sessions.
type CartService interface {
	Create(ctx context.Context, store string) (domain.CartSnapshot, error)
	Get(ctx context.Context, store, id string) (*domain.Cart, error)
	Apply(ctx context.Context, store, id string, in cartsvc.UpdateInput) (domain.CartSnapshot, error)
	Delete(ctx context.Context, store, id string) error
}

// StorefrontService serves the customer storefront.
type StorefrontService interface {
	LoadStore(ctx context.Context, slug string) (domain.Storefront, error)
	Branches(ctx context.Context, slug string, req availability.Requirements) (storefrontsvc.BranchMap, error)
	BranchesForCart(ctx context.Context, slug, cartID string) (storefrontsvc.BranchMap, error)
	TapBranch(ctx context.Context, slug, branchID, cartID string) (string, error)
	Book(ctx context.Context, slug, branchID, cartID string, customer storefrontsvc.Customer) (storefrontsvc.BookingResult, error)
}

// Deps are the services and settings the router wires.
type Deps struct {
	Carts      CartService
	Storefront StorefrontService
	Operator   *operatorsvc.Service

	CORSOrigins       []string
	BookingRatePerMin int
	Production        bool
	// Ready are extra dependencies /readyz checks besides Postgres.
	Ready []Pinger
}

// buildRouter wires routes for the gateway.
func buildRouter(logger *zap.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Carts == nil || deps.Storefront == nil || deps.Operator == nil {
		return nil, errors.New("httpserver: carts, storefront and operator services are required")
	}
	corsMiddleware, err := corsFor(deps.CORSOrigins)
	if err != nil {
		return nil, err
	}

	if deps.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(requestID(), customRecovery(logger), loggingMiddleware(logger), corsMiddleware)

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db, deps.Ready...))

	v1 := router.Group("/api/v1")
	v1.GET("/navigate", navigateHandler)

	h := &customerHandlers{carts: deps.Carts, storefront: deps.Storefront, logger: logger}
	store := v1.Group("/stores/:store")
	{
		store.GET("", h.loadStore)
		store.POST("/carts", h.createCart)
		store.GET("/carts/:cartId", h.getCart)
		store.DELETE("/carts/:cartId", h.deleteCart)
		store.POST("/carts/:cartId/actions", h.applyCart)
		store.GET("/branches", h.branches)
		store.GET("/branches/:branchId/tap", h.tapBranch)
		store.POST("/branches/:branchId/booking", newClientLimiter(deps.BookingRatePerMin).middleware(), h.book)
	}

	p := &providerHandlers{operator: deps.Operator, logger: logger}
	provider := v1.Group("/provider")
	provider.POST("/auth", p.auth)
	authed := provider.Group("")
	authed.Use(bearerSession(logger))
	{
		authed.GET("/shop", p.getShop)
		authed.POST("/shop", p.createShop)
		authed.PUT("/shop", p.updateShop)
		authed.GET("/shop/link", p.storeLink)
		authed.GET("/shop/qr", p.storeQR)

		authed.GET("/branches", p.listBranches)
		authed.POST("/branches", p.createBranch)
		authed.GET("/branches/:branchId", p.getBranch)
		authed.PUT("/branches/:branchId", p.updateBranch)
		authed.GET("/branches/:branchId/form", p.branchForm)
		authed.GET("/branches/:branchId/stats", p.branchStats)
		authed.GET("/branches/:branchId/channel", p.checkChannel)
		authed.GET("/branches/:branchId/channel/link", p.channelLink)
		authed.GET("/branches/:branchId/products", p.listProducts)
		authed.GET("/branches/:branchId/stock/:productId", p.stockCount)
		authed.POST("/branches/:branchId/stock/:productId", p.replenish)
		authed.POST("/branches/:branchId/stock", p.replenishMany)

		authed.GET("/products/:productId", p.getProduct)
		authed.POST("/products", p.createProduct)
		authed.PUT("/products/:productId", p.updateProduct)
		authed.DELETE("/products/:productId", p.deleteProduct)

		authed.POST("/images", p.uploadImage)
		authed.POST("/location", p.pickLocation)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return router, nil
}

func corsFor(origins []string) (gin.HandlerFunc, error) {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", requestIDHeader},
		ExposeHeaders: []string{requestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cors.New(cfg), nil
}

func navigateHandler(c *gin.Context) {
	c.JSON(http.StatusOK, navigation.Resolve(c.Query("path")))
}
