package handlers

import (
	"fmt"
	"net/http"

	"github.com/SscSPs/wallet_ledger_app/cmd/docs"
	portssvc "github.com/SscSPs/wallet_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/wallet_ledger_app/internal/platform/config"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) error {
	options := WalletHandlerOptions{AmountPrecision: cfg.AmountPrecision}
	if cfg.AccountRateLimit != "" {
		accountLimiter, err := NewMemoryLimiter(cfg.AccountRateLimit)
		if err != nil {
			return fmt.Errorf("invalid ACCOUNT_RATE_LIMIT: %w", err)
		}
		options.AccountLimiter = accountLimiter
	}

	// Add health check routes
	r.GET("/health", health)

	// The browser client calls the wallet routes at the root; /api/v1 is the versioned mount
	RegisterWalletRoutes(r.Group(""), services.Ledger, services.Query, options)
	setupAPIV1Routes(r, services, options)

	// Swagger routes (typically public or conditionally available)
	setupSwaggerRoutes(r, cfg)
	return nil
}

// NewMemoryLimiter builds an in-memory limiter from a formatted rate such as "10-M".
func NewMemoryLimiter(formatted string) (*limiter.Limiter, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, err
	}
	return limiter.New(memory.NewStore(), rate), nil
}

// health godoc
// @Summary Show the status of server.
// @Description get the status of server.
// @Tags root
// @Produce plain
// @Success 200 {string} string "OK"
// @Router /health [get]
func health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// setupAPIV1Routes configures the /api/v1 group and delegates to the wallet route registration
func setupAPIV1Routes(
	r *gin.Engine,
	services *portssvc.ServiceContainer,
	options WalletHandlerOptions,
) {
	v1 := r.Group("/api/v1")
	v1.GET("/health", health)
	RegisterWalletRoutes(v1, services.Ledger, services.Query, options)
}

// setupSwaggerRoutes configures the swagger documentation routes
func setupSwaggerRoutes(r *gin.Engine, cfg *config.Config) {
	// Swagger setup
	if cfg.IsProduction {
		//no swagger in prod
		return
	}
	docs.SwaggerInfo.BasePath = "/api/v1"
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
