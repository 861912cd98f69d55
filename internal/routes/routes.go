package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/editionmint/internal/config"
	"github.com/congo-pay/editionmint/internal/faucet"
	"github.com/congo-pay/editionmint/internal/middleware"
	"github.com/congo-pay/editionmint/internal/nft"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg      config.Config
	DB       *pgxpool.Pool
	Cache    *redis.Client
	Logger   *slog.Logger
	NFTs     *nft.Service
	Faucet   *faucet.Service
	Gatherer prometheus.Gatherer
	// Slot reports the embedded cluster's slot for health checks. Nil when
	// issuing against a remote cluster.
	Slot func() uint64
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though config also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}
	if d.NFTs == nil {
		return fmt.Errorf("nft service is required")
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	// Health and metrics
	RegisterHealthRoutes(app, d)
	RegisterMetricsRoute(app, d.Gatherer)

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	protected := api.Group("", middleware.APIKeyAuth(d.Cfg.APIKeyHash))
	if d.Cache != nil {
		protected.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}
	issueLimit := middleware.RateLimit(d.Cache, "issue", d.Cfg.MintRateLimit)
	RegisterNFTRoutes(protected, nft.NewHandler(d.NFTs), issueLimit)
	if d.Faucet != nil {
		RegisterFaucetRoutes(protected, faucet.NewHandler(d.Faucet), middleware.RateLimit(d.Cache, "faucet", d.Cfg.MintRateLimit))
	}

	return nil
}
