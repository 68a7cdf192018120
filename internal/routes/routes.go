package routes

import (
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/soko-pay/soko_pay/internal/config"
	"github.com/soko-pay/soko_pay/internal/events"
	"github.com/soko-pay/soko_pay/internal/fulfillment"
	"github.com/soko-pay/soko_pay/internal/ledger"
	"github.com/soko-pay/soko_pay/internal/middleware"
	"github.com/soko-pay/soko_pay/internal/order"
	"github.com/soko-pay/soko_pay/internal/wallet"
)

// DemoClientID is the wallet seeded when running without a database, so the
// API is usable out of the box in development.
const DemoClientID = "00000000-0000-0000-0000-000000000001"

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg       config.Config
	DB        *pgxpool.Pool
	Cache     *redis.Client
	Publisher events.Publisher
	Logger    *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if d.Cfg.IsProduction() && d.DB == nil {
		return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	var ledgerBackend ledger.Ledger
	if d.DB != nil {
		ledgerBackend = ledger.NewPostgresLedger(d.DB)
	} else {
		ledgerBackend = ledger.NewInMemory()
		ledger.SeedWallet(ledgerBackend, DemoClientID, decimal.Zero)
		d.Logger.Info("running with in-memory ledger", "demo_client_id", DemoClientID)
	}

	var gateway fulfillment.Gateway
	if d.Cfg.FulfillmentURL != "" {
		gateway = fulfillment.NewHTTPGateway(d.Cfg.FulfillmentURL, d.Cfg.FulfillmentTimeout)
	} else {
		gateway = fulfillment.StaticGateway{}
		d.Logger.Info("no fulfillment provider configured, using static gateway")
	}

	publisher := d.Publisher
	if publisher == nil {
		publisher = events.NewLogPublisher(d.Logger)
	}

	walletSvc := wallet.NewService(ledgerBackend, publisher, d.Logger)
	orderSvc := order.NewService(ledgerBackend, gateway, publisher, d.Logger)

	walletHandler := wallet.NewHandler(walletSvc)
	orderHandler := order.NewHandler(orderSvc)

	api := app.Group("/api/v1")

	admin := api.Group("/admin", middleware.AdminAuth(d.Cfg.AdminSecret))
	RegisterAdminWalletRoutes(admin, walletHandler)

	client := api.Group("", middleware.ClientAuth())
	RegisterWalletRoutes(client, walletHandler)

	var idem fiber.Handler
	if d.Cache != nil {
		idem = middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger)
	}
	RegisterOrderRoutes(client, orderHandler, idem)

	return nil
}
