package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/denimstock/denimstock/cmd/denimstock/cli"
	"github.com/denimstock/denimstock/internal/app"
	"github.com/denimstock/denimstock/internal/auth"
	"github.com/denimstock/denimstock/internal/backup"
	"github.com/denimstock/denimstock/internal/bootstrap"
	"github.com/denimstock/denimstock/internal/clients"
	"github.com/denimstock/denimstock/internal/export"
	"github.com/denimstock/denimstock/internal/inventory"
	"github.com/denimstock/denimstock/internal/invoices"
	"github.com/denimstock/denimstock/internal/masterdata/products"
	"github.com/denimstock/denimstock/internal/masterdata/warehouses"
	"github.com/denimstock/denimstock/internal/observability"
	"github.com/denimstock/denimstock/internal/payments"
	"github.com/denimstock/denimstock/internal/platform/cache"
	"github.com/denimstock/denimstock/internal/platform/db"
	"github.com/denimstock/denimstock/internal/rbac"
	"github.com/denimstock/denimstock/internal/reports"
	"github.com/denimstock/denimstock/internal/sales"
	"github.com/denimstock/denimstock/internal/settings"
	"github.com/denimstock/denimstock/internal/shared"
	"github.com/denimstock/denimstock/internal/users"
	"github.com/denimstock/denimstock/jobs"
	"github.com/denimstock/denimstock/report"
)

const usage = `usage: denimstock [command]

commands:
  serve                      run the HTTP API (default)
  migrate                    apply database migrations and seed defaults
  backup create [--json]     write a backup archive to the configured store
  backup list [--json]       list stored archives
  backup restore <archive>   replace the database with an archive
  jobs trigger <task>        enqueue a background task
  jobs stats                 print queue depth
`

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	command := "serve"
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}
	if command == "help" || command == "-h" || command == "--help" {
		fmt.Print(usage)
		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		return 1
	}
	logger := app.NewLogger(cfg)

	switch command {
	case "serve":
		return serve(ctx, cfg, logger)
	case "migrate":
		return migrate(ctx, cfg, logger)
	case "backup":
		return backupCommand(ctx, cfg, logger, args)
	case "jobs":
		return jobsCommand(ctx, cfg, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		return 2
	}
}

func openPool(ctx context.Context, cfg *app.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	pool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{MaxConns: cfg.PGMaxConns})
	if err != nil {
		return nil, err
	}
	if cfg.DBAutoMigrate {
		if err := db.Migrate(ctx, pool, logger); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return pool, nil
}

func migrate(ctx context.Context, cfg *app.Config, logger *slog.Logger) int {
	pool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{MaxConns: cfg.PGMaxConns})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		return 1
	}
	defer pool.Close()
	if err := db.Migrate(ctx, pool, logger); err != nil {
		logger.Error("migrate", slog.Any("error", err))
		return 1
	}
	if err := seed(ctx, cfg, pool, logger); err != nil {
		logger.Error("seed", slog.Any("error", err))
		return 1
	}
	return 0
}

func seed(ctx context.Context, cfg *app.Config, pool *pgxpool.Pool, logger *slog.Logger) error {
	inventoryService := inventory.NewService(inventory.NewRepository(pool), cfg.LowStockThreshold)
	_, err := bootstrap.Seed(ctx, bootstrap.Params{
		Users:         users.NewService(users.NewRepository(pool), logger),
		Settings:      settings.NewService(settings.NewRepository(pool)),
		Warehouses:    warehouses.NewService(warehouses.NewRepository(pool), inventoryService),
		AdminUsername: cfg.BootstrapAdminUsername,
		AdminPassword: cfg.BootstrapAdminPassword,
		Logger:        logger,
	})
	return err
}

func newBackupService(ctx context.Context, cfg *app.Config, pool *pgxpool.Pool, logger *slog.Logger) (*backup.Service, error) {
	store, err := app.NewBackupStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("backup store: %w", err)
	}
	telegram, err := app.NewNotifier(cfg, logger)
	if err != nil {
		logger.Warn("telegram disabled", slog.Any("error", err))
	}
	var notifier backup.Notifier
	if telegram != nil {
		notifier = telegram
	}
	return backup.NewService(backup.NewPostgresDatabase(pool), store, notifier, logger), nil
}

func serve(ctx context.Context, cfg *app.Config, logger *slog.Logger) int {
	pool, err := openPool(ctx, cfg, logger)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		return 1
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		return 1
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	if err := seed(ctx, cfg, pool, logger); err != nil {
		logger.Error("seed", slog.Any("error", err))
		return 1
	}

	router, cleanup, err := buildRouter(ctx, cfg, pool, redisClient, logger)
	if err != nil {
		logger.Error("build router", slog.Any("error", err))
		return 1
	}
	defer cleanup()

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		logger.Error("http server", slog.Any("error", err))
		return 1
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
		return 1
	}
	return 0
}

func buildRouter(ctx context.Context, cfg *app.Config, pool *pgxpool.Pool, redisClient *redis.Client, logger *slog.Logger) (http.Handler, func(), error) {
	metrics := observability.NewMetrics()
	sessionManager := shared.NewSessionManager(redisClient, "denimstock_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	auditLogger := shared.NewAuditLogger(pool)
	idempotencyStore := shared.NewIdempotencyStore(pool)

	rbacService := rbac.NewService()
	rbacMiddleware := rbac.Middleware{Service: rbacService, Logger: logger}

	authService := auth.NewService(auth.NewRepository(pool))
	usersService := users.NewService(users.NewRepository(pool), logger)
	inventoryService := inventory.NewService(inventory.NewRepository(pool), cfg.LowStockThreshold)
	warehousesService := warehouses.NewService(warehouses.NewRepository(pool), inventoryService)
	productsService := products.NewService(products.NewRepository(pool), logger)
	clientsService := clients.NewService(clients.NewRepository(pool))
	invoicesService := invoices.NewService(invoices.NewRepository(pool), auditLogger, logger, metrics)
	paymentsService := payments.NewService(payments.NewRepository(pool), idempotencyStore, logger, metrics)
	salesService := sales.NewService(sales.NewRepository(pool))
	settingsService := settings.NewService(settings.NewRepository(pool))

	reportCache := reports.NewCache(redisClient, cfg.ReportCacheTTL)
	if err := reportCache.ListenForInvalidation(ctx); err != nil {
		logger.Warn("report cache invalidation listener", slog.Any("error", err))
	}
	reportsService := reports.NewService(reports.NewRepository(pool), reportCache, inventoryService, logger)

	pdf := report.NewClient(cfg.GotenbergURL)
	exportService := export.NewService(export.NewInventorySource(pool), reportsService, invoicesService, settingsService, pdf, logger)

	backupService, err := newBackupService(ctx, cfg, pool, logger)
	if err != nil {
		return nil, nil, err
	}

	inspector := asynq.NewInspector(cfg.RedisOpts())
	jobsClient := jobs.NewClient(cfg.RedisOpts())
	cleanup := func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		ReportCache:    reportCache,
		Metrics:        metrics,

		AuthHandler:        auth.NewHandler(logger, authService, sessionManager, csrfManager, rbacMiddleware),
		UsersHandler:       users.NewHandler(logger, usersService, rbacMiddleware),
		WarehousesHandler:  warehouses.NewHandler(logger, warehousesService, rbacMiddleware),
		ProductsHandler:    products.NewHandler(logger, productsService, rbacMiddleware),
		InventoryHandler:   inventory.NewHandler(logger, inventoryService, rbacMiddleware),
		ClientsHandler:     clients.NewHandler(logger, clientsService, rbacMiddleware),
		InvoicesHandler:    invoices.NewHandler(logger, invoicesService, rbacMiddleware),
		PaymentsHandler:    payments.NewHandler(logger, paymentsService, rbacMiddleware),
		SalesHandler:       sales.NewHandler(logger, salesService, rbacMiddleware),
		ReportsHandler:     reports.NewHandler(logger, reportsService, rbacMiddleware),
		ExportHandler:      export.NewHandler(logger, exportService, rbacMiddleware),
		SettingsHandler:    settings.NewHandler(logger, settingsService, rbacMiddleware),
		BackupHandler:      backup.NewHandler(logger, backupService, rbacMiddleware),
		JobHandler:         jobs.NewHandler(inspector, jobsClient, logger, rbacMiddleware),
		PermissionsHandler: rbac.NewPermissionsHandler(rbacService, rbacMiddleware),
	})
	return router, cleanup, nil
}

func backupCommand(ctx context.Context, cfg *app.Config, logger *slog.Logger, args []string) int {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return 2
	}
	sub := args[0]
	fs := flag.NewFlagSet("backup "+sub, flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "print JSON output")
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}

	pool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{MaxConns: cfg.PGMaxConns})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		return 1
	}
	defer pool.Close()
	service, err := newBackupService(ctx, cfg, pool, logger)
	if err != nil {
		logger.Error("backup service", slog.Any("error", err))
		return 1
	}

	c := cli.NewBackupCLI(service)
	opts := cli.BackupOptions{JSONOutput: *jsonOut}
	switch sub {
	case "create":
		return c.CreateCommand(ctx, opts)
	case "list":
		return c.ListCommand(ctx, opts)
	case "restore":
		code := c.RestoreCommand(ctx, fs.Arg(0), opts)
		if code == 0 {
			bumpReportCache(ctx, cfg, logger)
		}
		return code
	default:
		fmt.Fprint(os.Stderr, usage)
		return 2
	}
}

func bumpReportCache(ctx context.Context, cfg *app.Config, logger *slog.Logger) {
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	defer func() { _ = client.Close() }()
	if err := reports.NewCache(client, cfg.ReportCacheTTL).Bump(ctx); err != nil {
		logger.Warn("report cache bump after restore", slog.Any("error", err))
	}
}

func jobsCommand(ctx context.Context, cfg *app.Config, args []string) int {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return 2
	}
	c := cli.NewJobsCLI(cfg.RedisOpts())
	defer func() { _ = c.Close() }()

	switch args[0] {
	case "trigger":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "jobs trigger: task name is required")
			return 2
		}
		if err := c.Trigger(ctx, args[1], os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "jobs trigger: %v\n", err)
			return 1
		}
		return 0
	case "stats":
		stats, err := c.InspectQueue()
		if err != nil {
			fmt.Fprintf(os.Stderr, "jobs stats: %v\n", err)
			return 1
		}
		fmt.Printf("queue=%s pending=%d active=%d scheduled=%d retry=%d\n",
			stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
		return 0
	default:
		fmt.Fprint(os.Stderr, usage)
		return 2
	}
}
