package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/ecf-dgii/docs"
	"github.com/jhoicas/ecf-dgii/internal/application/auth"
	"github.com/jhoicas/ecf-dgii/internal/application/einvoice"
	"github.com/jhoicas/ecf-dgii/internal/application/fiscal"
	domaindgii "github.com/jhoicas/ecf-dgii/internal/domain/dgii"
	"github.com/jhoicas/ecf-dgii/internal/domain/repository"
	"github.com/jhoicas/ecf-dgii/internal/infrastructure/cache"
	"github.com/jhoicas/ecf-dgii/internal/infrastructure/ecf"
	"github.com/jhoicas/ecf-dgii/internal/infrastructure/notify"
	"github.com/jhoicas/ecf-dgii/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/ecf-dgii/internal/infrastructure/redis"
	httpRouter "github.com/jhoicas/ecf-dgii/internal/interfaces/http"
	"github.com/jhoicas/ecf-dgii/internal/observability/metrics"
	"github.com/jhoicas/ecf-dgii/pkg/config"
	"github.com/jhoicas/ecf-dgii/pkg/jwt"
	"github.com/jhoicas/ecf-dgii/pkg/logger"
)

// @title                       ECF DGII API
// @version                     1.0
// @description                 Comprobantes fiscales electrónicos (e-CF) de la DGII.
// @BasePath                    /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   os.Getenv("LOG_LEVEL"),
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("token_store", cfg.ECF.TokenStore).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	companyRepo := postgres.NewCompanyRepository(pool)
	partnerRepo := postgres.NewPartnerRepository(pool)
	rateRepo := postgres.NewCurrencyRateRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	invoiceRepo := postgres.NewInvoiceRepository(pool)
	fiscalTypeRepo := postgres.NewFiscalTypeRepository(pool)
	sequenceRepo := postgres.NewFiscalSequenceRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Almacén del token del conector: columnas de la empresa, Redis o memoria.
	var tokens repository.ECFTokenStore = companyRepo
	switch cfg.ECF.TokenStore {
	case "redis":
		rdb, err := infraredis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rdb.Close()
		tokens = infraredis.NewTokenStore(rdb)
	case "memory":
		tokens = cache.NewTokenStore()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	ecfMetrics := metrics.NewECFMetrics(registry, cfg.App.Env)

	classifier := domaindgii.NewClassifier(cfg.ECF.LegacyTaxNames)
	builder := ecf.NewBuilder(invoiceRepo, rateRepo, classifier)
	client := ecf.NewClient(ecf.ClientConfig{
		AuthURL:        cfg.ECF.AuthURL,
		ProcessURL:     cfg.ECF.ProcessURL,
		AuthTimeout:    cfg.ECF.AuthTimeout,
		ProcessTimeout: cfg.ECF.ProcessTimeout,
	}, tokens, ecfMetrics, log.Component("ecf-client"))

	var mail einvoice.Notifier
	if cfg.Alerts.Enabled() {
		sender := notify.NewSMTPSender(cfg.Alerts.SMTPHost, cfg.Alerts.SMTPPort, cfg.Alerts.SMTPUser, cfg.Alerts.SMTPPassword)
		mail = notify.NewMailNotifier(sender, notify.MailConfig{From: cfg.Alerts.From, Recipients: cfg.Alerts.Recipients})
	}
	notifier := notify.NewMulti(log.Component("notify"), notify.NewLogNotifier(log.Component("alerts")), mail)

	postUC := fiscal.NewPostInvoiceUseCase(txRunner, invoiceRepo, partnerRepo, fiscalTypeRepo, sequenceRepo, classifier, log.Component("posting"))
	queryUC := fiscal.NewQueryUseCase(invoiceRepo, sequenceRepo, classifier)
	einvoiceSvc := einvoice.NewService(
		invoiceRepo, companyRepo, partnerRepo, fiscalTypeRepo, sequenceRepo,
		builder, client, notifier, log.Component("einvoice"),
	)
	partnerUC := fiscal.NewPartnerUseCase(partnerRepo)

	signer, err := jwt.NewSigner(cfg.JWT.Secret, cfg.JWT.Issuer, time.Duration(cfg.JWT.Expiration)*time.Minute)
	if err != nil {
		log.Fatal().Err(err).Msg("configuración JWT")
	}
	authUC := auth.NewAuthUseCase(userRepo, companyRepo, signer)

	// El envío puede tardar hasta auth + proceso (+ una reautenticación).
	writeTimeout := 2*cfg.ECF.AuthTimeout + cfg.ECF.ProcessTimeout + 10*time.Second
	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: writeTimeout,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    docs.SwaggerInfo.Title,
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := pool.Ping(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "service": cfg.App.Name})
		}
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:         authUC,
		Invoices:       queryUC,
		Poster:         postUC,
		EInvoice:       einvoiceSvc,
		Sequences:      queryUC,
		Partners:       partnerUC,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Tokens:         signer,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
