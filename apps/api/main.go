package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	audithandler "github.com/vetcare-hq/vetcare-saas/domains/audit/be/handler"
	auditrepo "github.com/vetcare-hq/vetcare-saas/domains/audit/be/repo"
	auditservice "github.com/vetcare-hq/vetcare-saas/domains/audit/be/service"
	billinghandler "github.com/vetcare-hq/vetcare-saas/domains/billing/be/handler"
	billingservice "github.com/vetcare-hq/vetcare-saas/domains/billing/be/service"
	ownershandler "github.com/vetcare-hq/vetcare-saas/domains/owners/be/handler"
	ownersrepo "github.com/vetcare-hq/vetcare-saas/domains/owners/be/repo"
	ownersservice "github.com/vetcare-hq/vetcare-saas/domains/owners/be/service"
	patientshandler "github.com/vetcare-hq/vetcare-saas/domains/patients/be/handler"
	patientsrepo "github.com/vetcare-hq/vetcare-saas/domains/patients/be/repo"
	patientsservice "github.com/vetcare-hq/vetcare-saas/domains/patients/be/service"
	planshandler "github.com/vetcare-hq/vetcare-saas/domains/plans/be/handler"
	plansrepo "github.com/vetcare-hq/vetcare-saas/domains/plans/be/repo"
	plansservice "github.com/vetcare-hq/vetcare-saas/domains/plans/be/service"
	tenantshandler "github.com/vetcare-hq/vetcare-saas/domains/tenants/be/handler"
	tenantsrepo "github.com/vetcare-hq/vetcare-saas/domains/tenants/be/repo"
	tenantsservice "github.com/vetcare-hq/vetcare-saas/domains/tenants/be/service"
	usershandler "github.com/vetcare-hq/vetcare-saas/domains/users/be/handler"
	usersrepo "github.com/vetcare-hq/vetcare-saas/domains/users/be/repo"
	usersservice "github.com/vetcare-hq/vetcare-saas/domains/users/be/service"
	platformlogging "github.com/vetcare-hq/vetcare-saas/platform/go/logging"
	platformmiddleware "github.com/vetcare-hq/vetcare-saas/platform/go/middleware"
	"github.com/vetcare-hq/vetcare-saas/platform/go/persistence"
	tenantmiddleware "github.com/vetcare-hq/vetcare-saas/platform/go/tenant/middleware"
)

type config struct {
	Port            string        `env:"PORT" envDefault:"3000"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	DatabaseURL     string        `env:"DATABASE_URL,required"`

	PaymentGatewayURL    string        `env:"PAYMENT_GATEWAY_URL" envDefault:"https://api.paystack.co"`
	PaymentGatewaySecret string        `env:"PAYMENT_GATEWAY_SECRET"`
	PaymentTimeout       time.Duration `env:"PAYMENT_TIMEOUT" envDefault:"10s"`

	AuditQueueSize   int    `env:"AUDIT_QUEUE_SIZE" envDefault:"256"`
	AttachmentBucket string `env:"ATTACHMENT_BUCKET" envDefault:"vetcare-attachments"`
	SeedPlans        bool   `env:"SEED_PLANS" envDefault:"true"`
}

func main() {
	ctx := context.Background()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := platformlogging.NewLogger(platformlogging.Config{
		Component: "api-server",
		Level:     cfg.LogLevel,
	})
	if err != nil {
		log.Fatalf("init zap logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: cfg.DatabaseURL})
	if err != nil {
		logger.Fatal("init postgres pool", zap.Error(err))
	}
	defer persistence.ClosePool(pool)

	planStore, err := persistence.NewPlanStore(pool)
	if err != nil {
		logger.Fatal("init plan store", zap.Error(err))
	}
	tenantStore, err := persistence.NewTenantStore(pool)
	if err != nil {
		logger.Fatal("init tenant store", zap.Error(err))
	}
	auditStore, err := persistence.NewAuditStore(pool)
	if err != nil {
		logger.Fatal("init audit store", zap.Error(err))
	}
	usageStore, err := persistence.NewUsageStore(pool)
	if err != nil {
		logger.Fatal("init usage store", zap.Error(err))
	}
	userStore, err := persistence.NewUserStore(pool)
	if err != nil {
		logger.Fatal("init user store", zap.Error(err))
	}
	ownerStore, err := persistence.NewOwnerStore(pool)
	if err != nil {
		logger.Fatal("init owner store", zap.Error(err))
	}
	patientStore, err := persistence.NewPatientStore(pool)
	if err != nil {
		logger.Fatal("init patient store", zap.Error(err))
	}
	attachmentStore, err := persistence.NewAttachmentStore(pool)
	if err != nil {
		logger.Fatal("init attachment store", zap.Error(err))
	}

	planRepo := plansrepo.NewPostgresRepository(planStore)
	planService := plansservice.New(planRepo)
	planHTTPHandler := planshandler.New(planService, logger)

	if cfg.SeedPlans {
		validator := persistence.NewLimitsValidator()
		if err := plansservice.Seed(ctx, planRepo, validator, plansservice.DefaultCatalog(), logger); err != nil {
			logger.Fatal("seed plan catalog", zap.Error(err))
		}
	}

	auditRepo := auditrepo.NewPostgresRepository(auditStore)
	auditRecorder := auditservice.NewRecorder(auditRepo, logger, cfg.AuditQueueSize)
	auditHTTPHandler := audithandler.New(auditRecorder, logger)

	tenantRepo := tenantsrepo.NewPostgresRepository(tenantStore)
	tenantService := tenantsservice.New(tenantRepo, planService, usageStore, logger)
	tenantHTTPHandler := tenantshandler.New(tenantService, logger)

	paymentVerifier := billingservice.NewVerifier(billingservice.GatewayConfig{
		BaseURL:     cfg.PaymentGatewayURL,
		Secret:      cfg.PaymentGatewaySecret,
		Environment: cfg.Environment,
		Timeout:     cfg.PaymentTimeout,
	}, logger)
	billingService := billingservice.New(paymentVerifier, planService, tenantService, auditRecorder)
	billingHTTPHandler := billinghandler.New(billingService, logger)

	userRepo := usersrepo.NewPostgresRepository(userStore)
	userService := usersservice.New(userRepo, tenantService, auditRecorder)
	userHTTPHandler := usershandler.New(userService, logger)

	ownerRepo := ownersrepo.NewPostgresRepository(ownerStore)
	ownerService := ownersservice.New(ownerRepo, tenantService, auditRecorder)
	ownerHTTPHandler := ownershandler.New(ownerService, logger)

	patientRepo := patientsrepo.NewPostgresRepository(patientStore, ownerStore, attachmentStore)
	patientService := patientsservice.New(patientRepo, tenantService, tenantService, auditRecorder, cfg.AttachmentBucket)
	patientHTTPHandler := patientshandler.New(patientService, logger)

	rootRouter := chi.NewRouter()

	rootRouter.Use(
		chimw.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		chimw.Timeout(cfg.RequestTimeout),
		platformmiddleware.DefaultCORS(),
	)

	rootRouter.Use(platformlogging.RequestLogger(logger))

	rootRouter.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	rootRouter.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	apiRouter := chi.NewRouter()
	apiRouter.Use(platformmiddleware.RequestTrace)

	// Platform-level endpoints: tenant registry, plan catalog, billing, audit
	// trail. These address tenants by id in the path, not via the header.
	apiRouter.Route("/admin", func(r chi.Router) {
		planHTTPHandler.Routes(r)
		tenantHTTPHandler.Routes(r)
		billingHTTPHandler.Routes(r)
		auditHTTPHandler.Routes(r)
	})

	// Clinic endpoints: every request is scoped to the tenant named by the
	// X-Tenant-ID header.
	apiRouter.Group(func(r chi.Router) {
		r.Use(tenantmiddleware.RequireTenant)
		userHTTPHandler.Routes(r)
		ownerHTTPHandler.Routes(r)
		patientHTTPHandler.Routes(r)
	})

	rootRouter.Mount("/api/v1", apiRouter)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      rootRouter,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		logger.Info("starting api server",
			zap.String("port", cfg.Port),
			zap.String("environment", cfg.Environment))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server listen failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}

	// Drain queued audit entries after the server stops accepting requests.
	auditRecorder.Close()
}
