package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/cookieshop/backend/internal/domain/order"
	"github.com/cookieshop/backend/internal/handler"
	"github.com/cookieshop/backend/internal/mail"
	"github.com/cookieshop/backend/internal/repository"
	"github.com/cookieshop/backend/pkg/blocklist"
	"github.com/cookieshop/backend/pkg/health"
	"github.com/cookieshop/backend/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.AddLivenessCheck("gc-pause", time.Second, health.GCMaxPauseCheck(500*time.Millisecond))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Repositories.
	productRepo := repository.NewProductRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	settingsRepo := repository.NewSettingsRepository(pool)

	// Notification dispatcher: real SMTP when configured, mock otherwise.
	var sender mail.Sender
	if smtp := smtpConfig(cfg.Mail); smtp.Configured() {
		sender, err = mail.NewSMTPSender(smtp)
		if err != nil {
			return errors.Wrap(err, "create smtp sender")
		}
		lg.Info("Email transport configured", zap.String("host", cfg.Mail.Host))
	} else {
		sender = mail.NewMockSender(lg.Named("mail"))
		lg.Info("No email transport configured, using mock sender")
	}
	dispatcher := mail.NewDispatcher(sender, lg.Named("mail"), cfg.Mail.QueueSize)
	// Workers run on a detached context: orders accepted while the server
	// drains still get their emails. The deferred Stop runs after Shutdown
	// has completed and drains whatever is left in the queue.
	dispatcher.Start(context.WithoutCancel(ctx), cfg.Mail.Workers)
	defer dispatcher.Stop()

	// Optional customer email-domain blocklist.
	var guard order.EmailGuard
	if cfg.BlocklistFile != "" {
		list, err := blocklist.Load(cfg.BlocklistFile)
		if err != nil {
			return errors.Wrap(err, "load email blocklist")
		}
		lg.Info("Email blocklist loaded",
			zap.String("file", cfg.BlocklistFile),
			zap.Int("domains", list.Len()),
		)
		guard = list
	}

	// Domain services + HTTP handlers.
	orderService := order.NewService(orderRepo, settingsRepo, dispatcher, guard, lg.Named("orders"))
	h := handler.New(productRepo, orderService, orderRepo, settingsRepo)

	router := chi.NewRouter()
	router.Route("/api", h.Routes)

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", router)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.MaxBytes(1<<20),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("cookieshop-api", m),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

func smtpConfig(cfg MailConfig) mail.SMTPConfig {
	return mail.SMTPConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		From:     cfg.From,
	}
}
