package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/propmarket/portal/internal/app/api/handlers"
	mw "github.com/propmarket/portal/internal/app/api/middleware"
	"github.com/propmarket/portal/internal/app/service/auth"
	"github.com/propmarket/portal/internal/app/service/registration"
	"github.com/propmarket/portal/internal/app/service/renewal"
	"github.com/propmarket/portal/internal/repository"
	cfgpkg "github.com/propmarket/portal/pkg/config"
	"github.com/propmarket/portal/pkg/metrics"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func newEngine(m *metrics.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	// Tracing and request counting only; request logger & access log are
	// attached per group in registerRoutes
	r.Use(mw.TraceMiddleware(), mw.RequestMetricsMiddleware(m))
	return r
}

func registerRoutes(
	r *gin.Engine,
	log *zap.SugaredLogger,
	reg registration.Manager,
	ren renewal.Manager,
	tokens *auth.TokenManager,
	users repository.Users,
	ledger repository.Ledger,
) {
	// Root group: health only.
	root := r.Group("/")
	root.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())
	handlers.RegisterHealthRoutes(root)

	// Public group: registration, renewal and the gateway webhook.
	// Registration has no identity yet and renewal is deliberately
	// email+id bound rather than token bound.
	pub := r.Group("/api/v1")
	pub.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())
	handlers.RegisterRegistrationRoutes(pub, reg)
	handlers.RegisterRenewalRoutes(pub, ren)
	handlers.RegisterWebhookRoutes(pub, reg, ren, log)

	// Authenticated group behind the subscription guard.
	protected := r.Group("/api/v1")
	protected.Use(
		mw.RequestLoggerMiddleware(log),
		mw.AccessLogMiddleware(),
		mw.AuthMiddleware(tokens),
		mw.SubscriptionGuard(users, log),
	)
	handlers.RegisterProfileRoutes(protected, users)

	// Admin back office.
	admin := r.Group("/api/v1/admin")
	admin.Use(
		mw.RequestLoggerMiddleware(log),
		mw.AccessLogMiddleware(),
		mw.AuthMiddleware(tokens),
		mw.RequireAdmin(),
	)
	handlers.RegisterAdminRoutes(admin, ledger)
}

func runServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config, r *gin.Engine) {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting HTTP server", "addr", addr)
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Errorf("server error: %v", err)
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("stopping HTTP server")
			shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

var Module = fx.Options(
	fx.Provide(newEngine),
	fx.Invoke(registerRoutes),
	fx.Invoke(runServer),
)
