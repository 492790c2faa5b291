package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	cfgpkg "github.com/propmarket/portal/pkg/config"
)

// Metrics exposes the payment-domain counters. All methods are safe for
// concurrent use and never block request handling.
type Metrics struct {
	httpRequests     *prometheus.CounterVec
	ordersCreated    *prometheus.CounterVec
	paymentsVerified *prometheus.CounterVec
	renewals         *prometheus.CounterVec
	sweepTransitions *prometheus.CounterVec
	gatewayLatency   *prometheus.HistogramVec
}

func New() *Metrics {
	return &Metrics{
		httpRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_http_requests_total",
			Help: "HTTP requests served, by method, route and status.",
		}, []string{"method", "path", "status"}),
		ordersCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_orders_created_total",
			Help: "Payment orders created, by flow and role.",
		}, []string{"flow", "role"}),
		paymentsVerified: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_payments_verified_total",
			Help: "Payment verification outcomes, by flow and result.",
		}, []string{"flow", "result"}),
		renewals: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_renewals_total",
			Help: "Completed subscription renewals, by role and timing (early/late).",
		}, []string{"role", "timing"}),
		sweepTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_sweep_transitions_total",
			Help: "Expiration sweep actions, by kind (reminder/expired/pending_purged).",
		}, []string{"kind"}),
		gatewayLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "portal_gateway_request_seconds",
			Help:    "Latency of outbound payment gateway calls.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
	}
}

func (m *Metrics) IncHTTPRequest(method, path, status string) {
	m.httpRequests.WithLabelValues(method, path, status).Inc()
}

func (m *Metrics) IncOrderCreated(flow, role string)    { m.ordersCreated.WithLabelValues(flow, role).Inc() }
func (m *Metrics) IncPaymentVerified(flow, res string)  { m.paymentsVerified.WithLabelValues(flow, res).Inc() }
func (m *Metrics) IncRenewal(role, timing string)       { m.renewals.WithLabelValues(role, timing).Inc() }
func (m *Metrics) IncSweepTransition(kind string)       { m.sweepTransitions.WithLabelValues(kind).Inc() }
func (m *Metrics) ObserveGatewayOp(op string, d time.Duration) {
	m.gatewayLatency.WithLabelValues(op).Observe(d.Seconds())
}

// runListener serves /metrics on its own address so scrapes never share
// the API port.
func runListener(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config) {
	if cfg.MetricsAddr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("metrics listener started", "addr", cfg.MetricsAddr)
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Errorf("metrics listener error: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

var Module = fx.Options(
	fx.Provide(New),
	fx.Invoke(runListener),
)
