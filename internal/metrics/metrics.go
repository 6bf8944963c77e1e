package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics holds the watcher's collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	cycles        prometheus.Counter
	faults        prometheus.Counter
	events        *prometheus.CounterVec
	watermark     prometheus.Gauge
	queryDuration *prometheus.HistogramVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		cycles: factory.NewCounter(prometheus.CounterOpts{
			Name: "contractwatch_cycles_total",
			Help: "Number of completed poll cycles",
		}),
		faults: factory.NewCounter(prometheus.CounterOpts{
			Name: "contractwatch_faults_total",
			Help: "Number of poll cycles that failed and were retried",
		}),
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "contractwatch_events_total",
			Help: "Number of events emitted, by kind and event name",
		}, []string{"kind", "event"}),
		watermark: factory.NewGauge(prometheus.GaugeOpts{
			Name: "contractwatch_watermark_block",
			Help: "Lower bound block of the next query",
		}),
		queryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "contractwatch_query_duration_seconds",
			Help:    "Duration of eth_getLogs queries, by event name",
			Buckets: prometheus.DefBuckets,
		}, []string{"event"}),
	}
}

func (m *Metrics) CycleCompleted(watermark uint64) {
	if m == nil {
		return
	}
	m.cycles.Inc()
	m.watermark.Set(float64(watermark))
}

func (m *Metrics) Fault() {
	if m == nil {
		return
	}
	m.faults.Inc()
}

func (m *Metrics) Event(kind, name string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(kind, name).Inc()
}

func (m *Metrics) Watermark(watermark uint64) {
	if m == nil {
		return
	}
	m.watermark.Set(float64(watermark))
}

func (m *Metrics) ObserveQuery(event string, d time.Duration) {
	if m == nil {
		return
	}
	m.queryDuration.WithLabelValues(event).Observe(d.Seconds())
}

// Serve exposes gatherer on addr under /metrics until ctx is done.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics server listening", zap.String("addr", listener.Addr().String()))
	if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
