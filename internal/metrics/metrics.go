// Package metrics exposes Prometheus counters for a running game session.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/park285/netchess/internal/netplay"
)

const namespace = "netchess"

// Metrics is safe to use through a nil pointer; every method is then a no-op.
type Metrics struct {
	events    *prometheus.CounterVec
	commands  *prometheus.CounterVec
	connected prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_events_total",
			Help:      "Events returned by session updates.",
		}, []string{"variant", "event"}),
		commands: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Console commands executed, by outcome.",
		}, []string{"command", "result"}),
		connected: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "peer_connected",
			Help:      "1 while a peer is attached.",
		}),
	}
}

func (m *Metrics) ObserveEvent(v netplay.Variant, ev netplay.Event) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(v.String(), ev.Kind.String()).Inc()
	switch ev.Kind {
	case netplay.EventHandshakeComplete:
		m.connected.Set(1)
	case netplay.EventDisconnected:
		m.connected.Set(0)
	}
}

func (m *Metrics) ObserveCommand(name string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.commands.WithLabelValues(name, result).Inc()
}

// Serve exposes g on addr at /metrics until ctx is done.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
