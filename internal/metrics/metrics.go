// Package metrics exposes Prometheus instrumentation for connection and
// parcel events. Nothing in garil's protocol logic reads these back; they
// exist purely for external observability.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ril-go/garil/internal/logging"
)

var (
	ParcelsReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "garil_parcels_received_total",
		Help: "Total frames read off the transport and decoded into parcels.",
	})
	ParcelsDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "garil_parcels_delivered_total",
		Help: "Total parcels taken off the dispatch queue for delivery, whether or not any subscriber was registered.",
	})
	ParcelsDroppedMalformed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "garil_parcels_dropped_malformed_total",
		Help: "Total parcels that decoded with IsMalformed set at delivery time.",
	})
	BytesRead = promauto.NewCounter(prometheus.CounterOpts{
		Name: "garil_bytes_read_total",
		Help: "Total payload bytes read from the transport, excluding length prefixes.",
	})
	DialErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "garil_dial_errors_total",
		Help: "Dial/connect failures by network.",
	}, []string{"network"})
	ProtocolErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "garil_protocol_errors_total",
		Help: "Fatal read-side errors (bad length prefix, truncated frame, transport read failure).",
	})
	ActiveSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "garil_active_subscribers",
		Help: "Current number of Subscribe callbacks registered across all connections.",
	})
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "garil_active_connections",
		Help: "Current number of open connections.",
	})
)

// ServeHTTP starts a server exposing /metrics on addr. Callers own its
// lifecycle; a typical caller defers srv.Close() or lets the process exit.
func ServeHTTP(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logging.L().Info("metrics_listen", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.L().Error("metrics_http_error", "error", err)
		}
	}()
	return srv
}
