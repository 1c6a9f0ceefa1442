// Package metrics holds one struct per concern (websocket hub, admission,
// REST, redis, database), all registered on a single registry under the
// livescore namespace and served on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "livescore"

// NewRegistry creates the process-wide registry. Besides the livescore
// series it carries the Go runtime and process collectors; each open
// connection holds a reader and a writer goroutine, so go_goroutines grows
// by two per hub connection.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// Handler serves reg in the Prometheus text format. Collection errors are
// reported in the response rather than failing the scrape.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{ErrorHandling: promhttp.ContinueOnError})
}
