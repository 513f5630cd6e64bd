package observability

import (
	"fmt"
	"net"
	"strconv"

	"github.com/fulmenhq/gofulmen/telemetry"
	"github.com/fulmenhq/gofulmen/telemetry/exporters"
)

// Telemetry handles, set once by InitMetrics during startup.
var (
	// TelemetrySystem emits application metrics. It stays nil when metrics
	// are disabled; the helpers in internal/metrics treat nil as a no-op.
	TelemetrySystem *telemetry.System

	// PrometheusExporter serves the scrape endpoint that the server's
	// /metrics route proxies to.
	PrometheusExporter *exporters.PrometheusExporter

	metricsPort int
)

// InitMetrics starts the Prometheus exporter and wires the telemetry system
// to it. A port of 0 lets the exporter pick an ephemeral one. The optional
// namespace overrides the metric name prefix, which defaults to serviceName.
func InitMetrics(serviceName string, port int, namespace ...string) error {
	if port < 0 {
		port = 0
	}
	metricsPort = port

	prefix := serviceName
	if len(namespace) > 0 && namespace[0] != "" {
		prefix = namespace[0]
	}

	PrometheusExporter = exporters.NewPrometheusExporter(prefix, fmt.Sprintf(":%d", port))
	if err := PrometheusExporter.Start(); err != nil {
		return err
	}

	if actual, err := resolvePort(PrometheusExporter.GetAddr()); err == nil {
		metricsPort = actual
	} else if port == 0 {
		// Ephemeral bind whose address could not be read back; report the
		// conventional scrape port.
		metricsPort = 9090
	}

	sys, err := telemetry.NewSystem(&telemetry.Config{
		Enabled: true,
		Emitter: PrometheusExporter,
	})
	if err != nil {
		return err
	}
	TelemetrySystem = sys

	return nil
}

// GetMetricsPort reports the port the exporter bound.
func GetMetricsPort() int {
	return metricsPort
}

func resolvePort(addr string) (int, error) {
	_, raw, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(raw)
}
