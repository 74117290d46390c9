package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Provider is a meter provider bridged to a private Prometheus registry.
type Provider struct {
	MeterProvider *sdkmetric.MeterProvider
	registry      *prometheus.Registry
}

// NewProvider builds the SDK meter provider with a Prometheus reader.
func NewProvider() (*Provider, error) {
	registry := prometheus.NewRegistry()
	exporter, err := promexporter.New(promexporter.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	return &Provider{MeterProvider: mp, registry: registry}, nil
}

// Handler serves the registry in Prometheus text format.
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Shutdown flushes and stops the meter provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	return p.MeterProvider.Shutdown(ctx)
}

// Serve exposes /metrics on listen until ctx is done. An empty listen
// address disables the endpoint and blocks until ctx is done.
func (p *Provider) Serve(ctx context.Context, listen string, logger *slog.Logger) error {
	listen = strings.TrimSpace(listen)
	if listen == "" {
		<-ctx.Done()
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", p.Handler())
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	ln, err := net.Listen("tcp", listen)
	if err != nil {
		return fmt.Errorf("listen metrics %q: %w", listen, err)
	}
	if logger != nil {
		logger.Info("metrics endpoint listening", "addr", ln.Addr().String())
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve metrics: %w", err)
	}
}
