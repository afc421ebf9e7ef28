package app

import (
	"net/http"

	"github.com/newrelic/go-agent/v3/newrelic"
	"go.uber.org/zap"

	"sangihetrip/internal/apiclient"
	"sangihetrip/internal/config"
)

// NewBackendClient creates the REST client for the SangiheTrip API. With New
// Relic enabled, outgoing calls become external segments of the request's
// transaction.
func NewBackendClient(cfg config.BackendConfig, nrApp *newrelic.Application, metrics *apiclient.Metrics, logger *zap.Logger) *apiclient.Client {
	transport := http.DefaultTransport
	if nrApp != nil {
		transport = newrelic.NewRoundTripper(transport)
	}

	opts := []apiclient.Option{
		apiclient.WithHTTPClient(&http.Client{Timeout: cfg.Timeout, Transport: transport}),
		apiclient.WithLogger(logger.Named("backend")),
	}
	if metrics != nil {
		opts = append(opts, apiclient.WithMetrics(metrics))
	}
	return apiclient.New(cfg.BaseURL, opts...)
}
