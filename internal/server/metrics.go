package server

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	apperrors "github.com/namelens/dentalnames/internal/errors"
	"github.com/namelens/dentalnames/internal/observability"
)

// metricsTransport carries /metrics scrapes to the exporter.
var metricsTransport http.RoundTripper = &http.Transport{
	ResponseHeaderTimeout: 5 * time.Second,
}

// MetricsHandler serves the exporter's output on the API port so a single
// scrape target covers the service.
func MetricsHandler(w http.ResponseWriter, r *http.Request) {
	target, err := url.Parse(observability.ScrapeURL())
	if err != nil || target.Host == "" {
		apperrors.RespondWithError(w, r, apperrors.NewServiceUnavailableError("Metrics are disabled"))
		return
	}

	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.Out.URL = target
			pr.Out.Host = target.Host
		},
		Transport: metricsTransport,
		ModifyResponse: func(resp *http.Response) error {
			if resp.Header.Get("Content-Type") == "" {
				resp.Header.Set("Content-Type", "text/plain; version=0.0.4")
			}
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			apperrors.RespondWithError(w, r, apperrors.WrapExternalService(r.Context(), err, "Prometheus exporter unavailable"))
		},
	}
	proxy.ServeHTTP(w, r)
}
