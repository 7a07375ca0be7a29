package backend

import (
	"net/http"
	"strconv"
	"time"

	"github.com/xarlytos/fitplanner/internal/telemetry/metrics"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

// RoundTripperFunc lets a plain func serve as an http.RoundTripper.
type RoundTripperFunc func(req *http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Middleware wraps a RoundTripper, the client side twin of http.Handler middleware.
type Middleware func(next http.RoundTripper) http.RoundTripper

func LogRequest() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			log.Tracef(" ====> backend request [%s] path: [%s]", req.Method, req.URL.Path)
			resp, err := next.RoundTrip(req)
			if err != nil {
				log.Debugf(" <==== backend request [%s] path: [%s] failed: %s", req.Method, req.URL.Path, err)
				return nil, err
			}
			log.Tracef(" <==== backend request [%s] path: [%s] status: %d", req.Method, req.URL.Path, resp.StatusCode)
			return resp, nil
		})
	}
}

// RequestMetrics counts the backend requests by method and status, and observes their duration.
// Transport errors are counted with the "error" status.
func RequestMetrics(metricsManager *metrics.Manager) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			defer func(begin time.Time) {
				metricsManager.HistBackendRequestDuration.Observe(time.Since(begin).Seconds())
			}(time.Now())

			status := "error"
			resp, err := next.RoundTrip(req)
			if err == nil {
				status = strconv.Itoa(resp.StatusCode)
			}

			metricsManager.CounterBackendRequests.With(
				prometheus.Labels{
					"method": req.Method,
					"status": status,
				},
			).Inc()

			return resp, err
		})
	}
}

// Chain applies the middlewares around rt; the first one is the outermost.
func Chain(rt http.RoundTripper, middlewares ...Middleware) http.RoundTripper {
	for i := len(middlewares) - 1; i >= 0; i-- {
		rt = middlewares[i](rt)
	}
	return rt
}
