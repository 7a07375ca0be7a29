package backend

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/xarlytos/fitplanner/internal/telemetry/metrics"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var ErrNoToken = errors.New("no auth token")

// TokenSource hands out the current bearer token. Where it comes from is up to the caller.
type TokenSource interface {
	Token() (string, error)
}

// StaticToken is a TokenSource for a token known up front.
type StaticToken string

func (t StaticToken) Token() (string, error) {
	if t == "" {
		return "", ErrNoToken
	}
	return string(t), nil
}

type bearerTransport struct {
	tokens TokenSource
	next   http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, err := t.tokens.Token()
	if err != nil {
		if req.Body != nil {
			_ = req.Body.Close()
		}
		return nil, fmt.Errorf("get auth token: %w", err)
	}

	// a RoundTripper must not modify the request it was given
	authReq := req.Clone(req.Context())
	authReq.Header.Set("Authorization", "Bearer "+token)
	return t.next.RoundTrip(authReq)
}

// NewHTTPClient returns an http client that authorizes every request with a token from tokens,
// on top of an otel instrumented transport. A nil metricsManager leaves requests uncounted.
func NewHTTPClient(tokens TokenSource, timeout time.Duration, metricsManager *metrics.Manager) *http.Client {
	middlewares := []Middleware{LogRequest()}
	if metricsManager != nil {
		middlewares = append(middlewares, RequestMetrics(metricsManager))
	}

	return &http.Client{
		Timeout: timeout,
		Transport: &bearerTransport{
			tokens: tokens,
			next:   Chain(otelhttp.NewTransport(http.DefaultTransport), middlewares...),
		},
	}
}
