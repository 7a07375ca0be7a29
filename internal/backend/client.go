package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/xarlytos/fitplanner/internal/checkin"
	"github.com/xarlytos/fitplanner/internal/planning"
	"github.com/xarlytos/fitplanner/internal/telemetry/tracing"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const (
	planPath    = "/api/plannings/cliente/mi-planning-semanas-dias"
	checkinPath = "/api/plannings/%s/session/%s/set/%s/checkin"

	planCacheKey  = "plan::current"
	planCacheSize = 2 * 1024 * 1024 // 2 MB is plenty for one plan
)

// StatusError is returned for any non-2xx response of the Backend Service.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

type Option func(c *Client)

// WithPlanCache keeps the last fetched plan in memory for ttl. Nothing survives the process.
func WithPlanCache(ttl time.Duration) Option {
	return func(c *Client) {
		if ttl < time.Second {
			return
		}
		c.cache = freecache.NewCache(planCacheSize)
		c.cacheTTLSeconds = int(ttl.Seconds())
	}
}

// Client talks to the Backend Service. The http client it is given must already be authorized,
// see NewHTTPClient.
type Client struct {
	baseURL    string
	httpClient *http.Client

	cache           *freecache.Cache
	cacheTTLSeconds int
}

func NewClient(baseURL string, httpClient *http.Client, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) FetchPlan(ctx context.Context) (_ *planning.PlanRoot, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "backend.client.fetchPlan")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if c.cache != nil {
		if planBytes, cacheErr := c.cache.Get([]byte(planCacheKey)); cacheErr == nil {
			resp := &planResponse{}
			if err := json.Unmarshal(planBytes, resp); err == nil {
				log.Tracef("plan [%s] found in cache", resp.PlanningID)
				span.SetAttributes(attribute.Bool("cache.hit", true))
				return resp.toPlanRoot(), nil
			} else {
				log.Errorf("failed to unmarshal plan from cache: %s", err)
			}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+planPath, nil)
	if err != nil {
		return nil, fmt.Errorf("new plan request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	respBytes, err := c.do(req)
	if err != nil {
		return nil, err
	}

	resp := &planResponse{}
	if err := json.Unmarshal(respBytes, resp); err != nil {
		return nil, fmt.Errorf("unmarshal plan response: %w", err)
	}

	if c.cache != nil {
		if err := c.cache.Set([]byte(planCacheKey), respBytes, c.cacheTTLSeconds); err != nil {
			log.Errorf("failed to cache plan [%s]: %s", resp.PlanningID, err)
		} else {
			log.Debugf("plan [%s] cached for %ds", resp.PlanningID, c.cacheTTLSeconds)
		}
	}

	log.Debugf("fetched plan [%s] with %d week(s)", resp.PlanningID, len(resp.Semanas))
	return resp.toPlanRoot(), nil
}

// PersistSet checks a single set in. A successful check-in drops the cached plan,
// so the next fetch sees the backend's new state.
func (c *Client) PersistSet(ctx context.Context, set checkin.SetCheckin) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "backend.client.persistSet")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.String("plan.id", set.PlanID),
		attribute.String("session.id", set.SessionID),
		attribute.String("set.id", set.SetID),
	)

	body, err := json.Marshal(checkinRequest{
		PesoCliente: set.Weight,
		Reps:        set.Reps,
		Comentario:  set.Comment,
	})
	if err != nil {
		return fmt.Errorf("marshal checkin request: %w", err)
	}

	path := fmt.Sprintf(checkinPath,
		url.PathEscape(set.PlanID),
		url.PathEscape(set.SessionID),
		url.PathEscape(set.SetID),
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new checkin request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if _, err := c.do(req); err != nil {
		return err
	}

	if c.cache != nil {
		c.cache.Del([]byte(planCacheKey))
	}

	log.Debugf("set [%s] checked in: %.2f kg x %d", set.SetID, set.Weight, set.Reps)
	return nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response bytes: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			Method:     req.Method,
			Path:       req.URL.Path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(respBytes)),
		}
	}

	return respBytes, nil
}
