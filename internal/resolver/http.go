package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Harshitk-cp/relspace/internal/domain"
	"github.com/sony/gobreaker"
)

// BreakerConfig controls when the resolver stops calling a failing
// upstream.
type BreakerConfig struct {
	MaxFailures          uint32
	Timeout              time.Duration
	HalfOpenMaxSuccesses uint32
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{MaxFailures: 3, Timeout: 30 * time.Second, HalfOpenMaxSuccesses: 2}
}

// HTTPResolver looks entities up at GET {baseURL}/subjects/{subject}. A 404
// means the entity does not exist. Upstream failures trip a circuit breaker
// so a dead owning domain fails fast.
type HTTPResolver struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

func NewHTTPResolver(baseURL string) *HTTPResolver {
	return NewHTTPResolverWithConfig(baseURL, &http.Client{Timeout: 5 * time.Second}, DefaultBreakerConfig())
}

func NewHTTPResolverWithConfig(baseURL string, client *http.Client, cfg BreakerConfig) *HTTPResolver {
	return &HTTPResolver{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "EntityResolver",
			MaxRequests: cfg.HalfOpenMaxSuccesses,
			Timeout:     cfg.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= cfg.MaxFailures
			},
		}),
	}
}

type entityResponse struct {
	CID     string `json:"cid"`
	Version uint64 `json:"version"`
}

type lookupResult struct {
	status int
	entity entityResponse
}

func (r *HTTPResolver) Resolve(ctx context.Context, ref domain.EntityRef) error {
	out, err := r.breaker.Execute(func() (interface{}, error) {
		return r.lookup(ctx, ref)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return domain.CrossDomainEventError("entity resolver unavailable: " + err.Error())
		}
		return domain.CrossDomainEventError(err.Error())
	}

	res := out.(lookupResult)
	switch res.status {
	case http.StatusOK:
	case http.StatusNotFound:
		return domain.EntityNotFoundError(ref.String())
	default:
		return domain.CIDResolutionError(fmt.Sprintf("%s: status %d", ref, res.status))
	}

	if ref.CID != nil && res.entity.CID != "" && res.entity.CID != *ref.CID {
		return domain.CIDResolutionError(*ref.CID)
	}
	if ref.Version != nil && res.entity.Version != 0 && res.entity.Version < *ref.Version {
		return domain.CIDResolutionError(fmt.Sprintf("%s: latest version is %d", ref, res.entity.Version))
	}
	return nil
}

// lookup performs the request. Only transport failures and 5xx responses
// count against the breaker; 4xx answers are returned as results.
func (r *HTTPResolver) lookup(ctx context.Context, ref domain.EntityRef) (lookupResult, error) {
	q := url.Values{}
	if ref.CID != nil {
		q.Set("cid", *ref.CID)
	}
	if ref.Version != nil {
		q.Set("version", strconv.FormatUint(*ref.Version, 10))
	}
	u := r.baseURL + "/subjects/" + url.PathEscape(ref.Subject())
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return lookupResult{}, fmt.Errorf("create resolve request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return lookupResult{}, fmt.Errorf("resolve request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return lookupResult{}, fmt.Errorf("read resolve response: %w", err)
	}
	if resp.StatusCode >= 500 {
		return lookupResult{}, fmt.Errorf("entity resolver returned status %d: %s", resp.StatusCode, string(body))
	}

	res := lookupResult{status: resp.StatusCode}
	if resp.StatusCode == http.StatusOK && len(body) > 0 {
		if err := json.Unmarshal(body, &res.entity); err != nil {
			return lookupResult{}, fmt.Errorf("unmarshal resolve response: %w", err)
		}
	}
	return res, nil
}

// State reports the breaker state: closed, open or half-open.
func (r *HTTPResolver) State() string {
	return r.breaker.State().String()
}
