package serpfeed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fikstur/fikstur-bot/internal/fixturetime"
	"github.com/fikstur/fikstur-bot/internal/platform/cache"
	"github.com/fikstur/fikstur-bot/internal/platform/logging"
	"github.com/fikstur/fikstur-bot/internal/platform/resilience"
	"github.com/fikstur/fikstur-bot/internal/usecase"
)

const defaultBaseURL = "https://serpapi.com/search.json"

var apiKeyParamRegex = regexp.MustCompile(`api_key=[^&\s"']+`)
var errSerpTransient = crerr.New("search feed transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	APIKey         string
	Location       string // forwarded as the search locale hint
	Timeout        time.Duration
	MaxRetries     int
	TeamCacheTTL   time.Duration
	Corrections    []fixturetime.KickoffCorrection
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client talks to the SerpAPI search endpoint. It implements both the
// fixture feed and the team enrichment lookup, since both ride the same
// quota-limited API key.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	location       string
	maxRetries     int
	corrections    []fixturetime.KickoffCorrection
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
	teamCache      *cache.Store
}

var _ usecase.FixtureFeedProvider = (*Client)(nil)
var _ usecase.TeamSearchProvider = (*Client)(nil)

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	teamCacheTTL := cfg.TeamCacheTTL
	if teamCacheTTL <= 0 {
		teamCacheTTL = 6 * time.Hour
	}
	corrections := cfg.Corrections
	if corrections == nil {
		corrections = fixturetime.DefaultKickoffCorrections
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		apiKey:         strings.TrimSpace(cfg.APIKey),
		location:       strings.TrimSpace(cfg.Location),
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		corrections:    corrections,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
		teamCache:      cache.NewStore(teamCacheTTL),
	}
}

// FetchFixtures queries the feed for one club and returns the normalized
// candidates inside the window.
func (c *Client) FetchFixtures(ctx context.Context, club usecase.ClubQuery, window usecase.FixtureWindow) ([]usecase.FixtureCandidate, error) {
	query := strings.TrimSpace(club.Query)
	if query == "" {
		query = strings.TrimSpace(club.Name) + " fixtures"
	}

	var resp rawResponse
	if err := c.doJSON(ctx, query, &resp); err != nil {
		return nil, fmt.Errorf("search fixtures for %s: %w", club.Name, err)
	}

	candidates, stats := extractCandidates(resp, window, c.corrections)
	if stats.postponed > 0 || stats.unparseable > 0 || stats.past > 0 || stats.outOfWindow > 0 {
		c.logger.InfoContext(ctx, "feed rows dropped during extraction",
			"club", club.Name,
			"total", stats.total,
			"kept", len(candidates),
			"postponed", stats.postponed,
			"unparseable", stats.unparseable,
			"past", stats.past,
			"out_of_window", stats.outOfWindow,
		)
	}

	return candidates, nil
}

// SearchTeam resolves logo and short name for a first-seen team. Results are
// cached hard because team identity data never changes between syncs.
func (c *Client) SearchTeam(ctx context.Context, name string) (usecase.TeamProfile, bool, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return usecase.TeamProfile{}, false, fmt.Errorf("team name is required")
	}

	value, err := c.teamCache.GetOrLoad(ctx, strings.ToLower(trimmed), func(ctx context.Context) (any, error) {
		var resp rawResponse
		if err := c.doJSON(ctx, trimmed+" football club", &resp); err != nil {
			return nil, err
		}
		return teamProfileFromResponse(resp), nil
	})
	if err != nil {
		return usecase.TeamProfile{}, false, fmt.Errorf("search team %s: %w", trimmed, err)
	}

	profile, ok := value.(usecase.TeamProfile)
	if !ok {
		return usecase.TeamProfile{}, false, fmt.Errorf("unexpected cached value for team %q", trimmed)
	}
	if profile.Logo == "" && profile.ShortName == "" {
		return usecase.TeamProfile{}, false, nil
	}

	return profile, true, nil
}

func teamProfileFromResponse(resp rawResponse) usecase.TeamProfile {
	profile := usecase.TeamProfile{}
	if resp.SportsResults != nil {
		profile.Logo = strings.TrimSpace(resp.SportsResults.Thumbnail)
	}
	if profile.Logo == "" && resp.KnowledgeGraph != nil {
		profile.Logo = strings.TrimSpace(resp.KnowledgeGraph.Image)
	}
	return profile
}

func (c *Client) doJSON(ctx context.Context, query string, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "search feed circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: search feed is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	values := url.Values{}
	values.Set("q", query)
	values.Set("hl", "en")
	if c.location != "" {
		values.Set("location", c.location)
	}
	values.Set("api_key", c.apiKey)

	fullURL := c.baseURL + "?" + values.Encode()

	out, err, _ := c.flight.Do(query, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && crerr.Is(reqErr, errSerpTransient) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("unexpected response payload type %T", out)
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode feed payload: %w", err)
	}

	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	c.logger.DebugContext(ctx, "search feed request", "preview", buildCurlPreview(fullURL))

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %s", errSerpTransient, sanitizeSensitiveText(err.Error(), c.apiKey))
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
			_ = resp.Body.Close()
			if readErr != nil {
				lastErr = fmt.Errorf("%w: read response body: %v", errSerpTransient, readErr)
			} else if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return raw, nil
			} else if isRetryableStatus(resp.StatusCode) {
				lastErr = fmt.Errorf("%w: feed status=%d body=%s", errSerpTransient, resp.StatusCode, abbreviateBody(raw))
			} else {
				return nil, fmt.Errorf("feed status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("feed request failed")
	}
	c.logger.WarnContext(ctx, "search feed request failed", "url", redactURL(fullURL), "error", lastErr)
	return nil, lastErr
}

// buildCurlPreview renders a redacted reproduction command for debug logs.
func buildCurlPreview(fullURL string) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString("curl -H 'accept: application/json' '")
	_, _ = buf.WriteString(redactURL(fullURL))
	_, _ = buf.WriteString("'")
	return buf.String()
}

func redactURL(fullURL string) string {
	return apiKeyParamRegex.ReplaceAllString(fullURL, "api_key=REDACTED")
}

func sanitizeSensitiveText(value, secret string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	if secret != "" {
		value = strings.ReplaceAll(value, secret, "REDACTED")
	}
	return apiKeyParamRegex.ReplaceAllString(value, "api_key=REDACTED")
}

func isRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func abbreviateBody(raw []byte) string {
	const limit = 256
	text := strings.TrimSpace(string(raw))
	if len(text) > limit {
		return text[:limit] + "..."
	}
	return text
}

func maxInt(left, right int) int {
	if left > right {
		return left
	}
	return right
}
