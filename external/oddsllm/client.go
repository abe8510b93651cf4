package oddsllm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fikstur/fikstur-bot/internal/domain/match"
	"github.com/fikstur/fikstur-bot/internal/platform/cache"
	"github.com/fikstur/fikstur-bot/internal/platform/logging"
	"github.com/fikstur/fikstur-bot/internal/platform/resilience"
	"github.com/fikstur/fikstur-bot/internal/usecase"
)

const (
	defaultBaseURL = "https://openrouter.ai/api/v1"
	defaultModel   = "deepseek/deepseek-chat"

	oddsPrompt = "Estimate win probabilities for the football match %s vs %s. " +
		"Answer with only a JSON object shaped {\"homeWin\":N,\"awayWin\":N,\"draw\":N} " +
		"where the three integers sum to 100. No prose, no code fences."
)

var errOddsTransient = crerr.New("odds model transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	APIKey         string
	Model          string
	Timeout        time.Duration
	MaxRetries     int
	CacheTTL       time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client asks a chat-completion model for win probabilities. The model is a
// guess machine, not a bookmaker; everything it answers is sanity-checked
// and normalized before it leaves this package.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	model          string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	cache          *cache.Store
}

var _ usecase.OddsProvider = (*Client)(nil)

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
		httpClient.Timeout = 30 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	cacheTTL := cfg.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Minute
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		apiKey:         strings.TrimSpace(cfg.APIKey),
		model:          model,
		maxRetries:     cfg.MaxRetries,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
		cache:          cache.NewStore(cacheTTL),
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type oddsPayload struct {
	HomeWin int `json:"homeWin"`
	AwayWin int `json:"awayWin"`
	Draw    int `json:"draw"`
}

// MatchOdds returns normalized win probabilities for one pairing. The same
// pairing inside the cache window never hits the model twice, which matters
// because derbies arrive from both clubs' sync tasks at once.
func (c *Client) MatchOdds(ctx context.Context, homeTeam, awayTeam string) (usecase.Odds, error) {
	homeTeam = strings.TrimSpace(homeTeam)
	awayTeam = strings.TrimSpace(awayTeam)
	if homeTeam == "" || awayTeam == "" {
		return usecase.Odds{}, fmt.Errorf("both team names are required")
	}

	key := strings.ToLower(homeTeam) + "|" + strings.ToLower(awayTeam)
	value, err := c.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		return c.fetchOdds(ctx, homeTeam, awayTeam)
	})
	if err != nil {
		return usecase.Odds{}, err
	}

	odds, ok := value.(usecase.Odds)
	if !ok {
		return usecase.Odds{}, fmt.Errorf("unexpected cached value for odds %q", key)
	}

	return odds, nil
}

func (c *Client) fetchOdds(ctx context.Context, homeTeam, awayTeam string) (usecase.Odds, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "odds circuit breaker rejected request", "state", c.breaker.State())
			return usecase.Odds{}, fmt.Errorf("%w: odds model is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	raw, err := c.complete(ctx, fmt.Sprintf(oddsPrompt, homeTeam, awayTeam))
	if c.circuitEnabled {
		if err != nil && crerr.Is(err, errOddsTransient) {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
	}
	if err != nil {
		return usecase.Odds{}, err
	}

	payload, err := parseOddsAnswer(raw)
	if err != nil {
		return usecase.Odds{}, fmt.Errorf("parse odds answer for %s vs %s: %w", homeTeam, awayTeam, err)
	}

	home, away, draw := match.NormalizeProbabilities(payload.HomeWin, payload.AwayWin, payload.Draw)
	if sum := home + away + draw; sum < 99 || sum > 101 {
		return usecase.Odds{}, fmt.Errorf("odds answer did not normalize: %d/%d/%d", payload.HomeWin, payload.AwayWin, payload.Draw)
	}

	return usecase.Odds{HomeWin: home, AwayWin: away, Draw: draw}, nil
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	body, err := sonic.Marshal(chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}

	fullURL := c.baseURL + "/chat/completions"

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, bytes.NewReader(body))
		if err != nil {
			return "", fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %v", errOddsTransient, err)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", errOddsTransient, readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				var parsed chatResponse
				if err := sonic.Unmarshal(raw, &parsed); err != nil {
					return "", fmt.Errorf("decode chat response: %w", err)
				}
				if len(parsed.Choices) == 0 {
					return "", fmt.Errorf("chat response has no choices")
				}
				return parsed.Choices[0].Message.Content, nil
			case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
				lastErr = fmt.Errorf("%w: model status=%d", errOddsTransient, resp.StatusCode)
			default:
				return "", fmt.Errorf("model status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(raw)))
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
			return "", ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("model request failed")
	}
	return "", lastErr
}

// parseOddsAnswer digs the JSON object out of the model's reply. Models wrap
// answers in code fences or prose no matter how the prompt forbids it.
func parseOddsAnswer(answer string) (oddsPayload, error) {
	text := strings.TrimSpace(answer)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return oddsPayload{}, fmt.Errorf("no JSON object in answer %q", abbreviate(answer))
	}

	var payload oddsPayload
	if err := sonic.Unmarshal([]byte(text[start:end+1]), &payload); err != nil {
		return oddsPayload{}, fmt.Errorf("decode odds object: %w", err)
	}

	if payload.HomeWin < 0 || payload.AwayWin < 0 || payload.Draw < 0 {
		return oddsPayload{}, fmt.Errorf("negative probability in answer %q", abbreviate(answer))
	}
	if payload.HomeWin+payload.AwayWin+payload.Draw == 0 {
		return oddsPayload{}, fmt.Errorf("all-zero probabilities in answer %q", abbreviate(answer))
	}

	return payload, nil
}

func abbreviate(text string) string {
	const limit = 120
	text = strings.TrimSpace(text)
	if len(text) > limit {
		return text[:limit] + "..."
	}
	return text
}
