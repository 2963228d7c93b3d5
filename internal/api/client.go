package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"account-manager/internal/config"
	"account-manager/internal/constants"
	"account-manager/internal/domain"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"github.com/valyala/fasthttp"
	"go.uber.org/ratelimit"
)

const (
	EndpointPuuid             = "/puuid"
	EndpointElo               = "/elo"
	EndpointChampionMasteries = "/champion-masteries"
	EndpointSummonerLane      = "/summoner-lane"
)

// Client talks to the account statistics service. Every Fetch method
// swallows failures: the zero value means no data is available right now.
type Client struct {
	baseURL    string
	client     *fasthttp.Client
	limiter    ratelimit.Limiter
	maxRetries uint64
	retryBase  time.Duration
	timeout    time.Duration
	logger     zerolog.Logger
}

type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("API error: %d", e.StatusCode)
	}
	return fmt.Sprintf("API error: %d - %s", e.StatusCode, e.Body)
}

func (e *StatusError) retryable() bool {
	return e.StatusCode == fasthttp.StatusTooManyRequests || e.StatusCode >= 500
}

var ErrNoData = errors.New("no data in response")

func NewClient(cfg *config.Config, logger zerolog.Logger) *Client {
	limiter := ratelimit.NewUnlimited()
	if cfg.RemoteRateLimit > 0 {
		limiter = ratelimit.New(cfg.RemoteRateLimit)
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.APIBaseURL, "/"),
		client: &fasthttp.Client{
			MaxConnsPerHost:     constants.RemoteMaxConnsPerHost,
			ReadTimeout:         constants.ExternalAPITimeout,
			WriteTimeout:        constants.ExternalAPITimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		limiter:    limiter,
		maxRetries: cfg.RemoteMaxRetries,
		retryBase:  constants.RemoteRetryBase,
		timeout:    constants.ExternalAPITimeout,
		logger:     logger.With().Str("component", "stats_client").Logger(),
	}
}

type statsRequest struct {
	SummonerName string `json:"summonerName"`
	Tagline      string `json:"tagline"`
}

func (c *Client) FetchPuuid(ctx context.Context, summonerName, tagline string) string {
	body, err := c.post(ctx, EndpointPuuid, summonerName, tagline)
	if err == nil {
		var puuid string
		puuid, err = decodePuuid(body)
		if err == nil {
			return puuid
		}
	}
	c.logFailure(err, EndpointPuuid, summonerName, tagline)
	return ""
}

// FetchElo returns the rank payload untouched.
func (c *Client) FetchElo(ctx context.Context, summonerName, tagline string) json.RawMessage {
	body, err := c.post(ctx, EndpointElo, summonerName, tagline)
	if err == nil {
		switch {
		case !json.Valid(body):
			err = fmt.Errorf("malformed elo payload")
		case !domain.HasPayload(body):
			err = ErrNoData
		default:
			return json.RawMessage(body)
		}
	}
	c.logFailure(err, EndpointElo, summonerName, tagline)
	return nil
}

func (c *Client) FetchChampionMasteries(ctx context.Context, summonerName, tagline string) []domain.ChampionMastery {
	resp, err := fetch[championMasteriesResponse](ctx, c, EndpointChampionMasteries, summonerName, tagline)
	if err == nil {
		if resp != nil && resp.ChampionMasteriesData != nil {
			return resp.ChampionMasteriesData
		}
		err = ErrNoData
	}
	c.logFailure(err, EndpointChampionMasteries, summonerName, tagline)
	return nil
}

func (c *Client) FetchSummonerLane(ctx context.Context, summonerName, tagline string) *domain.SummonerLaneData {
	lane, err := fetch[domain.SummonerLaneData](ctx, c, EndpointSummonerLane, summonerName, tagline)
	if err == nil {
		if lane != nil {
			return lane
		}
		err = ErrNoData
	}
	c.logFailure(err, EndpointSummonerLane, summonerName, tagline)
	return nil
}

func (c *Client) logFailure(err error, endpoint, summonerName, tagline string) {
	c.logger.Warn().
		Err(err).
		Str("endpoint", endpoint).
		Str("summoner", summonerName+"#"+tagline).
		Msg("remote fetch failed")
}

type championMasteriesResponse struct {
	ChampionMasteriesData []domain.ChampionMastery `json:"championMasteriesData"`
}

// fetch decodes a JSON body into T. A JSON null body yields nil, nil.
func fetch[T any](ctx context.Context, c *Client, endpoint, summonerName, tagline string) (*T, error) {
	body, err := c.post(ctx, endpoint, summonerName, tagline)
	if err != nil {
		return nil, err
	}

	var result *T
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	return result, nil
}

func decodePuuid(body []byte) (string, error) {
	var puuid string
	if err := json.Unmarshal(body, &puuid); err != nil {
		var wrapped struct {
			Puuid string `json:"puuid"`
		}
		if err := json.Unmarshal(body, &wrapped); err != nil {
			return "", fmt.Errorf("failed to decode puuid response: %w", err)
		}
		puuid = wrapped.Puuid
	}
	puuid = strings.TrimSpace(puuid)
	if puuid == "" {
		return "", ErrNoData
	}
	return puuid, nil
}

// post retries network errors, 429 and 5xx with jittered exponential backoff.
func (c *Client) post(ctx context.Context, endpoint, summonerName, tagline string) ([]byte, error) {
	payload, err := json.Marshal(statsRequest{SummonerName: summonerName, Tagline: tagline})
	if err != nil {
		return nil, err
	}

	b := retry.NewExponential(c.retryBase)
	b = retry.WithJitterPercent(constants.RemoteRetryJitterPct, b)
	b = retry.WithMaxRetries(c.maxRetries, b)

	var body []byte
	err = retry.Do(ctx, b, func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.limiter.Take()

		out, err := c.do(ctx, c.baseURL+endpoint, payload)
		if err != nil {
			var statusErr *StatusError
			if errors.As(err, &statusErr) && !statusErr.retryable() {
				return err
			}
			c.logger.Debug().Err(err).Str("endpoint", endpoint).Msg("retrying remote request")
			return retry.RetryableError(err)
		}
		body = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, url string, payload []byte) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("Accept", "application/json")
	req.SetBody(payload)

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, err
	}

	status := resp.StatusCode()
	if status < 200 || status >= 300 {
		return nil, &StatusError{StatusCode: status, Body: truncate(string(resp.Body()), 200)}
	}

	// resp.Body is only valid until the response is released.
	return append([]byte(nil), resp.Body()...), nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n]
}
