package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"github.com/desertthunder/songrec/internal/models"
	"github.com/desertthunder/songrec/internal/shared"
)

// DefaultEndpoint is used when no endpoint is configured.
const DefaultEndpoint = "http://127.0.0.1:8000/recommend"

// RecommendationClient posts [Request] bodies to the recommendation endpoint.
//
// Requests pass through a token bucket so bursts of random adds do not flood the endpoint.
// There is no retry and no timeout beyond what the underlying transport applies.
type RecommendationClient struct {
	endpoint   string
	httpClient *http.Client
	limiter    *rate.Limiter
	lookup     models.Lookup
	logger     *log.Logger
}

// ClientOpts configures a [RecommendationClient].
type ClientOpts struct {
	Endpoint   string
	HTTPClient *http.Client
	// RateLimit is requests per second; zero or negative disables limiting.
	RateLimit float64
	Burst     int
	// Lookup merges server records against the local catalog.
	Lookup models.Lookup
	Logger *log.Logger
}

// NewRecommendationClient creates a client. A nil HTTPClient uses [http.DefaultClient].
func NewRecommendationClient(opts ClientOpts) *RecommendationClient {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.NopLogger()
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	burst := max(opts.Burst, 1)

	return &RecommendationClient{
		endpoint:   opts.Endpoint,
		httpClient: opts.HTTPClient,
		limiter:    rate.NewLimiter(limit, burst),
		lookup:     opts.Lookup,
		logger:     opts.Logger,
	}
}

// NewFromConfig builds a client from the recommender section of the config.
//
// When client credentials are configured the HTTP client fetches and refreshes
// bearer tokens through the OAuth2 client-credentials flow.
func NewFromConfig(ctx context.Context, cfg shared.RecommenderConfig, lookup models.Lookup, logger *log.Logger) *RecommendationClient {
	opts := ClientOpts{
		Endpoint:  cfg.Endpoint,
		RateLimit: cfg.RateLimit,
		Burst:     cfg.Burst,
		Lookup:    lookup,
		Logger:    logger,
	}

	if cfg.Auth.Enabled() {
		cc := &clientcredentials.Config{
			ClientID:     cfg.Auth.ClientID,
			ClientSecret: cfg.Auth.ClientSecret,
			TokenURL:     cfg.Auth.TokenURL,
			Scopes:       cfg.Auth.Scopes,
		}
		opts.HTTPClient = cc.Client(ctx)
	}

	return NewRecommendationClient(opts)
}

// Endpoint returns the URL requests are posted to.
func (c *RecommendationClient) Endpoint() string {
	return c.endpoint
}

// FetchMetadata requests metadata for ids.
func (c *RecommendationClient) FetchMetadata(ctx context.Context, ids []int) ([]models.SongMetadata, error) {
	req := Request{Type: RequestMetadata, Songs: nonNil(ids), Genres: []string{}, TopK: len(ids)}
	return c.do(ctx, req)
}

// FetchRecommendations requests count recommendations for seeds restricted to genres.
func (c *RecommendationClient) FetchRecommendations(ctx context.Context, seeds []int, genres []string, count int) ([]models.SongMetadata, error) {
	if genres == nil {
		genres = []string{}
	}
	req := Request{Type: RequestRecs, Songs: nonNil(seeds), Genres: genres, TopK: count}
	return c.do(ctx, req)
}

func (c *RecommendationClient) do(ctx context.Context, body Request) ([]models.SongMetadata, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", shared.ErrAPIRequest, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("posting to recommender", "type", body.Type, "songs", len(body.Songs), "topk", body.TopK)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", shared.ErrAPIRequest, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, resp.StatusCode, truncate(raw, 200))
	}

	var decoded Response
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrMalformedResponse, err)
	}
	if decoded.Songs == nil {
		return nil, fmt.Errorf("%w: missing songs field", shared.ErrMalformedResponse)
	}

	return models.MergeAll(c.lookup, *decoded.Songs), nil
}

func nonNil(ids []int) []int {
	if ids == nil {
		return []int{}
	}
	return ids
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
