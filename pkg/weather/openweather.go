package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/maypok86/otter/v2"
)

const (
	defaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"

	// snapshotTTL bounds how stale a cached snapshot may be before the
	// next fetch goes back to the API. Weather does not change faster
	// than this, and the periodic refresh runs on the same order.
	snapshotTTL = 15 * time.Minute
)

// HTTPClient interface for making HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client fetches current conditions from the OpenWeatherMap API.
// Responses are cached in-process by rounded coordinates so card
// refreshes and the background refresh loop do not hammer the API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient HTTPClient
	logger     *slog.Logger
	cache      *otter.Cache[string, Snapshot]
}

// NewClient creates an OpenWeatherMap client. A nil httpClient uses
// http.DefaultClient; a nil logger uses slog.Default.
func NewClient(apiKey string, httpClient HTTPClient, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}

	cache := otter.Must(&otter.Options[string, Snapshot]{
		MaximumSize:      1_000,
		ExpiryCalculator: otter.ExpiryWriting[string, Snapshot](snapshotTTL),
	})

	return &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: httpClient,
		logger:     logger,
		cache:      cache,
	}
}

// Current returns the current conditions at the given coordinates.
// Failures come back as errors for the caller to contain; this client
// never fabricates a snapshot.
func (c *Client) Current(ctx context.Context, lat, lon float64) (*Snapshot, error) {
	if c.apiKey == "" {
		c.logger.Warn("OpenWeatherMap API key not configured - skipping weather fetch")
		return nil, fmt.Errorf("%w: API key not configured", ErrProvider)
	}

	// Two decimal places is roughly 1km, plenty for current conditions.
	cacheKey := fmt.Sprintf("%.2f,%.2f", lat, lon)
	if snap, ok := c.cache.GetIfPresent(cacheKey); ok {
		c.logger.Debug("weather cache hit", "key", cacheKey)
		return &snap, nil
	}

	params := url.Values{}
	params.Set("lat", fmt.Sprintf("%f", lat))
	params.Set("lon", fmt.Sprintf("%f", lon))
	params.Set("appid", c.apiKey)
	params.Set("units", "metric")
	apiURL := c.baseURL + "?" + params.Encode()

	var snap *Snapshot
	err := retry.Do(
		func() error {
			var fetchErr error
			snap, fetchErr = c.fetch(ctx, apiURL)
			return fetchErr
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(200*time.Millisecond),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.MaxJitter(100*time.Millisecond),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Debug("retrying weather fetch", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return nil, err
	}

	c.cache.Set(cacheKey, *snap)
	return snap, nil
}

func (c *Client) fetch(ctx context.Context, apiURL string) (*Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, http.NoBody)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Debug("failed to close response body", "error", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := fmt.Errorf("%w: status %d", ErrProvider, resp.StatusCode)
		// Client errors (bad key, bad coordinates) will not improve on retry.
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, retry.Unrecoverable(apiErr)
		}
		return nil, apiErr
	}

	var result struct {
		Weather []struct {
			Main        string `json:"main"`
			Icon        string `json:"icon"`
			Description string `json:"description"`
		} `json:"weather"`
		Main struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parsing weather response: %w", err)
	}
	if len(result.Weather) == 0 {
		return nil, fmt.Errorf("%w: response carried no conditions", ErrProvider)
	}

	return &Snapshot{
		TemperatureCelsius: int(math.Round(result.Main.Temp)),
		Condition:          result.Weather[0].Main,
		Icon:               result.Weather[0].Icon,
		Description:        result.Weather[0].Description,
	}, nil
}
