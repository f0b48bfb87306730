package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	hourlyFields = "temperature_2m,precipitation,relativehumidity_2m,windspeed_10m,winddirection_10m,uv_index"
	dailyFields  = "temperature_2m_max,temperature_2m_min,precipitation_sum,sunrise,sunset,uv_index_max"

	MaxBatchLocations = 20
	batchConcurrency  = 4
)

var (
	ErrInvalidCoordinates = errors.New("invalid latitude or longitude")
	ErrUnavailable        = errors.New("weather service unavailable")
)

// UpstreamError is returned when the forecast provider answers with a
// non-2xx status.
type UpstreamError struct {
	StatusCode int
	Reason     string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("weather upstream returned %d: %s", e.StatusCode, e.Reason)
}

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (c Coordinates) Validate() error {
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) {
		return ErrInvalidCoordinates
	}
	if c.Latitude < -90 || c.Latitude > 90 || c.Longitude < -180 || c.Longitude > 180 {
		return ErrInvalidCoordinates
	}
	return nil
}

// ParseCoordinates reads query-string values; both are required.
func ParseCoordinates(lat, lon string) (Coordinates, error) {
	if lat == "" || lon == "" {
		return Coordinates{}, fmt.Errorf("%w: latitude and longitude are required", ErrInvalidCoordinates)
	}
	latitude, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return Coordinates{}, ErrInvalidCoordinates
	}
	longitude, err := strconv.ParseFloat(lon, 64)
	if err != nil {
		return Coordinates{}, ErrInvalidCoordinates
	}
	coords := Coordinates{Latitude: latitude, Longitude: longitude}
	return coords, coords.Validate()
}

type Forecast struct {
	Current  json.RawMessage `json:"current"`
	Hourly   json.RawMessage `json:"hourly"`
	Daily    json.RawMessage `json:"daily"`
	Location Coordinates     `json:"location"`
}

type BatchLocation struct {
	Name string  `json:"name,omitempty"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

type BatchResult struct {
	BatchLocation
	Weather json.RawMessage `json:"weather"`
}

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type Options struct {
	BaseURL  string
	Timeout  time.Duration
	Cache    Cache
	CacheTTL time.Duration
	// RateLimit caps upstream requests per second; zero disables it.
	RateLimit float64
}

type Client struct {
	http     *http.Client
	baseURL  string
	cache    Cache
	cacheTTL time.Duration
	limiter  *rate.Limiter
	log      zerolog.Logger
}

func NewClient(opts Options, log zerolog.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	c := &Client{
		http:     &http.Client{Timeout: opts.Timeout},
		baseURL:  opts.BaseURL,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		log:      log.With().Str("component", "weather").Logger(),
	}
	if opts.RateLimit > 0 {
		burst := int(opts.RateLimit)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return c
}

type upstreamForecast struct {
	CurrentWeather json.RawMessage `json:"current_weather"`
	Hourly         json.RawMessage `json:"hourly"`
	Daily          json.RawMessage `json:"daily"`
}

func (c *Client) Forecast(ctx context.Context, coords Coordinates) (*Forecast, error) {
	if err := coords.Validate(); err != nil {
		return nil, err
	}

	key := cacheKey("forecast", coords)
	if cached, ok := c.cached(ctx, key); ok {
		var forecast Forecast
		if err := json.Unmarshal(cached, &forecast); err == nil {
			forecast.Location = coords
			return &forecast, nil
		}
	}

	params := url.Values{}
	params.Set("hourly", hourlyFields)
	params.Set("daily", dailyFields)
	params.Set("timezone", "auto")

	var body upstreamForecast
	if err := c.get(ctx, coords, params, &body); err != nil {
		return nil, err
	}

	forecast := &Forecast{
		Current:  orEmpty(body.CurrentWeather),
		Hourly:   orEmpty(body.Hourly),
		Daily:    orEmpty(body.Daily),
		Location: coords,
	}
	c.store(ctx, key, forecast)
	return forecast, nil
}

// CurrentBatch fetches current conditions for each location, in input order.
// Any failing location fails the whole batch.
func (c *Client) CurrentBatch(ctx context.Context, locations []BatchLocation) ([]BatchResult, error) {
	if len(locations) == 0 || len(locations) > MaxBatchLocations {
		return nil, fmt.Errorf("%w: between 1 and %d locations are required", ErrInvalidCoordinates, MaxBatchLocations)
	}
	for _, loc := range locations {
		if err := (Coordinates{Latitude: loc.Lat, Longitude: loc.Lon}).Validate(); err != nil {
			return nil, err
		}
	}

	results := make([]BatchResult, len(locations))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)
	for i, loc := range locations {
		i, loc := i, loc
		g.Go(func() error {
			var body upstreamForecast
			if err := c.get(gCtx, Coordinates{Latitude: loc.Lat, Longitude: loc.Lon}, url.Values{}, &body); err != nil {
				return err
			}
			results[i] = BatchResult{BatchLocation: loc, Weather: orEmpty(body.CurrentWeather)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Client) get(ctx context.Context, coords Coordinates, params url.Values, out any) error {
	params.Set("latitude", strconv.FormatFloat(coords.Latitude, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(coords.Longitude, 'f', -1, 64))
	params.Set("current_weather", "true")

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build weather request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Msg("weather upstream unreachable")
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var reason struct {
			Reason string `json:"reason"`
		}
		_ = json.Unmarshal(payload, &reason)
		if reason.Reason == "" {
			reason.Reason = http.StatusText(resp.StatusCode)
		}
		c.log.Warn().Int("status", resp.StatusCode).Str("reason", reason.Reason).Msg("weather upstream error")
		return &UpstreamError{StatusCode: resp.StatusCode, Reason: reason.Reason}
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode weather response: %w", err)
	}
	return nil
}

func (c *Client) cached(ctx context.Context, key string) ([]byte, bool) {
	if c.cache == nil {
		return nil, false
	}
	value, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("weather cache read failed")
		return nil, false
	}
	return value, ok
}

func (c *Client) store(ctx context.Context, key string, forecast *Forecast) {
	if c.cache == nil || c.cacheTTL <= 0 {
		return
	}
	value, err := json.Marshal(forecast)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, value, c.cacheTTL); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("weather cache write failed")
	}
}

// cacheKey rounds to two decimals, roughly 1km, so nearby lookups share an entry.
func cacheKey(kind string, coords Coordinates) string {
	return fmt.Sprintf("weather:%s:%.2f:%.2f", kind, coords.Latitude, coords.Longitude)
}

func orEmpty(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || string(raw) == "null" {
		return json.RawMessage("{}")
	}
	return raw
}
