package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/fakhrymubarak/weather-text/internal/model"
	redisv9 "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Custom error types
var (
	ErrLocationNotFound  = errors.New("location not found")
	ErrAPIKeyMissing     = errors.New("API key missing")
	ErrExternalAPI       = errors.New("external API error")
	ErrMalformedResponse = errors.New("malformed weather response")
)

// WeatherRepository defines the interface for weather data access
type WeatherRepository interface {
	GetWeather(ctx context.Context, location string) (*model.WeatherReading, error)
	// FetchWeather skips the cache read but still refreshes the cached entry.
	FetchWeather(ctx context.Context, location string) (*model.WeatherReading, error)
}

// Cache is the part of a Redis client the repository needs.
type Cache interface {
	Get(ctx context.Context, key string) *redisv9.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redisv9.StatusCmd
}

// Options configures a weather repository. A nil Cache disables caching.
type Options struct {
	APIURL     string
	APIKey     string
	Units      string
	Cache      Cache
	CacheTTL   time.Duration
	HTTPClient *http.Client
	Logger     *zap.SugaredLogger
}

// weatherRepository implements WeatherRepository
type weatherRepository struct {
	apiURL      string
	apiKey      string
	units       string
	redisClient Cache
	cacheTTL    time.Duration
	httpClient  *http.Client
	logger      *zap.SugaredLogger
}

// NewWeatherRepository creates a new weather repository instance
func NewWeatherRepository(opts Options) WeatherRepository {
	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &weatherRepository{
		apiURL:      opts.APIURL,
		apiKey:      opts.APIKey,
		units:       opts.Units,
		redisClient: opts.Cache,
		cacheTTL:    opts.CacheTTL,
		httpClient:  client,
		logger:      logger,
	}
}

// GetWeather retrieves weather data, checking cache first, then external API
func (r *weatherRepository) GetWeather(ctx context.Context, location string) (*model.WeatherReading, error) {
	if location == "" {
		return nil, ErrLocationNotFound
	}

	if cached, err := r.getFromCache(ctx, location); err == nil {
		return cached, nil
	}

	weather, err := r.fetchFromExternalAPI(ctx, location)
	if err != nil {
		return nil, err
	}

	r.cacheWeather(ctx, location, weather)

	return weather, nil
}

func (r *weatherRepository) FetchWeather(ctx context.Context, location string) (*model.WeatherReading, error) {
	if location == "" {
		return nil, ErrLocationNotFound
	}

	weather, err := r.fetchFromExternalAPI(ctx, location)
	if err != nil {
		return nil, err
	}

	r.cacheWeather(ctx, location, weather)

	return weather, nil
}

func cacheKey(location string) string {
	return "weather:" + location
}

// getFromCache retrieves weather data from Redis cache
func (r *weatherRepository) getFromCache(ctx context.Context, location string) (*model.WeatherReading, error) {
	if r.redisClient == nil {
		return nil, redisv9.Nil
	}

	val, err := r.redisClient.Get(ctx, cacheKey(location)).Result()
	if err != nil {
		if !errors.Is(err, redisv9.Nil) {
			r.logger.Warnw("weather cache read failed", "location", location, "error", err)
		}
		return nil, err
	}

	var weather model.WeatherReading
	if err := json.Unmarshal([]byte(val), &weather); err != nil {
		return nil, err
	}

	weather.Cached = true
	return &weather, nil
}

func (r *weatherRepository) requestURL(location string) (string, error) {
	u, err := url.Parse(r.apiURL)
	if err != nil {
		return "", fmt.Errorf("%w: bad api url: %v", ErrExternalAPI, err)
	}
	q := u.Query()
	q.Set("q", location)
	q.Set("appid", r.apiKey)
	if r.units != "" {
		q.Set("units", r.units)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// fetchFromExternalAPI retrieves weather data from OpenWeatherMap API
func (r *weatherRepository) fetchFromExternalAPI(ctx context.Context, location string) (*model.WeatherReading, error) {
	if r.apiKey == "" {
		return nil, ErrAPIKeyMissing
	}

	endpoint, err := r.requestURL(location)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExternalAPI, err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExternalAPI, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if resp.StatusCode == http.StatusNotFound {
			return nil, ErrLocationNotFound
		}
		return nil, fmt.Errorf("%w: status %d", ErrExternalAPI, resp.StatusCode)
	}

	var data model.OpenWeatherMapResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if data.Main.Temp == nil {
		return nil, fmt.Errorf("%w: missing main.temp", ErrMalformedResponse)
	}
	if len(data.Weather) == 0 {
		return nil, fmt.Errorf("%w: empty weather list", ErrMalformedResponse)
	}

	name := data.Name
	if name == "" {
		name = location
	}
	return &model.WeatherReading{
		Location:    name,
		Temperature: *data.Main.Temp,
		Description: data.Weather[0].Description,
		Cached:      false,
	}, nil
}

// cacheWeather stores weather data in Redis cache
func (r *weatherRepository) cacheWeather(ctx context.Context, location string, weather *model.WeatherReading) {
	if r.redisClient == nil || r.cacheTTL <= 0 {
		return
	}

	b, err := json.Marshal(weather)
	if err != nil {
		return
	}
	if err := r.redisClient.Set(ctx, cacheKey(location), b, r.cacheTTL).Err(); err != nil {
		r.logger.Warnw("weather cache write failed", "location", location, "error", err)
	}
}
