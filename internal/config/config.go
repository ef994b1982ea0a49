package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	ScheduleModeInterval = "interval"
	ScheduleModeDaily    = "daily"
)

var once sync.Once
var initErr error
var logger *zap.SugaredLogger
var loggerOnce sync.Once

// Config is loaded once at startup and never mutated afterwards.
type Config struct {
	WeatherAPI  WeatherAPIConfig
	Twilio      TwilioConfig
	Notify      NotifyConfig
	Schedule    ScheduleConfig
	Redis       RedisConfig
	Cache       CacheConfig
	Server      ServerConfig
	RateLimiter RateLimiterConfig
	Log         LogConfig
}

type WeatherAPIConfig struct {
	APIURL  string
	APIKey  string
	Units   string
	Timeout time.Duration
}

// TwilioConfig holds messaging credentials. When APIKey is set it is used as
// the basic-auth username and AuthToken is treated as the API key secret.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	APIKey     string
	FromNumber string
}

type NotifyConfig struct {
	Location string
	ToNumber string
}

type ScheduleConfig struct {
	Mode       string
	Interval   time.Duration
	RunOnStart bool
	Hour       int
	Minute     int
	Timezone   string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type CacheConfig struct {
	Expiration time.Duration
}

type ServerConfig struct {
	Port              string
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
}

type RateLimiterConfig struct {
	Rate           float64
	Burst          int
	CleanupTimeout time.Duration
}

type LogConfig struct {
	Development bool
}

// isTestRun returns true if the current process is a Go test binary.
func isTestRun() bool {
	return flag.Lookup("test.v") != nil || filepath.Ext(os.Args[0]) == ".test"
}

func setDefaults() {
	viper.SetDefault("openweathermap.api_url", "https://api.openweathermap.org/data/2.5/weather")
	viper.SetDefault("openweathermap.units", "metric")
	viper.SetDefault("notify.location", "Madison")
	viper.SetDefault("schedule.mode", ScheduleModeInterval)
	viper.SetDefault("schedule.interval", "24h")
	viper.SetDefault("schedule.run_on_start", true)
	viper.SetDefault("schedule.hour", 6)
	viper.SetDefault("schedule.minute", 30)
	viper.SetDefault("schedule.timezone", "Local")
	viper.SetDefault("cache.expiration", "10m")
	viper.SetDefault("server.shutdown_timeout", "10s")
	viper.SetDefault("rate_limiter.rate", 10.0/60.0)
	viper.SetDefault("rate_limiter.burst", 10)
	viper.SetDefault("rate_limiter.cleanup_timeout", "3m")
	viper.SetDefault("log.development", true)
}

func initConfig() {
	once.Do(func() {
		setDefaults()
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		viper.AutomaticEnv()

		root, err := getProjectRoot()
		if err != nil {
			GetLogger().Errorw("Error finding project root", "error", err)
		}
		viper.SetConfigType("yaml")

		viper.SetConfigName("config")
		viper.AddConfigPath(root)
		if err = viper.ReadInConfig(); err != nil {
			GetLogger().Errorw("Error reading config file", "error", err)
			initErr = fmt.Errorf("read config: %w", err)
			return
		}

		if isTestRun() {
			viper.SetConfigName("config_test")
			viper.AddConfigPath(root)
			if err = viper.MergeInConfig(); err != nil {
				GetLogger().Errorw("Error merging test config file", "error", err)
			}
		}
	})
}

func getProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

// Load reads config files, the environment and .env into a Config.
// It does not validate; call Validate before using the result.
func Load() (*Config, error) {
	initConfig()
	if initErr != nil {
		return nil, initErr
	}
	_ = godotenv.Load()

	cfg := &Config{
		WeatherAPI: WeatherAPIConfig{
			APIURL:  viper.GetString("openweathermap.api_url"),
			APIKey:  os.Getenv("OPENWEATHERMAP_API_KEY"),
			Units:   viper.GetString("openweathermap.units"),
			Timeout: viper.GetDuration("openweathermap.timeout"),
		},
		Twilio: TwilioConfig{
			AccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
			AuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
			APIKey:     os.Getenv("TWILIO_API_KEY"),
			FromNumber: os.Getenv("TWILIO_FROM_NUMBER"),
		},
		Notify: NotifyConfig{
			Location: viper.GetString("notify.location"),
			ToNumber: os.Getenv("NOTIFY_TO_NUMBER"),
		},
		Schedule: ScheduleConfig{
			Mode:       viper.GetString("schedule.mode"),
			Interval:   viper.GetDuration("schedule.interval"),
			RunOnStart: viper.GetBool("schedule.run_on_start"),
			Hour:       viper.GetInt("schedule.hour"),
			Minute:     viper.GetInt("schedule.minute"),
			Timezone:   viper.GetString("schedule.timezone"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		Cache: CacheConfig{
			Expiration: viper.GetDuration("cache.expiration"),
		},
		Server: ServerConfig{
			Port:              viper.GetString("server.port"),
			ReadHeaderTimeout: viper.GetDuration("server.read_header_timeout"),
			ReadTimeout:       viper.GetDuration("server.read_timeout"),
			WriteTimeout:      viper.GetDuration("server.write_timeout"),
			IdleTimeout:       viper.GetDuration("server.idle_timeout"),
			ShutdownTimeout:   viper.GetDuration("server.shutdown_timeout"),
		},
		RateLimiter: RateLimiterConfig{
			Rate:           viper.GetFloat64("rate_limiter.rate"),
			Burst:          viper.GetInt("rate_limiter.burst"),
			CleanupTimeout: viper.GetDuration("rate_limiter.cleanup_timeout"),
		},
		Log: LogConfig{
			Development: viper.GetBool("log.development"),
		},
	}
	return cfg, nil
}

// Validate reports every misconfiguration at once.
func (c *Config) Validate() error {
	var errs []error
	required := []struct{ name, value string }{
		{"OPENWEATHERMAP_API_KEY", c.WeatherAPI.APIKey},
		{"TWILIO_ACCOUNT_SID", c.Twilio.AccountSID},
		{"TWILIO_AUTH_TOKEN", c.Twilio.AuthToken},
		{"TWILIO_FROM_NUMBER", c.Twilio.FromNumber},
		{"NOTIFY_TO_NUMBER", c.Notify.ToNumber},
	}
	for _, r := range required {
		if r.value == "" {
			errs = append(errs, fmt.Errorf("%s is not set", r.name))
		}
	}
	if c.WeatherAPI.APIURL == "" {
		errs = append(errs, errors.New("openweathermap.api_url is empty"))
	}
	if c.Notify.Location == "" {
		errs = append(errs, errors.New("notify.location is empty"))
	}

	switch c.Schedule.Mode {
	case ScheduleModeInterval:
		if c.Schedule.Interval <= 0 {
			errs = append(errs, fmt.Errorf("schedule.interval must be positive, got %s", c.Schedule.Interval))
		}
	case ScheduleModeDaily:
		if c.Schedule.Hour < 0 || c.Schedule.Hour > 23 {
			errs = append(errs, fmt.Errorf("schedule.hour must be in [0,23], got %d", c.Schedule.Hour))
		}
		if c.Schedule.Minute < 0 || c.Schedule.Minute > 59 {
			errs = append(errs, fmt.Errorf("schedule.minute must be in [0,59], got %d", c.Schedule.Minute))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown schedule.mode %q", c.Schedule.Mode))
	}
	if _, err := c.Schedule.Location(); err != nil {
		errs = append(errs, fmt.Errorf("schedule.timezone: %w", err))
	}

	return errors.Join(errs...)
}

// Location resolves the configured timezone. An empty name means UTC.
func (s ScheduleConfig) Location() (*time.Location, error) {
	return time.LoadLocation(s.Timezone)
}

// ReloadConfigForTest resets the config singleton and reloads Viper config. Use only in tests.
func ReloadConfigForTest() {
	once = sync.Once{}
	initErr = nil
	initConfig()
}

// NewLogger builds a stdout logger. Development mode uses the console encoder.
func NewLogger(development bool) (*zap.SugaredLogger, error) {
	zc := zap.NewProductionConfig()
	if development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.OutputPaths = []string{"stdout"}
	l, err := zc.Build()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

func GetLogger() *zap.SugaredLogger {
	loggerOnce.Do(func() {
		l, err := NewLogger(true)
		if err != nil {
			panic(err)
		}
		logger = l
	})
	return logger
}
