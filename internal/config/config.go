package config

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const maxForecastDays = 7

type Station struct {
	ID        string `envconfig:"NMC_STATION_ID" required:"true"`
	Name      string `envconfig:"NMC_STATION_NAME" default:"weathernmc"`
	BaseURL   string `envconfig:"NMC_BASE_URL" default:"http://www.nmc.cn"`
	UTCOffset int    `envconfig:"NMC_UTC_OFFSET" default:"8"`
}

// Location is the fixed zone the station publishes its timestamps in.
func (s Station) Location() *time.Location {
	return time.FixedZone(fmt.Sprintf("UTC%+d", s.UTCOffset), s.UTCOffset*int(time.Hour/time.Second))
}

// Update durations are in seconds.
type Update struct {
	Interval     int `envconfig:"UPDATE_INTERVAL" default:"1800"`
	FetchTimeout int `envconfig:"UPDATE_FETCH_TIMEOUT" default:"20"`
	RetryDelay   int `envconfig:"UPDATE_RETRY_DELAY" default:"5"`
	MaxRetries   int `envconfig:"UPDATE_MAX_RETRIES" default:"1"`
	ForecastDays int `envconfig:"UPDATE_FORECAST_DAYS" default:"7"`
}

type Server struct {
	Host        string `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	HTTPPort    string `envconfig:"SERVER_HTTP_PORT" default:"8080"`
	GrpcPort    string `envconfig:"SERVER_GRPC_PORT" default:"50051"`
	ReadTimeout int    `envconfig:"SERVER_TIMEOUT" default:"10"`
}

type Breaker struct {
	TimeInterval int    `envconfig:"BREAKER_INTERVAL" default:"30"`
	TimeTimeOut  int    `envconfig:"BREAKER_TIMEOUT" default:"60"`
	RepeatNumber uint32 `envconfig:"BREAKER_REPEAT_NUM" default:"5"`
}

type Redis struct {
	Enabled  bool   `envconfig:"REDIS_ENABLED" default:"false"`
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     string `envconfig:"REDIS_PORT" default:"6379"`
	DbType   int    `envconfig:"REDIS_DB_TYPE" default:"0"`
	LiveTime int    `envconfig:"REDIS_LIVE_TIME" default:"1"` // hours
}

type RabbitMQ struct {
	Enabled bool   `envconfig:"RABBITMQ_ENABLED" default:"false"`
	Host    string `envconfig:"RABBITMQ_HOST" default:"localhost"`
	Port    string `envconfig:"RABBITMQ_PORT" default:"5672"`
	User    string `envconfig:"RABBITMQ_USER" default:"guest"`
	Pass    string `envconfig:"RABBITMQ_PASSWORD" default:"guest"`
}

type Config struct {
	Station  Station
	Update   Update
	Server   Server
	Breaker  Breaker
	Redis    Redis
	RabbitMQ RabbitMQ

	LogsPath     string `envconfig:"LOGS_PATH" default:"./log/nmc-weather-station.log"`
	HTTPLogsPath string `envconfig:"HTTP_LOGS_PATH" default:"./log/nmc-http.log"`
}

func NewConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Station.ID == "" {
		errs = append(errs, errors.New("NMC_STATION_ID must not be empty"))
	}
	if c.Update.Interval <= 0 {
		errs = append(errs, fmt.Errorf("UPDATE_INTERVAL must be positive, got %d", c.Update.Interval))
	}
	if c.Update.FetchTimeout <= 0 {
		errs = append(errs, fmt.Errorf("UPDATE_FETCH_TIMEOUT must be positive, got %d", c.Update.FetchTimeout))
	}
	if c.Update.RetryDelay < 0 {
		errs = append(errs, fmt.Errorf("UPDATE_RETRY_DELAY must not be negative, got %d", c.Update.RetryDelay))
	}
	if c.Update.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("UPDATE_MAX_RETRIES must not be negative, got %d", c.Update.MaxRetries))
	}
	if c.Update.ForecastDays < 1 || c.Update.ForecastDays > maxForecastDays {
		errs = append(errs, fmt.Errorf("UPDATE_FORECAST_DAYS must be within 1..%d, got %d",
			maxForecastDays, c.Update.ForecastDays))
	}
	return errors.Join(errs...)
}

func (c *Config) HTTPAddress() string {
	return net.JoinHostPort(c.Server.Host, c.Server.HTTPPort)
}

func (c *Config) GrpcAddress() string {
	return net.JoinHostPort(c.Server.Host, c.Server.GrpcPort)
}

func (u Update) IntervalDuration() time.Duration {
	return time.Duration(u.Interval) * time.Second
}

func (u Update) FetchTimeoutDuration() time.Duration {
	return time.Duration(u.FetchTimeout) * time.Second
}

func (u Update) RetryDelayDuration() time.Duration {
	return time.Duration(u.RetryDelay) * time.Second
}

func (r *Redis) Address() string {
	return net.JoinHostPort(r.Host, r.Port)
}

func (r *RabbitMQ) Address() string {
	return fmt.Sprintf("amqp://%s:%s@%s/", r.User, r.Pass, net.JoinHostPort(r.Host, r.Port))
}
