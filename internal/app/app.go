package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	grpcProm "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/Nazarious-ucu/nmc-weather-station/internal/config"
	grpcHandler "github.com/Nazarious-ucu/nmc-weather-station/internal/handlers/grpc"
	httpHandler "github.com/Nazarious-ucu/nmc-weather-station/internal/handlers/http"
	"github.com/Nazarious-ucu/nmc-weather-station/internal/models"
	"github.com/Nazarious-ucu/nmc-weather-station/internal/producers"
	"github.com/Nazarious-ucu/nmc-weather-station/internal/scheduler"
	"github.com/Nazarious-ucu/nmc-weather-station/internal/services/cache"
	loggerT "github.com/Nazarious-ucu/nmc-weather-station/internal/services/logger"
	metricsSvc "github.com/Nazarious-ucu/nmc-weather-station/internal/services/metrics"
	"github.com/Nazarious-ucu/nmc-weather-station/internal/services/nmc"
	"github.com/Nazarious-ucu/nmc-weather-station/internal/services/station"
	fLogger "github.com/Nazarious-ucu/nmc-weather-station/pkg/logger"
)

const (
	shutdownTimeout = 10 * time.Second
	healthRefresh   = time.Minute
	staleFactor     = 3
)

// ServiceContainer holds initialized dependencies for servers.
type ServiceContainer struct {
	Scheduler  *scheduler.Scheduler
	Health     *grpcHandler.HealthChecker
	Router     *gin.Engine
	Srv        *http.Server
	GrpcServer *grpc.Server

	fileLogger *zap.Logger
	closers    []func() error
}

// App ties together config, logger, and metrics for startup/shutdown.
type App struct {
	cfg config.Config
	l   zerolog.Logger
	m   *metricsSvc.Metrics

	newRedis func(addr string, db int) *redis.Client
}

func New(cfg config.Config, logger zerolog.Logger, met *metricsSvc.Metrics) *App {
	return &App{
		cfg:      cfg,
		l:        logger,
		m:        met,
		newRedis: newRedisConnection,
	}
}

// Start runs the scheduler and both servers until ctx is done or a server fails.
func (a *App) Start(ctx context.Context) error {
	c, err := a.Init()
	if err != nil {
		return err
	}

	httpLis, err := net.Listen("tcp", a.cfg.HTTPAddress())
	if err != nil {
		a.l.Error().Err(err).Str("address", a.cfg.HTTPAddress()).Msg("failed to listen on HTTP port")
		return errors.Join(err, a.Shutdown(c))
	}
	grpcLis, err := net.Listen("tcp", a.cfg.GrpcAddress())
	if err != nil {
		a.l.Error().Err(err).Str("address", a.cfg.GrpcAddress()).Msg("failed to listen on gRPC port")
		return errors.Join(err, httpLis.Close(), a.Shutdown(c))
	}

	if err := c.Scheduler.Start(ctx); err != nil {
		return errors.Join(err, httpLis.Close(), grpcLis.Close(), a.Shutdown(c))
	}
	go c.Health.Run(ctx, healthRefresh)

	errCh := make(chan error, 2)
	go func() {
		a.l.Info().Str("address", httpLis.Addr().String()).Msg("HTTP server running")
		if err := c.Srv.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		a.l.Info().Str("address", grpcLis.Addr().String()).Msg("gRPC server running")
		if err := c.GrpcServer.Serve(grpcLis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	a.l.Info().
		Str("station", a.cfg.Station.ID).
		Dur("interval", a.cfg.Update.IntervalDuration()).
		Msg("station service started successfully")

	var runErr error
	select {
	case <-ctx.Done():
		a.l.Info().Msg("shutdown signal received, stopping station service")
	case runErr = <-errCh:
		a.l.Error().Err(runErr).Msg("server failed, stopping station service")
	}

	if err := a.Shutdown(c); err != nil {
		a.l.Error().Err(err).Msg("failed to shutdown application")
		return errors.Join(runErr, err)
	}
	a.l.Info().Msg("application shutdown successfully")
	return runErr
}

// Shutdown stops the scheduler, drains both servers and releases connections.
func (a *App) Shutdown(c ServiceContainer) error {
	a.l.Info().Msg("stopping station service…")

	c.Scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if err := c.Srv.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}

	a.l.Info().Msg("shutting down gRPC server")
	c.GrpcServer.GracefulStop()

	if err := closeAll(c.closers); err != nil {
		errs = append(errs, err)
	}

	if err := c.fileLogger.Sync(); err != nil {
		a.l.Warn().Err(err).Msg("failed to sync file logger")
	}

	a.l.Info().Msg("shutdown complete")
	return errors.Join(errs...)
}

// Init wires every component without starting anything.
func (a *App) Init() (ServiceContainer, error) {
	a.l.Info().
		Str("station", a.cfg.Station.ID).
		Str("base_url", a.cfg.Station.BaseURL).
		Bool("redis", a.cfg.Redis.Enabled).
		Bool("rabbitmq", a.cfg.RabbitMQ.Enabled).
		Msg("initializing station service")

	fileLogger, err := fLogger.NewFileLogger(a.cfg.HTTPLogsPath)
	if err != nil {
		a.l.Error().Err(err).Msg("failed to create file logger, outbound requests will not be logged")
		fileLogger = zap.NewNop()
	}

	var c ServiceContainer
	c.fileLogger = fileLogger

	sinks, closers, err := a.setupSinks()
	if err != nil {
		a.l.Error().Err(err).Msg("failed to set up sinks")
		return c, errors.Join(err, closeAll(closers))
	}
	c.closers = closers

	loc := a.cfg.Station.Location()
	httpLogClient := &http.Client{Transport: loggerT.NewRoundTripper(fileLogger, nil)}

	breakerCfg := nmc.BreakerConfig{
		TimeInterval: time.Duration(a.cfg.Breaker.TimeInterval) * time.Second,
		TimeTimeOut:  time.Duration(a.cfg.Breaker.TimeTimeOut) * time.Second,
		RepeatNumber: a.cfg.Breaker.RepeatNumber,
	}
	fetcher := nmc.NewBreakerClient("NMC", breakerCfg,
		nmc.NewClient(a.cfg.Station.BaseURL, a.cfg.Update.FetchTimeoutDuration(), httpLogClient, a.l),
	)

	stationService := station.NewService(
		station.Station{ID: a.cfg.Station.ID, Name: a.cfg.Station.Name},
		fetcher,
		nmc.NewParser(loc),
		nmc.NewForecastBuilder(a.cfg.Update.ForecastDays, loc),
		a.l,
		station.WithUnmappedHook(a.m.RecordUnmapped),
	)

	c.Health = grpcHandler.NewHealthChecker(staleFactor*a.cfg.Update.IntervalDuration(), a.l)
	sinks = append(sinks, c.Health)

	c.Scheduler = scheduler.New(
		stationService,
		scheduler.Config{
			Interval:   a.cfg.Update.IntervalDuration(),
			RetryDelay: a.cfg.Update.RetryDelayDuration(),
			MaxRetries: a.cfg.Update.MaxRetries,
		},
		a.l,
		a.m,
		sinks...,
	)

	router := gin.New()
	router.Use(gin.Recovery(), a.m.HTTPMiddleware())
	router.GET("/metrics", gin.WrapH(a.m.Handler()))
	httpHandler.NewHandler(c.Scheduler).Register(router)
	c.Router = router

	c.Srv = &http.Server{
		Addr:        a.cfg.HTTPAddress(),
		Handler:     router,
		ReadTimeout: time.Duration(a.cfg.Server.ReadTimeout) * time.Second,
	}

	c.GrpcServer = grpc.NewServer(
		grpc.UnaryInterceptor(a.m.UnaryInterceptor()),
		grpc.StreamInterceptor(a.m.StreamInterceptor()),
	)
	healthpb.RegisterHealthServer(c.GrpcServer, c.Health.Server())
	grpcProm.Register(c.GrpcServer)

	return c, nil
}

func (a *App) setupSinks() ([]scheduler.Sink, []func() error, error) {
	var (
		sinks   []scheduler.Sink
		closers []func() error
	)

	if a.cfg.Redis.Enabled {
		redisClient := a.newRedis(a.cfg.Redis.Address(), a.cfg.Redis.DbType)
		closers = append(closers, redisClient.Close)

		stateCache := cache.NewMetricsDecorator[models.State](
			cache.NewRedisClient[models.State](redisClient, a.l, time.Duration(a.cfg.Redis.LiveTime)*time.Hour),
			metricsSvc.NewPromCollector("nmc_station", a.m.Registry()),
		)
		sinks = append(sinks, cache.NewStateSink(stateCache, a.cfg.Station.ID))
	}

	if a.cfg.RabbitMQ.Enabled {
		conn, err := a.setupConn()
		if err != nil {
			return nil, closers, err
		}
		publisher, err := a.setupPublisher(conn)
		if err != nil {
			return nil, closers, errors.Join(err, conn.Close())
		}
		closers = append(closers, func() error {
			publisher.Close()
			return conn.Close()
		})
		sinks = append(sinks, producers.NewProducer(publisher, a.l))
	}

	return sinks, closers, nil
}

func closeAll(closers []func() error) error {
	var errs []error
	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func newRedisConnection(connString string, dbType int) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: connString, DB: dbType})
}
