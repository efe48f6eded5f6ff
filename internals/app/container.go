package app

import (
	"context"
	"errors"
	"net/http"

	"endpoint-monitor/config"
	middle "endpoint-monitor/internals/middleware"
	"endpoint-monitor/internals/modules/endpoint"
	"endpoint-monitor/internals/modules/monitor"
	"endpoint-monitor/internals/modules/notification"
	"endpoint-monitor/internals/modules/probe"
	"endpoint-monitor/internals/modules/scheduler"
	"endpoint-monitor/internals/modules/user"
	"endpoint-monitor/internals/security"
	"endpoint-monitor/pkg/httpclient"
	"endpoint-monitor/pkg/logger"
	"endpoint-monitor/pkg/metrics"
	"endpoint-monitor/pkg/rabbitmq"
	"endpoint-monitor/pkg/redisstore"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

type Container struct {
	DB          *pgxpool.Pool
	RedisClient *redisstore.Client
	Logger      *zerolog.Logger
	Metrics     *metrics.Metrics
	Scheduler   *scheduler.Scheduler

	amqpConn    *amqp091.Connection
	publisher   *rabbitmq.Publisher
	eventWorker *notification.EventWorker

	authMW              *middle.AuthMiddleware
	checkLimit          middle.Middleware
	userHandler         *user.Handler
	endpointHandler     *endpoint.Handler
	monitorHandler      *monitor.Handler
	notificationHandler *notification.Handler
}

func NewContainer(ctx context.Context, db *pgxpool.Pool, cfg *config.Config, log *zerolog.Logger) (*Container, error) {
	redisClient, err := redisstore.New(&cfg.Redis)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	validate := validator.New()

	// security
	tokenSvc, err := security.NewTokenService(&cfg.Auth, cfg.ServiceName)
	if err != nil {
		_ = redisClient.Close()
		return nil, err
	}
	hasher := security.NewPasswordHasher(nil)
	authMW := middle.NewAuthMiddleware(tokenSvc)

	// broker events are best effort: run without a broker if it is unreachable
	c := &Container{
		DB:          db,
		RedisClient: redisClient,
		Logger:      log,
		Metrics:     m,
		authMW:      authMW,
	}
	var (
		events     notification.EventSink
		userEvents user.EventSink
	)
	if err := c.connectBroker(ctx, &cfg.RabbitMQ, m); err != nil {
		log.Warn().Err(err).Msg("rabbitmq unavailable, notification and account events disabled")
	} else {
		events = c.eventWorker
		userEvents = c.eventWorker
	}

	// repositories
	userRepo := user.NewRepository(db, logger.Component(log, "user"))
	endpointRepo := endpoint.NewRepository(db, logger.Component(log, "endpoint"))
	logRepo := endpoint.NewLogRepository(db, logger.Component(log, "monitor_log"))
	notificationRepo := notification.NewRepository(db, logger.Component(log, "notification"))

	// services
	userSvc := user.NewService(userRepo, hasher, tokenSvc, user.VerificationOptions{
		Expiry: cfg.Auth.VerificationExpiry,
		URL:    cfg.Auth.VerifyURL,
	}, userEvents, logger.Component(log, "user"))
	endpointSvc := endpoint.NewService(endpointRepo, logRepo, redisClient, cfg.Endpoint, logger.Component(log, "endpoint"))
	notificationSvc := notification.NewService(notificationRepo, logger.Component(log, "notification"))
	dispatcher := notification.NewDispatcher(notificationRepo, events, m, logger.Component(log, "dispatcher"))

	prober := probe.NewProber(httpclient.NewHttpClient(cfg.Probe.MaxRedirects), cfg.Probe.UserAgent, cfg.Probe.Grace)
	coordinator := monitor.NewCoordinator(monitor.Deps{
		Endpoints:    endpointRepo,
		Observations: logRepo,
		Dispatcher:   dispatcher,
		Prober:       prober,
		Cache:        redisClient,
		Metrics:      m,
	}, monitor.Options{
		Staleness:          cfg.Scheduler.Staleness,
		BatchSize:          cfg.Scheduler.BatchSize,
		Concurrency:        cfg.Scheduler.Concurrency,
		HonorCheckInterval: cfg.Scheduler.HonorCheckInterval,
	}, logger.Component(log, "coordinator"))
	monitorSvc := monitor.NewService(endpointSvc, coordinator, logRepo, redisClient, logger.Component(log, "monitor"))

	c.Scheduler = scheduler.NewScheduler(coordinator, cfg.Scheduler, m, logger.Component(log, "scheduler"))

	limiter := redisstore.NewRateLimiter(redisClient, "ratelimit:check", cfg.RateLimit.CheckNowPerMinute, cfg.RateLimit.CheckNowBurst)
	c.checkLimit = middle.RateLimitPerUser(limiter, logger.Component(log, "ratelimit"))

	// handlers
	c.userHandler = user.NewHandler(userSvc, validate)
	c.endpointHandler = endpoint.NewHandler(endpointSvc, validate)
	c.monitorHandler = monitor.NewHandler(monitorSvc)
	c.notificationHandler = notification.NewHandler(notificationSvc)

	return c, nil
}

func (c *Container) connectBroker(ctx context.Context, cfg *config.RabbitMQConfig, m *metrics.Metrics) error {
	conn, err := rabbitmq.NewConnection(ctx, cfg, c.Logger)
	if err != nil {
		return err
	}
	if err := rabbitmq.SetupTopology(conn, cfg); err != nil {
		conn.Close()
		return err
	}
	pub, err := rabbitmq.NewPublisher(conn, cfg.ExchangeName, cfg.RoutingKey)
	if err != nil {
		conn.Close()
		return err
	}

	c.amqpConn = conn
	c.publisher = pub
	c.eventWorker = notification.NewEventWorker(cfg.WorkerCount, cfg.BufferSize, pub, m, logger.Component(c.Logger, "events"))
	return nil
}

// Start launches the background workers.
func (c *Container) Start() {
	if c.eventWorker != nil {
		c.eventWorker.Start()
	}
	c.Scheduler.Start()
}

// Shutdown stops producers before the resources they write to.
func (c *Container) Shutdown(ctx context.Context) error {
	var errs []error

	// 1. Stop firing ticks and wait for the running one
	if err := c.Scheduler.Stop(ctx); err != nil {
		errs = append(errs, err)
	}

	// 2. Flush queued notification events
	if c.eventWorker != nil {
		c.eventWorker.Stop()
	}
	if c.publisher != nil {
		if err := c.publisher.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.amqpConn != nil && !c.amqpConn.IsClosed() {
		if err := c.amqpConn.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	// 3. Close redis and DB pool
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.DB != nil {
		c.DB.Close()
	}
	return errors.Join(errs...)
}

func (c *Container) health(w http.ResponseWriter, r *http.Request) {
	healthHandler(map[string]pinger{
		"postgres": c.DB,
		"redis":    c.RedisClient,
	})(w, r)
}
