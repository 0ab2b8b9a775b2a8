package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/RubachokBoss/edusmart-portal/internal/config"
	"github.com/RubachokBoss/edusmart-portal/internal/delivery/httpd"
	"github.com/RubachokBoss/edusmart-portal/internal/events"
	"github.com/RubachokBoss/edusmart-portal/internal/metrics"
	appmw "github.com/RubachokBoss/edusmart-portal/internal/middleware"
	"github.com/RubachokBoss/edusmart-portal/internal/service"
	"github.com/RubachokBoss/edusmart-portal/internal/service/integration"
	"github.com/RubachokBoss/edusmart-portal/internal/session"
	"github.com/RubachokBoss/edusmart-portal/internal/worker"
	"github.com/RubachokBoss/edusmart-portal/pkg/validation"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

type App struct {
	server      *http.Server
	router      chi.Router
	logger      zerolog.Logger
	config      *config.Config
	pool        *worker.Pool
	store       *session.BoltStore
	publisher   events.Publisher
	stopJanitor context.CancelFunc
}

func New(cfg *config.Config, log zerolog.Logger) (*App, error) {
	m := metrics.New()

	// REST backend
	rest := integration.NewRestClient(
		cfg.API.BaseURL,
		cfg.API.Timeout,
		cfg.API.RetryCount,
		cfg.API.RetryDelay,
		log,
		integration.WithObserver(m),
		integration.WithLocation(cfg.API.Location()),
	)
	authClient := integration.NewAuthClient(rest)
	schoolClient := integration.NewSchoolClient(rest)
	subjectClient := integration.NewSubjectClient(rest)
	assignmentClient := integration.NewAssignmentClient(rest)
	submissionClient := integration.NewSubmissionClient(rest)
	roleClient := integration.NewRoleClient(rest)
	userClient := integration.NewUserClient(rest)

	store, err := session.OpenBoltStore(cfg.Session.Path, cfg.Session.Timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	sessions := session.NewManager(authClient, store, cfg.Session.MaxAge, log)

	var publisher events.Publisher = events.NewNoopPublisher(log)
	if cfg.RabbitMQ.Enabled {
		rabbit, err := events.NewRabbitMQPublisher(events.RabbitMQOptions{
			URL:            cfg.RabbitMQ.URL,
			Exchange:       cfg.RabbitMQ.Exchange,
			ExchangeType:   cfg.RabbitMQ.ExchangeType,
			RoutingKey:     cfg.RabbitMQ.RoutingKey,
			QueueName:      cfg.RabbitMQ.QueueName,
			PublishTimeout: cfg.RabbitMQ.PublishTimeout,
		}, log)
		if err != nil {
			// grading still works, events are dropped
			log.Error().Err(err).Msg("Failed to create RabbitMQ publisher")
		} else {
			publisher = rabbit
		}
	}

	pool := worker.NewPool(cfg.Aggregator.MaxConcurrency, cfg.Aggregator.QueueSize, log)
	pool.Start()

	validator := validation.New()
	cache := service.NewCacheService(cfg.Cache.TTL, cfg.Cache.CleanupInterval)

	schoolService := service.NewSchoolService(schoolClient, cache, validator, log)
	aggregator := service.NewAggregatorService(
		schoolService,
		subjectClient,
		assignmentClient,
		submissionClient,
		pool,
		m,
		log,
	)

	handler := httpd.NewHandler(sessions, cfg.Session.Header, httpd.Services{
		Schools:     schoolService,
		Subjects:    service.NewSubjectService(subjectClient, validator, log),
		Assignments: service.NewAssignmentService(assignmentClient, validator, cfg.API.Location(), log),
		Submissions: service.NewSubmissionService(submissionClient, assignmentClient, log),
		Roles:       service.NewRoleService(roleClient, validator, log),
		Users:       service.NewUserService(userClient, validator, log),
		Aggregator:  aggregator,
		Grading:     service.NewGradingService(submissionClient, aggregator, publisher, validator, m, log),
		Workers:     pool,
	}, validator, log)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(appmw.RequestLogger(log))
	router.Use(appmw.Recovery(log))
	router.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	router.Use(appmw.NewCORS(
		cfg.CORS.AllowedOrigins,
		cfg.CORS.AllowedMethods,
		cfg.CORS.AllowedHeaders,
		cfg.CORS.ExposedHeaders,
		cfg.CORS.AllowCredentials,
		cfg.CORS.MaxAge,
	))

	handler.RegisterRoutes(router)
	if cfg.Metrics.Enabled {
		router.Method(http.MethodGet, cfg.Metrics.Path, m.Handler())
	}

	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	go sessions.RunJanitor(janitorCtx, cfg.Session.CleanupInterval)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &App{
		server:      server,
		router:      router,
		logger:      log,
		config:      cfg,
		pool:        pool,
		store:       store,
		publisher:   publisher,
		stopJanitor: stopJanitor,
	}, nil
}

// Handler exposes the assembled router.
func (a *App) Handler() http.Handler {
	return a.router
}

func (a *App) Run() error {
	a.logger.Info().Msgf("Starting portal service on %s", a.config.Server.Address)
	return a.server.ListenAndServe()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info().Msg("Shutting down portal service...")

	err := a.server.Shutdown(ctx)

	a.stopJanitor()
	a.pool.Stop()

	if err := a.publisher.Close(); err != nil {
		a.logger.Error().Err(err).Msg("Failed to close event publisher")
	}

	if err := a.store.Close(); err != nil {
		a.logger.Error().Err(err).Msg("Failed to close session store")
	}

	return err
}
