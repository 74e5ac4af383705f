package main

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/septivank/rnsync-vitals/internal/api"
	"github.com/septivank/rnsync-vitals/internal/auth"
	"github.com/septivank/rnsync-vitals/internal/bridge"
	"github.com/septivank/rnsync-vitals/internal/config"
	"github.com/septivank/rnsync-vitals/internal/db"
	"github.com/septivank/rnsync-vitals/internal/mq"
	"github.com/septivank/rnsync-vitals/internal/realtime"
	"github.com/septivank/rnsync-vitals/internal/repository"
	"github.com/septivank/rnsync-vitals/internal/service"
	"github.com/septivank/rnsync-vitals/internal/validator"
)

func newApp(cfg *config.Config, logger *zap.Logger) *fx.App {
	return fx.New(
		appOptions(cfg, logger),
		fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l.Named("fx")}
		}),
	)
}

func appOptions(cfg *config.Config, logger *zap.Logger) fx.Option {
	options := []fx.Option{
		fx.Supply(cfg, logger),
		fx.Provide(
			ProvideGateway,
			realtime.NewHub,
			ProvideValidator,
			ProvideNotifier,
			ProvidePatientService,
			service.NewFileService,
			service.NewIngestService,
			ProvideIdentityProvider,
			auth.NewService,
			ProvideRealtimeHandler,
			ProvideRouter,
			api.NewServer,
		),
		fx.Invoke(startServer),
	}

	if cfg.RabbitMQ.Enabled() {
		options = append(options,
			fx.Provide(ProvideMQConnection, ProvidePublisher),
			fx.Invoke(startIngestConsumer),
		)
	}
	if cfg.MQTT.Enabled() {
		options = append(options, fx.Invoke(startMQTTBridge))
	}
	if cfg.Kafka.Enabled() {
		options = append(options, fx.Invoke(startKafkaBridge))
	}

	return fx.Options(options...)
}

// ProvideGateway opens the datastore gateway selected by DATASTORE_DRIVER
func ProvideGateway(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (repository.Gateway, error) {
	ds := cfg.Datastore

	switch ds.Driver {
	case config.DriverREST:
		if ds.URL == "" || ds.Key == "" {
			logger.Warn("SUPABASE_URL or SUPABASE_KEY not set; reads will fail until configured")
		}
		return repository.NewRESTGateway(repository.RESTConfig{
			URL:                          ds.URL,
			Key:                          ds.Key,
			SkipInsertWithoutCredentials: ds.SkipInsertWithoutCredentials,
			Logger:                       logger,
		}), nil

	case config.DriverPostgres:
		pool, err := db.NewLifecyclePool(lc, logger, ds.DatabaseURL, ds.MaxConns)
		if err != nil {
			return nil, err
		}
		return repository.NewPostgresGateway(pool), nil

	case config.DriverSQLite:
		conn, err := db.OpenSQLite(context.Background(), ds.SQLitePath)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error {
				return conn.Close()
			},
		})
		logger.Info("sqlite datastore opened", zap.String("path", ds.SQLitePath))
		return repository.NewSQLiteGateway(conn), nil

	case config.DriverMemory:
		logger.Warn("using in-memory datastore; data is lost on restart")
		return repository.NewMemoryGateway(), nil
	}

	return nil, fmt.Errorf("unsupported datastore driver %q", ds.Driver)
}

// ProvideValidator creates the ingest validator
func ProvideValidator() *validator.Validator {
	return validator.NewValidator(nil)
}

type notifierParams struct {
	fx.In

	Hub       *realtime.Hub
	Publisher *mq.Publisher `optional:"true"`
}

// ProvideNotifier fans stored readings out to realtime subscribers and, when
// RabbitMQ is configured, to the events exchange
func ProvideNotifier(p notifierParams) service.ReadingNotifier {
	notifiers := service.Notifiers{p.Hub}
	if p.Publisher != nil {
		notifiers = append(notifiers, p.Publisher)
	}
	return notifiers
}

// ProvidePatientService creates the patient service
func ProvidePatientService(gateway repository.Gateway, notifier service.ReadingNotifier, logger *zap.Logger) *service.PatientService {
	return service.NewPatientService(gateway, notifier, logger)
}

// ProvideIdentityProvider selects the token verifier for the realtime channel
func ProvideIdentityProvider(cfg *config.Config) (auth.IdentityProvider, error) {
	return auth.NewProvider(cfg.Auth)
}

// ProvideRealtimeHandler creates the WebSocket handler
func ProvideRealtimeHandler(
	hub *realtime.Hub,
	authService *auth.Service,
	ingest *service.IngestService,
	patients *service.PatientService,
	logger *zap.Logger,
) *realtime.Handler {
	return realtime.NewHandler(hub, authService, ingest, patients, logger)
}

// ProvideRouter creates the REST router
func ProvideRouter(cfg *config.Config, patients *service.PatientService, files *service.FileService, logger *zap.Logger) *api.Router {
	return api.NewRouter(patients, files, cfg.PathPrefix, logger)
}

// ProvideMQConnection creates the RabbitMQ connection
func ProvideMQConnection(lc fx.Lifecycle, logger *zap.Logger, cfg *config.Config) (*mq.Connection, error) {
	return mq.NewConnection(lc, logger, cfg.RabbitMQ.URL)
}

// ProvidePublisher creates the reading event publisher
func ProvidePublisher(lc fx.Lifecycle, conn *mq.Connection, cfg *config.Config, logger *zap.Logger) (*mq.Publisher, error) {
	publisher, err := mq.NewPublisher(conn, cfg.RabbitMQ.EventsExchange, cfg.RabbitMQ.EventsRoutingKey, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return publisher.Close()
		},
	})
	return publisher, nil
}

func startServer(lc fx.Lifecycle, server *api.Server, cfg *config.Config) {
	server.RegisterLifecycle(lc, cfg.ServicePort)
}

func startIngestConsumer(
	lc fx.Lifecycle,
	conn *mq.Connection,
	cfg *config.Config,
	ingest *service.IngestService,
	logger *zap.Logger,
) error {
	consumer, err := mq.NewConsumer(mq.ConsumerConfig{
		Connection:    conn,
		Exchange:      cfg.RabbitMQ.IngestExchange,
		Queue:         cfg.RabbitMQ.IngestQueue,
		DLQQueue:      cfg.RabbitMQ.DLQQueue,
		RoutingKey:    cfg.RabbitMQ.IngestRoutingKey,
		PrefetchCount: cfg.RabbitMQ.PrefetchCount,
		Logger:        logger.Named("amqp"),
		Handler:       ingest.HandleMessage,
	})
	if err != nil {
		return err
	}
	consumer.RegisterLifecycle(lc)
	return nil
}

func startMQTTBridge(lc fx.Lifecycle, cfg *config.Config, ingest *service.IngestService, logger *zap.Logger) {
	bridge.NewMQTTBridge(cfg.MQTT, ingest.HandleMessage, logger.Named("mqtt")).RegisterLifecycle(lc)
}

func startKafkaBridge(lc fx.Lifecycle, cfg *config.Config, ingest *service.IngestService, logger *zap.Logger) error {
	b, err := bridge.NewKafkaBridge(cfg.Kafka, ingest.HandleMessage, logger.Named("kafka"))
	if err != nil {
		return err
	}
	b.RegisterLifecycle(lc)
	return nil
}
