// Package doorbell собирает основное HTTP-приложение: хранилище, кэш,
// брокер событий, блоб-хранилище и все сервисы с маршрутами.
package doorbell

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/doorbell-backend/internal/cache"
	"github.com/magabrotheeeer/doorbell-backend/internal/config"
	"github.com/magabrotheeeer/doorbell-backend/internal/lib/blob"
	customjwt "github.com/magabrotheeeer/doorbell-backend/internal/lib/jwt"
	"github.com/magabrotheeeer/doorbell-backend/internal/lib/smtp"
	"github.com/magabrotheeeer/doorbell-backend/internal/migrations"
	"github.com/magabrotheeeer/doorbell-backend/internal/rabbitmq"
	authservice "github.com/magabrotheeeer/doorbell-backend/internal/services/auth"
	requestservice "github.com/magabrotheeeer/doorbell-backend/internal/services/request"
	senderservice "github.com/magabrotheeeer/doorbell-backend/internal/services/sender"
	subservice "github.com/magabrotheeeer/doorbell-backend/internal/services/subscription"
	visitorservice "github.com/magabrotheeeer/doorbell-backend/internal/services/visitor"
	"github.com/magabrotheeeer/doorbell-backend/internal/storage/repository"
)

type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	conn   *amqp.Connection
	ch     *amqp.Channel
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	conn, err := rabbitmq.Connect(cfg.RabbitConnection, cfg.RabbitMaxRetries, cfg.RabbitRetryDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		conn.Close()
		return nil, err
	}
	publisher := rabbitmq.NewPublisher(ch)

	blobStore, err := blob.NewCloudinaryStore(cfg.CloudinaryURL)
	if err != nil {
		return nil, err
	}

	transport := smtp.NewTransport(cfg, logger)
	senderService := senderservice.NewSenderService(logger, transport)

	jwtMaker := customjwt.NewMaker(cfg.JWTSecretKey)
	authService := authservice.NewAuthService(db, senderService, jwtMaker, cfg.OTP, cfg.JWTToken, logger)
	subscriptionService := subservice.NewSubscriptionService(db, cacheRedis, blobStore, publisher, logger)
	visitorService := visitorservice.NewVisitorService(db, blobStore, logger)
	requestService := requestservice.NewRequestService(db, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, authService, subscriptionService, visitorService, requestService)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		conn:   conn,
		ch:     ch,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if closeErr := a.ch.Close(); closeErr != nil {
			a.logger.Error("failed to close channel", slog.Any("err", closeErr))
		}
		if closeErr := a.conn.Close(); closeErr != nil {
			a.logger.Error("failed to close connection", slog.Any("err", closeErr))
		}
		a.db.DB.Close()
		return err
	}
}
