package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/minio/minio-go/v7"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Iloudia/planner-shop/backend/internal/catalog"
	"github.com/Iloudia/planner-shop/backend/internal/config"
	"github.com/Iloudia/planner-shop/backend/internal/infra/httpclient"
	"github.com/Iloudia/planner-shop/backend/internal/infra/resend"
	s3infra "github.com/Iloudia/planner-shop/backend/internal/infra/s3"
	"github.com/Iloudia/planner-shop/backend/internal/infra/stripeapi"
	redrepo "github.com/Iloudia/planner-shop/backend/internal/repo/redis"
	checkoutsvc "github.com/Iloudia/planner-shop/backend/internal/services/checkout"
	downloadsvc "github.com/Iloudia/planner-shop/backend/internal/services/downloads"
	"github.com/Iloudia/planner-shop/backend/internal/services/token"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	redis      *goredis.Client
	s3         *minio.Client
	httpRouter http.Handler
}

func New(_ context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	products, err := catalog.New(cfg.Catalog)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log, cfg.Server.AllowedOrigins)

	var redisClient *goredis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	}

	storage, s3Client, err := newDownloadStorage(cfg, log)
	if err != nil {
		return nil, err
	}

	gateway := stripeapi.NewClient(stripeapi.Config{
		SecretKey: cfg.Stripe.SecretKey,
		APIBase:   cfg.Stripe.APIBase,
	}, httpclient.New(20*time.Second))
	webhookVerifier := stripeapi.NewWebhookVerifier(cfg.Stripe.WebhookSecret)
	codec := token.NewCodec(cfg.Download.TokenSecret)

	checkoutService := checkoutsvc.NewService(checkoutsvc.Dependencies{
		Catalog: products,
		Gateway: gateway,
		Tokens:  codec,
	}, checkoutsvc.Config{
		BaseURL:  cfg.Server.BaseURL,
		TokenTTL: cfg.Download.TokenTTL,
	}, log)

	var notifier checkoutsvc.Notifier
	if cfg.Notify.APIKey != "" {
		notifier = resend.NewClient(resend.Config{
			APIKey:  cfg.Notify.APIKey,
			From:    cfg.Notify.From,
			APIBase: cfg.Notify.APIBase,
		}, httpclient.New(10*time.Second))
	} else {
		log.Warn("notify api key is empty, download emails disabled")
	}
	var eventStore checkoutsvc.EventStore
	if redisClient != nil {
		eventStore = redrepo.NewWebhookEventRepo(redisClient)
	}
	checkoutService.AttachNotifications(notifier, eventStore)

	downloadService := downloadsvc.NewService(products, codec, storage, log)
	if redisClient != nil {
		downloadService.AttachStats(redrepo.NewDownloadStatsRepo(redisClient))
	}

	RegisterRoutes(r, Dependencies{
		CheckoutService: checkoutService,
		DownloadService: downloadService,
		WebhookVerifier: webhookVerifier,
		Logger:          log,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		redis:      redisClient,
		s3:         s3Client,
		httpRouter: r,
	}, nil
}

func newDownloadStorage(cfg config.Config, log *zap.Logger) (downloadsvc.Storage, *minio.Client, error) {
	switch cfg.Download.Storage {
	case "", "local":
		storage, err := downloadsvc.NewLocalStorage(cfg.Download.Dir)
		if err != nil {
			return nil, nil, fmt.Errorf("init downloads dir: %w", err)
		}
		return storage, nil, nil
	case "s3":
		client, err := s3infra.NewClient(s3infra.Config{
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			UseSSL:    cfg.S3.UseSSL,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("init s3 client: %w", err)
		}
		log.Info("serving downloads from s3", zap.String("bucket", cfg.S3.Bucket))
		return downloadsvc.NewS3Storage(client, cfg.S3.Bucket), client, nil
	default:
		return nil, nil, fmt.Errorf("unknown download storage %q", cfg.Download.Storage)
	}
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
