package app

import (
	"context"
	"errors"
	"feedbackbot/internal/cache"
	"feedbackbot/internal/config"
	"feedbackbot/internal/logger"
	"feedbackbot/internal/repository"
	"feedbackbot/internal/service"
	"feedbackbot/internal/transport/rest"
	"feedbackbot/internal/transport/telegram"
	"feedbackbot/internal/transport/ws"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
)

// App is the wired process: stores, services and transports
type App struct {
	Config *config.Config
	Log    *logger.Logger

	SessionRepo  repository.SessionRepo
	FeedbackRepo repository.FeedbackRepo
	SessionCache cache.SessionCache

	Sessions   *service.SessionStore
	Pipeline   *service.Pipeline
	Dispatcher *service.Dispatcher
	Mirror     service.SheetMirror

	Bot    *telegram.Bot
	Hub    *ws.Hub
	Server *http.Server

	mongo *mongo.Client
	redis *redis.Client
}

// New connects to MongoDB, Redis, Telegram and the optional collaborators,
// then wires every component.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	a := &App{Config: cfg, Log: log}

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	a.mongo = mongoClient

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		a.Close(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	log.Info("connected to mongodb", "database", cfg.Mongo.Database)
	db := mongoClient.Database(cfg.Mongo.Database)

	a.redis = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	if err := a.redis.Ping(ctx).Err(); err != nil {
		a.Close(context.Background())
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	log.Info("connected to redis", "addr", cfg.Redis.Addr)

	a.SessionRepo = repository.NewSessionRepo(db)
	a.FeedbackRepo = repository.NewFeedbackRepo(db)
	if err := a.SessionRepo.EnsureIndexes(ctx); err != nil {
		log.Warn("session indexes not created", "error", err)
	}
	if err := a.FeedbackRepo.EnsureIndexes(ctx); err != nil {
		log.Warn("feedback indexes not created", "error", err)
	}
	a.SessionCache = cache.NewSessionCache(a.redis, cfg.Redis.SessionTTL)

	classifier := service.NewClassifier(cfg.Classifier, log)
	if !cfg.Classifier.IsEnabled() {
		log.Warn("OPENAI_API_KEY not set, every submission gets the fallback analysis")
	}

	a.Mirror, err = service.NewSheetMirror(ctx, cfg.Sheets, log)
	if err != nil {
		a.Close(context.Background())
		return nil, err
	}
	if err := a.Mirror.EnsureHeader(ctx); err != nil {
		log.Error("sheet header check failed", "error", err)
	}

	a.Bot, err = telegram.NewBot(cfg.Telegram, log)
	if err != nil {
		a.Close(context.Background())
		return nil, err
	}

	a.Hub = ws.NewHub(log)
	retrier := service.NewRetrier(cfg.Classifier.MaxRetries, cfg.Classifier.InitialBackoff(), log.With("component", "retrier"))
	a.Pipeline = service.NewPipeline(classifier, a.FeedbackRepo, a.Mirror, a.Bot, retrier, log)
	// Inject broadcaster (hub implements service.Broadcaster)
	a.Pipeline.SetBroadcaster(a.Hub)

	a.Sessions = service.NewSessionStore(a.SessionRepo, a.SessionCache, log)
	a.Dispatcher = service.NewDispatcher(service.NewConversationEngine(), a.Sessions, a.Bot, a.Pipeline, log)
	a.Bot.SetDispatcher(a.Dispatcher)

	authSvc := service.NewAuthService(cfg.Admin)
	router := rest.NewRouter(&rest.Container{
		AuthService:        authSvc,
		QueryService:       service.NewFeedbackQueryService(a.FeedbackRepo, log),
		WSHub:              a.Hub,
		Log:                log,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})
	a.Server = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return a, nil
}

// Run serves HTTP, the websocket hub and the Telegram poller until ctx is
// done or one of them fails, then drains in-flight work.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.Hub.Run(gctx)
	})
	g.Go(func() error {
		return a.Bot.Run(gctx)
	})
	g.Go(func() error {
		a.Log.Info("http server starting", "addr", a.Server.Addr)
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen and serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return a.Server.Shutdown(shutdownCtx)
	})

	err := g.Wait()

	a.Log.Info("waiting for in-flight messages and analyses")
	a.Dispatcher.Wait()
	a.Pipeline.Wait()
	return err
}

// Close releases the store connections
func (a *App) Close(ctx context.Context) {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.Log.Warn("redis close failed", "error", err)
		}
	}
	if a.mongo != nil {
		if err := a.mongo.Disconnect(ctx); err != nil {
			a.Log.Warn("mongodb disconnect failed", "error", err)
		}
	}
}
