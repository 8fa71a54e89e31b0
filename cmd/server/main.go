package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/fathima-sithara/chat-backend/internal/account"
	"github.com/fathima-sithara/chat-backend/internal/api"
	"github.com/fathima-sithara/chat-backend/internal/auth"
	"github.com/fathima-sithara/chat-backend/internal/chat"
	cfgpkg "github.com/fathima-sithara/chat-backend/internal/config"
	"github.com/fathima-sithara/chat-backend/internal/events"
	"github.com/fathima-sithara/chat-backend/internal/logger"
	"github.com/fathima-sithara/chat-backend/internal/message"
	"github.com/fathima-sithara/chat-backend/internal/presence"
	"github.com/fathima-sithara/chat-backend/internal/session"
	"github.com/fathima-sithara/chat-backend/internal/storage"
	"github.com/fathima-sithara/chat-backend/internal/store"
	"github.com/fathima-sithara/chat-backend/internal/update"
	"github.com/fathima-sithara/chat-backend/internal/watch"
	"go.mongodb.org/mongo-driver/mongo"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfgPath := os.Getenv("APP_CONFIG")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := cfgpkg.Load(cfgPath)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

	zlog, err := logger.New(logger.Config{Development: cfg.Server.Development})
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, mc, err := store.ConnectMongo(cfg.Mongo.URI, cfg.Mongo.Database, zlog)
	if err != nil {
		zlog.Fatalf("mongo init: %v", err)
	}
	defer func() { _ = mc.Disconnect(context.Background()) }()

	rdb, err := store.ConnectRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, zlog)
	if err != nil {
		zlog.Fatalf("redis init: %v", err)
	}
	defer rdb.Close()

	blobs, err := storage.NewS3Store(ctx, cfg.S3.Region, cfg.S3.Bucket, cfg.S3.PublicRead, cfg.UploadTimeout, zlog)
	if err != nil {
		zlog.Fatalf("s3 init: %v", err)
	}

	producer := events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, zlog)
	defer func() { _ = producer.Close() }()

	hub := watch.NewHub(rdb, cfg.Redis.Prefix+":watch", zlog)
	go hub.Run(ctx)

	tokens := auth.NewManager(cfg.JWT.Secret, cfg.AccessTTL)

	accounts := account.NewMongoRepository(db.Collection(store.CollAccounts))
	chatRepo := chat.NewMongoRepository(db.Collection(store.CollChats))
	msgRepo := message.NewMongoRepository(db.Collection(store.CollMessages))
	updRepo := update.NewMongoRepository(db.Collection(store.CollUpdates))

	batch := message.BatcherFunc(func(ctx context.Context, fn func(ctx context.Context) error) error {
		return store.RunBatch(ctx, mc, func(sc mongo.SessionContext) error { return fn(sc) })
	})

	sessions := session.NewService(accounts, session.NewRedisCache(rdb, cfg.Redis.Prefix), tokens, hub, zlog)
	tracker := presence.NewTracker(accounts, hub, zlog)
	chats := chat.NewService(chatRepo, msgRepo, producer, hub, zlog)
	messages := message.NewService(msgRepo, chatRepo, blobs, batch, producer, hub, zlog)
	updates := update.NewService(updRepo, blobs, producer, hub, zlog)

	sweeper := update.NewSweeper(updates, cfg.SweepInterval)
	go sweeper.Run(ctx)

	app := api.NewServer(api.Deps{
		Config:   cfg,
		Tokens:   tokens,
		Redis:    rdb,
		Auth:     api.NewAuthHandler(sessions),
		Accounts: api.NewAccountHandler(accounts, tracker),
		Chats:    api.NewChatHandler(chats),
		Messages: api.NewMessageHandler(messages),
		Updates:  api.NewUpdateHandler(updates),
		WS:       api.NewWSHandler(tokens, sessions, chats, messages, updates, tracker, zlog),
	})

	go func() {
		<-ctx.Done()
		zlog.Info("shutting down")
		_ = app.Shutdown()
	}()

	zlog.Infow("server starting", "port", cfg.Server.Port)
	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		zlog.Fatalf("server: %v", err)
	}
}
