package bootstrap

import (
	"context"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"botgpt-backend/internal/ai"
	"botgpt-backend/internal/app"
	"botgpt-backend/internal/cache"
	"botgpt-backend/internal/config"
	"botgpt-backend/internal/platform/database"
	rabbitmqClient "botgpt-backend/internal/platform/rabbitmq"
	redisClient "botgpt-backend/internal/platform/redis"
	"botgpt-backend/internal/rag"
	"botgpt-backend/internal/repository"
)

type App struct {
	Config *config.Config
	DB     *gorm.DB
	Store  *repository.Store
	Redis  *redis.Client
	MQConn *amqp.Connection

	Users         *app.UserService
	Conversations *app.ConversationService

	closeLLM  func() error
	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	a := &App{Config: cfg, StartedAt: time.Now()}
	if err := a.init(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	cfg := a.Config

	db, err := database.New(ctx, cfg.Database.Driver, cfg.DSN())
	if err != nil {
		return err
	}
	a.DB = db
	if err := repository.AutoMigrate(db); err != nil {
		return err
	}

	if a.Redis, err = redisClient.New(ctx, cfg.Redis); err != nil {
		return err
	}
	if a.MQConn, err = rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.EventsQueue); err != nil {
		return err
	}

	llm, closeLLM, err := ai.NewChatCompleter(ctx, cfg.LLM)
	if err != nil {
		return fmt.Errorf("init llm client failed: %w", err)
	}
	a.closeLLM = closeLLM

	a.Wire(llm)
	log.Printf("bootstrap done: db=%s llm=%s/%s redis=%t rabbitmq=%t",
		cfg.Database.Driver, cfg.LLM.Provider, cfg.LLM.Model, a.Redis != nil, a.MQConn != nil)
	return nil
}

// Wire builds the store and services over the already opened resources.
func (a *App) Wire(llm ai.ChatCompleter) {
	a.Store = repository.NewStore(a.DB)

	var opts []app.Option
	if a.Redis != nil {
		ttl := time.Duration(a.Config.Redis.HistoryTTLSeconds) * time.Second
		dirtyTTL := time.Duration(a.Config.Redis.HistoryDirtyTTLSeconds) * time.Second
		opts = append(opts, app.WithHistoryCache(cache.NewHistoryCache(a.Redis, ttl, dirtyTTL)))
	}
	if a.MQConn != nil {
		opts = append(opts, app.WithEventPublisher(rabbitmqClient.NewEventPublisher(a.MQConn, a.Config.RabbitMQ.EventsQueue)))
	}

	a.Users = app.NewUserService(a.Store, opts...)
	a.Conversations = app.NewConversationService(a.Store, llm, rag.NewTFIDFRanker(), app.RetrievalSettings{
		ChunkBytes: a.Config.Retrieval.ChunkBytes,
		TopK:       a.Config.Retrieval.TopK,
		Window:     app.LastN(a.Config.Retrieval.HistoryWindow),
	}, opts...)
}

func (a *App) Close() error {
	var closeErr error
	if a.closeLLM != nil {
		if err := a.closeLLM(); err != nil {
			closeErr = err
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
