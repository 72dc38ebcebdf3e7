package bootstrap

import (
	"context"
	"time"

	"ai-chat-be/internal/config"
	"ai-chat-be/internal/constant"
	"ai-chat-be/internal/controller"
	"ai-chat-be/internal/handler"
	"ai-chat-be/internal/pkg/logger"
	"ai-chat-be/internal/pkg/serverutils"
	"ai-chat-be/internal/repository/memory"
	"ai-chat-be/internal/service"
	"ai-chat-be/internal/websocket"
	"ai-chat-be/pkg/llm"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

type Container struct {
	// Controllers
	ChatController    controller.IChatController
	MessageController controller.IMessageController
	ModelController   controller.IModelController
	HealthController  controller.IHealthController

	// Status channel
	StatusHandler *handler.StatusHandler
	WebSocketHub  *websocket.Hub

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	Logger logger.ILogger

	pubSub *gochannel.GoChannel
	rdb    *redis.Client
}

func NewContainer(cfg *config.Config, llmProvider llm.LLMProvider) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	statusLogger := logger.NewIsolatedLogger(cfg.App.StatusLogFilePath)

	// 2. Event Bus
	pubSub := newEventBus(watermill.NewStdLogger(false, false))

	// 3. Infrastructure
	rdb := newRedisClient(cfg.App.RedisURL, sysLogger)

	wsHub := websocket.NewHub(rdb, cfg.Status.HeartbeatInterval, statusLogger)

	// 4. Storage
	store := memory.NewChatStore(cfg.Ai.DefaultModel)

	// 5. Services
	publisherService := service.NewPublisherService(cfg.Events.Topic, pubSub)
	consumerService := service.NewConsumerService(pubSub, cfg.Events.Topic, wsHub, sysLogger)

	chatService := service.NewChatService(store, publisherService, sysLogger)
	messageService := service.NewMessageService(store, llmProvider, publisherService, sysLogger, cfg.Ai.Timeout)
	modelService := service.NewModelService(constant.ModelCatalog, cfg.Ai.DefaultModel)

	// 6. Admission control
	limiterStorage := serverutils.NewCacheStorage(cfg.RateLimit.Window)
	messageLimiter := serverutils.NewMessageRateLimiter(cfg.RateLimit.Max, cfg.RateLimit.Window, limiterStorage)

	return &Container{
		ChatController:    controller.NewChatController(chatService),
		MessageController: controller.NewMessageController(messageService, messageLimiter),
		ModelController:   controller.NewModelController(modelService),
		HealthController:  controller.NewHealthController(),

		StatusHandler: handler.NewStatusHandler(wsHub, statusLogger),
		WebSocketHub:  wsHub,

		ConsumerService: consumerService,

		Logger: sysLogger,

		pubSub: pubSub,
		rdb:    rdb,
	}
}

// Close releases the event bus and the Redis connection and flushes logs.
func (c *Container) Close() error {
	if err := c.pubSub.Close(); err != nil {
		return err
	}
	if c.rdb != nil {
		if err := c.rdb.Close(); err != nil {
			return err
		}
	}
	// Syncing a console core fails on some terminals
	_ = c.Logger.Sync()
	return nil
}

// newEventBus builds the in-process bus. Publish waits for the subscriber to
// ack, so events from one request reach status clients in publish order.
func newEventBus(log watermill.LoggerAdapter) *gochannel.GoChannel {
	return gochannel.NewGoChannel(
		gochannel.Config{
			BlockPublishUntilSubscriberAck: true,
		},
		log,
	)
}

// newRedisClient returns nil when no Redis is configured; the hub then serves
// this instance only.
func newRedisClient(redisURL string, log logger.ILogger) *redis.Client {
	if redisURL == "" {
		return nil
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Warn("Bootstrap", "Failed to parse Redis URL, using it as an address", map[string]interface{}{"error": err.Error()})
		opt = &redis.Options{
			Addr: redisURL,
		}
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Warn("Bootstrap", "Failed to connect to Redis", map[string]interface{}{"error": err.Error()})
	}
	return rdb
}
