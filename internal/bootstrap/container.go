package bootstrap

import (
	"context"
	"time"

	"ai-learning-coach-be/internal/config"
	"ai-learning-coach-be/internal/constant"
	"ai-learning-coach-be/internal/controller"
	"ai-learning-coach-be/internal/handler"
	"ai-learning-coach-be/internal/pkg/logger"
	"ai-learning-coach-be/internal/pkg/serverutils"
	"ai-learning-coach-be/internal/repository/memory"
	"ai-learning-coach-be/internal/repository/unitofwork"
	"ai-learning-coach-be/internal/service"
	"ai-learning-coach-be/internal/websocket"
	"ai-learning-coach-be/pkg/delivery"
	"ai-learning-coach-be/pkg/knowledge"

	pktNats "ai-learning-coach-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	SessionController   controller.ISessionController
	ChatController      controller.IChatController
	KnowledgeController controller.IKnowledgeController

	// WebSockets
	DeliveryHandler *handler.DeliveryHandler
	WebSocketHub    *websocket.Hub

	SessionTokens *serverutils.SessionTokens

	// Background Services (Exposed for main.go to run)
	ConsumerService  service.IConsumerService
	KnowledgeService service.IKnowledgeService
	CoachService     service.ICoachService
	// ReloadSubscriber is nil when NATS is not reachable.
	ReloadSubscriber service.ReloadSubscriber

	Logger logger.ILogger

	closers []func()
}

// NewContainer wires every dependency. db may be nil, in which case chat
// transcripts are not persisted. NATS and Redis are optional: when they
// cannot be reached the service runs single-instance without external events.
func NewContainer(ctx context.Context, db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())

	var uowFactory unitofwork.RepositoryFactory
	if db != nil {
		uowFactory = unitofwork.NewRepositoryFactory(db)
	} else {
		sysLogger.Warn("Container", "No database configured, transcripts are disabled", nil)
	}

	c := &Container{Logger: sysLogger}

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// 3. Infrastructure
	var forwarder service.EventForwarder
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			sysLogger.Warn("Container", "Failed to connect to NATS Publisher", map[string]interface{}{"error": err.Error()})
		} else {
			forwarder = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}

		natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
		if err != nil {
			sysLogger.Warn("Container", "Failed to connect to NATS Subscriber", map[string]interface{}{"error": err.Error()})
		} else {
			c.ReloadSubscriber = natsSub
			c.closers = append(c.closers, natsSub.Close)
		}
	}

	rdb := connectRedis(ctx, cfg.App.RedisURL, sysLogger)
	if rdb != nil {
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger(cfg.App.DeliveryLogPath)
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run(ctx)

	// 4. Services
	sessionRepo := memory.NewSessionRepository(cfg.Session.TTL)
	sessionRepo.OnEvicted(func(sessionID string) {
		sysLogger.Debug("Container", "Session evicted", map[string]interface{}{"session_id": sessionID})
	})
	tokens := serverutils.NewSessionTokens(cfg.Session.TokenSecret)
	catalog := knowledge.NewCatalog()

	publisherService := service.NewPublisherService(constant.DomainEventsTopic, pubSub)
	consumerService := service.NewConsumerService(pubSub, constant.DomainEventsTopic, forwarder, sysLogger)
	transcriptService := service.NewTranscriptService(uowFactory)

	knowledgeService := service.NewKnowledgeService(
		knowledge.NewSource(cfg.Knowledge.DefaultSource, nil),
		catalog,
		sessionRepo,
		publisherService,
		wsHub,
		sysLogger,
	)
	coachService := service.NewCoachService(
		sessionRepo,
		knowledgeService,
		transcriptService,
		publisherService,
		wsHub,
		tokens,
		delivery.Config{
			FirstDelay: cfg.Delivery.FirstDelay,
			StepDelay:  cfg.Delivery.StepDelay,
		},
		sysLogger,
	)
	// pending replies stop before the hub and bus they write to
	c.closers = append([]func(){coachService.Shutdown}, c.closers...)

	// 5. Controllers
	c.SessionController = controller.NewSessionController(coachService)
	c.ChatController = controller.NewChatController(coachService)
	c.KnowledgeController = controller.NewKnowledgeController(
		knowledgeService,
		cfg.Knowledge.UploadLimitMB,
		serverutils.OperatorKeyMiddleware(cfg.Knowledge.ReloadKey),
	)
	c.DeliveryHandler = handler.NewDeliveryHandler(wsHub, tokens, sessionRepo, wsLogger)
	c.WebSocketHub = wsHub
	c.SessionTokens = tokens
	c.ConsumerService = consumerService
	c.KnowledgeService = knowledgeService
	c.CoachService = coachService

	return c
}

// Close releases background resources in dependency order.
func (c *Container) Close() {
	for _, closeFn := range c.closers {
		closeFn()
	}
	_ = c.Logger.Sync()
}

func connectRedis(ctx context.Context, url string, log logger.ILogger) *redis.Client {
	if url == "" {
		return nil
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Warn("Container", "Failed to parse Redis URL, using direct Addr", map[string]interface{}{"error": err.Error()})
		opt = &redis.Options{Addr: url}
	}

	rdb := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Warn("Container", "Failed to connect to Redis, running single-instance", map[string]interface{}{"error": err.Error()})
		_ = rdb.Close()
		return nil
	}
	return rdb
}
