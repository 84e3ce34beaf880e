package storage

import (
	"go.uber.org/zap"

	"github.com/zapify/zapify/internal/config"
	"github.com/zapify/zapify/internal/pkg/queue"
	queue_memory "github.com/zapify/zapify/internal/pkg/queue/memory"
	queue_redis "github.com/zapify/zapify/internal/pkg/queue/redis"
	"github.com/zapify/zapify/internal/pkg/ratelimiter"
	limiter_memory "github.com/zapify/zapify/internal/pkg/ratelimiter/memory"
	limiter_redis "github.com/zapify/zapify/internal/pkg/ratelimiter/redis"
	"github.com/zapify/zapify/internal/storage/postgres"
	storage_redis "github.com/zapify/zapify/internal/storage/redis"
	"github.com/zapify/zapify/internal/storage/sqlite"
)

type Repositories struct {
	Contact      ContactRepository
	Conversation ConversationRepository
	Message      MessageRepository
	BotConfig    BotConfigRepository
	AutoReply    AutoReplyRepository
	Flow         FlowRepository
	Template     TemplateRepository
	Campaign     CampaignRepository
	Context      ContextRepository
	User         UserRepository

	RedisClient  *storage_redis.Client // Pode ser nil se Redis estiver desabilitado
	InboundQueue queue.Queue
	RateLimiter  ratelimiter.Limiter
}

func NewRepositories(cfg config.Config, log *zap.Logger) (*Repositories, error) {
	log.Info("inicializando repositórios",
		zap.String("driver", cfg.Storage.Driver),
	)

	var (
		inboundQueue queue.Queue
		rateLimiter  ratelimiter.Limiter
		storeRedis   *storage_redis.Client
		err          error
	)

	// Inicializa Redis apenas se explicitamente habilitado
	if cfg.Redis.Enabled {
		log.Info("inicializando Redis...")
		storeRedis, err = storage_redis.New(cfg.Redis, log)
		if err != nil {
			log.Error("erro ao conectar com Redis", zap.Error(err))
			return nil, err
		}

		redisClient := storeRedis.RDB()
		inboundQueue = queue_redis.NewQueue(redisClient, "bot:inbound")
		rateLimiter = limiter_redis.NewLimiter(redisClient)
		log.Info("Redis conectado, fila e limiter configurados")
	} else {
		log.Info("usando implementações em memória (Redis desabilitado)")
		inboundQueue = queue_memory.NewQueue(10000)
		rateLimiter = limiter_memory.NewLimiter()
	}

	switch cfg.Storage.Driver {
	case "sqlite", "":
		log.Debug("criando conexão com SQLite")
		db, err := sqlite.New(cfg.Storage.DataDir, log)
		if err != nil {
			log.Error("erro ao conectar com SQLite", zap.Error(err))
			return nil, err
		}

		log.Info("repositórios SQLite criados com sucesso", zap.String("data_dir", cfg.Storage.DataDir))
		return &Repositories{
			Contact:      sqlite.NewContactRepository(db),
			Conversation: sqlite.NewConversationRepository(db),
			Message:      sqlite.NewMessageRepository(db),
			BotConfig:    sqlite.NewBotConfigRepository(db),
			AutoReply:    sqlite.NewAutoReplyRepository(db),
			Flow:         sqlite.NewFlowRepository(db),
			Template:     sqlite.NewTemplateRepository(db),
			Campaign:     sqlite.NewCampaignRepository(db),
			Context:      sqlite.NewContextRepository(db),
			User:         sqlite.NewUserRepository(db),
			RedisClient:  storeRedis,
			InboundQueue: inboundQueue,
			RateLimiter:  rateLimiter,
		}, nil

	case "postgres":
		log.Debug("criando conexão com PostgreSQL")
		db, err := postgres.New(cfg.DB, log)
		if err != nil {
			log.Error("erro ao conectar com PostgreSQL", zap.Error(err))
			return nil, err
		}

		log.Info("repositórios PostgreSQL criados com sucesso")
		return &Repositories{
			Contact:      postgres.NewContactRepository(db),
			Conversation: postgres.NewConversationRepository(db),
			Message:      postgres.NewMessageRepository(db),
			BotConfig:    postgres.NewBotConfigRepository(db),
			AutoReply:    postgres.NewAutoReplyRepository(db),
			Flow:         postgres.NewFlowRepository(db),
			Template:     postgres.NewTemplateRepository(db),
			Campaign:     postgres.NewCampaignRepository(db),
			Context:      postgres.NewContextRepository(db),
			User:         postgres.NewUserRepository(db),
			RedisClient:  storeRedis,
			InboundQueue: inboundQueue,
			RateLimiter:  rateLimiter,
		}, nil

	default:
		log.Error("driver de storage desconhecido",
			zap.String("driver", cfg.Storage.Driver),
		)
		return nil, &ErrUnknownDriver{Driver: cfg.Storage.Driver}
	}
}

type ErrUnknownDriver struct {
	Driver string
}

func (e *ErrUnknownDriver) Error() string {
	return "storage: driver desconhecido: " + e.Driver
}
