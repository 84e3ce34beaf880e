package main

import (
	"context"
	"log"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/zapify/zapify/internal/ai"
	"github.com/zapify/zapify/internal/api/handler"
	"github.com/zapify/zapify/internal/api/middleware"
	"github.com/zapify/zapify/internal/app"
	"github.com/zapify/zapify/internal/bot"
	"github.com/zapify/zapify/internal/campaign"
	"github.com/zapify/zapify/internal/config"
	"github.com/zapify/zapify/internal/logger"
	"github.com/zapify/zapify/internal/realtime"
	"github.com/zapify/zapify/internal/server"
	"github.com/zapify/zapify/internal/service/auth"
	whatsapp "github.com/zapify/zapify/internal/session/whatsmeow"
	"github.com/zapify/zapify/internal/storage"
)

func main() {
	cfg := config.Load()

	logr, err := logger.New(cfg.App.Env, cfg.Log.Level)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logr.Sync()

	logr.Info("iniciando aplicação",
		zap.String("env", cfg.App.Env),
		zap.String("log_level", cfg.Log.Level),
		zap.String("port", cfg.App.Port),
		zap.String("db_driver", cfg.Storage.Driver),
		zap.String("data_dir", cfg.Storage.DataDir),
	)

	repos, err := storage.NewRepositories(cfg, logr)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	hub := realtime.NewHub(logr)
	go hub.Run()

	sessionDir := cfg.WhatsApp.SessionDir
	if sessionDir == "" {
		sessionDir = filepath.Join(cfg.Storage.DataDir, "sessions")
	}
	pgConnString := ""
	if cfg.Storage.Driver == "postgres" {
		pgConnString = cfg.DB.DSN()
	}

	sessionManager := whatsapp.NewManager(cfg.Storage.Driver, sessionDir, pgConnString, repos.InboundQueue, hub, logr)
	if err := sessionManager.Connect(context.Background()); err != nil {
		// Sem sessão o dashboard continua de pé; o pareamento pode ser
		// refeito pelo endpoint de restart.
		logr.Warn("não foi possível conectar a sessão de WhatsApp", zap.Error(err))
	}

	aiGateway := ai.NewGateway(cfg.AI, logr)

	pipeline := bot.NewPipeline(bot.PipelineOptions{
		Contacts:      repos.Contact,
		Conversations: repos.Conversation,
		Messages:      repos.Message,
		BotConfig:     repos.BotConfig,
		AutoReplies:   repos.AutoReply,
		Flows:         repos.Flow,
		Contexts:      repos.Context,
		Transport:     sessionManager,
		Notifier:      hub,
		Responder:     aiGateway,
		Logger:        logr,
	})

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()

	worker := bot.NewWorker(repos.InboundQueue, pipeline, logr)
	go worker.Start(workerCtx)

	engine := campaign.NewEngine(repos.Campaign, repos.Contact, sessionManager, hub, logr)

	var scheduler *campaign.Scheduler
	if cfg.Campaign.SchedulerEnabled {
		scheduler = campaign.NewScheduler(repos.Campaign, engine, logr)
		if err := scheduler.Start(); err != nil {
			log.Fatalf("scheduler: %v", err)
		}
		logr.Info("scheduler de campanhas iniciado")
	}

	authService := auth.NewService(repos.User, cfg.JWT.Secret, cfg.JWT.ExpHours)

	adminOnly := middleware.RequireAdmin(repos.User)

	router := server.NewRouter(server.Options{
		Env:         cfg.App.Env,
		AuthSecret:  cfg.JWT.Secret,
		FrontendURL: cfg.App.FrontendURL,

		HealthHandler:       handler.NewHealthHandler(),
		AuthHandler:         handler.NewAuthHandler(authService),
		ContactHandler:      handler.NewContactHandler(repos.Contact, repos.Conversation),
		ConversationHandler: handler.NewConversationHandler(repos.Conversation, repos.Message, repos.Contact),
		MessageHandler:      handler.NewMessageHandler(repos.Message, repos.Conversation, repos.Contact, sessionManager, hub),
		AutoReplyHandler:    handler.NewAutoReplyHandler(repos.AutoReply),
		FlowHandler:         handler.NewFlowHandler(repos.Flow),
		TemplateHandler:     handler.NewTemplateHandler(repos.Template),
		CampaignHandler:     handler.NewCampaignHandler(repos.Campaign, engine),
		ConfigHandler:       handler.NewConfigHandler(repos.BotConfig, sessionManager, adminOnly),
		StatsHandler:        handler.NewStatsHandler(repos.Contact, repos.Conversation, repos.Message),

		Hub: hub,
		RateLimit: middleware.RateLimitOption{
			Enabled:  cfg.RateLimit.Enabled,
			Requests: cfg.RateLimit.Requests,
			Window:   time.Duration(cfg.RateLimit.WindowSeconds) * time.Second,
			Prefix:   cfg.RateLimit.Prefix,
			Limiter:  repos.RateLimiter,
			Logger:   logr,
		},
	})

	application := app.New(cfg, logr, router)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := application.Run(context.Background()); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logr.Info("sinal de encerramento recebido")
	case err := <-errCh:
		if err != nil {
			logr.Error("servidor finalizado com erro", zap.Error(err))
		}
	}

	logr.Info("iniciando shutdown graceful")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stopWorker()
	if scheduler != nil {
		scheduler.Stop()
	}
	sessionManager.Disconnect()

	if repos.RedisClient != nil {
		if err := repos.RedisClient.Close(); err != nil {
			logr.Warn("erro ao fechar conexão Redis", zap.Error(err))
		}
	}

	if err := application.Shutdown(shutdownCtx); err != nil {
		logr.Error("erro ao encerrar servidor", zap.Error(err))
	} else {
		logr.Info("servidor encerrado com sucesso")
	}
}
