package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"

	"github.com/Ananth-NQI/aira-gateway/internal/config"
	"github.com/Ananth-NQI/aira-gateway/internal/handlers"
	"github.com/Ananth-NQI/aira-gateway/internal/jobs"
	"github.com/Ananth-NQI/aira-gateway/internal/oracle"
	"github.com/Ananth-NQI/aira-gateway/internal/retrieval"
	"github.com/Ananth-NQI/aira-gateway/internal/routes"
	"github.com/Ananth-NQI/aira-gateway/internal/services"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP gateway",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	store, err := openStore(cfg)
	if err != nil {
		return err
	}

	gen, err := oracle.NewGenerator(cfg)
	if err != nil {
		return err
	}
	lang := oracle.New(gen, cfg.OracleTimeout)
	log.Printf("✅ Language model ready (%s, %s)", cfg.LLMBackend, cfg.OpenAIModel)

	var (
		retriever retrieval.Retriever
		ingestor  handlers.CSVIngestor
		cache     retrieval.AnswerCache
	)
	if index, embedder, err := openIndex(ctx, cfg); err != nil {
		log.Printf("⚠️  FAQ index unavailable, FAQ answers disabled: %v", err)
	} else {
		retriever = index
		ingestor = retrieval.NewIngestor(embedder, index, cfg.ChunkSize, cfg.ChunkOverlap)
		log.Printf("✅ FAQ index ready (%s)", cfg.WeaviateClass)
	}
	if cfg.RedisAddr != "" {
		redisCache, err := retrieval.NewRedisAnswerCache(cfg.RedisAddr, cfg.AnswerCacheTTL)
		if err != nil {
			log.Printf("⚠️  Answer cache disabled: %v", err)
		} else {
			defer redisCache.Close()
			cache = redisCache
		}
	}

	var sender services.MessageSender
	if cfg.TwilioConfigured() {
		twilioService, err := services.NewTwilioService(cfg)
		if err != nil {
			log.Printf("⚠️  Twilio service not initialized: %v", err)
		} else {
			sender = twilioService
			log.Println("✅ Twilio service initialized")
		}
	} else {
		log.Println("⚠️  Twilio credentials not found - WhatsApp features will be limited")
	}

	slots := services.NewSlotExtractor(lang)
	contexts := services.NewContextStore(store, slots, cfg.ContextTTL)
	faq := services.NewFAQHandler(store, contexts, lang, retriever, cache, cfg.FAQTopK)
	gateway := services.NewGateway(services.GatewayConfig{
		Store:          store,
		Contexts:       contexts,
		Router:         services.NewIntentRouter(lang, retriever, contexts, cfg.FAQThreshold),
		Handlers:       services.StandardHandlers(store, contexts, slots, lang, faq, cfg.RescheduleDays),
		JanitorTrigger: cfg.JanitorTrigger,
	})

	janitor := jobs.NewContextJanitor(contexts, cfg.JanitorInterval)
	janitor.Start(ctx)

	app := fiber.New(fiber.Config{
		AppName:      "AIRA Gateway v" + Version,
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	routes.SetupRoutes(app, routes.Handlers{
		Chat:            handlers.NewChatHandler(gateway),
		Support:         handlers.NewSupportHandler(services.NewEscalationService(store, sender, cfg.SupportWhatsAppTo)),
		FAQ:             handlers.NewFAQHandler(ingestor, cache),
		WhatsApp:        handlers.NewWhatsAppHandler(gateway, sender),
		Health:          handlers.NewHealthHandler(Version, gateway),
		TwilioAuthToken: cfg.TwilioAuthToken,
		ValidateWebhook: cfg.TwilioValidateWebhook,
		Development:     cfg.InstanceConnectionName == "",
	})

	// Handle graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sig
		log.Println("🛑 Gracefully shutting down...")
		log.Println("⏹️  Stopping context janitor...")
		janitor.Stop()
		log.Println("⏹️  Shutting down server...")
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	log.Println("========================================")
	log.Printf("🚀 AIRA Gateway starting on port %s", cfg.Port)
	log.Printf("📊 Storage: %s", storageType(cfg))
	log.Printf("🌍 Environment: %s", cfg.Environment())
	log.Printf("📱 WhatsApp: %s", whatsAppStatus(cfg))
	log.Printf("🧹 Context TTL: %v (sweep every %v)", cfg.ContextTTL, cfg.JanitorInterval)
	log.Println("========================================")

	return app.Listen(":" + cfg.Port)
}
