package app

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"

	_ "loancrm/docs"
	"loancrm/internal/config"
	"loancrm/internal/handlers"
	"loancrm/internal/queue"
	"loancrm/internal/repositories"
	"loancrm/internal/routes"
	"loancrm/internal/services"
	"loancrm/internal/utils"
)

func Run() {
	cfg := config.LoadConfig()
	if cfg.Auth.JWTSecret == "" {
		log.Fatal("auth.jwt_secret is empty; set it in config or LOANCRM_JWT_SECRET")
	}

	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("db open: ", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("db close: %v", err)
		}
	}()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	if err := db.Ping(); err != nil {
		log.Fatal("db ping: ", err)
	}

	// === Repos ===
	leadRepo := repositories.NewLeadRepository(db)
	historyRepo := repositories.NewHistoryRepository(db)
	customerRepo := repositories.NewCustomerRepository(db)
	employeeRepo := repositories.NewEmployeeRepository(db)
	verificationRepo := repositories.NewVerificationRepository(db)

	// === Outbound ===
	var publisher services.CustomerPublisher
	if cfg.AMQP.URL != "" {
		mq, err := queue.NewRabbitMQ(cfg.AMQP.URL)
		if err != nil {
			log.Fatal("rabbitmq: ", err)
		}
		defer mq.Close()
		publisher = queue.NewProducer(mq.Ch)
	} else {
		log.Printf("[app] amqp url empty, converted customers are not published")
	}

	notifications := &services.Notifications{}
	if cfg.Email.SMTPHost != "" {
		notifications.Email = services.NewEmailService(
			cfg.Email.SMTPHost,
			cfg.Email.SMTPPort,
			cfg.Email.SMTPUser,
			cfg.Email.SMTPPassword,
			cfg.Email.FromEmail,
		)
	}
	tg, err := services.NewTelegramService(cfg.Telegram.BotToken)
	if err != nil {
		log.Printf("[app] telegram disabled: %v", err)
	}
	notifications.Telegram = tg
	if err := tg.SetWebhook(cfg.Telegram.WebhookURL); err != nil {
		log.Printf("[app] %v", err)
	}

	mobizonClient := utils.NewClientWithOptions(
		cfg.Mobizon.APIKey,
		cfg.Mobizon.SenderID,
		cfg.Mobizon.DryRun,
	)

	// === Services ===
	leadService := services.NewLeadService(leadRepo, historyRepo, customerRepo, employeeRepo, publisher, notifications)
	verificationService := services.NewVerificationService(verificationRepo, leadRepo, mobizonClient, cfg.Verification.CodeTTL)

	// === Handlers ===
	leadHandler := handlers.NewLeadHandler(leadService)
	verifyHandler := handlers.NewVerifyHandler(verificationService, cfg.Verification.PollInterval, cfg.Verification.PollTimeout)
	reportHandler := handlers.NewReportHandler(leadService)
	employeeHandler := handlers.NewEmployeeHandler(employeeRepo)
	var integrationsHandler *handlers.IntegrationsHandler
	if tg != nil {
		integrationsHandler = handlers.NewIntegrationsHandler(tg, repositories.NewTelegramLinkRepository(db), employeeRepo, leadService)
	}

	// === Gin ===
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	routes.SetupRoutes(
		router,
		[]byte(cfg.Auth.JWTSecret),
		leadHandler,
		verifyHandler,
		reportHandler,
		employeeHandler,
		integrationsHandler,
	)

	// === Run ===
	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("[app] listening on %s", listenAddr)
	if err := router.Run(listenAddr); err != nil {
		log.Fatal("server: ", err)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
