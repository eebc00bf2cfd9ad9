package main

import (
	"context"
	"os"

	"github.com/sailnathona/ImpactHub/internal/content"
	"github.com/sailnathona/ImpactHub/internal/delivery"
	"github.com/sailnathona/ImpactHub/internal/esign"
	"github.com/sailnathona/ImpactHub/internal/handlers"
	"github.com/sailnathona/ImpactHub/internal/settings"
	"github.com/sailnathona/ImpactHub/internal/social"
	"github.com/sailnathona/ImpactHub/internal/store"
	"github.com/sailnathona/ImpactHub/internal/workflow"
	"github.com/sailnathona/ImpactHub/pkg/config"
	"github.com/sailnathona/ImpactHub/pkg/database"
	"github.com/sailnathona/ImpactHub/pkg/llm"
	"github.com/sailnathona/ImpactHub/pkg/logging"
	"github.com/sailnathona/ImpactHub/pkg/monitoring"
	"github.com/sailnathona/ImpactHub/pkg/server"
	"github.com/sailnathona/ImpactHub/pkg/version"
)

func main() {
	logger := logging.NewLoggerWithService("herald")
	config.LoadEnv(logger)

	port := config.GetEnv("PORT", "18090")
	baseURL := config.GetEnv("PUBLIC_BASE_URL", "http://localhost:"+port)
	uploadsDir := config.GetEnv("UPLOADS_DIR", "./uploads")
	if err := os.MkdirAll(uploadsDir, 0o755); err != nil {
		logger.WithError(err).Fatal("Failed to create uploads directory")
	}

	dbConfig := database.DefaultConfig()
	dbConfig.URL = config.RequireEnv("DATABASE_URL")
	db := database.MustConnect(dbConfig, logger)
	defer db.Close()

	campaignStore := store.NewStore(db, logger)
	if err := campaignStore.EnsureSchema(context.Background()); err != nil {
		logger.WithError(err).Fatal("Failed to apply database schema")
	}

	llmConfig := llm.LoadConfig()
	provider, err := llm.NewProvider(llmConfig)
	if err != nil {
		logger.WithError(err).Fatal("Failed to configure suggestion provider")
	}

	transport := settings.NewTransport()
	settingsSvc := settings.NewService(campaignStore, transport, logger)
	if err := settingsSvc.Load(context.Background()); err != nil {
		logger.WithError(err).Fatal("Failed to load mail transport")
	}

	orchestrator := content.NewOrchestrator(provider, logger)
	workflowSvc := workflow.NewService(campaignStore, orchestrator, logger)
	engine := delivery.NewEngine(transport, campaignStore, baseURL, logger)
	poster := social.NewPoster(logger)

	var esignClient *esign.Client
	esignConfig := esign.LoadConfig()
	if esignConfig.IntegrationKey != "" {
		esignClient, err = esign.NewClient(esignConfig, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to configure e-signature client")
		}
	}

	healthChecker := monitoring.NewHealthChecker("herald", version.Version)
	metricsCollector := monitoring.NewMetricsCollector("herald", version.Version, version.GitCommit)

	healthChecker.AddCheck("database", monitoring.DatabaseHealthCheck(db))
	healthChecker.AddCheck("config", monitoring.ConfigurationHealthCheck(map[string]string{
		"DATABASE_URL": dbConfig.URL,
		"LLM_PROVIDER": llmConfig.Provider,
	}))
	healthChecker.AddCheck("smtp_relay", func() monitoring.CheckResult {
		cfg := transport.Current()
		return monitoring.SMTPRelayHealthCheck(cfg.Host, cfg.Port)()
	})

	metrics := &handlers.CampaignMetrics{
		CampaignOps: metricsCollector.NewCounter("campaign_operations_total",
			"Campaign workflow operations", []string{"operation", "status"}),
		SendAttempts: metricsCollector.NewCounter("campaign_send_batches_total",
			"Campaign email batch outcomes", []string{"status"}),
		TrackingHits: metricsCollector.NewCounter("campaign_tracking_hits_total",
			"Engagement tracking hits", []string{"kind"}),
		SocialPosts: metricsCollector.NewCounter("campaign_social_posts_total",
			"Social post outcomes", []string{"status"}),
	}

	app := server.SetupServiceRouter(logger, "herald", healthChecker, metricsCollector)

	api := handlers.NewAPI(workflowSvc, orchestrator, engine, poster, settingsSvc, esignClient, uploadsDir, logger, metrics)
	api.Register(app)

	serverConfig := server.DefaultConfig("herald", port)
	if err := server.Start(serverConfig, app, logger); err != nil {
		logger.Fatal(err.Error())
	}
}
