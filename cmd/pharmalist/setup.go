package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"github.com/mokshitpuri/pharmalist-dbversion/internal/config"
	"github.com/mokshitpuri/pharmalist-dbversion/internal/providers/llm"
	"github.com/mokshitpuri/pharmalist-dbversion/internal/schema"
	"github.com/mokshitpuri/pharmalist-dbversion/internal/service/chat"
	"github.com/mokshitpuri/pharmalist-dbversion/internal/service/lists"
	"github.com/mokshitpuri/pharmalist-dbversion/internal/service/session"
	"github.com/mokshitpuri/pharmalist-dbversion/internal/storage/postgres"
	"github.com/mokshitpuri/pharmalist-dbversion/internal/transport/httpapi"
	"github.com/mokshitpuri/pharmalist-dbversion/pkg/log"
	"github.com/mokshitpuri/pharmalist-dbversion/pkg/srv"
)

func NewServices(ctx context.Context) []srv.Service {
	logger := log.FromCtx(ctx)
	services := make([]srv.Service, 0)

	if err := initEnv(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to init env")
	}

	// 1. Configuration
	appCfg := config.NewAppConfig(ctx)
	dbCfg := config.NewDatabaseConfig(ctx)
	aiCfg := config.NewOpenAIConfig(ctx)

	// 2. Storage
	db, err := postgres.NewDB(ctx, dbCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}
	services = append(services, srv.NewCleanup(db.Close))

	// 3. Completion provider, behind a circuit breaker
	provider := llm.NewBreaker(llm.NewOpenAI(aiCfg))

	// 4. Sessions and the turn pipeline
	registry := session.NewRegistry()
	pipeline := chat.NewPipeline(appCfg, registry, provider, postgres.NewExecutor(db), schema.Context)

	// 5. Lists service
	listsSvc := lists.NewService(postgres.NewListsRepo(db))

	// 6. Transport
	services = append(services, httpapi.NewServer(appCfg, pipeline, registry, listsSvc))

	return services
}

func initEnv(ctx context.Context) error {
	logger := log.FromCtx(ctx)

	if _, err := os.Stat(".env"); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(".env"); err != nil {
		logger.Warn().Err(err).Msg("failed to load .env file")
		return err
	}

	logger.Debug().Msg("loaded .env file")
	return nil
}
