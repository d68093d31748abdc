package main

import (
	"context"
	"time"

	"github.com/primeedge/transfer-service/internal/app"
	"github.com/primeedge/transfer-service/internal/config"
	"github.com/primeedge/transfer-service/internal/di"
	apperrors "github.com/primeedge/transfer-service/internal/errors"
	"github.com/primeedge/transfer-service/internal/infrastructure/api/routers"
	"github.com/primeedge/transfer-service/internal/infrastructure/database/db_client"
	"github.com/primeedge/transfer-service/pkg/log"
)

const (
	appName = "transfer-service"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Load()

	log.Init(appName, log.WithConsoleLogger())
	logger := log.GetLogger()

	pgClient := db_client.NewPGClient(cfg.PostgreSQL)
	db, err := pgClient.Connect()
	if err != nil {
		logger.Fatal().Err(err).Msg(apperrors.ErrorFailedToConnectToTheDatabase)
	}

	container := di.NewContainer(db, cfg)

	router := routers.NewRouter(container)
	service := app.NewService(cfg)
	service.Run(ctx, router)

	// let in-flight settlement jobs finish before the process exits
	drainCtx, drainCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer drainCancel()
	if err = container.Queue.Close(drainCtx); err != nil {
		logger.Error().Err(err).Msg("background queue did not drain before shutdown")
	}
}
