package di

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/primeedge/transfer-service/internal/config"
	"github.com/primeedge/transfer-service/internal/infrastructure/api/handlers"
	"github.com/primeedge/transfer-service/internal/infrastructure/database/repositories"
	"github.com/primeedge/transfer-service/internal/infrastructure/gateway"
	"github.com/primeedge/transfer-service/internal/notifier"
	"github.com/primeedge/transfer-service/internal/queue"
	"github.com/primeedge/transfer-service/internal/usecases/interactor"
)

type Container struct {
	TransferHandler *handlers.TransferHandler
	AdminHandler    *handlers.AdminHandler
	BalanceHandler  *handlers.BalanceHandler
	EventsHandler   *handlers.EventsHandler
	UserInteractor  *interactor.UserInteractor
	Queue           *queue.Queue
	Hub             *notifier.Hub
}

// NewContainer creates a new Container instance.
func NewContainer(db *pgxpool.Pool, cfg *config.Config) *Container {
	transferRepository := repositories.NewTransferRepositoryImpl(db)
	userRepository := repositories.NewUserRepositoryImpl(db)

	workQueue := queue.New()
	hub := notifier.NewHub()
	settlementClient := gateway.NewMockSettlementClient(cfg.Gateway)
	verificationClient := gateway.NewMockVerificationClient()

	settlementInteractor := interactor.NewSettlementInteractor(transferRepository, settlementClient, hub, cfg.Gateway)
	transferInteractor := interactor.NewTransferInteractor(transferRepository, userRepository, verificationClient, hub, workQueue, cfg.Transfer)
	adminInteractor := interactor.NewAdminInteractor(transferRepository, settlementInteractor, hub, workQueue)
	userInteractor := interactor.NewUserInteractor(userRepository)

	return &Container{
		TransferHandler: handlers.NewTransferHandler(transferInteractor),
		AdminHandler:    handlers.NewAdminHandler(adminInteractor),
		BalanceHandler:  handlers.NewBalanceHandler(userInteractor),
		EventsHandler:   handlers.NewEventsHandler(hub),
		UserInteractor:  userInteractor,
		Queue:           workQueue,
		Hub:             hub,
	}
}
