package repositories

import (
	"context"

	"github.com/primeedge/transfer-service/internal/domain/models"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}
