package repositories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/primeedge/transfer-service/internal/domain/models"
	"github.com/primeedge/transfer-service/internal/domain/repositories"
	apperrors "github.com/primeedge/transfer-service/internal/errors"
)

type UserRepositoryImpl struct {
	db *pgxpool.Pool
}

func NewUserRepositoryImpl(db *pgxpool.Pool) repositories.UserRepository {
	return &UserRepositoryImpl{
		db: db,
	}
}

func (r *UserRepositoryImpl) GetByID(ctx context.Context, id string) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRow(
		ctx,
		"SELECT id, full_name, email, balance, role, active FROM users WHERE id = $1",
		id,
	).Scan(&user.ID, &user.FullName, &user.Email, &user.Balance, &user.Role, &user.Active)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewBadRequestError("User not found")
		}
		return nil, err
	}

	return user, nil
}
