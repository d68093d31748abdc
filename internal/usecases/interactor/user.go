package interactor

import (
	"context"

	"github.com/primeedge/transfer-service/internal/domain/repositories"
)

type UserInteractor struct {
	userRepository repositories.UserRepository
}

func NewUserInteractor(Repository repositories.UserRepository) *UserInteractor {
	return &UserInteractor{userRepository: Repository}
}

func (u *UserInteractor) ExistsByID(ctx context.Context, id string) (bool, error) {
	_, err := u.userRepository.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return true, nil
}

// IsActiveAdmin reports whether the claimed admin id maps to an active user
// holding the admin role. Real authorization lives outside this service.
func (u *UserInteractor) IsActiveAdmin(ctx context.Context, id string) (bool, error) {
	user, err := u.userRepository.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return user.Active && user.IsAdmin(), nil
}

func (u *UserInteractor) GetBalance(ctx context.Context, id string) (float64, error) {
	user, err := u.userRepository.GetByID(ctx, id)
	if err != nil {
		return 0.0, err
	}
	b, _ := user.Balance.Float64()
	return b, nil
}
