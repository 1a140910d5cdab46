package usecase

import (
	"account-service/internal/data/repository"
	"account-service/pkg/notify"
	"account-service/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Auth AuthService
	User UserService
}

func NewService(
	repo *repository.Repository,
	tokens TokenIssuer,
	notifier notify.Notifier,
	avatars AvatarUploader,
	config *utils.Config,
	log *zap.Logger,
) *Service {
	return &Service{
		Auth: NewAuthService(repo, tokens, notifier, config, log),
		User: NewUserService(repo, avatars, log),
	}
}
