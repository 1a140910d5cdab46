package usecase

import (
	"context"
	"errors"
	"time"

	"account-service/internal/data/entity"
	"account-service/internal/data/repository"
	"account-service/internal/dto/request"
	"account-service/internal/dto/response"
	"account-service/pkg/storage"
	"account-service/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type UserService interface {
	GetProfile(ctx context.Context, authID uuid.UUID) (*response.ProfileResponse, error)
	ListUsers(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.ProfileResponse], error)
	UpdateProfile(ctx context.Context, callerID uuid.UUID, userID string, req *request.UpdateProfileRequest) (*response.UserResponse, error)
	SetBlocked(ctx context.Context, authID string, blocked bool) (*response.AuthResponse, error)
	AvatarUploadURL(ctx context.Context, authID uuid.UUID, req *request.AvatarUploadRequest) (*response.AvatarUploadResponse, error)
}

// AvatarUploader presigns direct-to-bucket avatar uploads.
type AvatarUploader interface {
	PresignUpload(ctx context.Context, userID uuid.UUID, contentType string) (*storage.Upload, error)
}

type userService struct {
	repo    *repository.Repository
	avatars AvatarUploader
	log     *zap.Logger
	now     func() time.Time
}

// NewUserService accepts a nil avatars when object storage is not configured.
func NewUserService(repo *repository.Repository, avatars AvatarUploader, log *zap.Logger) UserService {
	return &userService{
		repo:    repo,
		avatars: avatars,
		log:     log.With(zap.String("service", "user")),
		now:     time.Now,
	}
}

func (us *userService) GetProfile(ctx context.Context, authID uuid.UUID) (*response.ProfileResponse, error) {
	auth, err := us.repo.Auth.FindByID(ctx, authID)
	if err != nil {
		return nil, utils.ErrInternal("Failed to get profile", err)
	}
	if auth == nil {
		return nil, utils.ErrNotFound("Account not found")
	}

	user, err := us.repo.User.FindByAuthID(ctx, authID)
	if err != nil {
		return nil, utils.ErrInternal("Failed to get profile", err)
	}

	return &response.ProfileResponse{
		Auth: response.AuthToResponse(auth),
		User: response.UserToResponse(user),
	}, nil
}

func (us *userService) ListUsers(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.ProfileResponse], error) {
	req.Normalize()

	accounts, err := us.repo.User.FindAll(ctx, req.Limit(), req.Offset())
	if err != nil {
		us.log.Error("Failed to get all users",
			zap.Error(err),
			zap.Int("page", req.Page),
			zap.Int("per_page", req.PerPage),
		)
		return nil, utils.ErrInternal("Failed to get users", err)
	}

	total, err := us.repo.User.CountAll(ctx)
	if err != nil {
		return nil, utils.ErrInternal("Failed to count users", err)
	}

	items := make([]response.ProfileResponse, len(accounts))
	for i, account := range accounts {
		items[i] = response.ProfileResponse{
			Auth: response.AuthToResponse(account.Auth),
			User: response.UserToResponse(account.User),
		}
	}

	us.log.Debug("Users retrieved",
		zap.Int("count", len(items)),
		zap.Int64("total", total),
		zap.Int("page", req.Page),
		zap.Int("total_pages", utils.CalculateTotalPages(total, req.PerPage)),
	)

	return response.NewPaginatedResponse(items, req.Page, req.PerPage, total), nil
}

func (us *userService) UpdateProfile(ctx context.Context, callerID uuid.UUID, userID string, req *request.UpdateProfileRequest) (*response.UserResponse, error) {
	id, err := utils.ParseUUID(userID)
	if err != nil {
		return nil, utils.ErrBadRequest("Invalid user ID")
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, utils.ErrValidation(errs)
	}

	user, err := us.repo.User.FindByID(ctx, id)
	if err != nil {
		return nil, utils.ErrInternal("Failed to find user", err)
	}
	if user == nil {
		return nil, utils.ErrNotFound("User not found")
	}

	if user.AuthID != callerID {
		caller, err := us.repo.Auth.FindByID(ctx, callerID)
		if err != nil {
			return nil, utils.ErrInternal("Failed to find account", err)
		}
		if caller == nil || caller.Role != entity.RoleAdmin {
			us.log.Warn("Profile update denied",
				zap.String("caller_id", callerID.String()),
				zap.String("user_id", id.String()),
			)
			return nil, utils.ErrForbidden("You can only update your own profile")
		}
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.PhoneNumber != nil {
		user.PhoneNumber = req.PhoneNumber
	}
	if req.Avatar != nil {
		user.Avatar = req.Avatar
	}
	user.UpdatedAt = us.now()

	if err := us.repo.User.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, utils.ErrNotFound("User not found")
		}
		return nil, utils.ErrInternal("Failed to update profile", err)
	}

	us.log.Info("Profile updated", zap.String("user_id", user.ID.String()))
	return response.UserToResponse(user), nil
}

func (us *userService) SetBlocked(ctx context.Context, authID string, blocked bool) (*response.AuthResponse, error) {
	id, err := utils.ParseUUID(authID)
	if err != nil {
		return nil, utils.ErrBadRequest("Invalid auth ID")
	}

	auth, err := us.repo.Auth.FindByID(ctx, id)
	if err != nil {
		return nil, utils.ErrInternal("Failed to find account", err)
	}
	if auth == nil {
		return nil, utils.ErrNotFound("Account not found")
	}

	auth.IsBlocked = blocked
	auth.UpdatedAt = us.now()
	if err := us.repo.Auth.Update(ctx, auth); err != nil {
		return nil, utils.ErrInternal("Failed to update account", err)
	}

	us.log.Info("Account block state changed", zap.String("auth_id", id.String()), zap.Bool("blocked", blocked))
	resp := response.AuthToResponse(auth)
	return &resp, nil
}

func (us *userService) AvatarUploadURL(ctx context.Context, authID uuid.UUID, req *request.AvatarUploadRequest) (*response.AvatarUploadResponse, error) {
	if us.avatars == nil {
		return nil, utils.ErrInternal("Avatar storage is not configured", nil)
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, utils.ErrValidation(errs)
	}

	user, err := us.repo.User.FindByAuthID(ctx, authID)
	if err != nil {
		return nil, utils.ErrInternal("Failed to find user", err)
	}
	if user == nil {
		return nil, utils.ErrNotFound("User not found")
	}

	upload, err := us.avatars.PresignUpload(ctx, user.ID, req.ContentType)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedContentType) {
			return nil, utils.ErrBadRequest("Unsupported avatar content type")
		}
		return nil, utils.ErrInternal("Failed to presign avatar upload", err)
	}

	return &response.AvatarUploadResponse{
		UploadURL: upload.UploadURL,
		Method:    upload.Method,
		Headers:   upload.Headers,
		AvatarURL: upload.AvatarURL,
		ExpiresAt: upload.ExpiresAt,
	}, nil
}
