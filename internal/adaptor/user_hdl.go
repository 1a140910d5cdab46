package adaptor

import (
	"net/http"

	"account-service/internal/dto/request"
	"account-service/internal/usecase"
	"account-service/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type UserHandler struct {
	service usecase.UserService
	log     *zap.Logger
}

func NewUserHandler(service usecase.UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		log:     log.With(zap.String("handler", "user")),
	}
}

// GetProfile handles GET /api/users/me
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	authID, ok := utils.GetAuthIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	profile, err := h.service.GetProfile(r.Context(), authID)
	if err != nil {
		handleServiceError(h.log, w, err, "get profile")
		return
	}

	utils.ResponseSuccess(w, "Profile retrieved successfully", profile)
}

// ListUsers handles GET /api/users/ (admin only)
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := &request.PaginatedRequest{
		Page:    utils.ParseInt(query.Get("page"), 1),
		PerPage: utils.ParseInt(query.Get("per_page"), utils.DefaultPerPage),
	}

	users, err := h.service.ListUsers(r.Context(), req)
	if err != nil {
		handleServiceError(h.log, w, err, "list users")
		return
	}

	utils.ResponseSuccess(w, "Users retrieved successfully", users)
}

// UpdateProfile handles PATCH /api/users/update/{id} (owner or admin)
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	authID, ok := utils.GetAuthIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), authID, chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "update profile")
		return
	}

	utils.ResponseSuccess(w, "Profile updated", user)
}

// Block handles POST /api/users/block/{authId}
func (h *UserHandler) Block(w http.ResponseWriter, r *http.Request) {
	h.setBlocked(w, r, true)
}

// Unblock handles POST /api/users/unblock/{authId}
func (h *UserHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	h.setBlocked(w, r, false)
}

func (h *UserHandler) setBlocked(w http.ResponseWriter, r *http.Request, blocked bool) {
	auth, err := h.service.SetBlocked(r.Context(), chi.URLParam(r, "authId"), blocked)
	if err != nil {
		handleServiceError(h.log, w, err, "set blocked")
		return
	}

	message := "Account unblocked"
	if blocked {
		message = "Account blocked"
	}
	utils.ResponseSuccess(w, message, auth)
}

// AvatarUploadURL handles POST /api/users/avatar-upload-url
func (h *UserHandler) AvatarUploadURL(w http.ResponseWriter, r *http.Request) {
	authID, ok := utils.GetAuthIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.AvatarUploadRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	upload, err := h.service.AvatarUploadURL(r.Context(), authID, &req)
	if err != nil {
		handleServiceError(h.log, w, err, "avatar upload url")
		return
	}

	utils.ResponseSuccess(w, "Upload URL created", upload)
}
