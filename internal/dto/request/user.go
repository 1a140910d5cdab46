package request

type UpdateProfileRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	PhoneNumber *string `json:"phoneNumber,omitempty" validate:"omitempty,e164"`
	Avatar      *string `json:"avatar,omitempty" validate:"omitempty,url"`
}

type AvatarUploadRequest struct {
	ContentType string `json:"contentType" validate:"required,oneof=image/png image/jpeg image/webp"`
}
