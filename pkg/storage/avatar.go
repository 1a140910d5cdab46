// Package storage hands out presigned S3 upload URLs for profile avatars.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"account-service/pkg/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

var ErrUnsupportedContentType = errors.New("unsupported avatar content type")

var avatarExtensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/webp": "webp",
}

// PutPresigner is the part of *s3.PresignClient used here.
type PutPresigner interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Upload describes where a client should PUT an avatar and where it will be served from.
type Upload struct {
	UploadURL string
	Method    string
	Headers   map[string]string
	AvatarURL string
	ExpiresAt time.Time
}

type AvatarStore struct {
	presigner     PutPresigner
	bucket        string
	publicBaseURL string
	ttl           time.Duration
	now           func() time.Time
}

func NewAvatarStore(presigner PutPresigner, bucket, publicBaseURL string, ttl time.Duration) *AvatarStore {
	return &AvatarStore{
		presigner:     presigner,
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		ttl:           ttl,
		now:           time.Now,
	}
}

// NewAvatarStoreFromConfig builds an S3 (or S3-compatible, e.g. MinIO) backed store.
func NewAvatarStoreFromConfig(ctx context.Context, cfg utils.StorageConfig) (*AvatarStore, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	publicBase := cfg.PublicBaseURL
	if publicBase == "" {
		publicBase = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}

	return NewAvatarStore(s3.NewPresignClient(client), cfg.Bucket, publicBase, cfg.PresignTTL), nil
}

// PresignUpload returns a PUT URL for a new avatar object owned by userID.
func (s *AvatarStore) PresignUpload(ctx context.Context, userID uuid.UUID, contentType string) (*Upload, error) {
	ext, ok := avatarExtensions[contentType]
	if !ok {
		return nil, ErrUnsupportedContentType
	}

	key := fmt.Sprintf("avatars/%s/%s.%s", userID, uuid.New(), ext)

	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return nil, fmt.Errorf("presign avatar upload: %w", err)
	}

	headers := make(map[string]string, len(req.SignedHeader))
	for name, values := range req.SignedHeader {
		if len(values) > 0 {
			headers[name] = values[0]
		}
	}

	return &Upload{
		UploadURL: req.URL,
		Method:    req.Method,
		Headers:   headers,
		AvatarURL: s.publicBaseURL + "/" + key,
		ExpiresAt: s.now().Add(s.ttl),
	}, nil
}
