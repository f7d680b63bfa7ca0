package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// FolderAvatars is the S3 prefix for avatar objects.
	FolderAvatars = "avatars"
)

// ErrUnsupportedType is returned for avatar uploads that are not images.
var ErrUnsupportedType = errors.New("unsupported file type")

// Allowed avatar MIME types and extensions.
var (
	AllowedAvatarTypes = map[string]string{
		"image/jpeg": ".jpg",
		"image/jpg":  ".jpg",
		"image/png":  ".png",
		"image/webp": ".webp",
		"image/gif":  ".gif",
	}
	AllowedAvatarExtensions = map[string]string{
		".jpg":  "image/jpeg",
		".jpeg": "image/jpeg",
		".png":  "image/png",
		".webp": "image/webp",
		".gif":  "image/gif",
	}
)

// S3Config holds S3 client configuration.
type S3Config struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	AvatarsBucket        string
	PresignExpireMinutes int
}

// AvatarUpload describes a pre-signed avatar upload.
type AvatarUpload struct {
	UploadURL   string    `json:"uploadUrl"`
	PublicURL   string    `json:"publicUrl"`
	Key         string    `json:"key"`
	ContentType string    `json:"contentType"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// S3 provides S3 operations with validation and pre-signed URLs.
type S3 struct {
	client  *s3.Client
	presign *s3.PresignClient
	cfg     S3Config
	logger  *zap.Logger
}

// NewS3 creates an S3 client using credentials from config or .env (AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY).
func NewS3(ctx context.Context, cfg S3Config, logger *zap.Logger) (*S3, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	accessKey := cfg.AccessKeyID
	secretKey := cfg.SecretAccessKey
	if accessKey == "" || secretKey == "" {
		accessKey = os.Getenv("AWS_ACCESS_KEY_ID")
		secretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	}
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKey, secretKey, "",
		)))
		logger.Info("S3 client using credentials from .env/config", zap.String("region", cfg.Region), zap.String("avatars_bucket", cfg.AvatarsBucket))
	} else {
		logger.Warn("S3 client using default credential chain (AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY not set)")
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg)
	return &S3{
		client:  client,
		presign: s3.NewPresignClient(client),
		cfg:     cfg,
		logger:  logger,
	}, nil
}

// AvatarContentType resolves the MIME type and extension of an avatar upload
// from its declared content type, falling back to the filename extension.
func AvatarContentType(contentType, filename string) (mime, ext string, err error) {
	if contentType != "" {
		if ext, ok := AllowedAvatarTypes[strings.ToLower(contentType)]; ok {
			return AllowedAvatarExtensions[ext], ext, nil
		}
	}
	ext = strings.ToLower(path.Ext(filename))
	if mime, ok := AllowedAvatarExtensions[ext]; ok {
		return mime, ext, nil
	}
	return "", "", ErrUnsupportedType
}

// AvatarKey returns the S3 object key: avatars/{user_id}/{uuid}{ext}.
func AvatarKey(userID, ext string) string {
	return path.Join(FolderAvatars, path.Base(userID), uuid.NewString()+ext)
}

// PresignExpire returns the configured presign duration.
func (s *S3) PresignExpire() time.Duration {
	if s.cfg.PresignExpireMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(s.cfg.PresignExpireMinutes) * time.Minute
}

// PublicObjectURL returns the public URL for an object (no signing; use when bucket is public).
func (s *S3) PublicObjectURL(bucket, key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, s.cfg.Region, key)
}

// KeyFromPublicURL returns the avatar key of a URL built by PublicObjectURL
// for the avatars bucket.
func (s *S3) KeyFromPublicURL(url string) (string, bool) {
	prefix := s.PublicObjectURL(s.cfg.AvatarsBucket, "")
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(url, prefix)
	if !strings.HasPrefix(key, FolderAvatars+"/") {
		return "", false
	}
	return key, true
}

// PresignAvatarUpload returns a pre-signed PUT URL for a new avatar of userID.
func (s *S3) PresignAvatarUpload(ctx context.Context, userID, contentType, filename string) (AvatarUpload, error) {
	mime, ext, err := AvatarContentType(contentType, filename)
	if err != nil {
		return AvatarUpload{}, err
	}
	key := AvatarKey(userID, ext)
	expires := s.PresignExpire()
	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.AvatarsBucket),
		Key:         aws.String(key),
		ContentType: aws.String(mime),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = expires
	})
	if err != nil {
		return AvatarUpload{}, fmt.Errorf("presign put: %w", err)
	}
	s.logger.Debug("presigned avatar upload", zap.String("user_id", userID), zap.String("key", key))
	return AvatarUpload{
		UploadURL:   req.URL,
		PublicURL:   s.PublicObjectURL(s.cfg.AvatarsBucket, key),
		Key:         key,
		ContentType: mime,
		ExpiresAt:   time.Now().Add(expires).UTC(),
	}, nil
}

// DeleteAvatar removes the object behind an avatar URL. URLs outside the
// avatars bucket are ignored.
func (s *S3) DeleteAvatar(ctx context.Context, url string) error {
	key, ok := s.KeyFromPublicURL(url)
	if !ok {
		return nil
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.AvatarsBucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}
