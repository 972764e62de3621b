package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"videotube_backend/internal/config"
	domain "videotube_backend/internal/model"
)

// MediaUploader turns a staged local file into a hosted URL.
type MediaUploader interface {
	Upload(ctx context.Context, localPath string, kind domain.ImageKind) (*domain.UploadResult, error)
	DeleteByURL(ctx context.Context, url string) error
}

// objectStore is the subset of *s3.Client the media service calls.
type objectStore interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// MediaService handles media uploads to Cloudflare R2.
type MediaService struct {
	store     objectStore
	bucket    string
	publicURL string
}

var _ MediaUploader = (*MediaService)(nil)

// NewMediaService constructs an S3-compatible client for Cloudflare R2.
func NewMediaService(ctx context.Context, cfg *config.Config) (*MediaService, error) {
	if cfg.R2AccountID == "" || cfg.R2AccessKeyID == "" || cfg.R2SecretAccessKey == "" || cfg.R2BucketName == "" || cfg.R2PublicURL == "" {
		return nil, fmt.Errorf("missing Cloudflare R2 configuration")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.R2AccessKeyID, cfg.R2SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for R2: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2AccountID)
	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return newMediaService(s3Client, cfg.R2BucketName, cfg.R2PublicURL), nil
}

func newMediaService(store objectStore, bucket, publicURL string) *MediaService {
	return &MediaService{
		store:     store,
		bucket:    bucket,
		publicURL: strings.TrimSuffix(publicURL, "/"),
	}
}

// Upload validates the staged file, normalizes it to a JPEG of the kind's
// dimensions and uploads it. The local file is removed whatever the outcome.
func (s *MediaService) Upload(ctx context.Context, localPath string, kind domain.ImageKind) (*domain.UploadResult, error) {
	if localPath == "" {
		return nil, fmt.Errorf("no file to upload")
	}
	defer os.Remove(localPath)

	data, err := readAndValidateImage(localPath, kind.MaxSize)
	if err != nil {
		return nil, err
	}

	jpegBytes, err := resizeToJPEG(data, kind.Width, kind.Height, domain.ImageJPEGQuality)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s/%s%s", kind.Folder, uuid.NewString(), domain.ImageExt)
	if err := s.putObject(ctx, key, jpegBytes, domain.ContentTypeJPEG, domain.ImageCacheControl); err != nil {
		return nil, err
	}

	return &domain.UploadResult{URL: s.urlFor(key), Key: key}, nil
}

// DeleteByURL removes an object previously returned by Upload.
// URLs outside this bucket's public prefix are ignored.
func (s *MediaService) DeleteByURL(ctx context.Context, url string) error {
	key, ok := s.keyFor(url)
	if !ok {
		return nil
	}
	return s.deleteObject(ctx, key)
}

func (s *MediaService) urlFor(key string) string {
	return fmt.Sprintf("%s/%s", s.publicURL, key)
}

func (s *MediaService) keyFor(url string) (string, bool) {
	prefix := s.publicURL + "/"
	if url == "" || !strings.HasPrefix(url, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(url, prefix)
	return key, key != ""
}

// readAndValidateImage loads the file into memory with size and type checks.
func readAndValidateImage(path string, maxSize int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > maxSize {
		return nil, domain.ErrFileTooLarge
	}

	contentType := http.DetectContentType(data[:min(len(data), 512)])
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = strings.TrimSpace(contentType[:idx])
	}
	if !domain.IsAllowedImageType(contentType) {
		return nil, domain.ErrInvalidImageType
	}

	return data, nil
}

// resizeToJPEG centers/crops to target size and encodes as JPEG.
func resizeToJPEG(data []byte, width, height, quality int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	resized := imaging.Fill(img, width, height, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}

	return buf.Bytes(), nil
}

// putObject uploads bytes to R2 with metadata.
func (s *MediaService) putObject(ctx context.Context, key string, body []byte, contentType, cacheControl string) error {
	_, err := s.store.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(body),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String(cacheControl),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to r2: %w", err)
	}
	return nil
}

func (s *MediaService) deleteObject(ctx context.Context, key string) error {
	_, err := s.store.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from r2: %w", err)
	}
	return nil
}
