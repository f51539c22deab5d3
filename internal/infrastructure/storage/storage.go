// Package storage persists uploaded images on local disk or in S3
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/foodtrack/api/internal/infrastructure/config"
	"github.com/foodtrack/api/internal/ports/outbound"
	"go.uber.org/zap"
)

// UploadsPath is where the local driver's files are served over HTTP
const UploadsPath = "/uploads"

// New selects the driver named in cfg.Storage
func New(cfg *config.Config, logger *zap.Logger) (outbound.ImageStorage, error) {
	switch cfg.Storage.Driver {
	case "s3":
		return NewS3Storage(cfg.Storage, logger)
	case "local", "":
		return NewLocalStorage(cfg.Storage.LocalDir, cfg.Storage.Prefix, cfg.App.PublicURL, logger)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// LocalStorage writes images below a directory served at UploadsPath
type LocalStorage struct {
	root    string
	prefix  string
	baseURL string
	logger  *zap.Logger
}

// NewLocalStorage creates root/prefix when missing
func NewLocalStorage(root, prefix, publicURL string, logger *zap.Logger) (*LocalStorage, error) {
	if err := os.MkdirAll(filepath.Join(root, prefix), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalStorage{
		root:    root,
		prefix:  prefix,
		baseURL: strings.TrimRight(publicURL, "/") + UploadsPath,
		logger:  logger.Named("local-storage"),
	}, nil
}

// Root is the directory to serve at UploadsPath
func (s *LocalStorage) Root() string {
	return s.root
}

// Save implements outbound.ImageStorage
func (s *LocalStorage) Save(ctx context.Context, name, contentType string, body io.Reader, size int64) (string, error) {
	if name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid file name %q", name)
	}

	target := filepath.Join(s.root, s.prefix, name)
	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	written, err := io.Copy(tmp, io.LimitReader(body, size+1))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if written != size {
		return "", fmt.Errorf("upload size mismatch: declared %d, received %d", size, written)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("failed to store file: %w", err)
	}

	s.logger.Debug("Image stored", zap.String("path", target), zap.String("content_type", contentType))
	return s.baseURL + "/" + path.Join(s.prefix, name), nil
}

// S3Storage uploads images to a bucket
type S3Storage struct {
	uploader  *s3manager.Uploader
	bucket    string
	prefix    string
	publicURL string
	logger    *zap.Logger
}

// NewS3Storage creates an uploader from the default AWS credential chain
func NewS3Storage(cfg config.StorageConfig, logger *zap.Logger) (*S3Storage, error) {
	awsCfg := aws.NewConfig().WithRegion(cfg.Region)
	if cfg.Endpoint != "" {
		awsCfg = awsCfg.WithEndpoint(cfg.Endpoint).WithS3ForcePathStyle(true)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	return newS3Storage(s3manager.NewUploader(sess), cfg, logger), nil
}

func newS3Storage(uploader *s3manager.Uploader, cfg config.StorageConfig, logger *zap.Logger) *S3Storage {
	return &S3Storage{
		uploader:  uploader,
		bucket:    cfg.Bucket,
		prefix:    cfg.Prefix,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
		logger:    logger.Named("s3-storage"),
	}
}

// Save implements outbound.ImageStorage
func (s *S3Storage) Save(ctx context.Context, name, contentType string, body io.Reader, size int64) (string, error) {
	key := path.Join(s.prefix, name)
	out, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        io.LimitReader(body, size),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}

	s.logger.Debug("Image uploaded",
		zap.String("bucket", s.bucket),
		zap.String("key", key),
		zap.String("upload_id", out.UploadID),
	)
	if s.publicURL != "" {
		return s.publicURL + "/" + key, nil
	}
	return out.Location, nil
}
