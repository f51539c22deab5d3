// Package media provides the image upload use case
package media

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/foodtrack/api/internal/ports/inbound"
	"github.com/foodtrack/api/internal/ports/outbound"
	"github.com/foodtrack/api/pkg/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxImageSize is the largest accepted upload in bytes
const MaxImageSize int64 = 5 << 20

// sniffLen is how many bytes content detection looks at
const sniffLen = 512

// allowedTypes maps accepted content types to their default extension
var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// MediaService stores uploaded recipe images
type MediaService struct {
	storage outbound.ImageStorage
	logger  *zap.Logger
}

// NewMediaService creates a new media service
func NewMediaService(storage outbound.ImageStorage, logger *zap.Logger) *MediaService {
	return &MediaService{
		storage: storage,
		logger:  logger.Named("media-service"),
	}
}

var _ inbound.MediaService = (*MediaService)(nil)

// UploadImage validates and stores one image under a random name
func (s *MediaService) UploadImage(ctx context.Context, cmd inbound.UploadImageCommand) (*inbound.UploadedImageDTO, error) {
	if cmd.Size > MaxImageSize {
		return nil, errors.NewPayloadTooLargeError(MaxImageSize)
	}
	if cmd.Body == nil || cmd.Size == 0 {
		return nil, errors.NewBadRequestError("no file uploaded")
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(cmd.Body, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, errors.NewBadRequestError("failed to read upload").WithCause(err)
	}
	head = head[:n]

	contentType := http.DetectContentType(head)
	defaultExt, ok := allowedTypes[contentType]
	if !ok {
		return nil, errors.NewUnsupportedMediaTypeError(contentType)
	}

	ext := strings.ToLower(filepath.Ext(cmd.OriginalName))
	if ext == "" {
		ext = defaultExt
	}
	name := uuid.NewString() + ext

	body := io.MultiReader(bytes.NewReader(head), cmd.Body)
	url, err := s.storage.Save(ctx, name, contentType, body, cmd.Size)
	if err != nil {
		return nil, errors.NewExternalServiceError("image storage", err)
	}

	s.logger.Info("Image uploaded",
		zap.String("filename", name),
		zap.String("content_type", contentType),
		zap.Int64("size", cmd.Size),
	)
	return &inbound.UploadedImageDTO{
		URL:          url,
		Filename:     name,
		OriginalName: cmd.OriginalName,
		Size:         cmd.Size,
	}, nil
}
