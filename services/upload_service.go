package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// MaxImageBytes caps a single image upload.
const MaxImageBytes = 5 << 20

var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ObjectStore is where uploaded files end up.
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	FileURL(key string) string
}

// UploadedImage describes a stored image.
type UploadedImage struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

type UploadService struct {
	store ObjectStore
	now   func() time.Time
}

// NewUploadService accepts a nil store; uploads then fail as upstream errors.
func NewUploadService(store ObjectStore) *UploadService {
	return &UploadService{store: store, now: time.Now}
}

// UploadImage sniffs r, accepts jpeg/png/gif/webp up to MaxImageBytes and
// stores it under images/<user>/<yyyy>/<mm>/<uuid><ext>.
func (s *UploadService) UploadImage(ctx context.Context, caller CallerContext, r io.Reader) (*UploadedImage, error) {
	if !caller.Authenticated() {
		return nil, Unauthorized("login required")
	}
	data, err := io.ReadAll(io.LimitReader(r, MaxImageBytes+1))
	if err != nil {
		return nil, Validation("could not read upload")
	}
	if len(data) == 0 {
		return nil, Validation("file is empty")
	}
	if len(data) > MaxImageBytes {
		return nil, Validation("file exceeds %d MiB", MaxImageBytes>>20)
	}
	mt := mimetype.Detect(data)
	ext, ok := imageTypes[mt.String()]
	if !ok {
		return nil, Validation("unsupported image type %s", mt.String())
	}
	if s.store == nil {
		return nil, Upstream("image storage is not configured", nil)
	}

	now := s.now()
	key := fmt.Sprintf("images/%d/%04d/%02d/%s%s", caller.UserID, now.Year(), int(now.Month()), uuid.NewString(), ext)
	if err := s.store.Upload(ctx, key, mt.String(), bytes.NewReader(data), int64(len(data))); err != nil {
		return nil, Upstream("image upload failed", err)
	}
	return &UploadedImage{Key: key, URL: s.store.FileURL(key), ContentType: mt.String(), Size: int64(len(data))}, nil
}
