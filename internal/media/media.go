// AngelaMos | 2026
// media.go

// Package media pushes listing images to an S3 compatible bucket. The
// object key is the opaque id stored on the listing.
package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/estate-market/internal/config"
	"github.com/carterperez-dev/estate-market/internal/core"
)

var (
	ErrMediaDisabled    = errors.New("media uploads are disabled")
	ErrUnsupportedImage = errors.New("unsupported image type")
	ErrImageTooLarge    = errors.New("image exceeds upload limit")
)

type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

type Image struct {
	ID  string `json:"id"  bson:"id"`
	URL string `json:"url" bson:"url"`
}

// Service normalises images and stores them under properties/<id>/.
type Service struct {
	store    ObjectStore
	cfg      config.MediaConfig
	disabled bool
}

func NewService(store ObjectStore, cfg config.MediaConfig) *Service {
	return &Service{store: store, cfg: cfg, disabled: store == nil}
}

func (s *Service) Enabled() bool {
	return !s.disabled
}

func (s *Service) UploadListingImage(
	ctx context.Context,
	propertyID string,
	data []byte,
) (*Image, error) {
	if s.disabled {
		return nil, ErrMediaDisabled
	}

	if s.cfg.MaxUploadBytes > 0 && int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, ErrImageTooLarge
	}

	normalized, err := Normalize(data, s.cfg.MaxWidth)
	if err != nil {
		return nil, err
	}

	key := ListingImageKey(propertyID, uuid.New().String())

	location, err := s.store.Put(ctx, key, "image/jpeg", normalized)
	core.RecordMediaOperation("upload", err)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", key, err)
	}

	return &Image{ID: key, URL: s.publicURL(key, location)}, nil
}

// Delete is a no-op when media is disabled.
func (s *Service) Delete(ctx context.Context, key string) error {
	if s.disabled || key == "" {
		return nil
	}

	err := s.store.Delete(ctx, key)
	core.RecordMediaOperation("delete", err)
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// DeleteAll removes every key and only logs failures.
func (s *Service) DeleteAll(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := s.Delete(ctx, key); err != nil {
			slog.WarnContext(ctx, "image cleanup failed", "key", key, "error", err)
		}
	}
}

func (s *Service) Ping(ctx context.Context) error {
	if s.disabled {
		return nil
	}
	return s.store.Ping(ctx)
}

func (s *Service) publicURL(key, location string) string {
	if s.cfg.PublicBaseURL != "" {
		return strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/" + key
	}
	return location
}

func ListingImageKey(propertyID, imageID string) string {
	return fmt.Sprintf("properties/%s/%s.jpg", propertyID, imageID)
}
