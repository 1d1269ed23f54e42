// AngelaMos | 2026
// service.go

package property

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/estate-market/internal/core"
	"github.com/carterperez-dev/estate-market/internal/media"
	"github.com/carterperez-dev/estate-market/internal/middleware"
)

var ErrImageNotFound = errors.New("image not found")

type ImageStore interface {
	UploadListingImage(ctx context.Context, propertyID string, data []byte) (*media.Image, error)
	Delete(ctx context.Context, key string) error
	DeleteAll(ctx context.Context, keys []string)
}

type Service struct {
	repo   Repository
	images ImageStore
}

func NewService(repo Repository, images ImageStore) *Service {
	return &Service{repo: repo, images: images}
}

// Create stores a pending, unverified listing owned by the caller.
func (s *Service) Create(
	ctx context.Context,
	identity *middleware.Identity,
	req CreatePropertyRequest,
) (*Property, error) {
	if identity == nil {
		return nil, fmt.Errorf("create property: %w", core.ErrUnauthorized)
	}

	p := &Property{
		ID:           uuid.New().String(),
		Title:        strings.TrimSpace(req.Title),
		Description:  strings.TrimSpace(req.Description),
		Price:        req.Price,
		Location:     req.Location,
		PropertyType: req.PropertyType,
		Bedrooms:     req.Bedrooms,
		Bathrooms:    req.Bathrooms,
		Area:         req.Area,
		Features:     req.Features,
		Seller:       identity.ID,
		Status:       StatusPending,
		IsVerified:   false,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "property created", "property_id", p.ID, "seller_id", p.Seller)
	return p, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Property, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, params ListParams) ([]Property, int, error) {
	return s.repo.List(ctx, params)
}

func (s *Service) Mine(
	ctx context.Context,
	identity *middleware.Identity,
	page core.PageParams,
) ([]Property, int, error) {
	if identity == nil {
		return nil, 0, fmt.Errorf("my properties: %w", core.ErrUnauthorized)
	}
	return s.repo.List(ctx, ListParams{PageParams: page, Seller: identity.ID})
}

// Update applies present fields. Only admins may move a listing to active;
// that path belongs to Verify.
func (s *Service) Update(
	ctx context.Context,
	identity *middleware.Identity,
	id string,
	req UpdatePropertyRequest,
) (*Property, error) {
	if _, err := s.loadForMutation(ctx, identity, id); err != nil {
		return nil, err
	}

	if req.Status != nil {
		if _, ok := validStatuses[*req.Status]; !ok {
			return nil, core.ValidationError(map[string]string{
				"status": "status must be one of: active pending sold inactive",
			})
		}
		if *req.Status == StatusActive && !identity.IsAdmin() {
			return nil, fmt.Errorf("activate property: %w", core.ErrForbidden)
		}
	}
	if req.PropertyType != nil {
		if _, ok := validTypes[*req.PropertyType]; !ok {
			return nil, core.ValidationError(map[string]string{
				"propertyType": "propertyType must be one of: house apartment condo villa land",
			})
		}
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		req.Title = &title
	}
	if req.Description != nil {
		description := strings.TrimSpace(*req.Description)
		req.Description = &description
	}

	return s.repo.Update(ctx, id, req)
}

// Delete removes the listing, then best-effort removes its images.
func (s *Service) Delete(
	ctx context.Context,
	identity *middleware.Identity,
	id string,
) error {
	p, err := s.loadForMutation(ctx, identity, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.images.DeleteAll(ctx, p.ImageKeys())

	slog.InfoContext(ctx, "property deleted",
		"property_id", id,
		"actor_id", identity.ID,
	)
	return nil
}

// Verify is admin only and always lands on isVerified=true, status=active.
func (s *Service) Verify(
	ctx context.Context,
	identity *middleware.Identity,
	id string,
) (*Property, error) {
	ctx, span := core.StartSpan(ctx, "property.verify",
		attribute.String("property.id", id),
	)
	defer span.End()

	if err := middleware.Authorize(identity, map[string]struct{}{
		middleware.RoleAdmin: {},
	}); err != nil {
		return nil, err
	}

	p, err := s.repo.MarkVerified(ctx, id)
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			core.SetSpanError(ctx, err)
		}
		return nil, err
	}

	core.RecordTransition("property", "verify")
	slog.InfoContext(ctx, "property verified",
		"property_id", id,
		"actor_id", identity.ID,
	)
	return p, nil
}

func (s *Service) AddImage(
	ctx context.Context,
	identity *middleware.Identity,
	id string,
	data []byte,
) (*Property, error) {
	if _, err := s.loadForMutation(ctx, identity, id); err != nil {
		return nil, err
	}

	img, err := s.images.UploadListingImage(ctx, id, data)
	if err != nil {
		return nil, err
	}

	if err := s.repo.AddImage(ctx, id, *img); err != nil {
		//nolint:errcheck // orphan cleanup is best-effort
		_ = s.images.Delete(ctx, img.ID)
		return nil, err
	}

	return s.repo.GetByID(ctx, id)
}

// RemoveImage accepts either the full key or its file name.
func (s *Service) RemoveImage(
	ctx context.Context,
	identity *middleware.Identity,
	id, imageID string,
) (*Property, error) {
	p, err := s.loadForMutation(ctx, identity, id)
	if err != nil {
		return nil, err
	}

	key := ""
	for _, img := range p.Images {
		if img.ID == imageID || path.Base(img.ID) == imageID {
			key = img.ID
			break
		}
	}
	if key == "" {
		return nil, ErrImageNotFound
	}

	if err := s.repo.RemoveImage(ctx, id, key); err != nil {
		return nil, err
	}

	if err := s.images.Delete(ctx, key); err != nil {
		slog.WarnContext(ctx, "image delete failed", "key", key, "error", err)
	}

	return s.repo.GetByID(ctx, id)
}

// DeleteBySeller satisfies the account deletion cascade.
func (s *Service) DeleteBySeller(ctx context.Context, sellerID string) (int, error) {
	removed, err := s.repo.DeleteBySeller(ctx, sellerID)
	if err != nil {
		return 0, err
	}

	for i := range removed {
		s.images.DeleteAll(ctx, removed[i].ImageKeys())
	}

	return len(removed), nil
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	byStatus, err := s.repo.CountBy(ctx, "status")
	if err != nil {
		return nil, err
	}

	byVerified, err := s.repo.CountBy(ctx, "isVerified")
	if err != nil {
		return nil, err
	}

	total := 0
	for _, n := range byStatus {
		total += n
	}

	return &Stats{
		Total:      total,
		ByStatus:   byStatus,
		Verified:   byVerified["true"],
		Unverified: byVerified["false"],
	}, nil
}

// loadForMutation admits admins and the owning seller only.
func (s *Service) loadForMutation(
	ctx context.Context,
	identity *middleware.Identity,
	id string,
) (*Property, error) {
	if identity == nil {
		return nil, fmt.Errorf("modify property: %w", core.ErrUnauthorized)
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !identity.IsAdmin() && !p.OwnedBy(identity.ID) {
		return nil, fmt.Errorf("modify property %s: %w", id, core.ErrForbidden)
	}

	return p, nil
}
