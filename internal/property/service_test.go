// AngelaMos | 2026
// service_test.go

package property

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/estate-market/internal/core"
	"github.com/carterperez-dev/estate-market/internal/media"
	"github.com/carterperez-dev/estate-market/internal/middleware"
)

type memoryRepo struct {
	mu    sync.Mutex
	items map[string]Property
	clock time.Time
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		items: make(map[string]Property),
		clock: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *memoryRepo) Create(_ context.Context, p *Property) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.clock = m.clock.Add(time.Minute)
	p.CreatedAt = m.clock
	p.UpdatedAt = m.clock
	if p.Images == nil {
		p.Images = []media.Image{}
	}
	m.items[p.ID] = clone(*p)
	return nil
}

func (m *memoryRepo) GetByID(_ context.Context, id string) (*Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("get property: %w", core.ErrNotFound)
	}
	p = clone(p)
	return &p, nil
}

func (m *memoryRepo) Update(_ context.Context, id string, c UpdatePropertyRequest) (*Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("update property: %w", core.ErrNotFound)
	}
	applyChanges(&p, c)
	m.items[id] = p
	p = clone(p)
	return &p, nil
}

func (m *memoryRepo) MarkVerified(_ context.Context, id string) (*Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("verify property: %w", core.ErrNotFound)
	}
	p.IsVerified = true
	p.Status = StatusActive
	m.items[id] = p
	p = clone(p)
	return &p, nil
}

func (m *memoryRepo) AddImage(_ context.Context, id string, img media.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.items[id]
	if !ok {
		return fmt.Errorf("add image: %w", core.ErrNotFound)
	}
	p.Images = append(append([]media.Image{}, p.Images...), img)
	m.items[id] = p
	return nil
}

func (m *memoryRepo) RemoveImage(_ context.Context, id, imageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.items[id]
	if !ok {
		return fmt.Errorf("remove image: %w", core.ErrNotFound)
	}
	kept := make([]media.Image, 0, len(p.Images))
	for _, img := range p.Images {
		if img.ID != imageID {
			kept = append(kept, img)
		}
	}
	p.Images = kept
	m.items[id] = p
	return nil
}

func (m *memoryRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[id]; !ok {
		return fmt.Errorf("delete property: %w", core.ErrNotFound)
	}
	delete(m.items, id)
	return nil
}

func (m *memoryRepo) DeleteBySeller(_ context.Context, sellerID string) ([]Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed []Property
	for id, p := range m.items {
		if p.Seller == sellerID {
			removed = append(removed, p)
			delete(m.items, id)
		}
	}
	return removed, nil
}

func (m *memoryRepo) List(_ context.Context, params ListParams) ([]Property, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	params.Normalize()

	matched := make([]Property, 0, len(m.items))
	for _, p := range m.items {
		if matches(p, params) {
			matched = append(matched, clone(p))
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	start := min(params.Offset(), total)
	end := min(start+params.PageSize, total)
	return matched[start:end], total, nil
}

func (m *memoryRepo) CountBy(_ context.Context, field string) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	counts := make(map[string]int)
	for _, p := range m.items {
		switch field {
		case "status":
			counts[p.Status]++
		case "isVerified":
			counts[fmt.Sprint(p.IsVerified)]++
		default:
			return nil, fmt.Errorf("count by %s: unsupported field", field)
		}
	}
	return counts, nil
}

func matches(p Property, f ListParams) bool {
	switch {
	case f.PropertyType != "" && p.PropertyType != f.PropertyType:
		return false
	case f.City != "" && p.Location.City != f.City:
		return false
	case f.State != "" && p.Location.State != f.State:
		return false
	case f.Status != "" && p.Status != f.Status:
		return false
	case f.Seller != "" && p.Seller != f.Seller:
		return false
	case f.MinPrice != nil && p.Price < *f.MinPrice:
		return false
	case f.MaxPrice != nil && p.Price > *f.MaxPrice:
		return false
	case f.MinBedrooms != nil && p.Bedrooms < *f.MinBedrooms:
		return false
	}
	return true
}

func applyChanges(p *Property, c UpdatePropertyRequest) {
	if c.Title != nil {
		p.Title = *c.Title
	}
	if c.Description != nil {
		p.Description = *c.Description
	}
	if c.Price != nil {
		p.Price = *c.Price
	}
	if c.Location != nil {
		p.Location = *c.Location
	}
	if c.PropertyType != nil {
		p.PropertyType = *c.PropertyType
	}
	if c.Bedrooms != nil {
		p.Bedrooms = *c.Bedrooms
	}
	if c.Bathrooms != nil {
		p.Bathrooms = *c.Bathrooms
	}
	if c.Area != nil {
		p.Area = *c.Area
	}
	if c.Features != nil {
		p.Features = append([]string(nil), c.Features...)
	}
	if c.Status != nil {
		p.Status = *c.Status
	}
}

func clone(p Property) Property {
	p.Images = append([]media.Image(nil), p.Images...)
	p.Features = append([]string(nil), p.Features...)
	return p
}

type fakeImages struct {
	uploads int
	deleted []string
	err     error
}

func (f *fakeImages) UploadListingImage(
	_ context.Context,
	propertyID string,
	_ []byte,
) (*media.Image, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.uploads++
	key := media.ListingImageKey(propertyID, fmt.Sprintf("img-%d", f.uploads))
	return &media.Image{ID: key, URL: "https://cdn.example.com/" + key}, nil
}

func (f *fakeImages) Delete(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeImages) DeleteAll(_ context.Context, keys []string) {
	f.deleted = append(f.deleted, keys...)
}

var (
	admin  = &middleware.Identity{Source: middleware.SourceAdminClaim, ID: middleware.AdminIdentityID, Role: middleware.RoleAdmin}
	jane   = &middleware.Identity{Source: middleware.SourceStoredUser, ID: "jane", Role: middleware.RoleSeller}
	stella = &middleware.Identity{Source: middleware.SourceStoredUser, ID: "stella", Role: middleware.RoleSeller}
)

func villa(price float64) CreatePropertyRequest {
	return CreatePropertyRequest{
		Title:        "Sea view villa",
		Description:  "Four bedrooms by the shore",
		Price:        price,
		Location:     Location{Address: "1 Shore Rd", City: "Goa", State: "GA"},
		PropertyType: TypeVilla,
		Bedrooms:     4,
		Bathrooms:    3,
		Area:         320,
		Features:     []string{"pool"},
	}
}

func newTestService() (*Service, *memoryRepo, *fakeImages) {
	repo := newMemoryRepo()
	images := &fakeImages{}
	return NewService(repo, images), repo, images
}

func TestCreateStartsPendingAndUnverified(t *testing.T) {
	svc, _, _ := newTestService()

	p, err := svc.Create(context.Background(), jane, villa(500000))
	require.NoError(t, err)
	assert.Equal(t, "jane", p.Seller)
	assert.Equal(t, StatusPending, p.Status)
	assert.False(t, p.IsVerified)
	assert.NotEmpty(t, p.ID)

	_, err = svc.Create(context.Background(), nil, villa(1))
	assert.ErrorIs(t, err, core.ErrUnauthorized)
}

func TestMutationGate(t *testing.T) {
	ctx := context.Background()
	title := "Renamed"

	tests := []struct {
		name     string
		identity *middleware.Identity
		wantErr  error
	}{
		{"owner", jane, nil},
		{"admin", admin, nil},
		{"other seller", stella, core.ErrForbidden},
		{"anonymous", nil, core.ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name+" update", func(t *testing.T) {
			svc, _, _ := newTestService()
			p, err := svc.Create(ctx, jane, villa(100))
			require.NoError(t, err)

			_, err = svc.Update(ctx, tt.identity, p.ID, UpdatePropertyRequest{Title: &title})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})

		t.Run(tt.name+" delete", func(t *testing.T) {
			svc, repo, _ := newTestService()
			p, err := svc.Create(ctx, jane, villa(100))
			require.NoError(t, err)

			err = svc.Delete(ctx, tt.identity, p.ID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				_, getErr := repo.GetByID(ctx, p.ID)
				assert.NoError(t, getErr, "listing must survive a refused delete")
				return
			}
			require.NoError(t, err)
			_, err = repo.GetByID(ctx, p.ID)
			assert.ErrorIs(t, err, core.ErrNotFound)
		})
	}
}

func TestUpdateKeepsSellerAndAppliesPresentFields(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	p, err := svc.Create(ctx, jane, villa(100))
	require.NoError(t, err)

	price := 250.0
	sold := StatusSold
	got, err := svc.Update(ctx, admin, p.ID, UpdatePropertyRequest{Price: &price, Status: &sold})
	require.NoError(t, err)

	assert.Equal(t, 250.0, got.Price)
	assert.Equal(t, StatusSold, got.Status)
	assert.Equal(t, "jane", got.Seller)
	assert.Equal(t, "Sea view villa", got.Title)
}

// verifyingRepo verifies the listing right after the first read, so an
// admin verification lands between an owner's read and write.
type verifyingRepo struct {
	*memoryRepo
	once sync.Once
}

func (r *verifyingRepo) GetByID(ctx context.Context, id string) (*Property, error) {
	p, err := r.memoryRepo.GetByID(ctx, id)
	r.once.Do(func() {
		_, _ = r.memoryRepo.MarkVerified(ctx, id)
	})
	return p, err
}

func TestOwnerEditKeepsConcurrentVerification(t *testing.T) {
	repo := &verifyingRepo{memoryRepo: newMemoryRepo()}
	svc := NewService(repo, &fakeImages{})
	ctx := context.Background()

	p, err := svc.Create(ctx, jane, villa(100))
	require.NoError(t, err)

	price := 120.0
	got, err := svc.Update(ctx, jane, p.ID, UpdatePropertyRequest{Price: &price})
	require.NoError(t, err)

	assert.Equal(t, 120.0, got.Price)
	assert.True(t, got.IsVerified)
	assert.Equal(t, StatusActive, got.Status)
}

func TestSellerCannotActivate(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	p, err := svc.Create(ctx, jane, villa(100))
	require.NoError(t, err)

	active := StatusActive
	_, err = svc.Update(ctx, jane, p.ID, UpdatePropertyRequest{Status: &active})
	assert.ErrorIs(t, err, core.ErrForbidden)

	inactive := StatusInactive
	got, err := svc.Update(ctx, jane, p.ID, UpdatePropertyRequest{Status: &inactive})
	require.NoError(t, err)
	assert.Equal(t, StatusInactive, got.Status)

	bogus := "archived"
	_, err = svc.Update(ctx, jane, p.ID, UpdatePropertyRequest{Status: &bogus})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestVerify(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	p, err := svc.Create(ctx, jane, villa(100))
	require.NoError(t, err)

	_, err = svc.Verify(ctx, jane, p.ID)
	assert.ErrorIs(t, err, core.ErrForbidden)

	_, err = svc.Verify(ctx, nil, p.ID)
	assert.ErrorIs(t, err, core.ErrUnauthorized)

	got, err := svc.Verify(ctx, admin, p.ID)
	require.NoError(t, err)
	assert.True(t, got.IsVerified)
	assert.Equal(t, StatusActive, got.Status)

	_, err = svc.Verify(ctx, admin, "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestImages(t *testing.T) {
	svc, _, images := newTestService()
	ctx := context.Background()

	p, err := svc.Create(ctx, jane, villa(100))
	require.NoError(t, err)

	_, err = svc.AddImage(ctx, stella, p.ID, []byte("x"))
	assert.ErrorIs(t, err, core.ErrForbidden)
	assert.Zero(t, images.uploads)

	got, err := svc.AddImage(ctx, jane, p.ID, []byte("x"))
	require.NoError(t, err)
	require.Len(t, got.Images, 1)
	key := got.Images[0].ID
	assert.Equal(t, "properties/"+p.ID+"/img-1.jpg", key)

	_, err = svc.RemoveImage(ctx, jane, p.ID, "nope.jpg")
	assert.ErrorIs(t, err, ErrImageNotFound)

	got, err = svc.RemoveImage(ctx, jane, p.ID, "img-1.jpg")
	require.NoError(t, err)
	assert.Empty(t, got.Images)
	assert.Equal(t, []string{key}, images.deleted)
}

func TestAddImageUploadFailure(t *testing.T) {
	svc, repo, images := newTestService()
	ctx := context.Background()
	images.err = media.ErrMediaDisabled

	p, err := svc.Create(ctx, jane, villa(100))
	require.NoError(t, err)

	_, err = svc.AddImage(ctx, jane, p.ID, []byte("x"))
	assert.ErrorIs(t, err, media.ErrMediaDisabled)

	stored, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Images)
}

func TestDeleteBySellerRemovesListingsAndImages(t *testing.T) {
	svc, repo, images := newTestService()
	ctx := context.Background()

	mine, err := svc.Create(ctx, jane, villa(100))
	require.NoError(t, err)
	_, err = svc.AddImage(ctx, jane, mine.ID, []byte("x"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, jane, villa(200))
	require.NoError(t, err)
	theirs, err := svc.Create(ctx, stella, villa(300))
	require.NoError(t, err)

	n, err := svc.DeleteBySeller(ctx, "jane")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, images.deleted, 1)

	_, err = repo.GetByID(ctx, theirs.ID)
	assert.NoError(t, err)
}

func TestListAndMine(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	cheap, err := svc.Create(ctx, jane, villa(100))
	require.NoError(t, err)
	mid, err := svc.Create(ctx, stella, villa(200))
	require.NoError(t, err)
	_, err = svc.Create(ctx, jane, villa(300))
	require.NoError(t, err)

	lo, hi := 100.0, 200.0
	got, total, err := svc.List(ctx, ListParams{MinPrice: &lo, MaxPrice: &hi})
	require.NoError(t, err)
	require.Equal(t, 2, total)
	assert.Equal(t, mid.ID, got[0].ID, "newest first")
	assert.Equal(t, cheap.ID, got[1].ID)

	_, total, err = svc.Mine(ctx, jane, core.PageParams{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestStats(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	p, err := svc.Create(ctx, jane, villa(100))
	require.NoError(t, err)
	_, err = svc.Create(ctx, jane, villa(200))
	require.NoError(t, err)
	_, err = svc.Verify(ctx, admin, p.ID)
	require.NoError(t, err)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Verified)
	assert.Equal(t, 1, stats.Unverified)
	assert.Equal(t, 1, stats.ByStatus[StatusActive])
	assert.Equal(t, 1, stats.ByStatus[StatusPending])
}
