// AngelaMos | 2026
// fakes_test.go

package server

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/carterperez-dev/estate-market/internal/core"
	"github.com/carterperez-dev/estate-market/internal/media"
	"github.com/carterperez-dev/estate-market/internal/property"
	"github.com/carterperez-dev/estate-market/internal/user"
)

// memUsers and memProperties back the router tests with in-process maps.
// They honour the same not-found and duplicate sentinels as the Mongo
// repositories.

type memUsers struct {
	mu    sync.Mutex
	byID  map[string]user.User
	clock time.Time
}

func newMemUsers() *memUsers {
	return &memUsers{byID: make(map[string]user.User), clock: time.Now().UTC()}
}

func (m *memUsers) Create(_ context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, other := range m.byID {
		if other.Email == u.Email {
			return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
	}
	m.clock = m.clock.Add(time.Second)
	u.CreatedAt, u.UpdatedAt, u.RegisteredAt = m.clock, m.clock, m.clock
	m.byID[u.ID] = *u
	return nil
}

func (m *memUsers) GetByID(ctx context.Context, id string) (*user.User, error) {
	u, err := m.GetCredentialsByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.PasswordHash = ""
	return u, nil
}

func (m *memUsers) GetCredentialsByID(_ context.Context, id string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	return &u, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.byID {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("get user by email: %w", core.ErrNotFound)
}

func (m *memUsers) UpdateProfile(_ context.Context, id string, c user.ProfileChanges) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("update profile: %w", core.ErrNotFound)
	}
	if c.Email != nil {
		for otherID, other := range m.byID {
			if otherID != id && other.Email == *c.Email {
				return nil, fmt.Errorf("update profile: %w", core.ErrDuplicateKey)
			}
		}
		u.Email = *c.Email
	}
	if c.Name != nil {
		u.Name = *c.Name
	}
	if c.Phone != nil {
		u.Phone = *c.Phone
	}
	m.byID[id] = u
	u.PasswordHash = ""
	return &u, nil
}

func (m *memUsers) SetModeration(_ context.Context, id string, mod user.Moderation) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("moderate user: %w", core.ErrNotFound)
	}
	if mod.SellerOnly && !u.IsSeller() {
		return nil, fmt.Errorf("moderate user: %w", core.ErrInvalidSubject)
	}
	if mod.RegistrationStatus != "" {
		u.RegistrationStatus = mod.RegistrationStatus
	}
	if mod.Status != "" {
		u.Status = mod.Status
	}
	if mod.IsApproved != nil {
		u.IsApproved = *mod.IsApproved
	}
	if mod.RejectionReason != nil {
		u.RejectionReason = *mod.RejectionReason
	}
	m.byID[id] = u
	u.PasswordHash = ""
	return &u, nil
}

func (m *memUsers) UpdatePassword(_ context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("update password: %w", core.ErrNotFound)
	}
	u.PasswordHash = hash
	m.byID[id] = u
	return nil
}

func (m *memUsers) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[id]; !ok {
		return fmt.Errorf("delete user: %w", core.ErrNotFound)
	}
	delete(m.byID, id)
	return nil
}

func (m *memUsers) List(_ context.Context, params user.ListUsersParams) ([]user.User, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	params.Normalize()
	var out []user.User
	for _, u := range m.byID {
		if params.Role != "" && u.Role != params.Role {
			continue
		}
		if params.RegistrationStatus != "" && u.RegistrationStatus != params.RegistrationStatus {
			continue
		}
		if params.Status != "" && u.Status != params.Status {
			continue
		}
		u.PasswordHash = ""
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, params.PageParams)
}

func (m *memUsers) CountBy(_ context.Context, field string) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	counts := make(map[string]int)
	for _, u := range m.byID {
		switch field {
		case "registrationStatus":
			counts[u.RegistrationStatus]++
		case "status":
			counts[u.Status]++
		}
	}
	return counts, nil
}

type memProperties struct {
	mu    sync.Mutex
	byID  map[string]property.Property
	clock time.Time
}

func newMemProperties() *memProperties {
	return &memProperties{byID: make(map[string]property.Property), clock: time.Now().UTC()}
}

func (m *memProperties) Create(_ context.Context, p *property.Property) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.clock = m.clock.Add(time.Second)
	p.CreatedAt, p.UpdatedAt = m.clock, m.clock
	if p.Images == nil {
		p.Images = []media.Image{}
	}
	m.byID[p.ID] = *p
	return nil
}

func (m *memProperties) GetByID(_ context.Context, id string) (*property.Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("get property: %w", core.ErrNotFound)
	}
	return &p, nil
}

func (m *memProperties) Update(_ context.Context, id string, c property.UpdatePropertyRequest) (*property.Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("update property: %w", core.ErrNotFound)
	}
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
		p.Features = c.Features
	}
	if c.Status != nil {
		p.Status = *c.Status
	}
	m.byID[id] = p
	return &p, nil
}

func (m *memProperties) MarkVerified(_ context.Context, id string) (*property.Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("verify property: %w", core.ErrNotFound)
	}
	p.IsVerified = true
	p.Status = property.StatusActive
	m.byID[id] = p
	return &p, nil
}

func (m *memProperties) AddImage(_ context.Context, id string, img media.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("add image: %w", core.ErrNotFound)
	}
	p.Images = append(append([]media.Image{}, p.Images...), img)
	m.byID[id] = p
	return nil
}

func (m *memProperties) RemoveImage(_ context.Context, id, imageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("remove image: %w", core.ErrNotFound)
	}
	var kept []media.Image
	for _, img := range p.Images {
		if img.ID != imageID {
			kept = append(kept, img)
		}
	}
	p.Images = kept
	m.byID[id] = p
	return nil
}

func (m *memProperties) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[id]; !ok {
		return fmt.Errorf("delete property: %w", core.ErrNotFound)
	}
	delete(m.byID, id)
	return nil
}

func (m *memProperties) DeleteBySeller(_ context.Context, sellerID string) ([]property.Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed []property.Property
	for id, p := range m.byID {
		if p.Seller == sellerID {
			removed = append(removed, p)
			delete(m.byID, id)
		}
	}
	return removed, nil
}

func (m *memProperties) List(_ context.Context, f property.ListParams) ([]property.Property, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f.Normalize()
	var out []property.Property
	for _, p := range m.byID {
		switch {
		case f.PropertyType != "" && p.PropertyType != f.PropertyType:
		case f.City != "" && p.Location.City != f.City:
		case f.Status != "" && p.Status != f.Status:
		case f.Seller != "" && p.Seller != f.Seller:
		case f.MinPrice != nil && p.Price < *f.MinPrice:
		case f.MaxPrice != nil && p.Price > *f.MaxPrice:
		case f.MinBedrooms != nil && p.Bedrooms < *f.MinBedrooms:
		default:
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, f.PageParams)
}

func (m *memProperties) CountBy(_ context.Context, field string) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	counts := make(map[string]int)
	for _, p := range m.byID {
		switch field {
		case "status":
			counts[p.Status]++
		case "isVerified":
			counts[fmt.Sprint(p.IsVerified)]++
		}
	}
	return counts, nil
}

func page[T any](items []T, p core.PageParams) ([]T, int, error) {
	total := len(items)
	start := min(p.Offset(), total)
	end := min(start+p.PageSize, total)
	return items[start:end], total, nil
}
