// AngelaMos | 2026
// entity.go

package property

import (
	"time"

	"github.com/carterperez-dev/estate-market/internal/media"
)

type Location struct {
	Address string `bson:"address" json:"address" validate:"required,max=300"`
	City    string `bson:"city"    json:"city"    validate:"required,max=100"`
	State   string `bson:"state"   json:"state"   validate:"required,max=100"`
}

// Property is a listing. Seller is fixed at creation and IsVerified is
// only ever set together with StatusActive.
type Property struct {
	ID           string        `bson:"_id"          json:"id"`
	Title        string        `bson:"title"        json:"title"`
	Description  string        `bson:"description"  json:"description"`
	Price        float64       `bson:"price"        json:"price"`
	Location     Location      `bson:"location"     json:"location"`
	PropertyType string        `bson:"propertyType" json:"propertyType"`
	Bedrooms     int           `bson:"bedrooms"     json:"bedrooms"`
	Bathrooms    int           `bson:"bathrooms"    json:"bathrooms"`
	Area         float64       `bson:"area"         json:"area"`
	Images       []media.Image `bson:"images"       json:"images"`
	Features     []string      `bson:"features"     json:"features"`
	Seller       string        `bson:"seller"       json:"seller"`
	Status       string        `bson:"status"       json:"status"`
	IsVerified   bool          `bson:"isVerified"   json:"isVerified"`
	CreatedAt    time.Time     `bson:"createdAt"    json:"createdAt"`
	UpdatedAt    time.Time     `bson:"updatedAt"    json:"updatedAt"`
}

func (p *Property) OwnedBy(userID string) bool {
	return userID != "" && p.Seller == userID
}

func (p *Property) ImageKeys() []string {
	keys := make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		keys = append(keys, img.ID)
	}
	return keys
}

const (
	StatusActive   = "active"
	StatusPending  = "pending"
	StatusSold     = "sold"
	StatusInactive = "inactive"
)

const (
	TypeHouse     = "house"
	TypeApartment = "apartment"
	TypeCondo     = "condo"
	TypeVilla     = "villa"
	TypeLand      = "land"
)

var validStatuses = map[string]struct{}{
	StatusActive:   {},
	StatusPending:  {},
	StatusSold:     {},
	StatusInactive: {},
}

var validTypes = map[string]struct{}{
	TypeHouse:     {},
	TypeApartment: {},
	TypeCondo:     {},
	TypeVilla:     {},
	TypeLand:      {},
}
