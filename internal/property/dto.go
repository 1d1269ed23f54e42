// AngelaMos | 2026
// dto.go

package property

import (
	"github.com/carterperez-dev/estate-market/internal/core"
)

type CreatePropertyRequest struct {
	Title        string   `json:"title"        validate:"required,max=200"`
	Description  string   `json:"description"  validate:"required,max=5000"`
	Price        float64  `json:"price"        validate:"gte=0"`
	Location     Location `json:"location"     validate:"required"`
	PropertyType string   `json:"propertyType" validate:"required,oneof=house apartment condo villa land"`
	Bedrooms     int      `json:"bedrooms"     validate:"gte=0"`
	Bathrooms    int      `json:"bathrooms"    validate:"gte=0"`
	Area         float64  `json:"area"         validate:"gte=0"`
	Features     []string `json:"features"     validate:"max=50,dive,max=100"`
}

// UpdatePropertyRequest has no seller field; ownership cannot move.
type UpdatePropertyRequest struct {
	Title        *string   `json:"title,omitempty"        validate:"omitempty,min=1,max=200"`
	Description  *string   `json:"description,omitempty"  validate:"omitempty,min=1,max=5000"`
	Price        *float64  `json:"price,omitempty"        validate:"omitempty,gte=0"`
	Location     *Location `json:"location,omitempty"`
	PropertyType *string   `json:"propertyType,omitempty" validate:"omitempty,oneof=house apartment condo villa land"`
	Bedrooms     *int      `json:"bedrooms,omitempty"     validate:"omitempty,gte=0"`
	Bathrooms    *int      `json:"bathrooms,omitempty"    validate:"omitempty,gte=0"`
	Area         *float64  `json:"area,omitempty"         validate:"omitempty,gte=0"`
	Features     []string  `json:"features,omitempty"     validate:"omitempty,max=50,dive,max=100"`
	Status       *string   `json:"status,omitempty"       validate:"omitempty,oneof=active pending sold inactive"`
}

// ListParams are the public search predicates. Nil numeric bounds are
// not applied.
type ListParams struct {
	core.PageParams
	PropertyType string
	City         string
	State        string
	Status       string
	Seller       string
	MinPrice     *float64
	MaxPrice     *float64
	MinBedrooms  *int
}

type Stats struct {
	Total      int            `json:"total"`
	ByStatus   map[string]int `json:"byStatus"`
	Verified   int            `json:"verified"`
	Unverified int            `json:"unverified"`
}
