// AngelaMos | 2026
// repository_test.go

package property

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func ptr[T any](v T) *T {
	return &v
}

func TestBuildFilter(t *testing.T) {
	tests := []struct {
		name   string
		params ListParams
		want   bson.M
	}{
		{
			name:   "no predicates",
			params: ListParams{},
			want:   bson.M{},
		},
		{
			name: "exact matches",
			params: ListParams{
				PropertyType: TypeVilla,
				City:         "Goa",
				State:        "GA",
				Status:       StatusActive,
				Seller:       "jane",
			},
			want: bson.M{
				"propertyType":   TypeVilla,
				"location.city":  "Goa",
				"location.state": "GA",
				"status":         StatusActive,
				"seller":         "jane",
			},
		},
		{
			name:   "inclusive price range",
			params: ListParams{MinPrice: ptr(100.0), MaxPrice: ptr(200.0)},
			want:   bson.M{"price": bson.M{"$gte": 100.0, "$lte": 200.0}},
		},
		{
			name:   "lower bound only",
			params: ListParams{MinPrice: ptr(0.0)},
			want:   bson.M{"price": bson.M{"$gte": 0.0}},
		},
		{
			name:   "minimum bedrooms",
			params: ListParams{MinBedrooms: ptr(3)},
			want:   bson.M{"bedrooms": bson.M{"$gte": 3}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildFilter(tt.params))
		})
	}
}

func TestUpdateSetWritesOnlyPresentFields(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	got := UpdateSet(UpdatePropertyRequest{Price: ptr(120.0)}, now)
	assert.Equal(t, bson.M{"price": 120.0, "updatedAt": now}, got)
	assert.NotContains(t, got, "status")

	got = UpdateSet(UpdatePropertyRequest{
		Status:   ptr(StatusSold),
		Features: []string{"garden"},
	}, now)
	assert.Equal(t, bson.M{
		"status":    StatusSold,
		"features":  []string{"garden"},
		"updatedAt": now,
	}, got)
}
