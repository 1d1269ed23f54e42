// AngelaMos | 2026
// repository.go

package property

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/carterperez-dev/estate-market/internal/core"
	"github.com/carterperez-dev/estate-market/internal/media"
)

const CollectionName = "properties"

type Repository interface {
	Create(ctx context.Context, p *Property) error
	GetByID(ctx context.Context, id string) (*Property, error)
	// Update writes only the fields present in the request and returns the
	// stored listing. Seller, verification and images are never touched.
	Update(ctx context.Context, id string, changes UpdatePropertyRequest) (*Property, error)
	// MarkVerified sets isVerified and status=active in one write and
	// returns the updated listing.
	MarkVerified(ctx context.Context, id string) (*Property, error)
	AddImage(ctx context.Context, id string, img media.Image) error
	RemoveImage(ctx context.Context, id, imageID string) error
	Delete(ctx context.Context, id string) error
	// DeleteBySeller returns the deleted listings so their images can be
	// cleaned up.
	DeleteBySeller(ctx context.Context, sellerID string) ([]Property, error)
	List(ctx context.Context, params ListParams) ([]Property, int, error)
	CountBy(ctx context.Context, field string) (map[string]int, error)
}

type repository struct {
	coll *mongo.Collection
}

func NewRepository(db *core.Database) Repository {
	return &repository{coll: db.Collection(CollectionName)}
}

func EnsureIndexes(ctx context.Context, db *core.Database) error {
	_, err := db.Collection(CollectionName).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("created_desc"),
		},
		{
			Keys:    bson.D{{Key: "seller", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("seller_created"),
		},
		{
			Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: "propertyType", Value: 1},
				{Key: "location.city", Value: 1},
				{Key: "price", Value: 1},
			},
			Options: options.Index().SetName("search"),
		},
	})
	if err != nil {
		return fmt.Errorf("ensure property indexes: %w", err)
	}
	return nil
}

var newestFirst = bson.D{{Key: "createdAt", Value: -1}}

func (r *repository) Create(ctx context.Context, p *Property) error {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Images == nil {
		p.Images = []media.Image{}
	}
	if p.Features == nil {
		p.Features = []string{}
	}

	if _, err := r.coll.InsertOne(ctx, p); err != nil {
		return core.StoreError("create property", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Property, error) {
	var p Property
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, core.StoreError("get property", err)
	}
	return &p, nil
}

func (r *repository) Update(
	ctx context.Context,
	id string,
	changes UpdatePropertyRequest,
) (*Property, error) {
	var p Property
	err := r.coll.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": UpdateSet(changes, time.Now().UTC())},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&p)
	if err != nil {
		return nil, core.StoreError("update property", err)
	}
	return &p, nil
}

// UpdateSet builds the $set document for a partial update.
func UpdateSet(c UpdatePropertyRequest, now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	if c.Title != nil {
		set["title"] = *c.Title
	}
	if c.Description != nil {
		set["description"] = *c.Description
	}
	if c.Price != nil {
		set["price"] = *c.Price
	}
	if c.Location != nil {
		set["location"] = *c.Location
	}
	if c.PropertyType != nil {
		set["propertyType"] = *c.PropertyType
	}
	if c.Bedrooms != nil {
		set["bedrooms"] = *c.Bedrooms
	}
	if c.Bathrooms != nil {
		set["bathrooms"] = *c.Bathrooms
	}
	if c.Area != nil {
		set["area"] = *c.Area
	}
	if c.Features != nil {
		set["features"] = c.Features
	}
	if c.Status != nil {
		set["status"] = *c.Status
	}
	return set
}

func (r *repository) MarkVerified(ctx context.Context, id string) (*Property, error) {
	var p Property
	err := r.coll.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"isVerified": true,
			"status":     StatusActive,
			"updatedAt":  time.Now().UTC(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&p)
	if err != nil {
		return nil, core.StoreError("verify property", err)
	}
	return &p, nil
}

func (r *repository) AddImage(ctx context.Context, id string, img media.Image) error {
	res, err := r.coll.UpdateByID(ctx, id, bson.M{
		"$push": bson.M{"images": img},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return core.StoreError("add image", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("add image: %w", core.ErrNotFound)
	}
	return nil
}

func (r *repository) RemoveImage(ctx context.Context, id, imageID string) error {
	res, err := r.coll.UpdateByID(ctx, id, bson.M{
		"$pull": bson.M{"images": bson.M{"id": imageID}},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return core.StoreError("remove image", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("remove image: %w", core.ErrNotFound)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return core.StoreError("delete property", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("delete property: %w", core.ErrNotFound)
	}
	return nil
}

func (r *repository) DeleteBySeller(ctx context.Context, sellerID string) ([]Property, error) {
	filter := bson.M{"seller": sellerID}

	cursor, err := r.coll.Find(ctx, filter, options.Find().SetProjection(bson.D{
		{Key: "_id", Value: 1},
		{Key: "images", Value: 1},
	}))
	if err != nil {
		return nil, core.StoreError("find seller properties", err)
	}

	var owned []Property
	if err := cursor.All(ctx, &owned); err != nil {
		return nil, core.StoreError("decode seller properties", err)
	}

	if _, err := r.coll.DeleteMany(ctx, filter); err != nil {
		return nil, core.StoreError("delete seller properties", err)
	}

	return owned, nil
}

func (r *repository) List(ctx context.Context, params ListParams) ([]Property, int, error) {
	params.Normalize()
	filter := BuildFilter(params)

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, core.StoreError("count properties", err)
	}

	cursor, err := r.coll.Find(ctx, filter, options.Find().
		SetSort(newestFirst).
		SetSkip(int64(params.Offset())).
		SetLimit(int64(params.PageSize)))
	if err != nil {
		return nil, 0, core.StoreError("list properties", err)
	}

	properties := make([]Property, 0, params.PageSize)
	if err := cursor.All(ctx, &properties); err != nil {
		return nil, 0, core.StoreError("decode properties", err)
	}

	return properties, int(total), nil
}

func (r *repository) CountBy(ctx context.Context, field string) (map[string]int, error) {
	cursor, err := r.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{{Key: "$toString", Value: "$" + field}}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	})
	if err != nil {
		return nil, core.StoreError("count properties", err)
	}

	var rows []struct {
		Key   string `bson:"_id"`
		Count int    `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, core.StoreError("decode property counts", err)
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Key] = row.Count
	}
	return counts, nil
}

// BuildFilter maps search predicates onto a Mongo filter. Type, city,
// state, status and seller are exact matches; price is an inclusive range.
func BuildFilter(params ListParams) bson.M {
	filter := bson.M{}

	if params.PropertyType != "" {
		filter["propertyType"] = params.PropertyType
	}
	if params.City != "" {
		filter["location.city"] = params.City
	}
	if params.State != "" {
		filter["location.state"] = params.State
	}
	if params.Status != "" {
		filter["status"] = params.Status
	}
	if params.Seller != "" {
		filter["seller"] = params.Seller
	}

	price := bson.M{}
	if params.MinPrice != nil {
		price["$gte"] = *params.MinPrice
	}
	if params.MaxPrice != nil {
		price["$lte"] = *params.MaxPrice
	}
	if len(price) > 0 {
		filter["price"] = price
	}

	if params.MinBedrooms != nil {
		filter["bedrooms"] = bson.M{"$gte": *params.MinBedrooms}
	}

	return filter
}
