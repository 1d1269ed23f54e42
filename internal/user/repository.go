// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/carterperez-dev/estate-market/internal/core"
)

const CollectionName = "users"

type Repository interface {
	Create(ctx context.Context, user *User) error
	// GetByID never loads the password hash.
	GetByID(ctx context.Context, id string) (*User, error)
	GetCredentialsByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// UpdateProfile writes only the supplied contact fields and returns the
	// stored record.
	UpdateProfile(ctx context.Context, id string, changes ProfileChanges) (*User, error)
	// SetModeration applies one moderation transition in a single write.
	// With SellerOnly set, a non-seller record fails with ErrInvalidSubject
	// and is left untouched.
	SetModeration(ctx context.Context, id string, m Moderation) (*User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, params ListUsersParams) ([]User, int, error)
	CountBy(ctx context.Context, field string) (map[string]int, error)
}

// ProfileChanges carries the normalised profile fields. Nil is unchanged.
type ProfileChanges struct {
	Name  *string
	Email *string
	Phone *string
}

// Moderation is a partial write over the moderation axes. Empty strings
// and nil pointers leave the field alone; a non-nil empty RejectionReason
// clears it.
type Moderation struct {
	RegistrationStatus string
	Status             string
	IsApproved         *bool
	RejectionReason    *string
	SellerOnly         bool
}

type repository struct {
	coll *mongo.Collection
}

func NewRepository(db *core.Database) Repository {
	return &repository{coll: db.Collection(CollectionName)}
}

// EnsureIndexes creates the unique email index the duplicate check relies on.
func EnsureIndexes(ctx context.Context, db *core.Database) error {
	_, err := db.Collection(CollectionName).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("email_unique"),
		},
		{
			Keys:    bson.D{{Key: "role", Value: 1}, {Key: "registrationStatus", Value: 1}},
			Options: options.Index().SetName("role_registration"),
		},
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("created_desc"),
		},
	})
	if err != nil {
		return fmt.Errorf("ensure user indexes: %w", err)
	}
	return nil
}

var withoutPassword = bson.D{{Key: "password", Value: 0}}

func (r *repository) Create(ctx context.Context, user *User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.RegisteredAt.IsZero() {
		user.RegisteredAt = now
	}

	if _, err := r.coll.InsertOne(ctx, user); err != nil {
		return core.StoreError("create user", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	var user User
	err := r.coll.FindOne(
		ctx,
		bson.M{"_id": id},
		options.FindOne().SetProjection(withoutPassword),
	).Decode(&user)
	if err != nil {
		return nil, core.StoreError("get user", err)
	}
	return &user, nil
}

func (r *repository) GetCredentialsByID(ctx context.Context, id string) (*User, error) {
	var user User
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, core.StoreError("get user credentials", err)
	}
	return &user, nil
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	if err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		return nil, core.StoreError("get user by email", err)
	}
	return &user, nil
}

var returnAfter = options.FindOneAndUpdate().
	SetReturnDocument(options.After).
	SetProjection(withoutPassword)

func (r *repository) UpdateProfile(
	ctx context.Context,
	id string,
	changes ProfileChanges,
) (*User, error) {
	var user User
	err := r.coll.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		ProfileUpdate(changes, time.Now().UTC()),
		returnAfter,
	).Decode(&user)
	if err != nil {
		return nil, core.StoreError("update profile", err)
	}
	return &user, nil
}

func (r *repository) SetModeration(
	ctx context.Context,
	id string,
	m Moderation,
) (*User, error) {
	filter := bson.M{"_id": id}
	if m.SellerOnly {
		filter["role"] = RoleSeller
	}

	var user User
	err := r.coll.FindOneAndUpdate(
		ctx,
		filter,
		ModerationUpdate(m, time.Now().UTC()),
		returnAfter,
	).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) && m.SellerOnly {
		if _, getErr := r.GetByID(ctx, id); getErr == nil {
			return nil, fmt.Errorf("moderate user: %w", core.ErrInvalidSubject)
		}
	}
	if err != nil {
		return nil, core.StoreError("moderate user", err)
	}
	return &user, nil
}

func ProfileUpdate(c ProfileChanges, now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	if c.Name != nil {
		set["name"] = *c.Name
	}
	if c.Email != nil {
		set["email"] = *c.Email
	}
	if c.Phone != nil {
		set["phone"] = *c.Phone
	}
	return bson.M{"$set": set}
}

func ModerationUpdate(m Moderation, now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	update := bson.M{"$set": set}

	if m.RegistrationStatus != "" {
		set["registrationStatus"] = m.RegistrationStatus
	}
	if m.Status != "" {
		set["status"] = m.Status
	}
	if m.IsApproved != nil {
		set["isApproved"] = *m.IsApproved
	}
	if m.RejectionReason != nil {
		if *m.RejectionReason == "" {
			update["$unset"] = bson.M{"rejectionReason": ""}
		} else {
			set["rejectionReason"] = *m.RejectionReason
		}
	}
	return update
}

func (r *repository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res, err := r.coll.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"password":  passwordHash,
		"updatedAt": time.Now().UTC(),
	}})
	if err != nil {
		return core.StoreError("update password", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("update password: %w", core.ErrNotFound)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return core.StoreError("delete user", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("delete user: %w", core.ErrNotFound)
	}
	return nil
}

func (r *repository) List(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	params.Normalize()
	filter := BuildFilter(params)

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, core.StoreError("count users", err)
	}

	opts := options.Find().
		SetProjection(withoutPassword).
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(params.Offset())).
		SetLimit(int64(params.PageSize))

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, core.StoreError("list users", err)
	}

	users := make([]User, 0, params.PageSize)
	if err := cursor.All(ctx, &users); err != nil {
		return nil, 0, core.StoreError("decode users", err)
	}

	return users, int(total), nil
}

// CountBy groups every user by the given field.
func (r *repository) CountBy(ctx context.Context, field string) (map[string]int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$" + field},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, core.StoreError("count users", err)
	}

	var rows []struct {
		Key   string `bson:"_id"`
		Count int    `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, core.StoreError("decode user counts", err)
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Key] = row.Count
	}
	return counts, nil
}

// BuildFilter translates list params into a Mongo filter. Empty params
// produce an empty filter.
func BuildFilter(params ListUsersParams) bson.M {
	filter := bson.M{}

	if params.Role != "" {
		filter["role"] = params.Role
	}
	if params.Status != "" {
		filter["status"] = params.Status
	}
	if params.RegistrationStatus != "" {
		filter["registrationStatus"] = params.RegistrationStatus
	}
	if params.Search != "" {
		pattern := primitive.Regex{
			Pattern: regexp.QuoteMeta(params.Search),
			Options: "i",
		}
		filter["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"email": pattern},
		}
	}

	return filter
}
