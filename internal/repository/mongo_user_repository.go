package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/aryan0dhankhar/hobbyapi/internal/domain"
)

// userDocument is the stored shape of a user. __v is kept for compatibility
// with existing data and never leaves the repository.
type userDocument struct {
	ID      primitive.ObjectID   `bson:"_id,omitempty"`
	Name    string               `bson:"name"`
	Hobbies []primitive.ObjectID `bson:"hobbies"`
	Version int32                `bson:"__v"`
}

func (d *userDocument) toDomain() *domain.User {
	return &domain.User{
		ID:      d.ID.Hex(),
		Name:    d.Name,
		Hobbies: hexIDs(d.Hobbies),
	}
}

// MongoUserRepository implements domain.UserRepository using MongoDB
type MongoUserRepository struct {
	users  *mongo.Collection
	logger *slog.Logger
}

// NewMongoUserRepository creates a new user repository
func NewMongoUserRepository(users *mongo.Collection, logger *slog.Logger) *MongoUserRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &MongoUserRepository{users: users, logger: logger}
}

// List returns a page of users ordered by _id
func (r *MongoUserRepository) List(ctx context.Context, page domain.Page) ([]*domain.User, error) {
	cur, err := r.users.Find(ctx, bson.D{}, findOptions(page))
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	var docs []userDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}

	out := make([]*domain.User, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

// GetByID retrieves a user by ID
func (r *MongoUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var doc userDocument
	if err := r.users.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return doc.toDomain(), nil
}

// GetMany returns the users matching ids
func (r *MongoUserRepository) GetMany(ctx context.Context, ids []string) ([]*domain.User, error) {
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return []*domain.User{}, nil
	}

	cur, err := r.users.Find(ctx, bson.M{"_id": bson.M{"$in": oids}},
		options.Find().SetProjection(bson.M{"_id": 1, "name": 1, "hobbies": 1}))
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}

	var docs []userDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}

	out := make([]*domain.User, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

// Create inserts a user with an empty hobbies list
func (r *MongoUserRepository) Create(ctx context.Context, user *domain.User) error {
	doc := userDocument{
		Name:    user.Name,
		Hobbies: []primitive.ObjectID{},
	}

	res, err := r.users.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("user name %q: %w", user.Name, domain.ErrConflict)
		}
		r.logger.Error("failed to create user",
			slog.String("name", user.Name),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create user: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return fmt.Errorf("failed to create user: unexpected id type %T", res.InsertedID)
	}
	user.ID = oid.Hex()
	user.Hobbies = []string{}
	return nil
}

// Update applies the patch and returns the document after the update
func (r *MongoUserRepository) Update(ctx context.Context, id string, patch domain.UpdateUserInput) (*domain.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	set := bson.D{}
	if patch.Name != nil {
		set = append(set, bson.E{Key: "name", Value: *patch.Name})
	}
	if len(set) == 0 {
		return r.GetByID(ctx, id)
	}

	var doc userDocument
	err = r.users.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
		case mongo.IsDuplicateKeyError(err):
			return nil, fmt.Errorf("user name %q: %w", *patch.Name, domain.ErrConflict)
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return doc.toDomain(), nil
}

// DeleteByID removes a user and returns the removed document
func (r *MongoUserRepository) DeleteByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var doc userDocument
	if err := r.users.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to delete user: %w", err)
	}
	return doc.toDomain(), nil
}

// AddHobby adds hobbyID to the user's hobbies with $addToSet
func (r *MongoUserRepository) AddHobby(ctx context.Context, userID, hobbyID string) error {
	return r.updateHobbies(ctx, userID, hobbyID, "$addToSet")
}

// RemoveHobby removes hobbyID from the user's hobbies with $pull
func (r *MongoUserRepository) RemoveHobby(ctx context.Context, userID, hobbyID string) error {
	return r.updateHobbies(ctx, userID, hobbyID, "$pull")
}

func (r *MongoUserRepository) updateHobbies(ctx context.Context, userID, hobbyID, op string) error {
	uid, err := objectID(userID)
	if err != nil {
		return err
	}
	hid, err := primitive.ObjectIDFromHex(hobbyID)
	if err != nil {
		return fmt.Errorf("invalid hobby id %q: %w", hobbyID, err)
	}

	res, err := r.users.UpdateOne(ctx, bson.M{"_id": uid}, bson.M{op: bson.M{"hobbies": hid}})
	if err != nil {
		return fmt.Errorf("failed to update user hobbies: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	return nil
}

// objectID parses a hex id. Ids that cannot be ObjectIDs cannot match any
// document, so they are reported as not found.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("id %q: %w", id, domain.ErrNotFound)
	}
	return oid, nil
}

func objectIDs(ids []string) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			out = append(out, oid)
		}
	}
	return out
}

func hexIDs(oids []primitive.ObjectID) []string {
	out := make([]string, 0, len(oids))
	for _, oid := range oids {
		out = append(out, oid.Hex())
	}
	return out
}

func findOptions(page domain.Page) *options.FindOptions {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if page.Offset > 0 {
		opts.SetSkip(int64(page.Offset))
	}
	if page.Limit > 0 {
		opts.SetLimit(int64(page.Limit))
	}
	return opts
}
