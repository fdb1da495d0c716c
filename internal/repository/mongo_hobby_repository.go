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

type hobbyDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	PassionLevel string             `bson:"passionLevel"`
	Name         string             `bson:"name"`
	Year         int                `bson:"year"`
	UserID       primitive.ObjectID `bson:"userId"`
	Version      int32              `bson:"__v"`
}

func (d *hobbyDocument) toDomain() *domain.Hobby {
	return &domain.Hobby{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		PassionLevel: domain.PassionLevel(d.PassionLevel),
		Year:         d.Year,
		UserID:       d.UserID.Hex(),
	}
}

// MongoHobbyRepository implements domain.HobbyRepository using MongoDB
type MongoHobbyRepository struct {
	hobbies *mongo.Collection
	logger  *slog.Logger
}

// NewMongoHobbyRepository creates a new hobby repository
func NewMongoHobbyRepository(hobbies *mongo.Collection, logger *slog.Logger) *MongoHobbyRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &MongoHobbyRepository{hobbies: hobbies, logger: logger}
}

// List returns a page of hobbies ordered by _id
func (r *MongoHobbyRepository) List(ctx context.Context, page domain.Page) ([]*domain.Hobby, error) {
	cur, err := r.hobbies.Find(ctx, bson.D{}, findOptions(page))
	if err != nil {
		return nil, fmt.Errorf("failed to list hobbies: %w", err)
	}
	return decodeHobbies(ctx, cur)
}

// GetByID retrieves a hobby by ID
func (r *MongoHobbyRepository) GetByID(ctx context.Context, id string) (*domain.Hobby, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var doc hobbyDocument
	if err := r.hobbies.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("hobby %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get hobby: %w", err)
	}
	return doc.toDomain(), nil
}

// GetMany returns the hobbies matching ids
func (r *MongoHobbyRepository) GetMany(ctx context.Context, ids []string) ([]*domain.Hobby, error) {
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return []*domain.Hobby{}, nil
	}

	cur, err := r.hobbies.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, fmt.Errorf("failed to get hobbies: %w", err)
	}
	return decodeHobbies(ctx, cur)
}

// Create inserts a hobby
func (r *MongoHobbyRepository) Create(ctx context.Context, hobby *domain.Hobby) error {
	uid, err := objectID(hobby.UserID)
	if err != nil {
		return err
	}

	doc := hobbyDocument{
		PassionLevel: string(hobby.PassionLevel),
		Name:         hobby.Name,
		Year:         hobby.Year,
		UserID:       uid,
	}

	res, err := r.hobbies.InsertOne(ctx, doc)
	if err != nil {
		r.logger.Error("failed to create hobby",
			slog.String("user_id", hobby.UserID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create hobby: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return fmt.Errorf("failed to create hobby: unexpected id type %T", res.InsertedID)
	}
	hobby.ID = oid.Hex()
	return nil
}

// Update applies the patch and returns the document after the update
func (r *MongoHobbyRepository) Update(ctx context.Context, id string, patch domain.UpdateHobbyInput) (*domain.Hobby, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	set := bson.D{}
	if patch.Name != nil {
		set = append(set, bson.E{Key: "name", Value: *patch.Name})
	}
	if patch.PassionLevel != nil {
		set = append(set, bson.E{Key: "passionLevel", Value: string(*patch.PassionLevel)})
	}
	if patch.Year != nil {
		set = append(set, bson.E{Key: "year", Value: *patch.Year})
	}
	if len(set) == 0 {
		return r.GetByID(ctx, id)
	}

	var doc hobbyDocument
	err = r.hobbies.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("hobby %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update hobby: %w", err)
	}
	return doc.toDomain(), nil
}

// DeleteByID removes a hobby and returns the removed document
func (r *MongoHobbyRepository) DeleteByID(ctx context.Context, id string) (*domain.Hobby, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var doc hobbyDocument
	if err := r.hobbies.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("hobby %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to delete hobby: %w", err)
	}
	return doc.toDomain(), nil
}

// DeleteMany removes every hobby in ids with a single $in delete
func (r *MongoHobbyRepository) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return 0, nil
	}

	res, err := r.hobbies.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete hobbies: %w", err)
	}
	return res.DeletedCount, nil
}

func decodeHobbies(ctx context.Context, cur *mongo.Cursor) ([]*domain.Hobby, error) {
	var docs []hobbyDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode hobbies: %w", err)
	}

	out := make([]*domain.Hobby, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}
