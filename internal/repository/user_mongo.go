package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"videotube_backend/internal/model"
)

// mongoUserRepository implements UserRepository on a MongoDB collection.
// Uniqueness relies on the indexes created by database.EnsureMongoIndexes.
type mongoUserRepository struct {
	coll *mongo.Collection
}

// NewMongoUserRepository creates a user repository backed by coll
func NewMongoUserRepository(coll *mongo.Collection) UserRepository {
	return &mongoUserRepository{coll: coll}
}

func (r *mongoUserRepository) Create(ctx context.Context, u *model.User) error {
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = u.CreatedAt

	if _, err := r.coll.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return model.ErrUserExists
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (r *mongoUserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoUserRepository) GetByUsernameOrEmail(ctx context.Context, username, email string) (*model.User, error) {
	var or []bson.M
	if username != "" {
		or = append(or, bson.M{"username": username})
	}
	if email != "" {
		or = append(or, bson.M{"email": email})
	}
	if len(or) == 0 {
		return nil, model.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"$or": or})
}

func (r *mongoUserRepository) Update(ctx context.Context, id string, update model.UserUpdate) (*model.User, error) {
	if update.IsEmpty() {
		return r.GetByID(ctx, id)
	}

	set := bson.M{"updatedAt": time.Now().UTC()}
	if update.FullName != nil {
		set["fullName"] = *update.FullName
	}
	if update.Email != nil {
		set["email"] = *update.Email
	}
	if update.Avatar != nil {
		set["avatar"] = *update.Avatar
	}
	if update.CoverImage != nil {
		set["coverImage"] = *update.CoverImage
	}
	if update.PasswordHash != nil {
		set["password"] = *update.PasswordHash
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var u model.User
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&u)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, model.ErrUserNotFound
		case mongo.IsDuplicateKeyError(err):
			return nil, model.ErrUserExists
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return &u, nil
}

func (r *mongoUserRepository) SetRefreshToken(ctx context.Context, id string, token *string) error {
	change := bson.M{"$set": bson.M{"updatedAt": time.Now().UTC()}}
	if token == nil {
		change["$unset"] = bson.M{"refreshToken": ""}
	} else {
		change["$set"].(bson.M)["refreshToken"] = *token
	}

	result, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, change)
	if err != nil {
		return fmt.Errorf("failed to set refresh token: %w", err)
	}
	if result.MatchedCount == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

func (r *mongoUserRepository) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: 1}})

	var u model.User
	if err := r.coll.FindOne(ctx, filter, opts).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &u, nil
}
