package db

import (
	"context"
	"errors"
	"time"

	"github.com/ukydev/proworkshop/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoUserCollection implements UserCollection for MongoDB
type MongoUserCollection struct {
	Collection *mongo.Collection
	Sequence   *Sequence
}

// InsertUser inserts a new user into the database
func (c *MongoUserCollection) InsertUser(ctx context.Context, user models.User) (int64, error) {
	if c.Collection == nil {
		return 0, errNilCollection
	}
	id, err := c.Sequence.Next(ctx, c.Collection.Name())
	if err != nil {
		return 0, err
	}
	user.ID = id
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	user.IsActive = true

	if _, err := c.Collection.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return 0, ErrDuplicate
		}
		return 0, err
	}
	return id, nil
}

func (c *MongoUserCollection) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	var user models.User
	err := c.Collection.FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindUserByID finds a user by their ID
func (c *MongoUserCollection) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	return c.findOne(ctx, bson.M{"_id": id})
}

// FindUserByUsername finds a user by their username
func (c *MongoUserCollection) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return c.findOne(ctx, bson.M{"username": username})
}

// FindUserByEmail finds a user by their email
func (c *MongoUserCollection) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return c.findOne(ctx, bson.M{"email": email})
}

// UpdateUser updates a user in the database
func (c *MongoUserCollection) UpdateUser(ctx context.Context, id int64, user models.User) error {
	if c.Collection == nil {
		return errNilCollection
	}
	result, err := c.Collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"username":      user.Username,
		"email":         user.Email,
		"password_hash": user.PasswordHash,
		"role":          user.Role,
		"is_active":     user.IsActive,
		"updated_at":    time.Now().UTC(),
	}})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateLastLogin updates the last login time for a user
func (c *MongoUserCollection) UpdateLastLogin(ctx context.Context, id int64) error {
	if c.Collection == nil {
		return errNilCollection
	}
	now := time.Now().UTC()
	result, err := c.Collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"last_login": now, "updated_at": now}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// FindUsers lists every account ordered by id
func (c *MongoUserCollection) FindUsers(ctx context.Context) ([]models.User, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	cursor, err := c.Collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// SetRefreshToken stores a refresh token digest, or removes it when digest is empty
func (c *MongoUserCollection) SetRefreshToken(ctx context.Context, id int64, digest string, expiresAt *time.Time) error {
	if c.Collection == nil {
		return errNilCollection
	}
	update := bson.M{"$unset": bson.M{"refresh_token_hash": "", "refresh_token_expires_at": ""}}
	if digest != "" {
		set := bson.M{"refresh_token_hash": digest}
		if expiresAt != nil {
			set["refresh_token_expires_at"] = expiresAt.UTC()
		}
		update = bson.M{"$set": set}
	}
	result, err := c.Collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// FindUserByRefreshToken finds the user holding a refresh token digest
func (c *MongoUserCollection) FindUserByRefreshToken(ctx context.Context, digest string) (*models.User, error) {
	if digest == "" {
		return nil, ErrNotFound
	}
	return c.findOne(ctx, bson.M{"refresh_token_hash": digest})
}

// CountUsers returns the number of registered users
func (c *MongoUserCollection) CountUsers(ctx context.Context) (int64, error) {
	if c.Collection == nil {
		return 0, errNilCollection
	}
	return c.Collection.CountDocuments(ctx, bson.M{})
}
