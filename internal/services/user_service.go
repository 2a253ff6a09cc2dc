package services

import (
	"context"
	"fmt"
	"time"

	"strive/internal/database"
	"strive/internal/models"

	cache "github.com/patrickmn/go-cache"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserStore is the MongoDB UserRepository
type UserStore struct {
	collection *mongo.Collection
}

// NewUserStore creates a user store
func NewUserStore(db *database.MongoDB) *UserStore {
	return &UserStore{collection: db.Collection(database.CollectionUsers)}
}

// GetByID implements UserRepository
func (s *UserStore) GetByID(ctx context.Context, userID string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	var user models.User
	err = s.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// SetUseImperial implements UserRepository
func (s *UserStore) SetUseImperial(ctx context.Context, userID string, useImperial bool) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return ErrUserNotFound
	}

	result, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"useImperial": useImperial, "updatedAt": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to update unit preference: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

// AddPoints implements UserRepository. The level is derived from the new total inside
// the same update so concurrent awards cannot leave it stale.
func (s *UserStore) AddPoints(ctx context.Context, userID string, amount int) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"strivepoints": bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$strivepoints", 0}}, amount}},
			"updatedAt":    time.Now(),
		}}},
		{{Key: "$set", Value: bson.M{
			"level": bson.M{"$toInt": bson.M{"$add": bson.A{
				bson.M{"$floor": bson.M{"$sqrt": bson.M{"$divide": bson.A{bson.M{"$max": bson.A{"$strivepoints", 0}}, 100}}}},
				1,
			}}},
		}}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user models.User
	err = s.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to add points: %w", err)
	}
	return &user, nil
}

// EnsureProfile implements UserRepository
func (s *UserStore) EnsureProfile(ctx context.Context, userID, username string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	now := time.Now()
	update := bson.M{
		"$setOnInsert": bson.M{
			"username":     username,
			"level":        1,
			"strivepoints": 0,
			"useImperial":  false,
			"createdAt":    now,
			"updatedAt":    now,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var user models.User
	if err := s.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to ensure user profile: %w", err)
	}
	return &user, nil
}

// UserService reads profiles through a short-lived cache. Quest listing reads the
// profile on every request for the unit preference.
type UserService struct {
	repo  UserRepository
	cache *cache.Cache
}

// NewUserService wraps repo with a profile cache
func NewUserService(repo UserRepository) *UserService {
	return &UserService{
		repo:  repo,
		cache: cache.New(5*time.Minute, 10*time.Minute),
	}
}

// GetByID implements UserRepository
func (s *UserService) GetByID(ctx context.Context, userID string) (*models.User, error) {
	if cached, found := s.cache.Get(userID); found {
		user := cached.(models.User)
		return &user, nil
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(userID, *user)
	return user, nil
}

// SetUseImperial implements UserRepository. The cached profile is dropped only after the
// write lands, so a concurrent read cannot re-cache the old preference.
func (s *UserService) SetUseImperial(ctx context.Context, userID string, useImperial bool) error {
	if err := s.repo.SetUseImperial(ctx, userID, useImperial); err != nil {
		return err
	}
	s.cache.Delete(userID)
	return nil
}

// AddPoints implements UserRepository
func (s *UserService) AddPoints(ctx context.Context, userID string, amount int) (*models.User, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPoints, amount)
	}
	user, err := s.repo.AddPoints(ctx, userID, amount)
	if err != nil {
		return nil, err
	}
	s.cache.Delete(userID)
	return user, nil
}

// EnsureProfile implements UserRepository
func (s *UserService) EnsureProfile(ctx context.Context, userID, username string) (*models.User, error) {
	user, err := s.repo.EnsureProfile(ctx, userID, username)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(userID, *user)
	return user, nil
}
