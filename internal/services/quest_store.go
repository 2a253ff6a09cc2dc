package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"strive/internal/database"
	"strive/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// QuestStore is the MongoDB QuestRepository
type QuestStore struct {
	db           *database.MongoDB
	collection   *mongo.Collection
	transactions bool
}

// NewQuestStore creates a quest store. Batches are inserted inside a transaction
// when the deployment supports them.
func NewQuestStore(ctx context.Context, db *database.MongoDB) *QuestStore {
	s := &QuestStore{
		db:         db,
		collection: db.Collection(database.CollectionQuests),
	}
	s.transactions = db.SupportsTransactions(ctx)
	if !s.transactions {
		log.Println("⚠️  [QUEST] MongoDB is standalone, batch inserts use compensating deletes")
	}
	return s
}

// liveFilter matches quests that still occupy their slot at now
func liveFilter(userID string, now time.Time) bson.M {
	return bson.M{
		"userId": userID,
		"status": bson.M{"$in": []models.QuestStatus{models.QuestStatusActive, models.QuestStatusCompleted}},
		"expiry": bson.M{"$gte": now},
	}
}

// InsertBatch implements QuestRepository
func (s *QuestStore) InsertBatch(ctx context.Context, quests []models.Quest) error {
	if len(quests) == 0 {
		return nil
	}

	docs := make([]interface{}, len(quests))
	for i := range quests {
		if quests[i].ID.IsZero() {
			quests[i].ID = primitive.NewObjectID()
		}
		docs[i] = quests[i]
	}

	if s.transactions {
		err := s.db.WithTransaction(ctx, func(sessCtx mongo.SessionContext) error {
			_, err := s.collection.InsertMany(sessCtx, docs)
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to insert quest batch: %w", err)
		}
		return nil
	}

	if _, err := s.collection.InsertMany(ctx, docs); err != nil {
		// Ordered InsertMany may have written a prefix of the batch
		batchID := quests[0].BatchID
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, delErr := s.collection.DeleteMany(cleanupCtx, bson.M{"batchId": batchID}); delErr != nil {
			log.Printf("❌ [QUEST] Failed to roll back partial batch %s: %v", batchID, delErr)
		}
		return fmt.Errorf("failed to insert quest batch: %w", err)
	}
	return nil
}

// SweepExpired implements QuestRepository
func (s *QuestStore) SweepExpired(ctx context.Context, userID string, now time.Time) (int64, error) {
	return s.sweep(ctx, bson.M{"userId": userID}, now)
}

// SweepAllExpired implements QuestRepository
func (s *QuestStore) SweepAllExpired(ctx context.Context, now time.Time) (int64, error) {
	return s.sweep(ctx, bson.M{}, now)
}

func (s *QuestStore) sweep(ctx context.Context, filter bson.M, now time.Time) (int64, error) {
	filter["status"] = bson.M{"$in": []models.QuestStatus{models.QuestStatusActive, models.QuestStatusCompleted}}
	filter["expiry"] = bson.M{"$lt": now}

	result, err := s.collection.UpdateMany(ctx, filter, bson.M{
		"$set": bson.M{"status": models.QuestStatusExpired, "updatedAt": now},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to sweep expired quests: %w", err)
	}
	return result.ModifiedCount, nil
}

// CountLive implements QuestRepository
func (s *QuestStore) CountLive(ctx context.Context, userID string, duration models.QuestDuration, now time.Time) (int64, error) {
	filter := liveFilter(userID, now)
	filter["duration"] = duration

	count, err := s.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count quests: %w", err)
	}
	return count, nil
}

// ListLive implements QuestRepository
func (s *QuestStore) ListLive(ctx context.Context, userID string, duration models.QuestDuration, now time.Time) ([]models.Quest, error) {
	filter := liveFilter(userID, now)
	if duration != "" {
		filter["duration"] = duration
	}
	return s.find(ctx, filter)
}

// ListActive implements QuestRepository
func (s *QuestStore) ListActive(ctx context.Context, userID string, now time.Time) ([]models.Quest, error) {
	return s.find(ctx, bson.M{
		"userId": userID,
		"status": models.QuestStatusActive,
		"expiry": bson.M{"$gte": now},
	})
}

func (s *QuestStore) find(ctx context.Context, filter bson.M) ([]models.Quest, error) {
	opts := options.Find().SetSort(bson.D{{Key: "expiry", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list quests: %w", err)
	}
	defer cursor.Close(ctx)

	quests := []models.Quest{}
	if err := cursor.All(ctx, &quests); err != nil {
		return nil, fmt.Errorf("failed to decode quests: %w", err)
	}
	return quests, nil
}

// MarkCompleted implements QuestRepository
func (s *QuestStore) MarkCompleted(ctx context.Context, userID string, questID primitive.ObjectID, at time.Time) (bool, error) {
	result, err := s.collection.UpdateOne(ctx,
		bson.M{
			"_id":    questID,
			"userId": userID,
			"status": models.QuestStatusActive,
			"expiry": bson.M{"$gte": at},
		},
		bson.M{"$set": bson.M{
			"status":      models.QuestStatusCompleted,
			"completedAt": at,
			"updatedAt":   at,
		}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to complete quest: %w", err)
	}
	return result.ModifiedCount == 1, nil
}

// GetByID implements QuestRepository
func (s *QuestStore) GetByID(ctx context.Context, questID primitive.ObjectID) (*models.Quest, error) {
	var quest models.Quest
	err := s.collection.FindOne(ctx, bson.M{"_id": questID}).Decode(&quest)
	if err == mongo.ErrNoDocuments {
		return nil, ErrQuestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quest: %w", err)
	}
	return &quest, nil
}
