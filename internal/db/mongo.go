package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ukydev/proworkshop/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var errNilCollection = errors.New("mongo collection is nil")

// ConnectMongo connects to MongoDB at uri and verifies the connection.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	// Ping to verify connection
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// MongoStore implements Store with one MongoDB collection per record type.
type MongoStore struct {
	client      *mongo.Client
	database    *mongo.Database
	assets      *MongoCollection[models.Asset]
	workOrders  *MongoCollection[models.WorkOrder]
	technicians *MongoCollection[models.Technician]
	inventory   *MongoCollection[models.InventoryItem]
	schedules   *MongoCollection[models.Schedule]
	conditions  *MongoConditionCollection
	users       *MongoUserCollection
}

// NewMongoStore uses database dbName on an already connected client.
func NewMongoStore(client *mongo.Client, dbName string) *MongoStore {
	database := client.Database(dbName)
	seq := &Sequence{Collection: database.Collection("counters")}
	return &MongoStore{
		client:   client,
		database: database,
		assets: &MongoCollection[models.Asset]{
			Collection: database.Collection("assets"),
			Sequence:   seq,
			stamp: func(a *models.Asset, id int64, created, updated time.Time) {
				a.ID, a.CreatedAt, a.UpdatedAt = id, created, updated
				if a.FuelLogs == nil {
					a.FuelLogs = []models.FuelLog{}
				}
			},
		},
		workOrders: &MongoCollection[models.WorkOrder]{
			Collection: database.Collection("work_orders"),
			Sequence:   seq,
			stamp: func(w *models.WorkOrder, id int64, created, updated time.Time) {
				w.ID, w.CreatedAt, w.UpdatedAt = id, created, updated
			},
		},
		technicians: &MongoCollection[models.Technician]{
			Collection: database.Collection("technicians"),
			Sequence:   seq,
			stamp: func(t *models.Technician, id int64, created, updated time.Time) {
				t.ID, t.CreatedAt, t.UpdatedAt = id, created, updated
			},
		},
		inventory: &MongoCollection[models.InventoryItem]{
			Collection: database.Collection("inventory"),
			Sequence:   seq,
			stamp: func(i *models.InventoryItem, id int64, created, updated time.Time) {
				i.ID, i.CreatedAt, i.UpdatedAt = id, created, updated
			},
		},
		schedules: &MongoCollection[models.Schedule]{
			Collection: database.Collection("schedules"),
			Sequence:   seq,
			stamp: func(s *models.Schedule, id int64, created, updated time.Time) {
				s.ID, s.CreatedAt, s.UpdatedAt = id, created, updated
			},
		},
		conditions: &MongoConditionCollection{Collection: database.Collection("condition_readings"), Sequence: seq},
		users:      &MongoUserCollection{Collection: database.Collection("users"), Sequence: seq},
	}
}

// EnsureIndexes creates the unique and lookup indexes the store relies on.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.database.Collection("users").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("users index: %w", err)
	}
	_, err = s.database.Collection("users").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "refresh_token_hash", Value: 1}},
		Options: options.Index().SetSparse(true),
	})
	if err != nil {
		return fmt.Errorf("users refresh index: %w", err)
	}
	_, err = s.database.Collection("condition_readings").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "asset_id", Value: 1}, {Key: "recorded_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("condition_readings index: %w", err)
	}
	return nil
}

func (s *MongoStore) Assets() AssetCollection           { return s.assets }
func (s *MongoStore) WorkOrders() WorkOrderCollection   { return s.workOrders }
func (s *MongoStore) Technicians() TechnicianCollection { return s.technicians }
func (s *MongoStore) Inventory() InventoryCollection    { return s.inventory }
func (s *MongoStore) Schedules() ScheduleCollection     { return s.schedules }
func (s *MongoStore) Conditions() ConditionCollection   { return s.conditions }
func (s *MongoStore) Users() UserCollection             { return s.users }

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Sequence hands out auto-incrementing ids, one counter document per
// collection.
type Sequence struct {
	Collection *mongo.Collection
}

// Next returns the next id for name, starting at 1.
func (s *Sequence) Next(ctx context.Context, name string) (int64, error) {
	if s == nil || s.Collection == nil {
		return 0, errNilCollection
	}
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := s.Collection.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("next %s id: %w", name, err)
	}
	return counter.Seq, nil
}

// MongoCollection stores records of type T keyed by an int64 _id.
type MongoCollection[T any] struct {
	Collection *mongo.Collection
	Sequence   *Sequence
	stamp      func(record *T, id int64, createdAt, updatedAt time.Time)
}

// Insert assigns the next id and stores the record.
func (c *MongoCollection[T]) Insert(ctx context.Context, record T) (int64, error) {
	if c.Collection == nil {
		return 0, errNilCollection
	}
	id, err := c.Sequence.Next(ctx, c.Collection.Name())
	if err != nil {
		return 0, err
	}
	now := time.Now().UTC()
	c.stamp(&record, id, now, now)
	if _, err := c.Collection.InsertOne(ctx, record); err != nil {
		return 0, err
	}
	return id, nil
}

// Find returns every record in id order.
func (c *MongoCollection[T]) Find(ctx context.Context) ([]T, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	cursor, err := c.Collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	out := make([]T, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FindByID finds a record by its ID.
func (c *MongoCollection[T]) FindByID(ctx context.Context, id int64) (*T, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	var record T
	err := c.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Update replaces the stored record, keeping its id and creation time.
func (c *MongoCollection[T]) Update(ctx context.Context, id int64, record T) error {
	if c.Collection == nil {
		return errNilCollection
	}
	var existing struct {
		CreatedAt time.Time `bson:"created_at"`
	}
	err := c.Collection.FindOne(ctx, bson.M{"_id": id},
		options.FindOne().SetProjection(bson.M{"created_at": 1})).Decode(&existing)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	c.stamp(&record, id, existing.CreatedAt, time.Now().UTC())
	result, err := c.Collection.ReplaceOne(ctx, bson.M{"_id": id}, record)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete deletes a record by its ID.
func (c *MongoCollection[T]) Delete(ctx context.Context, id int64) error {
	if c.Collection == nil {
		return errNilCollection
	}
	result, err := c.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// MongoConditionCollection stores condition readings.
type MongoConditionCollection struct {
	Collection *mongo.Collection
	Sequence   *Sequence
}

// InsertReading stores a reading under the next id.
func (c *MongoConditionCollection) InsertReading(ctx context.Context, reading models.ConditionReading) (int64, error) {
	if c.Collection == nil {
		return 0, errNilCollection
	}
	id, err := c.Sequence.Next(ctx, c.Collection.Name())
	if err != nil {
		return 0, err
	}
	reading.ID = id
	reading.RecordedAt = reading.RecordedAt.UTC()
	if _, err := c.Collection.InsertOne(ctx, reading); err != nil {
		return 0, err
	}
	return id, nil
}

// FindReadings returns up to limit readings for the asset, newest first.
func (c *MongoConditionCollection) FindReadings(ctx context.Context, assetID int64, limit int) ([]models.ConditionReading, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	opts := options.Find().SetSort(bson.D{{Key: "recorded_at", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := c.Collection.Find(ctx, bson.M{"asset_id": assetID}, opts)
	if err != nil {
		return nil, err
	}
	out := make([]models.ConditionReading, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// LatestReadings returns the newest reading of each asset, by asset id.
func (c *MongoConditionCollection) LatestReadings(ctx context.Context) ([]models.ConditionReading, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "recorded_at", Value: -1}, {Key: "_id", Value: -1}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$asset_id"},
			{Key: "doc", Value: bson.D{{Key: "$first", Value: "$$ROOT"}}},
		}}},
		{{Key: "$replaceRoot", Value: bson.D{{Key: "newRoot", Value: "$doc"}}}},
		{{Key: "$sort", Value: bson.D{{Key: "asset_id", Value: 1}}}},
	}
	cursor, err := c.Collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	out := make([]models.ConditionReading, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
