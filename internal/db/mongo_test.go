package db

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/proworkshop/internal/models"
)

func TestConnectMongo_BadURI(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	client, err := ConnectMongo(ctx, "mongodb://bad:uri")
	assert.Error(t, err)
	assert.Nil(t, client)
}

func TestMongoCollection_NilCollection(t *testing.T) {
	ctx := context.Background()
	coll := &MongoCollection[models.Asset]{}

	_, err := coll.Insert(ctx, models.Asset{Name: "Truck"})
	assert.ErrorIs(t, err, errNilCollection)
	_, err = coll.Find(ctx)
	assert.ErrorIs(t, err, errNilCollection)
	_, err = coll.FindByID(ctx, 1)
	assert.ErrorIs(t, err, errNilCollection)
	assert.ErrorIs(t, coll.Update(ctx, 1, models.Asset{}), errNilCollection)
	assert.ErrorIs(t, coll.Delete(ctx, 1), errNilCollection)

	conditions := &MongoConditionCollection{}
	_, err = conditions.InsertReading(ctx, models.ConditionReading{AssetID: 1})
	assert.ErrorIs(t, err, errNilCollection)

	users := &MongoUserCollection{}
	_, err = users.InsertUser(ctx, models.User{Username: "x"})
	assert.ErrorIs(t, err, errNilCollection)
	_, err = users.CountUsers(ctx)
	assert.ErrorIs(t, err, errNilCollection)
}

func TestSequence_Nil(t *testing.T) {
	var seq *Sequence
	_, err := seq.Next(context.Background(), "assets")
	assert.ErrorIs(t, err, errNilCollection)
}

// mongoTestStore connects to the database named by MONGO_URI, or skips.
func mongoTestStore(t *testing.T) *MongoStore {
	t.Helper()
	uri := os.Getenv("MONGO_URI")
	if uri == "" || uri == "uri" {
		t.Skip("MONGO_URI not set or invalid, skipping integration test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := ConnectMongo(ctx, uri)
	if err != nil {
		t.Skipf("failed to connect: %v, skipping integration test", err)
	}

	dbName := fmt.Sprintf("proworkshop_test_%d", time.Now().UnixNano())
	store := NewMongoStore(client, dbName)
	require.NoError(t, store.EnsureIndexes(ctx))
	t.Cleanup(func() {
		_ = client.Database(dbName).Drop(context.Background())
		_ = store.Close(context.Background())
	})
	return store
}

func TestMongoStore_AssetLifecycle_Integration(t *testing.T) {
	store := mongoTestStore(t)
	ctx := context.Background()
	mileage := int64(500)

	id, err := store.Assets().Insert(ctx, models.Asset{
		Name:     "Truck 1",
		Mileage:  &mileage,
		FuelLogs: []models.FuelLog{{Date: "2024-01-01", Gallons: 10}, {Date: "2024-01-08", Gallons: 15}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	second, err := store.Assets().Insert(ctx, models.Asset{Name: "Truck 2"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), second)

	got, err := store.Assets().FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Truck 1", got.Name)
	assert.Len(t, got.FuelLogs, 2)

	require.NoError(t, store.Assets().Update(ctx, id, models.Asset{Name: "Truck 1b"}))
	got, err = store.Assets().FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Truck 1b", got.Name)
	assert.Nil(t, got.Mileage)
	assert.False(t, got.CreatedAt.IsZero())

	all, err := store.Assets().Find(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, store.Assets().Delete(ctx, id))
	_, err = store.Assets().FindByID(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Assets().Delete(ctx, id), ErrNotFound)
	assert.ErrorIs(t, store.Assets().Update(ctx, id, models.Asset{}), ErrNotFound)
}

func TestMongoStore_LatestReadings_Integration(t *testing.T) {
	store := mongoTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	for i, r := range []models.ConditionReading{
		{AssetID: 1, Vibration: 1, RecordedAt: base},
		{AssetID: 1, Vibration: 2, RecordedAt: base.Add(time.Hour)},
		{AssetID: 2, Vibration: 3, RecordedAt: base},
	} {
		_, err := store.Conditions().InsertReading(ctx, r)
		require.NoError(t, err, "reading %d", i)
	}

	latest, err := store.Conditions().LatestReadings(ctx)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, 2.0, latest[0].Vibration)
	assert.Equal(t, 3.0, latest[1].Vibration)
}
