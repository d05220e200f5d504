// Package mongo provides a MongoDB-backed store driver.
package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/papercomputeco/recall/pkg/memory"
)

// Collection names
const (
	CollectionMemories     = "memories"
	CollectionContextItems = "context_items"
)

// DefaultDatabase is used when the connection URI carries no database name.
const DefaultDatabase = "recall"

// Driver implements memory.Store using MongoDB.
type Driver struct {
	client   *mongo.Client
	database *mongo.Database
}

// NewDriver connects to MongoDB, verifies the connection, and ensures the
// indexes the query paths rely on.
func NewDriver(ctx context.Context, uri, database string) (*Driver, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(50).
		SetMinPoolSize(5).
		SetMaxConnIdleTime(30 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(connectCtx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	if database == "" {
		database = DefaultDatabase
	}

	d := &Driver{
		client:   client,
		database: client.Database(database),
	}

	if err := d.ensureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	return d, nil
}

func (d *Driver) ensureIndexes(ctx context.Context) error {
	if err := d.createIndexes(ctx, CollectionMemories, []mongo.IndexModel{
		{Keys: bson.D{{Key: "timestamp", Value: -1}}},
	}); err != nil {
		return fmt.Errorf("memories indexes: %w", err)
	}

	if err := d.createIndexes(ctx, CollectionContextItems, []mongo.IndexModel{
		{Keys: bson.D{{Key: "conversationId", Value: 1}, {Key: "contextType", Value: 1}}},
		{Keys: bson.D{{Key: "tags", Value: 1}}},
		{Keys: bson.D{{Key: "relevanceScore", Value: -1}, {Key: "timestamp", Value: -1}}},
	}); err != nil {
		return fmt.Errorf("context_items indexes: %w", err)
	}

	return nil
}

// createIndexes creates indexes for a collection
func (d *Driver) createIndexes(ctx context.Context, collectionName string, indexes []mongo.IndexModel) error {
	collection := d.database.Collection(collectionName)
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func (d *Driver) memories() *mongo.Collection {
	return d.database.Collection(CollectionMemories)
}

func (d *Driver) contextItems() *mongo.Collection {
	return d.database.Collection(CollectionContextItems)
}

// InsertMemory appends one memory record.
func (d *Driver) InsertMemory(ctx context.Context, rec *memory.MemoryRecord) (string, error) {
	doc := *rec
	doc.ID = uuid.NewString()

	if _, err := d.memories().InsertOne(ctx, &doc); err != nil {
		return "", fmt.Errorf("inserting memory record: %w", err)
	}
	return doc.ID, nil
}

// ListMemories returns all memory records, newest first.
func (d *Driver) ListMemories(ctx context.Context) ([]*memory.MemoryRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})

	cursor, err := d.memories().Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("listing memory records: %w", err)
	}
	defer cursor.Close(ctx)

	var recs []*memory.MemoryRecord
	if err := cursor.All(ctx, &recs); err != nil {
		return nil, fmt.Errorf("decoding memory records: %w", err)
	}
	return recs, nil
}

// ClearMemories deletes every memory record.
func (d *Driver) ClearMemories(ctx context.Context) (int64, error) {
	res, err := d.memories().DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("clearing memory records: %w", err)
	}
	return res.DeletedCount, nil
}

// InsertContextItems writes a batch of context items in a single InsertMany.
func (d *Driver) InsertContextItems(ctx context.Context, items []*memory.ContextItem) (int, error) {
	docs := make([]any, len(items))
	for i, item := range items {
		doc := *item
		doc.ID = uuid.NewString()
		docs[i] = &doc
	}

	res, err := d.contextItems().InsertMany(ctx, docs)
	if err != nil {
		return 0, fmt.Errorf("inserting context items: %w", err)
	}
	return len(res.InsertedIDs), nil
}

// InsertContextItem writes a single context item.
func (d *Driver) InsertContextItem(ctx context.Context, item *memory.ContextItem) (string, error) {
	doc := *item
	doc.ID = uuid.NewString()

	if _, err := d.contextItems().InsertOne(ctx, &doc); err != nil {
		return "", fmt.Errorf("inserting context item: %w", err)
	}
	return doc.ID, nil
}

// FindContext compiles the filter into a query document and lets MongoDB do
// the sorting and limiting.
func (d *Driver) FindContext(ctx context.Context, filter memory.ContextFilter) ([]*memory.ContextItem, error) {
	query := bson.M{}
	if filter.ConversationID != "" {
		query["conversationId"] = filter.ConversationID
	}
	if len(filter.Types) > 0 {
		query["contextType"] = bson.M{"$in": filter.Types}
	}
	if len(filter.Tags) > 0 {
		query["tags"] = bson.M{"$in": filter.Tags}
	}
	if filter.MinScore != nil {
		// $gte on a missing field matches nothing, so never-scored items
		// drop out here just as they do in the in-memory driver.
		query["relevanceScore"] = bson.M{"$gte": *filter.MinScore}
	}

	sortSpec := bson.D{{Key: "timestamp", Value: -1}}
	if filter.SortByScore {
		sortSpec = bson.D{{Key: "relevanceScore", Value: -1}, {Key: "timestamp", Value: -1}}
	}

	opts := options.Find().SetSort(sortSpec)
	if filter.Limit > 0 {
		opts = opts.SetLimit(int64(filter.Limit))
	}

	cursor, err := d.contextItems().Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("finding context items: %w", err)
	}
	defer cursor.Close(ctx)

	var items []*memory.ContextItem
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decoding context items: %w", err)
	}
	return items, nil
}

// UpdateRelevanceScore persists a new score onto one item.
func (d *Driver) UpdateRelevanceScore(ctx context.Context, id string, score float64) error {
	res, err := d.contextItems().UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"relevanceScore": score}},
	)
	if err != nil {
		return fmt.Errorf("updating relevance score: %w", err)
	}
	if res.MatchedCount == 0 {
		return memory.NotFoundError{ID: id}
	}
	return nil
}

// LinkToSummary relinks the given items to the summary in one UpdateMany.
// Ids with no matching document are skipped by the update itself.
func (d *Driver) LinkToSummary(ctx context.Context, ids []string, summaryID string) error {
	_, err := d.contextItems().UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		bson.M{"$set": bson.M{
			"contextType":     memory.TypeArchived,
			"parentContextId": summaryID,
		}},
	)
	if err != nil {
		return fmt.Errorf("linking context items to summary: %w", err)
	}
	return nil
}

// Ping checks if the database connection is alive
func (d *Driver) Ping(ctx context.Context) error {
	return d.client.Ping(ctx, readpref.Primary())
}

// Close closes the MongoDB connection.
func (d *Driver) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return d.client.Disconnect(ctx)
}
