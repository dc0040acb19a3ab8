package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// DocStore manages per-tenant document collections. Tenant documents
// are opaque to the service: they are streamed and bulk-inserted as
// raw BSON, never decoded into a schema.
type DocStore struct {
	db        *mongo.Database
	batchSize int
}

// sentinel document marker field
const metaField = "_meta"

func NewDocStore(client *mongo.Client, database string, batchSize int) *DocStore {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &DocStore{db: client.Database(database), batchSize: batchSize}
}

// Exists reports whether a collection with the given name exists.
func (s *DocStore) Exists(ctx context.Context, name string) (bool, error) {
	names, err := s.db.ListCollectionNames(ctx, bson.M{"name": name})
	if err != nil {
		return false, fmt.Errorf("list collections: %w", err)
	}
	return len(names) > 0, nil
}

// Provision creates the tenant collection with its sentinel metadata
// document. Idempotent: an existing collection is reused and never
// gets a second sentinel.
func (s *DocStore) Provision(ctx context.Context, name, orgID string) error {
	exists, err := s.Exists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	if err := s.db.CreateCollection(ctx, name); err != nil {
		// A concurrent creator winning the race is fine.
		if !isNamespaceExists(err) {
			return fmt.Errorf("create collection %q: %w", name, err)
		}
		return nil
	}

	sentinel := bson.M{
		metaField:    true,
		"org_id":     orgID,
		"created_at": time.Now().UTC(),
	}
	if _, err := s.db.Collection(name).InsertOne(ctx, sentinel); err != nil {
		return fmt.Errorf("insert sentinel into %q: %w", name, err)
	}
	return nil
}

// EnsureExists creates a bare collection if absent. Used for the
// rename target: the source's sentinel arrives with the copy, so no
// sentinel is written here.
func (s *DocStore) EnsureExists(ctx context.Context, name string) error {
	err := s.db.CreateCollection(ctx, name)
	if err != nil && !isNamespaceExists(err) {
		return fmt.Errorf("create collection %q: %w", name, err)
	}
	return nil
}

// Copy streams every document from src into dst in insertion batches,
// returning the number of documents copied. The source is only read;
// cancellation of ctx aborts between batches without touching it.
func (s *DocStore) Copy(ctx context.Context, src, dst string) (int64, error) {
	cursor, err := s.db.Collection(src).Find(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("open cursor on %q: %w", src, err)
	}
	defer cursor.Close(ctx)

	dstColl := s.db.Collection(dst)
	batch := make([]interface{}, 0, s.batchSize)
	var copied int64

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if _, err := dstColl.InsertMany(ctx, batch); err != nil {
			return fmt.Errorf("insert batch into %q: %w", dst, err)
		}
		copied += int64(len(batch))
		batch = batch[:0]
		return nil
	}

	for cursor.Next(ctx) {
		doc := make(bson.Raw, len(cursor.Current))
		copy(doc, cursor.Current)
		batch = append(batch, doc)
		if len(batch) >= s.batchSize {
			if err := flush(); err != nil {
				return copied, err
			}
		}
	}
	if err := cursor.Err(); err != nil {
		return copied, fmt.Errorf("stream %q: %w", src, err)
	}
	if err := flush(); err != nil {
		return copied, err
	}

	return copied, nil
}

// InsertBatch bulk-inserts documents into a tenant collection.
func (s *DocStore) InsertBatch(ctx context.Context, name string, docs []interface{}) error {
	if len(docs) == 0 {
		return nil
	}
	if _, err := s.db.Collection(name).InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert into %q: %w", name, err)
	}
	return nil
}

// Count returns the number of documents in a collection, sentinel
// included.
func (s *DocStore) Count(ctx context.Context, name string) (int64, error) {
	n, err := s.db.Collection(name).CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("count %q: %w", name, err)
	}
	return n, nil
}

// Drop removes a tenant collection. Dropping a non-existent collection
// is a no-op for the driver.
func (s *DocStore) Drop(ctx context.Context, name string) error {
	if err := s.db.Collection(name).Drop(ctx); err != nil {
		return fmt.Errorf("drop %q: %w", name, err)
	}
	return nil
}

// isNamespaceExists matches the server error for creating a collection
// that already exists (code 48).
func isNamespaceExists(err error) bool {
	var cmdErr mongo.CommandError
	if mongo.IsDuplicateKeyError(err) {
		return true
	}
	if errors.As(err, &cmdErr) {
		return cmdErr.Code == 48 || cmdErr.Name == "NamespaceExists"
	}
	return false
}
