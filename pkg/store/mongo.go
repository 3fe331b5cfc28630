package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Sfundo-cfc/DBD381-CodeBrew/pkg/document"
)

// Mongo adapts a MongoDB database to the Store contract. The snapshot
// guarantee is delegated to the server: one Scan is one Find cursor.
type Mongo struct {
	db *mongo.Database
}

var (
	_ Store  = &Mongo{}
	_ Writer = &Mongo{}
)

// NewMongo connects to the given URI and wraps the named database.
func NewMongo(ctx context.Context, uri, dbName string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &Mongo{db: client.Database(dbName)}, nil
}

// Close disconnects the underlying client.
func (m *Mongo) Close(ctx context.Context) error {
	return m.db.Client().Disconnect(ctx)
}

// Scan opens a cursor over the collection.
func (m *Mongo) Scan(ctx context.Context, collection string) (Iterator, error) {
	cur, err := m.db.Collection(collection).Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to scan collection %q: %w", collection, err)
	}

	return &mongoIterator{cur: cur}, nil
}

// Insert writes one document.
func (m *Mongo) Insert(ctx context.Context, collection string, doc document.Document) error {
	if _, err := m.db.Collection(collection).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert into collection %q: %w", collection, err)
	}
	return nil
}

type mongoIterator struct {
	cur *mongo.Cursor
}

func (it *mongoIterator) Next(ctx context.Context) (document.Document, bool, error) {
	if !it.cur.Next(ctx) {
		if err := it.cur.Err(); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}

	raw := make(map[string]any)
	if err := it.cur.Decode(&raw); err != nil {
		return nil, false, fmt.Errorf("failed to decode document: %w", err)
	}

	doc, err := document.AsObject(document.Normalize(fromBSON(raw)))
	if err != nil {
		return nil, false, err
	}

	return doc, true, nil
}

func (it *mongoIterator) Close(ctx context.Context) error {
	return it.cur.Close(ctx)
}

// fromBSON rewrites driver-specific BSON values into plain Go containers
// and scalars. Decoding into map[string]any leaves embedded documents as
// primitive.D, arrays as primitive.A and dates as primitive.DateTime;
// without this step they would pass through Normalize untouched and the
// pipeline would not see them as objects, lists and timestamps.
func fromBSON(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = fromBSON(e)
		}
		return out
	case primitive.D:
		out := make(map[string]any, len(val))
		for _, e := range val {
			out[e.Key] = fromBSON(e.Value)
		}
		return out
	case primitive.M:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = fromBSON(e)
		}
		return out
	case primitive.A:
		out := make([]any, 0, len(val))
		for _, e := range val {
			out = append(out, fromBSON(e))
		}
		return out
	case []any:
		out := make([]any, 0, len(val))
		for _, e := range val {
			out = append(out, fromBSON(e))
		}
		return out
	case primitive.DateTime:
		// Normalize renders time.Time as an RFC 3339 UTC string
		return val.Time()
	case primitive.Timestamp:
		return int64(val.T)
	case primitive.ObjectID:
		return val.Hex()
	case primitive.Decimal128:
		return val.String()
	case primitive.Null:
		return nil
	default:
		return v
	}
}
