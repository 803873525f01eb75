package trackapi

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	tracksCollection  = "tracks"
	authorsCollection = "authors"
)

// Mongo is a TrackAPI backed by the tracks and authors collections of a
// MongoDB database.
type Mongo struct {
	tracks  *mongo.Collection
	authors *mongo.Collection
}

var _ TrackAPI = (*Mongo)(nil)

func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{
		tracks:  db.Collection(tracksCollection),
		authors: db.Collection(authorsCollection),
	}
}

// ConnectMongo connects to uri and returns a Mongo over database together
// with a func that disconnects the client.
func ConnectMongo(ctx context.Context, uri, database string) (*Mongo, func(context.Context) error, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("trackapi: connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("trackapi: ping mongo: %w", err)
	}
	return NewMongo(client.Database(database)), client.Disconnect, nil
}

// GetTracksForHome returns all tracks ordered by id. An empty collection
// yields an empty, non-nil slice.
func (m *Mongo) GetTracksForHome(ctx context.Context) (tracks []*Track, err error) {
	done := observe(ctx, "mongo", "getTracksForHome", m.tracks.Database().Name()+"."+tracksCollection)
	defer func() { done(0, err) }()

	cur, err := m.tracks.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("trackapi: find tracks: %w", err)
	}
	tracks = []*Track{}
	if err := cur.All(ctx, &tracks); err != nil {
		return nil, fmt.Errorf("trackapi: decode tracks: %w", err)
	}
	return tracks, nil
}

// GetAuthor returns nil when no author has the id.
func (m *Mongo) GetAuthor(ctx context.Context, authorID string) (author *Author, err error) {
	done := observe(ctx, "mongo", "getAuthor", m.authors.Database().Name()+"."+authorsCollection)
	defer func() { done(0, err) }()

	var a Author
	err = m.authors.FindOne(ctx, bson.D{{Key: "_id", Value: authorID}}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("trackapi: find author %q: %w", authorID, err)
	}
	return &a, nil
}
