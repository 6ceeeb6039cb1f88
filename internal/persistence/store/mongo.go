package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/inkroom/inkroom/internal/domain"
	"github.com/inkroom/inkroom/internal/persistence/db"
)

// MongoRoomStore is the durable domain.RoomStore backed by the rooms
// collection.
type MongoRoomStore struct {
	db *mongo.Database
}

func NewMongoRoomStore(database *mongo.Database) *MongoRoomStore {
	return &MongoRoomStore{
		db: database,
	}
}

func (s *MongoRoomStore) Save(ctx context.Context, room *domain.Room) error {
	collection := s.db.Collection(db.RoomsCollection)

	filter := bson.M{"roomId": room.ID}
	opts := options.Replace().SetUpsert(true)

	_, err := collection.ReplaceOne(ctx, filter, room, opts)
	return err
}

func (s *MongoRoomStore) Load(ctx context.Context, roomID string) (*domain.Room, error) {
	collection := s.db.Collection(db.RoomsCollection)

	var room domain.Room
	err := collection.FindOne(ctx, bson.M{"roomId": roomID}).Decode(&room)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, err
	}

	return &room, nil
}

func (s *MongoRoomStore) Delete(ctx context.Context, roomID string) error {
	collection := s.db.Collection(db.RoomsCollection)

	_, err := collection.DeleteOne(ctx, bson.M{"roomId": roomID})
	return err
}

func (s *MongoRoomStore) ListPublic(ctx context.Context, limit int) ([]domain.Room, error) {
	collection := s.db.Collection(db.RoomsCollection)

	filter := bson.M{"isPrivate": false}
	opts := options.Find().
		SetSort(bson.D{{Key: "updatedAt", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rooms []domain.Room
	if err := cursor.All(ctx, &rooms); err != nil {
		return nil, err
	}

	return rooms, nil
}

func (s *MongoRoomStore) EnsureIndexes(ctx context.Context) error {
	collection := s.db.Collection(db.RoomsCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "roomId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "isPrivate", Value: 1},
				{Key: "updatedAt", Value: -1},
			},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
