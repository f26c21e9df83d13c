package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const draftCollection = "drafts"

// draftDoc holds the draft as JSON text. Decimal quantities have no bson
// codec, so the payload keeps the same encoding the API uses.
type draftDoc struct {
	ID        string    `bson:"_id"`
	Kind      string    `bson:"kind"`
	Key       string    `bson:"key"`
	Payload   string    `bson:"payload"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoDraftRepo keeps editor drafts in MongoDB so they survive restarts
// and are shared between instances.
type MongoDraftRepo struct {
	DB *mongo.Database
}

func NewMongoDraftRepo(db *mongo.Database) *MongoDraftRepo {
	return &MongoDraftRepo{DB: db}
}

func draftID(kind, key string) string {
	return kind + "/" + key
}

func (r *MongoDraftRepo) Load(ctx context.Context, kind, key string, v any) (bool, error) {
	var doc draftDoc
	err := r.DB.Collection(draftCollection).FindOne(ctx, bson.M{"_id": draftID(kind, key)}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, err
	}
	return true, json.Unmarshal([]byte(doc.Payload), v)
}

func (r *MongoDraftRepo) Save(ctx context.Context, kind, key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	doc := draftDoc{
		ID:        draftID(kind, key),
		Kind:      kind,
		Key:       key,
		Payload:   string(payload),
		UpdatedAt: time.Now().UTC(),
	}
	_, err = r.DB.Collection(draftCollection).ReplaceOne(ctx,
		bson.M{"_id": doc.ID},
		doc,
		options.Replace().SetUpsert(true),
	)
	return err
}

func (r *MongoDraftRepo) Delete(ctx context.Context, kind, key string) error {
	_, err := r.DB.Collection(draftCollection).DeleteOne(ctx, bson.M{"_id": draftID(kind, key)})
	return err
}
