package reply

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ( // Interfaces
	IMongoCollection interface {
		FindOne(context.Context, interface{}, ...*options.FindOneOptions) IMongoSingleResult
		FindOneAndUpdate(context.Context, interface{}, interface{}, ...*options.FindOneAndUpdateOptions) IMongoSingleResult
		CountDocuments(context.Context, interface{}, ...*options.CountOptions) (int64, error)
	}

	IMongoSingleResult interface {
		Decode(interface{}) error
		Err() error
	}
)

type ( // Structs
	MongoCollection struct {
		Coll *mongo.Collection
	}

	MongoSingleResult struct{ res *mongo.SingleResult }
)

func NewMongoCollection(coll *mongo.Collection) *MongoCollection {
	return &MongoCollection{Coll: coll}
}

// MongoSingleResult

func (sr *MongoSingleResult) Decode(v interface{}) error {
	return sr.res.Decode(v)
}

func (sr *MongoSingleResult) Err() error {
	return sr.res.Err()
}

// MongoCollection

func (col *MongoCollection) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) IMongoSingleResult {
	return &MongoSingleResult{res: col.Coll.FindOne(ctx, filter, opts...)}
}

func (col *MongoCollection) FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}, opts ...*options.FindOneAndUpdateOptions) IMongoSingleResult {
	return &MongoSingleResult{res: col.Coll.FindOneAndUpdate(ctx, filter, update, opts...)}
}

func (col *MongoCollection) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return col.Coll.CountDocuments(ctx, filter, opts...)
}
