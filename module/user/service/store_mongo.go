package service

import (
	"context"
	"errors"
	"sync"

	usermodel "TMProject/module/user/model"
	coderr "TMProject/tools/errs"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoUserStore struct {
	coll *mongo.Collection

	indexOnce sync.Once
	indexErr  error
}

func NewMongoUserStore(db *mongo.Database) *MongoUserStore {
	return &MongoUserStore{coll: db.Collection("users")}
}

func (s *MongoUserStore) ensureIndexes(ctx context.Context) error {
	s.indexOnce.Do(func() {
		_, s.indexErr = s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		})
	})
	return s.indexErr
}

func (s *MongoUserStore) Create(ctx context.Context, u *usermodel.User) error {
	if err := s.ensureIndexes(ctx); err != nil {
		return mongoUserErr(err)
	}
	_, err := s.coll.InsertOne(ctx, u)
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return ErrUsernameTaken
	}
	return mongoUserErr(err)
}

func (s *MongoUserStore) GetByID(ctx context.Context, id string) (*usermodel.User, error) {
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, mongoUserErr(err)
	}
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *MongoUserStore) GetByUsername(ctx context.Context, username string) (*usermodel.User, error) {
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, mongoUserErr(err)
	}
	return s.findOne(ctx, bson.M{"username": username})
}

func (s *MongoUserStore) ListOthers(ctx context.Context, me string) ([]usermodel.User, error) {
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, mongoUserErr(err)
	}
	cur, err := s.coll.Find(ctx,
		bson.M{"_id": bson.M{"$ne": me}},
		options.Find().SetSort(bson.D{{Key: "username", Value: 1}}),
	)
	if err != nil {
		return nil, mongoUserErr(err)
	}
	defer cur.Close(ctx)

	var out []usermodel.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, mongoUserErr(err)
	}
	return out, nil
}

func (s *MongoUserStore) findOne(ctx context.Context, filter bson.M) (*usermodel.User, error) {
	var u usermodel.User
	err := s.coll.FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, coderr.ErrNotFound
	}
	if err != nil {
		return nil, mongoUserErr(err)
	}
	return &u, nil
}

func mongoUserErr(err error) error {
	return coderr.ErrStorageUnavailable.WrapMsg("mongo users", "err", err)
}
