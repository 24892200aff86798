package message

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	chatmodel "TMProject/module/chat/model"
	coderr "TMProject/tools/errs"
	"TMProject/tools/ids"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	convCollName = "chat_conversations"
	msgCollName  = "chat_messages"
)

// MongoStore 与 PgStore 行为等价的 Mongo 后端。
// 唯一索引 {participant_a, participant_b} 承担会话对去重；
// Seq 用会话文档上的 $inc 原子分配（单文档更新即会话级串行点）。
type MongoStore struct {
	convColl *mongo.Collection
	msgColl  *mongo.Collection

	indexOnce sync.Once
	indexErr  error
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		convColl: db.Collection(convCollName),
		msgColl:  db.Collection(msgCollName),
	}
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	s.indexOnce.Do(func() {
		_, s.indexErr = s.convColl.Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys: bson.D{
				{Key: "participant_a", Value: 1},
				{Key: "participant_b", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		})
		if s.indexErr != nil {
			return
		}
		_, s.indexErr = s.msgColl.Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys: bson.D{
				{Key: "conversation_id", Value: 1},
				{Key: "seq", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		})
	})
	return s.indexErr
}

func (s *MongoStore) FindOrCreate(ctx context.Context, userA, userB string) (*chatmodel.Conversation, error) {
	lo, hi, err := chatmodel.CanonicalPair(userA, userB)
	if err != nil {
		return nil, err
	}
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, mongoErr(err)
	}

	c := chatmodel.Conversation{
		ID:           uuid.NewString(),
		ParticipantA: lo,
		ParticipantB: hi,
		CreatedAtMS:  time.Now().UnixMilli(),
	}
	_, err = s.convColl.InsertOne(ctx, c)
	if err == nil {
		return &c, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return nil, mongoErr(err)
	}

	// 重复键 = 对端刚创建；回读已有文档
	var out chatmodel.Conversation
	err = s.convColl.FindOne(ctx, bson.M{"participant_a": lo, "participant_b": hi}).Decode(&out)
	if err != nil {
		return nil, mongoErr(err)
	}
	return &out, nil
}

func (s *MongoStore) Get(ctx context.Context, conversationID string) (*chatmodel.Conversation, error) {
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, mongoErr(err)
	}
	var out chatmodel.Conversation
	err := s.convColl.FindOne(ctx, bson.M{"_id": conversationID}).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, coderr.ErrNotFound.WithDetail("conversation " + conversationID)
	}
	if err != nil {
		return nil, mongoErr(err)
	}
	return &out, nil
}

func (s *MongoStore) Append(ctx context.Context, conversationID, senderID, content string) (*chatmodel.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, coderr.ErrEmptyContent
	}
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, mongoErr(err)
	}

	// 先校验参与者，再 $inc 领 seq；$max 保证时间戳单调不减
	conv, err := s.Get(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(senderID) {
		return nil, ErrNotAParticipant
	}

	now := time.Now().UnixMilli()
	res := s.convColl.FindOneAndUpdate(ctx,
		bson.M{"_id": conversationID},
		bson.M{
			"$inc": bson.M{"max_seq": 1},
			"$max": bson.M{"last_msg_at_ms": now},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var after chatmodel.Conversation
	if err := res.Decode(&after); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, coderr.ErrNotFound.WithDetail("conversation " + conversationID)
		}
		return nil, mongoErr(err)
	}

	m := chatmodel.Message{
		ID:             ids.GenerateString(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		Seq:            after.MaxSeq,
		CreatedAtMS:    after.LastMsgAtMS,
	}
	if _, err := s.msgColl.InsertOne(ctx, m); err != nil {
		// 插入失败只会留下一个 seq 空洞，不影响已存消息的顺序
		return nil, mongoErr(err)
	}
	return &m, nil
}

func (s *MongoStore) List(ctx context.Context, conversationID string) ([]chatmodel.Message, error) {
	if _, err := s.Get(ctx, conversationID); err != nil {
		return nil, err
	}
	cur, err := s.msgColl.Find(ctx,
		bson.M{"conversation_id": conversationID},
		options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}),
	)
	if err != nil {
		return nil, mongoErr(err)
	}
	defer cur.Close(ctx)

	var out []chatmodel.Message
	if err := cur.All(ctx, &out); err != nil {
		return nil, mongoErr(err)
	}
	return out, nil
}

func (s *MongoStore) MarkRead(ctx context.Context, conversationID, readerID string) (int64, error) {
	if _, err := s.Get(ctx, conversationID); err != nil {
		return 0, err
	}
	res, err := s.msgColl.UpdateMany(ctx,
		bson.M{
			"conversation_id":   conversationID,
			"sender_id":         bson.M{"$ne": readerID},
			"read_by_recipient": false,
		},
		bson.M{"$set": bson.M{"read_by_recipient": true}},
	)
	if err != nil {
		return 0, mongoErr(err)
	}
	return res.ModifiedCount, nil
}

func (s *MongoStore) LastMessage(ctx context.Context, conversationID string) (*chatmodel.Message, error) {
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, mongoErr(err)
	}
	var m chatmodel.Message
	err := s.msgColl.FindOne(ctx,
		bson.M{"conversation_id": conversationID},
		options.FindOne().SetSort(bson.D{{Key: "seq", Value: -1}}),
	).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, mongoErr(err)
	}
	return &m, nil
}

func (s *MongoStore) CountUnread(ctx context.Context, conversationID, userID string) (int64, error) {
	if err := s.ensureIndexes(ctx); err != nil {
		return 0, mongoErr(err)
	}
	n, err := s.msgColl.CountDocuments(ctx, bson.M{
		"conversation_id":   conversationID,
		"sender_id":         bson.M{"$ne": userID},
		"read_by_recipient": false,
	})
	if err != nil {
		return 0, mongoErr(err)
	}
	return n, nil
}

func (s *MongoStore) ListByUser(ctx context.Context, userID string) ([]chatmodel.Conversation, error) {
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, mongoErr(err)
	}
	cur, err := s.convColl.Find(ctx, bson.M{"$or": bson.A{
		bson.M{"participant_a": userID},
		bson.M{"participant_b": userID},
	}})
	if err != nil {
		return nil, mongoErr(err)
	}
	defer cur.Close(ctx)

	var out []chatmodel.Conversation
	if err := cur.All(ctx, &out); err != nil {
		return nil, mongoErr(err)
	}
	return out, nil
}

func mongoErr(err error) error {
	return coderr.ErrStorageUnavailable.WrapMsg("mongo", "err", err)
}
