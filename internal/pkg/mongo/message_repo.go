package mongo

import (
	"ConectaYa/internal/pkg/consts"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MessageRepo interface {
	SaveMessage(ctx context.Context, msg *Message) error
	// GetHistory 按 seq 倒序分页；clearedAt 非空时只返回水位线之后的消息
	GetHistory(ctx context.Context, convID uint64, clearedAt *time.Time, offset, limit int) ([]*Message, error)
	// MarkRead 把会话内非本人发送的未读消息全部置为已读，返回实际翻转条数
	MarkRead(ctx context.Context, convID uint64, readerID uint64) (int64, error)
	// Search 在文本消息中检索，上限 20 条
	Search(ctx context.Context, convID uint64, query string, clearedAt *time.Time) ([]*Message, error)
}

type messageRepoImpl struct {
	col *mongo.Collection
}

func NewMessageRepo(db *mongo.Database) MessageRepo {
	return &messageRepoImpl{
		col: db.Collection("messages"),
	}
}

func (s *messageRepoImpl) SaveMessage(ctx context.Context, msg *Message) error {
	res, err := s.col.InsertOne(ctx, msg)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		msg.ID = oid.Hex()
	}
	return nil
}

func (s *messageRepoImpl) GetHistory(ctx context.Context, convID uint64, clearedAt *time.Time, offset, limit int) ([]*Message, error) {
	filter := bson.M{"conversation_id": convID}
	if clearedAt != nil {
		filter["created_at"] = bson.M{"$gt": *clearedAt}
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "seq", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := s.col.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	var messages []*Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (s *messageRepoImpl) MarkRead(ctx context.Context, convID uint64, readerID uint64) (int64, error) {
	filter := bson.M{
		"conversation_id": convID,
		"sender_id":       bson.M{"$ne": readerID},
		"is_read":         false,
	}
	res, err := s.col.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"is_read": true}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (s *messageRepoImpl) Search(ctx context.Context, convID uint64, query string, clearedAt *time.Time) ([]*Message, error) {
	filter := bson.M{
		"conversation_id": convID,
		"msg_type":        MsgTypeText,
		"content":         bson.M{"$regex": primitive.Regex{Pattern: query, Options: "i"}},
	}
	if clearedAt != nil {
		filter["created_at"] = bson.M{"$gt": *clearedAt}
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "seq", Value: -1}}).
		SetLimit(consts.SearchPageSize)

	cursor, err := s.col.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	var messages []*Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}
