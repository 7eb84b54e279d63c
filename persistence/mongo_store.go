package persistence

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/BaSui01/designflow/config"
	"github.com/BaSui01/designflow/internal/tlsutil"
	"github.com/BaSui01/designflow/preference"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"
)

// DefaultMongoCollection 默认集合名
const DefaultMongoCollection = "user_contexts"

// MongoStore 基于 MongoDB 的存储，每个用户一个文档
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     *zap.Logger
	closed     atomic.Bool
	now        func() time.Time
}

// NewMongoStore 连接 MongoDB 并确保 userId 唯一索引存在
func NewMongoStore(ctx context.Context, cfg config.MongoConfig, logger *zap.Logger) (*MongoStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo uri is required")
	}

	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.TLS {
		opts.SetTLSConfig(tlsutil.DefaultTLSConfig())
	}

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	collName := cfg.Collection
	if collName == "" {
		collName = DefaultMongoCollection
	}
	coll := client.Database(cfg.Database).Collection(collName)

	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to create userId index: %w", err)
	}

	s := &MongoStore{
		client:     client,
		collection: coll,
		logger:     logger.With(zap.String("component", "mongo_store")),
		now:        time.Now,
	}
	s.logger.Info("mongo store initialized",
		zap.String("database", cfg.Database),
		zap.String("collection", collName),
	)
	return s, nil
}

// Get 读取用户文档
func (s *MongoStore) Get(ctx context.Context, userID string) (*Record, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	if s.closed.Load() {
		return nil, ErrStoreClosed
	}

	var rec Record
	err := s.collection.FindOne(ctx, bson.D{{Key: "userId", Value: userID}}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return emptyRecord(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("mongo find context: %w", err)
	}

	rec.Preferences = preference.Canonical(rec.Preferences)
	return &rec, nil
}

// Put 以 upsert 写入快照，createdAt 仅在插入时设置
func (s *MongoStore) Put(ctx context.Context, userID string, prefs preference.Snapshot) (*Record, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	if s.closed.Load() {
		return nil, ErrStoreClosed
	}

	now := s.now().UTC()
	if prefs == nil {
		prefs = preference.Snapshot{}
	}
	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "preferences", Value: prefs},
			{Key: "updatedAt", Value: now},
		}},
		{Key: "$setOnInsert", Value: bson.D{
			{Key: "createdAt", Value: now},
		}},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var rec Record
	err := s.collection.FindOneAndUpdate(ctx, bson.D{{Key: "userId", Value: userID}}, update, opts).Decode(&rec)
	if err != nil {
		return nil, fmt.Errorf("mongo upsert context: %w", err)
	}

	rec.Preferences = preference.Canonical(rec.Preferences)
	return &rec, nil
}

// Ping 检查 MongoDB 连接
func (s *MongoStore) Ping(ctx context.Context) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}
	return s.client.Ping(ctx, nil)
}

// Close 断开连接
func (s *MongoStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
